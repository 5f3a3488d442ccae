package main

import (
	"github.com/Sternrassler/query-cache/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:   "query-cache",
		Short: "Cache-aside product query service",
		Long: `query-cache answers product lookups by product_id or display-name fragment.
Results are served from Redis while fresh and loaded from MongoDB otherwise.

Configuration is read from defaults, an optional config file, QUERY_CACHE_*
environment variables and flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to a config file (yaml, json or toml)")

	root.AddCommand(
		newServeCmd(v),
		newKeyCmd(),
	)
	return root
}

// bindFlag binds a command flag to a viper key, ignoring unknown flags.
func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}
