package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/query-cache/pkg/cache"
	"github.com/Sternrassler/query-cache/pkg/product"
	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key [payload]",
		Short: "Print the cache key of a query payload",
		Long: `Print the cache key a query payload is stored under.

Examples:
  query-cache key '{"product_id":"123"}'
  echo '{"product_display_name":"widg"}' | query-cache key`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				in = strings.NewReader(args[0])
			}

			var payload product.QueryPayload
			if err := json.NewDecoder(in).Decode(&payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			key, err := cache.DeriveKey(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
