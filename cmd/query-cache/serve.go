package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Sternrassler/query-cache/internal/config"
	"github.com/Sternrassler/query-cache/pkg/cache"
	"github.com/Sternrassler/query-cache/pkg/logging"
	"github.com/Sternrassler/query-cache/pkg/query"
	"github.com/Sternrassler/query-cache/pkg/records"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, file)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("addr", ":3000", "HTTP listen address")
	cmd.Flags().String("redis-addr", "redis:6379", "Redis address")
	cmd.Flags().String("mongo-uri", "mongodb://mongo:27017", "MongoDB connection URI")
	cmd.Flags().Duration("ttl", cache.DefaultTTL, "Freshness window of cached results")
	cmd.Flags().Bool("strict-write-back", false, "Fail requests whose cache write-back fails")
	cmd.Flags().Bool("coalesce-misses", false, "Share one record lookup between concurrent misses")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-pretty", false, "Human-readable console logs")
	cmd.Flags().Bool("trace-stdout", false, "Export trace spans to stdout")

	bindFlag(v, cmd, "http.addr", "addr")
	bindFlag(v, cmd, "redis.addr", "redis-addr")
	bindFlag(v, cmd, "mongo.uri", "mongo-uri")
	bindFlag(v, cmd, "cache.ttl", "ttl")
	bindFlag(v, cmd, "query.strict_write_back", "strict-write-back")
	bindFlag(v, cmd, "query.coalesce_misses", "coalesce-misses")
	bindFlag(v, cmd, "log.level", "log-level")
	bindFlag(v, cmd, "log.pretty", "log-pretty")
	bindFlag(v, cmd, "trace.stdout", "trace-stdout")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	_, logCloser := logging.Setup(cfg.Logging())
	defer logCloser.Close()
	logger := logging.NewLogger("server")

	shutdownTracing, err := setupTracing(cfg.Trace.Stdout, os.Stdout)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Trace exporter shutdown failed")
		}
	}()

	// Setup Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	cacheStore := cache.NewRedisStore(redisClient, cache.WithRetry(cfg.RetryPolicy()))

	// Setup MongoDB
	recordStore, err := records.Connect(ctx, cfg.Records()...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = recordStore.Close(closeCtx)
	}()

	if err := recordStore.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info().
		Str("database", cfg.Mongo.Database).
		Str("collection", cfg.Mongo.Collection).
		Msg("Connected to MongoDB")

	service, err := query.New(cacheStore, recordStore, cfg.Service())
	if err != nil {
		return fmt.Errorf("create query service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newServer(service, cacheStore, recordStore).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Dur("ttl", cfg.Cache.TTL).
			Bool("strict_write_back", cfg.Query.StrictWriteBack).
			Bool("coalesce_misses", cfg.Query.CoalesceMisses).
			Msg("Starting query server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down query server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
