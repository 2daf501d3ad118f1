package main

import (
	"context"
	"fmt"
	"time"

	"ratewrap/internal/config"
	"ratewrap/middleware/ratelimit/domain"
	"ratewrap/middleware/ratelimit/infra"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "inspect <key>",
		Short:   "Mostra contador e TTL restante de uma chave",
		Example: "  gateway inspect 'ratelimit:path=/api/hello:ip=127.0.0.1'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			rdb := newRedisClient(cfg.Redis)
			defer func() { _ = rdb.Close() }()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			store := infra.NewRedisCounterStore(rdb, infra.WithKeyPrefix(cfg.Redis.KeyPrefix))
			count, ttl, err := store.Peek(ctx, domain.Key(args[0]))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "key:       %s\n", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "count:     %d / %d\n", count, cfg.RateLimit.MaxCount)
			fmt.Fprintf(cmd.OutOrStdout(), "remaining: %s\n", ttl)
			return nil
		},
	}
}
