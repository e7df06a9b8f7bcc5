package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/stagecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Stage cache utilities",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show stage cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache := stagecache.New(cfg.Paths.CacheDir, false, logging.NewNop())
			stats, err := cache.Stats()
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache dir:  %s\n", cfg.Paths.CacheDir)
			fmt.Fprintf(out, "Enabled:    %s\n", yesNo(cfg.Cache.Enabled))
			fmt.Fprintf(out, "Namespaces: %d\n", stats.Namespaces)
			fmt.Fprintf(out, "Payloads:   %d\n", stats.Payloads)
			fmt.Fprintf(out, "Size:       %d bytes\n", stats.TotalBytes)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached stage payloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache := stagecache.New(cfg.Paths.CacheDir, false, logging.NewNop())
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stage cache cleared")
			return nil
		},
	})

	return cacheCmd
}
