package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/prq/internal/log"
	"github.com/raphi011/prq/internal/output"
	"github.com/raphi011/prq/internal/querycache"
	"github.com/raphi011/prq/internal/storage"
	"github.com/raphi011/prq/internal/table"
	"github.com/raphi011/prq/internal/ttlcache"
)

// openBridge builds a cache engine and its persistence bridge over the
// on-disk store in ~/.prq/store. The engine's background sweeper is
// disabled: these commands are one-shot processes.
func openBridge() (*ttlcache.Cache[querycache.QueryRecord], *querycache.Bridge, error) {
	dir, err := storage.Dir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve state dir: %w", err)
	}

	settings := cfg.CacheSettings()
	settings.GCInterval = -1

	cache := ttlcache.New[querycache.QueryRecord](settings)
	bridge := querycache.New(cache, querycache.Options{
		Store: storage.NewFileStore(filepath.Join(dir, "store")),
	})

	return cache, bridge, nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect and clear persisted query state",
		GroupID: GroupCache,
		Long: `Inspect and clear persisted query state.

Query results fetched by the review UI are cached with a TTL and mirrored
to ~/.prq/store so the next session starts warm. Entries past their TTL
are dropped on restore.`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show persisted queries from the last session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			cache, bridge, err := openBridge()
			if err != nil {
				return err
			}
			defer cache.Destroy()

			records, err := bridge.RestoreClient(ctx)
			if err != nil {
				return fmt.Errorf("restore cache: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(out.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				log.FromContext(ctx).Printf("No persisted queries\n")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.Hash,
					string(rec.Key),
					fmt.Sprintf("%dB", len(rec.State)),
				})
			}

			if stdoutIsTerminal() {
				out.Printf("%s", table.Render([]string{"HASH", "QUERY", "STATE"}, rows))
			} else {
				out.Printf("%s", table.RenderPlain(rows))
			}

			stats := cache.Stats()
			log.FromContext(ctx).Printf("%d live entries, %d expired on restore\n",
				stats.Entries, stats.Expirations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all persisted query state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cache, bridge, err := openBridge()
			if err != nil {
				return err
			}
			defer cache.Destroy()

			// Pull the mirror in first so namespaced keys exist to delete.
			if _, err := bridge.RestoreClient(ctx); err != nil {
				return fmt.Errorf("restore cache: %w", err)
			}
			if err := bridge.RemoveClient(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			log.FromContext(ctx).Printf("Cache cleared\n")
			return nil
		},
	}

	return cmd
}
