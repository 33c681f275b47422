package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/dumpcache"
	"github.com/symkeep/symkeep/internal/mapping"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and mapping statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := dumpcache.Open(projectDir)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer cache.Close()

		stats, err := cache.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		fmt.Printf("Index cache\n")
		fmt.Printf("  Snapshot: %s\n", stats.Snapshot)
		fmt.Printf("  Types:    %d\n", stats.TypeCount)
		fmt.Printf("  Modules:  %d\n", stats.Modules)
		if !stats.IndexedAt.IsZero() {
			fmt.Printf("  Indexed:  %s\n", stats.IndexedAt.Format("2006-01-02 15:04:05"))
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		fmt.Printf("\nMappings (%d total)\n", store.Len())
		for _, kind := range []mapping.Kind{mapping.KindType, mapping.KindField, mapping.KindProperty, mapping.KindMethod} {
			fmt.Printf("  %-9s %d\n", kind, len(store.ByKind(kind)))
		}

		flagged := 0
		for _, m := range store.All() {
			if m.Score < 1.0 {
				flagged++
			}
		}
		if flagged > 0 {
			fmt.Printf("\n%d mappings below full confidence; run 'symkeep map list' to review\n", flagged)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
