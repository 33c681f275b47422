package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/dump"
	"github.com/symkeep/symkeep/internal/dumpcache"
)

var indexCmd = &cobra.Command{
	Use:   "index <snapshot>",
	Short: "Index a metadata snapshot and cache the result",
	Long: `Run the linear index pass over a dump snapshot, recording one
lightweight record per type (name, namespace, module, kind, base type,
flags, line number). Member detail is never parsed here; it is loaded
lazily per type when needed.

The result is cached under .symkeep/index.db so later commands reopen the
snapshot without rescanning it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		fmt.Printf("Indexing snapshot: %s\n", args[0])
		ix, err := dump.BuildIndex(args[0])
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		cache, err := dumpcache.Open(projectDir)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer cache.Close()

		if err := cache.SaveIndex(ix); err != nil {
			return fmt.Errorf("caching index: %w", err)
		}

		fmt.Println()
		fmt.Printf("Indexing complete!\n")
		fmt.Printf("  Types:    %d\n", ix.Count())
		fmt.Printf("  Modules:  %d\n", len(ix.Modules()))
		fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Cache:    %s\n", cache.DBPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
