package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/config"
)

var (
	cfgFile    string
	projectDir string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "symkeep",
	Short: "symkeep - keep friendly names for obfuscated symbols across rebuilds",
	Long: `symkeep tracks human-assigned friendly names for obfuscated runtime
symbols. It derives rebuild-stable fingerprints from a symbol's structure,
stores name mappings keyed by those fingerprints, and re-verifies them
against a fresh metadata snapshot after every rebuild.

Typical flow: index a snapshot, assign friendly names to obfuscated types
and members, rebuild the target, index the new snapshot, then verify to
re-discover the renamed symbols.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./symkeep.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", ".", "project directory holding the .symkeep cache")
}

func GetConfig() *config.Config {
	return cfg
}
