package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/sig"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify every mapping against the indexed snapshot",
	Long: `Sweep all stored mappings against the currently indexed snapshot.

For each mapping the live structural signature is recomputed and scored
against the stored one. Symbols whose obfuscated name vanished in a rebuild
are re-discovered by exact signature match and re-pointed at their new
name. Mappings that drifted below the similarity threshold are flagged with
their score for human review; nothing is auto-corrected or discarded.

Interrupting the sweep (Ctrl-C) saves the partial results.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		if store.Len() == 0 {
			fmt.Println("No mappings to verify.")
			return nil
		}

		gen := newGenerator()
		c := GetConfig()
		verifier := sig.NewVerifier(gen, store, c.Verify.SimilarityThreshold, c.IsSkippedNamespace)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Printf("Verifying %d mappings (threshold %.2f)\n", store.Len(), c.Verify.SimilarityThreshold)
		result, runErr := verifier.Run(ctx, sess, func(done, total int) {
			if done%100 == 0 || done == total {
				fmt.Printf("  %d/%d\n", done, total)
			}
		})

		if err := saveStore(store); err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("Verification %s\n", sweepState(runErr))
		fmt.Printf("  Checked: %d\n", result.Checked)
		fmt.Printf("  OK:      %d\n", result.OK)
		fmt.Printf("  Renamed: %d\n", result.Renamed)
		fmt.Printf("  Flagged: %d\n", result.Flagged)
		fmt.Printf("  Missing: %d\n", result.Missing)

		for _, item := range result.Items {
			if item.Outcome == sig.OutcomeFlagged {
				fmt.Printf("  review: %s (similarity %.2f)\n", item.FriendlyName, item.Similarity)
			}
		}
		return nil
	},
}

func sweepState(err error) string {
	if err != nil {
		return "interrupted (partial results saved)"
	}
	return "complete!"
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
