package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/mapping"
	"github.com/symkeep/symkeep/internal/provider"
	"github.com/symkeep/symkeep/internal/sig"
)

var (
	mapNamespace string
	mapParent    string
	mapKind      string
	mapNotes     string
	listKind     string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Manage friendly-name mappings",
}

var mapAddCmd = &cobra.Command{
	Use:   "add <obfuscated-name> <friendly-name>",
	Short: "Assign a friendly name to an obfuscated symbol",
	Long: `Resolve the symbol in the indexed snapshot, derive its layered
signatures and store the mapping keyed by the structural signature.

Types are resolved by name (optionally scoped with --ns). Members need
--parent with the owning type's obfuscated name and --kind field, method
or property.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		obfName, friendly := args[0], args[1]

		sess, err := openSession()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		gen := newGenerator()

		m, err := buildMapping(sess, gen, obfName)
		if err != nil {
			return err
		}
		m.FriendlyName = friendly
		m.Notes = mapNotes

		if err := store.Set(*m); err != nil {
			return err
		}
		if err := saveStore(store); err != nil {
			return err
		}

		fmt.Printf("Mapped %s %s -> %s\n", m.Kind, m.ObfuscatedName, m.FriendlyName)
		fmt.Printf("  Signature: %s\n", m.Signature)
		if m.RVAHint != "" {
			fmt.Printf("  RVA hint:  %s\n", m.RVAHint)
		}
		return nil
	},
}

// buildMapping resolves obfName in the session and derives its signatures.
func buildMapping(sess provider.Session, gen *sig.Generator, obfName string) (*mapping.Mapping, error) {
	if mapParent == "" {
		c, ok := sess.FindClass(mapNamespace, obfName)
		if !ok {
			return nil, fmt.Errorf("type %q not found in snapshot", obfName)
		}
		return &mapping.Mapping{
			ObfuscatedName: obfName,
			Signature:      gen.ClassSignature(c),
			Kind:           mapping.KindType,
			Namespace:      c.Namespace(),
		}, nil
	}

	parent, ok := sess.FindClass(mapNamespace, mapParent)
	if !ok {
		return nil, fmt.Errorf("parent type %q not found in snapshot", mapParent)
	}

	m := &mapping.Mapping{
		ObfuscatedName: obfName,
		Namespace:      parent.Namespace(),
		ParentType:     mapParent,
	}

	switch mapKind {
	case "field":
		for i := 0; i < parent.FieldCount(); i++ {
			if f := parent.Field(i); f.Name() == obfName {
				m.Kind = mapping.KindField
				m.Signature = gen.FieldSignature(parent, f)
				return m, nil
			}
		}
	case "method":
		for i := 0; i < parent.MethodCount(); i++ {
			if mm := parent.Method(i); mm.Name() == obfName {
				m.Kind = mapping.KindMethod
				m.Signature = gen.MethodSignature(parent, mm)
				m.BytePattern = sig.BytePattern(sess, mm, GetConfig().Signatures.BytePatternLength)
				m.RVAHint = sig.RVAHint(sess, parent.Module(), mm)
				return m, nil
			}
		}
	case "property":
		for i := 0; i < parent.PropertyCount(); i++ {
			if p := parent.Property(i); p.Name() == obfName {
				m.Kind = mapping.KindProperty
				m.Signature = gen.PropertySignature(parent, p)
				return m, nil
			}
		}
	default:
		return nil, fmt.Errorf("--kind must be field, method or property (got %q)", mapKind)
	}
	return nil, fmt.Errorf("%s %q not found in %q", mapKind, obfName, mapParent)
}

var mapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		var all []mapping.Mapping
		if listKind != "" {
			all = store.ByKind(mapping.Kind(listKind))
		} else {
			all = store.All()
		}
		if len(all) == 0 {
			fmt.Println("No mappings stored.")
			return nil
		}

		for _, m := range all {
			flag := ""
			if m.Score < 1.0 {
				flag = fmt.Sprintf("  [score %.2f]", m.Score)
			}
			fmt.Printf("%-8s %-20s -> %s%s\n", m.Kind, m.ObfuscatedName, m.FriendlyName, flag)
		}
		fmt.Printf("\n%d mappings\n", len(all))
		return nil
	},
}

var mapRmCmd = &cobra.Command{
	Use:   "rm <signature-or-obfuscated-name>",
	Short: "Remove a mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if !store.Remove(args[0]) {
			return fmt.Errorf("no mapping found for %q", args[0])
		}
		if err := saveStore(store); err != nil {
			return err
		}
		fmt.Printf("Removed mapping %s\n", args[0])
		return nil
	},
}

var mapImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge mappings from another mapping file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		applied, err := store.Import(args[0])
		if err != nil {
			return fmt.Errorf("import failed after %d records: %w", applied, err)
		}
		if err := saveStore(store); err != nil {
			return err
		}
		fmt.Printf("Imported %d mappings from %s\n", applied, args[0])
		return nil
	},
}

func init() {
	mapAddCmd.Flags().StringVar(&mapNamespace, "ns", "", "namespace to scope the lookup")
	mapAddCmd.Flags().StringVar(&mapParent, "parent", "", "obfuscated name of the owning type (for members)")
	mapAddCmd.Flags().StringVar(&mapKind, "kind", "", "member kind: field, method or property")
	mapAddCmd.Flags().StringVar(&mapNotes, "notes", "", "free-text notes stored with the mapping")
	mapListCmd.Flags().StringVar(&listKind, "kind", "", "filter by kind: type, field, method or property")

	mapCmd.AddCommand(mapAddCmd)
	mapCmd.AddCommand(mapListCmd)
	mapCmd.AddCommand(mapRmCmd)
	mapCmd.AddCommand(mapImportCmd)
	rootCmd.AddCommand(mapCmd)
}
