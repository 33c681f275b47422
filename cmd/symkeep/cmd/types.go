package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/symkeep/symkeep/internal/dump"
	"github.com/symkeep/symkeep/internal/dumpcache"
)

var typesDetail bool

var typesCmd = &cobra.Command{
	Use:   "types [pattern]",
	Short: "List indexed types, optionally filtered by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}

		cache, err := dumpcache.Open(projectDir)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer cache.Close()

		types, err := cache.TypesMatching(pattern)
		if err != nil {
			return fmt.Errorf("querying types: %w", err)
		}
		if len(types) == 0 {
			fmt.Println("No types found. Run 'symkeep index <snapshot>' first.")
			return nil
		}

		if typesDetail {
			return printDetails(cache, types)
		}

		for _, t := range types {
			name := t.Name
			if t.FriendlyName != "" {
				name = fmt.Sprintf("%s (%s)", t.FriendlyName, t.Name)
			}
			ns := t.Namespace
			if ns == "" {
				ns = "<global>"
			}
			fmt.Printf("%-10s %-30s %s\n", t.Kind, ns, name)
		}
		fmt.Printf("\n%d types\n", len(types))
		return nil
	},
}

func printDetails(cache *dumpcache.Cache, types []dump.TypeIndex) error {
	ix, ok, err := cache.LoadIndex()
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	if !ok {
		return fmt.Errorf("cache is stale; re-run 'symkeep index'")
	}

	for i := range types {
		t, found := ix.Find(types[i].Namespace, types[i].Name)
		if !found {
			continue
		}
		def, err := ix.LoadTypeDetails(t)
		if err != nil {
			fmt.Printf("%s: %v\n", t.Name, err)
			continue
		}
		fmt.Printf("%s %s (%s, line %d)\n", t.Kind, t.Name, t.Module, t.Line)
		for _, f := range def.Fields {
			fmt.Printf("  field    %-24s %s // 0x%X\n", f.Name, f.Type, f.Offset)
		}
		for _, p := range def.Properties {
			fmt.Printf("  property %-24s %s\n", p.Name, p.Type)
		}
		for _, m := range def.Methods {
			fmt.Printf("  method   %-24s %s (%d params)\n", m.Name, m.ReturnType, len(m.Params))
		}
	}
	return nil
}

func init() {
	typesCmd.Flags().BoolVar(&typesDetail, "detail", false, "parse and print member detail for each match")
	rootCmd.AddCommand(typesCmd)
}
