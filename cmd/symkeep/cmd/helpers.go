package cmd

import (
	"fmt"
	"os"

	"github.com/symkeep/symkeep/internal/dump"
	"github.com/symkeep/symkeep/internal/dumpcache"
	"github.com/symkeep/symkeep/internal/mapping"
	"github.com/symkeep/symkeep/internal/sig"
)

// openSession reconstructs a snapshot session from the project cache.
func openSession() (*dump.Session, error) {
	cache, err := dumpcache.Open(projectDir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	ix, ok, err := cache.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("no cached index; run 'symkeep index <snapshot>' first")
	}
	return dump.NewSession(ix), nil
}

// newGenerator builds a signature generator from the loaded config.
func newGenerator() *sig.Generator {
	c := GetConfig()
	norm := sig.NewNormalizer(c.Obfuscation.MinLength, c.Obfuscation.MaxLength)
	return sig.NewGenerator(norm, sig.GeneratorOptions{
		MaxFieldSegments:  c.Signatures.MaxFieldSegments,
		MaxMethodGroups:   c.Signatures.MaxMethodGroups,
		MaxPropertyGroups: c.Signatures.MaxPropertyGroups,
	})
}

// openStore opens the mapping store, loading the mapping file if it exists.
func openStore() (*mapping.Store, error) {
	path := GetConfig().MappingFile
	store := mapping.NewStore(path)
	if _, err := os.Stat(path); err == nil {
		if !store.Load() {
			return nil, fmt.Errorf("mapping file %s exists but could not be loaded", path)
		}
	}
	return store, nil
}

// saveStore persists the store, surfacing the fail-soft flag as an error for
// the CLI.
func saveStore(store *mapping.Store) error {
	if !store.Save() {
		return fmt.Errorf("saving %s failed", store.Path())
	}
	return nil
}
