package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// ErrMissingSignature rejects an attempt to store a mapping without its
// primary key. Unlike lookup misses, this is a contract violation and fails
// loudly.
var ErrMissingSignature = errors.New("mapping: signature is required")

// Store is an in-memory set of mappings keyed by structural signature, with
// derived indices by obfuscated and friendly name. All mutation goes through
// Store methods so the three indices can never drift apart.
//
// The store does no internal locking; callers serialize access.
type Store struct {
	path string

	bySignature  map[string]*Mapping
	byObfuscated map[string]*Mapping
	byFriendly   map[string]*Mapping
}

// NewStore creates an empty store persisting to the given file path.
func NewStore(path string) *Store {
	return &Store{
		path:         path,
		bySignature:  make(map[string]*Mapping),
		byObfuscated: make(map[string]*Mapping),
		byFriendly:   make(map[string]*Mapping),
	}
}

// Path returns the persistence file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of stored mappings.
func (s *Store) Len() int { return len(s.bySignature) }

// Set inserts or replaces the mapping stored under m.Signature, updating all
// three indices together, and stamps LastUpdated.
func (s *Store) Set(m Mapping) error {
	if m.Signature == "" {
		return ErrMissingSignature
	}
	if m.Score == 0 {
		m.Score = 1.0
	}
	m.LastUpdated = time.Now().UTC()

	if old, ok := s.bySignature[m.Signature]; ok {
		s.unindex(old)
	}

	rec := &m
	s.bySignature[rec.Signature] = rec
	if rec.ObfuscatedName != "" {
		s.byObfuscated[rec.ObfuscatedName] = rec
	}
	if rec.FriendlyName != "" {
		s.byFriendly[rec.FriendlyName] = rec
	}
	return nil
}

// Remove deletes the mapping matching key, which may be either a structural
// signature or an obfuscated name. It reports whether anything was removed.
func (s *Store) Remove(key string) bool {
	rec, ok := s.bySignature[key]
	if !ok {
		rec, ok = s.byObfuscated[key]
	}
	if !ok {
		return false
	}
	delete(s.bySignature, rec.Signature)
	s.unindex(rec)
	return true
}

// unindex drops rec from the derived indices, leaving entries that already
// point at a different record alone.
func (s *Store) unindex(rec *Mapping) {
	if cur, ok := s.byObfuscated[rec.ObfuscatedName]; ok && cur == rec {
		delete(s.byObfuscated, rec.ObfuscatedName)
	}
	if cur, ok := s.byFriendly[rec.FriendlyName]; ok && cur == rec {
		delete(s.byFriendly, rec.FriendlyName)
	}
}

// BySignature looks up a mapping by its structural signature.
func (s *Store) BySignature(signature string) (Mapping, bool) {
	if rec, ok := s.bySignature[signature]; ok {
		return *rec, true
	}
	return Mapping{}, false
}

// ByObfuscatedName looks up a mapping by the symbol's current obfuscated name.
func (s *Store) ByObfuscatedName(name string) (Mapping, bool) {
	if rec, ok := s.byObfuscated[name]; ok {
		return *rec, true
	}
	return Mapping{}, false
}

// ByFriendlyName looks up a mapping by its human-assigned name.
func (s *Store) ByFriendlyName(name string) (Mapping, bool) {
	if rec, ok := s.byFriendly[name]; ok {
		return *rec, true
	}
	return Mapping{}, false
}

// ByKind returns all mappings of one symbol kind.
func (s *Store) ByKind(kind Kind) []Mapping {
	var out []Mapping
	for _, rec := range s.bySignature {
		if rec.Kind == kind {
			out = append(out, *rec)
		}
	}
	sortMappings(out)
	return out
}

// Members returns the member mappings owned by the type with the given
// obfuscated name.
func (s *Store) Members(parentObfuscatedName string) []Mapping {
	var out []Mapping
	for _, rec := range s.bySignature {
		if rec.ParentType != "" && rec.ParentType == parentObfuscatedName {
			out = append(out, *rec)
		}
	}
	sortMappings(out)
	return out
}

// All returns every mapping, ordered deterministically.
func (s *Store) All() []Mapping {
	out := make([]Mapping, 0, len(s.bySignature))
	for _, rec := range s.bySignature {
		out = append(out, *rec)
	}
	sortMappings(out)
	return out
}

// UpdateObfuscatedName re-points the obfuscated-name index for the mapping
// stored under signature, without disturbing its signature-keyed identity.
// This is how a mapping survives a rebuild once the new name has been
// re-discovered via the signature. It reports whether the signature resolved.
func (s *Store) UpdateObfuscatedName(signature, newName string, score float64) bool {
	rec, ok := s.bySignature[signature]
	if !ok {
		return false
	}
	if cur, ok := s.byObfuscated[rec.ObfuscatedName]; ok && cur == rec {
		delete(s.byObfuscated, rec.ObfuscatedName)
	}
	rec.ObfuscatedName = newName
	rec.Score = score
	rec.LastUpdated = time.Now().UTC()
	if newName != "" {
		s.byObfuscated[newName] = rec
	}
	return true
}

// RetargetMembers rewrites the ParentType of every member mapping owned by
// oldParent to newParent, returning how many records changed. Called when a
// type mapping survives a rebuild under a new obfuscated name, so member
// records keep pointing at their owner.
func (s *Store) RetargetMembers(oldParent, newParent string) int {
	if oldParent == "" || oldParent == newParent {
		return 0
	}
	changed := 0
	for _, rec := range s.bySignature {
		if rec.ParentType == oldParent {
			rec.ParentType = newParent
			rec.LastUpdated = time.Now().UTC()
			changed++
		}
	}
	return changed
}

// SetScore records a verification score on the mapping stored under signature.
func (s *Store) SetScore(signature string, score float64) bool {
	rec, ok := s.bySignature[signature]
	if !ok {
		return false
	}
	rec.Score = score
	rec.LastUpdated = time.Now().UTC()
	return true
}

// Save writes the full record set to the store's file, replacing it whole.
// Failures are logged and reported as false; they never panic or throw.
func (s *Store) Save() bool {
	data, err := json.MarshalIndent(s.All(), "", "  ")
	if err != nil {
		log.Printf("mapping: marshal failed: %v", err)
		return false
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		log.Printf("mapping: writing %s: %v", s.path, err)
		return false
	}
	return true
}

// Load replaces the in-memory record set with the contents of the store's
// file. On any failure the prior in-memory state is left untouched and false
// is returned. A missing file is a failure, not an error condition.
func (s *Store) Load() bool {
	records, err := readMappingFile(s.path)
	if err != nil {
		log.Printf("mapping: loading %s: %v", s.path, err)
		return false
	}

	bySig := make(map[string]*Mapping, len(records))
	byObf := make(map[string]*Mapping, len(records))
	byFriendly := make(map[string]*Mapping, len(records))
	for i := range records {
		rec := &records[i]
		if rec.Signature == "" {
			continue
		}
		bySig[rec.Signature] = rec
		if rec.ObfuscatedName != "" {
			byObf[rec.ObfuscatedName] = rec
		}
		if rec.FriendlyName != "" {
			byFriendly[rec.FriendlyName] = rec
		}
	}

	s.bySignature = bySig
	s.byObfuscated = byObf
	s.byFriendly = byFriendly
	return true
}

// Import merges every record of another mapping file into the store,
// returning how many records were applied.
func (s *Store) Import(path string) (int, error) {
	records, err := readMappingFile(path)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, rec := range records {
		if err := s.Set(rec); err != nil {
			return applied, fmt.Errorf("record %q: %w", rec.FriendlyName, err)
		}
		applied++
	}
	return applied, nil
}

func readMappingFile(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Mapping
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func sortMappings(ms []Mapping) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Signature < ms[j].Signature })
}
