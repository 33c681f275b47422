package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "mappings.json"))
}

func mustSet(t *testing.T, s *Store, m Mapping) {
	t.Helper()
	if err := s.Set(m); err != nil {
		t.Fatalf("Set(%q): %v", m.FriendlyName, err)
	}
}

func TestSetIndexesAllThreeWays(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{
		ObfuscatedName: "AXBYCZDQEF",
		FriendlyName:   "PlayerController",
		Signature:      "sealed:class:MonoBehaviour|Int32@0x10|-|-",
		Kind:           KindType,
	})

	if _, ok := s.BySignature("sealed:class:MonoBehaviour|Int32@0x10|-|-"); !ok {
		t.Error("signature index miss")
	}
	if _, ok := s.ByObfuscatedName("AXBYCZDQEF"); !ok {
		t.Error("obfuscated-name index miss")
	}
	m, ok := s.ByFriendlyName("PlayerController")
	if !ok {
		t.Fatal("friendly-name index miss")
	}
	if m.Score != 1.0 {
		t.Errorf("new mapping should default to full confidence, got %v", m.Score)
	}
	if m.LastUpdated.IsZero() {
		t.Error("Set must stamp LastUpdated")
	}
}

func TestSetRequiresSignature(t *testing.T) {
	s := testStore(t)
	err := s.Set(Mapping{ObfuscatedName: "AXBYCZDQEF", FriendlyName: "Thing"})
	if !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
	if s.Len() != 0 {
		t.Error("rejected mapping must not be stored")
	}
}

func TestSetReplaceReindexes(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{
		ObfuscatedName: "AXBYCZDQEF",
		FriendlyName:   "OldName",
		Signature:      "sig-1",
		Kind:           KindType,
	})
	mustSet(t, s, Mapping{
		ObfuscatedName: "AXBYCZDQEF",
		FriendlyName:   "NewName",
		Signature:      "sig-1",
		Kind:           KindType,
	})

	if s.Len() != 1 {
		t.Fatalf("replace must not grow the store, have %d", s.Len())
	}
	if _, ok := s.ByFriendlyName("OldName"); ok {
		t.Error("stale friendly-name entry survived the replace")
	}
	if m, ok := s.ByFriendlyName("NewName"); !ok || m.Signature != "sig-1" {
		t.Error("replacement not reachable under the new friendly name")
	}
}

func TestRemoveBySignatureAndByObfuscatedName(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{ObfuscatedName: "AAAAAAAAAA", FriendlyName: "A", Signature: "sig-a", Kind: KindType})
	mustSet(t, s, Mapping{ObfuscatedName: "BBBBBBBBBB", FriendlyName: "B", Signature: "sig-b", Kind: KindType})

	if !s.Remove("sig-a") {
		t.Error("remove by signature failed")
	}
	if !s.Remove("BBBBBBBBBB") {
		t.Error("remove by obfuscated name failed")
	}
	if s.Remove("sig-a") {
		t.Error("removing an absent key must report false")
	}
	if s.Len() != 0 {
		t.Errorf("store should be empty, have %d", s.Len())
	}
	if _, ok := s.ByFriendlyName("A"); ok {
		t.Error("friendly index still holds a removed record")
	}
}

func TestUpdateObfuscatedName(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{
		ObfuscatedName: "OLDNAMEABC",
		FriendlyName:   "PlayerController",
		Signature:      "sig-1",
		Kind:           KindType,
	})

	if !s.UpdateObfuscatedName("sig-1", "NEWNAMEXYZ", 1.0) {
		t.Fatal("update on a known signature failed")
	}
	if s.UpdateObfuscatedName("no-such-sig", "X", 1.0) {
		t.Error("update on an unknown signature must report false")
	}

	if _, ok := s.ByObfuscatedName("OLDNAMEABC"); ok {
		t.Error("old obfuscated name still indexed")
	}
	m, ok := s.ByObfuscatedName("NEWNAMEXYZ")
	if !ok {
		t.Fatal("new obfuscated name not indexed")
	}
	if m.Signature != "sig-1" || m.FriendlyName != "PlayerController" {
		t.Errorf("identity lost across rename: %+v", m)
	}
}

func TestRetargetMembers(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{ObfuscatedName: "FIELDAAAA", FriendlyName: "health", Signature: "sig-f1", Kind: KindField, ParentType: "OLDPARENT"})
	mustSet(t, s, Mapping{ObfuscatedName: "METHODAAA", FriendlyName: "TakeDamage", Signature: "sig-m1", Kind: KindMethod, ParentType: "OLDPARENT"})
	mustSet(t, s, Mapping{ObfuscatedName: "FIELDBBBB", FriendlyName: "other", Signature: "sig-f2", Kind: KindField, ParentType: "UNRELATED"})

	if n := s.RetargetMembers("OLDPARENT", "NEWPARENT"); n != 2 {
		t.Fatalf("expected 2 retargeted members, got %d", n)
	}
	if got := len(s.Members("NEWPARENT")); got != 2 {
		t.Errorf("expected 2 members under the new parent, got %d", got)
	}
	if m, _ := s.ByFriendlyName("other"); m.ParentType != "UNRELATED" {
		t.Error("unrelated member was retargeted")
	}
	if n := s.RetargetMembers("", "X"); n != 0 {
		t.Errorf("empty old parent must be a no-op, got %d", n)
	}
}

func TestSetScore(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{ObfuscatedName: "AAAAAAAAAA", FriendlyName: "A", Signature: "sig-a", Kind: KindType})

	if !s.SetScore("sig-a", 0.42) {
		t.Fatal("SetScore on a known signature failed")
	}
	if s.SetScore("missing", 0.5) {
		t.Error("SetScore on an unknown signature must report false")
	}
	if m, _ := s.BySignature("sig-a"); m.Score != 0.42 {
		t.Errorf("score not recorded, got %v", m.Score)
	}
}

func TestByKindAndMembers(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{ObfuscatedName: "TYPEAAAAA", FriendlyName: "PlayerController", Signature: "sig-t", Kind: KindType})
	mustSet(t, s, Mapping{ObfuscatedName: "FIELDAAAA", FriendlyName: "health", Signature: "sig-f", Kind: KindField, ParentType: "TYPEAAAAA"})
	mustSet(t, s, Mapping{ObfuscatedName: "PROPAAAAA", FriendlyName: "Health", Signature: "sig-p", Kind: KindProperty, ParentType: "TYPEAAAAA"})

	if got := len(s.ByKind(KindType)); got != 1 {
		t.Errorf("expected 1 type mapping, got %d", got)
	}
	members := s.Members("TYPEAAAAA")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	for _, m := range members {
		if m.Kind == KindType {
			t.Error("Members must not include the type itself")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{
		ObfuscatedName: "AXBYCZDQEF",
		FriendlyName:   "PlayerController",
		Signature:      "sig-1",
		BytePattern:    "E8 ?? ?? ?? ?? 90",
		RVAHint:        "0x1A2B3C",
		Kind:           KindType,
		Namespace:      "Game",
		Notes:          "main player entity",
	})
	mustSet(t, s, Mapping{
		ObfuscatedName: "FIELDAAAA",
		FriendlyName:   "health",
		Signature:      "sig-2",
		Kind:           KindField,
		ParentType:     "AXBYCZDQEF",
	})
	if !s.Save() {
		t.Fatal("save failed")
	}

	loaded := NewStore(s.Path())
	if !loaded.Load() {
		t.Fatal("load failed")
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 records after load, got %d", loaded.Len())
	}
	m, ok := loaded.ByFriendlyName("PlayerController")
	if !ok {
		t.Fatal("friendly index not rebuilt on load")
	}
	if m.BytePattern != "E8 ?? ?? ?? ?? 90" || m.RVAHint != "0x1A2B3C" || m.Namespace != "Game" {
		t.Errorf("auxiliary layers lost across save/load: %+v", m)
	}
	if f, ok := loaded.ByObfuscatedName("FIELDAAAA"); !ok || f.ParentType != "AXBYCZDQEF" {
		t.Error("member record lost its parent across save/load")
	}
}

func TestLoadFailurePreservesState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.json")
	s := NewStore(path)
	mustSet(t, s, Mapping{ObfuscatedName: "AAAAAAAAAA", FriendlyName: "Keep", Signature: "sig-a", Kind: KindType})

	// Missing file.
	if s.Load() {
		t.Error("load of a missing file must report false")
	}
	if s.Len() != 1 {
		t.Error("failed load must leave the store untouched")
	}

	// Corrupt file.
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if s.Load() {
		t.Error("load of a corrupt file must report false")
	}
	if _, ok := s.ByFriendlyName("Keep"); !ok {
		t.Error("failed load must leave prior records intact")
	}
}

func TestImportMerges(t *testing.T) {
	src := testStore(t)
	mustSet(t, src, Mapping{ObfuscatedName: "AAAAAAAAAA", FriendlyName: "Imported", Signature: "sig-a", Kind: KindType})
	mustSet(t, src, Mapping{ObfuscatedName: "BBBBBBBBBB", FriendlyName: "AlsoImported", Signature: "sig-b", Kind: KindType})
	if !src.Save() {
		t.Fatal("save failed")
	}

	dst := testStore(t)
	mustSet(t, dst, Mapping{ObfuscatedName: "CCCCCCCCCC", FriendlyName: "Existing", Signature: "sig-c", Kind: KindType})

	n, err := dst.Import(src.Path())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported records, got %d", n)
	}
	if dst.Len() != 3 {
		t.Errorf("expected 3 records after import, got %d", dst.Len())
	}

	if _, err := dst.Import(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("import of a missing file must error")
	}
}

func TestAllSortedBySignature(t *testing.T) {
	s := testStore(t)
	mustSet(t, s, Mapping{ObfuscatedName: "BBBBBBBBBB", FriendlyName: "B", Signature: "sig-b", Kind: KindType})
	mustSet(t, s, Mapping{ObfuscatedName: "AAAAAAAAAA", FriendlyName: "A", Signature: "sig-a", Kind: KindType})

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].Signature != "sig-a" || all[1].Signature != "sig-b" {
		t.Errorf("All must be ordered by signature, got %q then %q", all[0].Signature, all[1].Signature)
	}
}
