package dump

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleSnapshot = `// Image 0: mscorlib.dll - 0
// Image 1: Assembly-CSharp.dll - 1

// Dll : mscorlib.dll
// Namespace: System
public abstract class Attribute // TypeDefIndex: 12
{
	// Methods

	// RVA: -1 Offset: -1
	protected void .ctor() { }
}

// Dll : Assembly-CSharp.dll
// Namespace: Game
public sealed class AXBYCZDQEF : MonoBehaviour // TypeDefIndex: 4021
{
	// Fields
	public Int32 AAAAAAAAA; // 0x10
	public Int32 BBBBBBBBB; // 0x18
	private String CCCCCCCCC; // 0x20
	public static Int32 DDDDDDDDD; // 0x0

	// Properties
	public Int32 EEEEEEEEE { get; set; }
	public Single FFFFFFFFF { get; }

	// Methods

	// RVA: 0x1800 Offset: 0x1800 VA: 0x180001800
	public Void GGGGGGGGG(Int32 amount) { }

	// RVA: 0x1900 Offset: 0x1900 VA: 0x180001900
	public static Boolean HHHHHHHHH(Int32 a, String b) { }

	// RVA: -1 Offset: -1
	public void .ctor() { }
}

// Namespace: Game
public struct IIIIIIIII // TypeDefIndex: 4022
{
	// Fields
	public Single x; // 0x0
	public Single y; // 0x4
}

// Namespace: Game
public enum JJJJJJJJJ // TypeDefIndex: 4023
{
	// Fields
	public Int32 value__; // 0x0
	public const JJJJJJJJJ Sword = 0;
}
`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.cs")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildIndex(t *testing.T) {
	ix, err := BuildIndex(writeSnapshot(t))
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if ix.Count() != 4 {
		t.Fatalf("expected 4 indexed types, got %d", ix.Count())
	}

	c, ok := ix.Find("Game", "AXBYCZDQEF")
	if !ok {
		t.Fatal("indexed class not found")
	}
	if c.Module != "Assembly-CSharp.dll" {
		t.Errorf("wrong module: %q", c.Module)
	}
	if c.Kind != KindClass || !c.Sealed || c.Abstract || c.Static {
		t.Errorf("wrong kind or flags: %+v", c)
	}
	if c.BaseType != "MonoBehaviour" {
		t.Errorf("wrong base type: %q", c.BaseType)
	}
	if c.Line == 0 {
		t.Error("declaration line not recorded")
	}

	attr, ok := ix.Find("System", "Attribute")
	if !ok {
		t.Fatal("mscorlib type not found")
	}
	if !attr.Abstract {
		t.Error("abstract flag not parsed")
	}

	if s, ok := ix.Find("Game", "IIIIIIIII"); !ok || s.Kind != KindStruct {
		t.Error("struct declaration not indexed")
	}
	if e, ok := ix.Find("Game", "JJJJJJJJJ"); !ok || e.Kind != KindEnum {
		t.Error("enum declaration not indexed")
	}
}

func TestIndexModulesFirstSeenOrder(t *testing.T) {
	ix, err := BuildIndex(writeSnapshot(t))
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	mods := ix.Modules()
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %v", mods)
	}
	if mods[0] != "mscorlib.dll" || mods[1] != "Assembly-CSharp.dll" {
		t.Errorf("wrong module order: %v", mods)
	}
}

func TestIndexFindEmptyNamespaceMatchesAny(t *testing.T) {
	ix, err := BuildIndex(writeSnapshot(t))
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if _, ok := ix.Find("", "AXBYCZDQEF"); !ok {
		t.Error("empty namespace should match any")
	}
	if _, ok := ix.Find("Wrong", "AXBYCZDQEF"); ok {
		t.Error("mismatched namespace should not resolve")
	}
	if _, ok := ix.Find("Game", "NOSUCHTYPE"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestBuildIndexMissingFile(t *testing.T) {
	if _, err := BuildIndex(filepath.Join(t.TempDir(), "nope.cs")); err == nil {
		t.Fatal("expected an error for a missing snapshot")
	}
}

func TestLoadTypeDetails(t *testing.T) {
	ix, err := BuildIndex(writeSnapshot(t))
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	ti, ok := ix.Find("Game", "AXBYCZDQEF")
	if !ok {
		t.Fatal("type not found")
	}

	def, err := ix.LoadTypeDetails(ti)
	if err != nil {
		t.Fatalf("LoadTypeDetails failed: %v", err)
	}

	if len(def.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d: %+v", len(def.Fields), def.Fields)
	}
	f := def.Fields[0]
	if f.Name != "AAAAAAAAA" || f.Type != "Int32" || f.Offset != 0x10 || f.Static {
		t.Errorf("first field misparsed: %+v", f)
	}
	if !def.Fields[3].Static {
		t.Error("static field flag not parsed")
	}

	if len(def.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(def.Properties))
	}
	p := def.Properties[0]
	if p.Name != "EEEEEEEEE" || p.Type != "Int32" || !p.HasGetter || !p.HasSetter {
		t.Errorf("read-write property misparsed: %+v", p)
	}
	if ro := def.Properties[1]; !ro.HasGetter || ro.HasSetter {
		t.Errorf("read-only property misparsed: %+v", ro)
	}

	if len(def.Methods) != 3 {
		t.Fatalf("expected 3 methods, got %d", len(def.Methods))
	}
	m := def.Methods[0]
	if m.Name != "GGGGGGGGG" || m.ReturnType != "Void" {
		t.Errorf("method misparsed: %+v", m)
	}
	if len(m.Params) != 1 || m.Params[0].Type != "Int32" || m.Params[0].Name != "amount" {
		t.Errorf("parameters misparsed: %+v", m.Params)
	}
	if !m.HasAddress || m.RVA != 0x1800 || m.VA != 0x180001800 {
		t.Errorf("method address misparsed: %+v", m)
	}
	if st := def.Methods[1]; !st.Static || len(st.Params) != 2 {
		t.Errorf("static method misparsed: %+v", st)
	}
	if ctor := def.Methods[2]; ctor.Name != ".ctor" || ctor.HasAddress {
		t.Errorf("bodyless constructor misparsed: %+v", ctor)
	}
}

func TestLoadTypeDetailsStopsAtTypeEnd(t *testing.T) {
	ix, err := BuildIndex(writeSnapshot(t))
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	ti, ok := ix.Find("Game", "IIIIIIIII")
	if !ok {
		t.Fatal("type not found")
	}
	def, err := ix.LoadTypeDetails(ti)
	if err != nil {
		t.Fatalf("LoadTypeDetails failed: %v", err)
	}
	// The enum that follows in the file must not bleed into this struct.
	if len(def.Fields) != 2 {
		t.Errorf("expected 2 fields, got %+v", def.Fields)
	}
	if len(def.Methods) != 0 {
		t.Errorf("expected no methods, got %+v", def.Methods)
	}
}
