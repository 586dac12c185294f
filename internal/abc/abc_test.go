package abc

import (
	"bytes"
	"testing"

	"swfdec/internal/bitio"
)

// u30 encodes x using the same varint scheme the parser decodes.
func u30(x uint32) []byte {
	var out []byte
	for {
		b := byte(x & 0x7F)
		x >>= 7
		if x != 0 {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		return out
	}
}

// emptyConstantPool writes six zero counts: ints, uints, doubles,
// strings, namespaces, namespace-sets — the minimal valid constant pool.
func emptyConstantPool() []byte {
	var buf bytes.Buffer
	for i := 0; i < 6; i++ {
		buf.Write(u30(0))
	}
	return buf.Bytes()
}

func minimalABC() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x10, 0x00, 0x2E, 0x00}) // minor=16, major=46
	buf.Write(emptyConstantPool())
	buf.Write(u30(0)) // multiname count
	buf.Write(u30(0)) // method count
	buf.Write(u30(0)) // metadata count
	buf.Write(u30(0)) // class count
	buf.Write(u30(0)) // script count
	buf.Write(u30(0)) // method body count
	return buf.Bytes()
}

func TestParseMinimalABC(t *testing.T) {
	f, err := Parse(minimalABC())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.MinorVersion != 16 || f.MajorVersion != 46 {
		t.Errorf("version = %d.%d, want 16.46", f.MajorVersion, f.MinorVersion)
	}
	if len(f.Methods) != 0 || len(f.Classes) != 0 {
		t.Errorf("expected empty tables, got methods=%d classes=%d", len(f.Methods), len(f.Classes))
	}
}

func TestParseSkipsDoABCHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00}) // flags=1
	buf.WriteString("FlashClass\x00")
	buf.Write(minimalABC())

	f, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse with DoABC header: %v", err)
	}
	if f.MinorVersion != 16 || f.MajorVersion != 46 {
		t.Errorf("version = %d.%d, want 16.46", f.MajorVersion, f.MinorVersion)
	}
}

func TestParseConstantPoolStrings(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00}) // version
	buf.Write(u30(0))                          // ints
	buf.Write(u30(0))                          // uints
	buf.Write(u30(0))                          // doubles
	buf.Write(u30(2))                          // strings: index 0 reserved, 1 entry
	buf.Write(u30(5))
	buf.WriteString("hello")
	buf.Write(u30(0)) // namespaces
	buf.Write(u30(0)) // namespace sets
	buf.Write(u30(0)) // multinames
	buf.Write(u30(0)) // methods
	buf.Write(u30(0)) // metadata
	buf.Write(u30(0)) // classes
	buf.Write(u30(0)) // scripts
	buf.Write(u30(0)) // bodies

	f, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.ConstantPool.Strings) != 2 || f.ConstantPool.Strings[1] != "hello" {
		t.Errorf("strings = %v, want [\"\", \"hello\"]", f.ConstantPool.Strings)
	}
}

func TestReadMultinameQName(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(MultinameQName)
	buf.Write(u30(3)) // ns index
	buf.Write(u30(7)) // name index
	mn, err := readMultiname(bitio.New(buf.Bytes()))
	if err != nil {
		t.Fatalf("readMultiname: %v", err)
	}
	if mn.NsIndex != 3 || mn.NameIndex != 7 {
		t.Errorf("multiname = %+v, want ns=3 name=7", mn)
	}
}

func TestReadMultinameUnknownKindErrors(t *testing.T) {
	_, err := readMultiname(bitio.New([]byte{0xFE}))
	if err == nil {
		t.Fatal("expected error for unknown multiname kind")
	}
}

func TestReadTraitMethodKind(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(u30(1)) // trait count = 1
	buf.Write(u30(9)) // name
	buf.WriteByte(TraitMethod)
	buf.Write(u30(0)) // disp_id
	buf.Write(u30(42)) // method index

	traits, err := readTraits(bitio.New(buf.Bytes()))
	if err != nil {
		t.Fatalf("readTraits: %v", err)
	}
	if len(traits) != 1 || traits[0].MethodIndex != 42 {
		t.Errorf("traits = %+v, want one trait with methodIndex=42", traits)
	}
}

func TestFileNameFallsBackWhenUnresolved(t *testing.T) {
	f := &File{
		ConstantPool: ConstantPool{Strings: []string{""}},
		Multinames:   []Multiname{{}, {Kind: MultinameQName, NameIndex: 99}},
	}
	if got := f.Name(1); got != "name1" {
		t.Errorf("Name(1) = %q, want %q", got, "name1")
	}
}
