// Package abc parses the constant-pool/class/method-body container a
// DoABC tag carries: a self-contained bytecode unit describing every
// class, script, and method body a compiled class library exports. It
// does not interpret the bytecode itself — that is internal/decompile's
// job, operating on the MethodBody slices this package produces.
package abc

import (
	"fmt"
	"math"

	"swfdec/internal/bitio"
	"swfdec/internal/swfprim"
)

// ConstantPool holds the four literal tables every multiname, method, and
// instruction operand indexes into. Index 0 is reserved (the "no value"
// sentinel) in every table except Strings, where it's the empty string —
// both conventions carried over unchanged from the wire format.
type ConstantPool struct {
	Ints    []int32
	Uints   []uint32
	Doubles []float64
	Strings []string
}

// Namespace is one entry of the namespace table: a kind byte (package,
// protected, private, and friends) plus the string-pool index of its name.
type Namespace struct {
	Kind byte
	Name uint32
}

func readU30(r *bitio.Reader) (uint32, error) {
	return swfprim.ReadU30(r)
}

func readString(r *bitio.Reader) (string, error) {
	return swfprim.ReadString(r, r.ReadBytes)
}

// parseConstantPool reads the int/uint/double/string/namespace/
// namespace-set tables in wire order. Namespace sets are read only to
// advance the cursor correctly — nothing in this toolchain resolves a
// multiname's namespace through its set, so their contents are discarded.
func parseConstantPool(r *bitio.Reader) (ConstantPool, []Namespace, error) {
	var cp ConstantPool

	ic, err := readCount(r, "integer pool")
	if err != nil {
		return cp, nil, err
	}
	cp.Ints = make([]int32, ic)
	for i := uint32(1); i < ic; i++ {
		v, err := readU30(r)
		if err != nil {
			return cp, nil, err
		}
		cp.Ints[i] = int32(v)
	}

	uc, err := readCount(r, "uint pool")
	if err != nil {
		return cp, nil, err
	}
	cp.Uints = make([]uint32, uc)
	for i := uint32(1); i < uc; i++ {
		v, err := readU30(r)
		if err != nil {
			return cp, nil, err
		}
		cp.Uints[i] = v
	}

	dc, err := readCount(r, "double pool")
	if err != nil {
		return cp, nil, err
	}
	cp.Doubles = make([]float64, dc)
	for i := uint32(1); i < dc; i++ {
		r.AlignToByte()
		cp.Doubles[i] = readFloat64LE(r)
	}

	sc, err := readCount(r, "string pool")
	if err != nil {
		return cp, nil, err
	}
	cp.Strings = make([]string, sc)
	for i := uint32(1); i < sc; i++ {
		s, err := readString(r)
		if err != nil {
			return cp, nil, err
		}
		cp.Strings[i] = s
	}

	nsc, err := readCount(r, "namespaces")
	if err != nil {
		return cp, nil, err
	}
	namespaces := make([]Namespace, nsc)
	for i := uint32(1); i < nsc; i++ {
		namespaces[i].Kind = r.ReadByte()
		kindVal, err := readU30(r)
		if err != nil {
			return cp, nil, err
		}
		namespaces[i].Name = kindVal
	}

	nssc, err := readCount(r, "namespace sets")
	if err != nil {
		return cp, nil, err
	}
	for i := uint32(1); i < nssc; i++ {
		cnt, err := readU30(r)
		if err != nil {
			return cp, nil, err
		}
		for j := uint32(0); j < cnt; j++ {
			if _, err := readU30(r); err != nil {
				return cp, nil, err
			}
		}
	}

	return cp, namespaces, nil
}

func readCount(r *bitio.Reader, what string) (uint32, error) {
	n, err := readU30(r)
	if err != nil {
		return 0, fmt.Errorf("abc: %s count: %w", what, err)
	}
	if err := swfprim.CheckCount(n); err != nil {
		return 0, fmt.Errorf("abc: %s: %w", what, err)
	}
	return n, nil
}

func readFloat64LE(r *bitio.Reader) float64 {
	bits := uint64(0)
	for i := 0; i < 8; i++ {
		bits |= uint64(r.ReadByte()) << (8 * i)
	}
	return math.Float64frombits(bits)
}
