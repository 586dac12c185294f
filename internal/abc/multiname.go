package abc

import (
	"errors"
	"fmt"

	"swfdec/internal/bitio"
)

// Multiname kind byte values from the wire format's tagged-union
// CONSTANT_Multiname records. The name is deliberately misleading — most
// of these are actually plain qualified names; "multiname" covers the
// whole union because one tag (0x09/0x0E) really does carry a namespace
// *set*.
const (
	MultinameQName         = 0x07
	MultinameQNameA        = 0x0D
	MultinameRTQName       = 0x0F
	MultinameRTQNameA      = 0x10
	MultinameRTQNameL      = 0x11
	MultinameRTQNameLA     = 0x12
	MultinameMultiname     = 0x09
	MultinameMultinameA    = 0x0E
	MultinameMultinameL    = 0x1B
	MultinameMultinameLA   = 0x1C
	MultinameGeneric       = 0x1D
)

// ErrUnknownMultinameKind is returned when a multiname record's kind byte
// doesn't match any of the tagged-union variants this package knows how
// to skip — a hard parse failure, since there is no way to know how many
// bytes to consume without understanding the variant.
var ErrUnknownMultinameKind = errors.New("abc: unknown multiname kind")

// Multiname is one entry of the multiname table, collapsed to the two
// fields every variant needs for name resolution: which namespace it
// lives in (when statically known) and which string-pool entry holds its
// local name. Variants that carry a namespace *set* instead of a single
// namespace, or that resolve their namespace/name at runtime, leave
// NsIndex/NameIndex zero.
type Multiname struct {
	Kind      byte
	NsIndex   uint32
	NameIndex uint32
}

// readMultinames reads the multiname table, dispatching each record by
// its kind byte to the correct tagged-union layout.
func readMultinames(r *bitio.Reader) ([]Multiname, error) {
	count, err := readCount(r, "multiname pool")
	if err != nil {
		return nil, err
	}
	multinames := make([]Multiname, count)
	for i := uint32(1); i < count; i++ {
		mn, err := readMultiname(r)
		if err != nil {
			return nil, err
		}
		multinames[i] = mn
	}
	return multinames, nil
}

func readMultiname(r *bitio.Reader) (Multiname, error) {
	var mn Multiname
	mn.Kind = r.ReadByte()

	switch mn.Kind {
	case MultinameQName, MultinameQNameA:
		ns, err := readU30(r)
		if err != nil {
			return mn, err
		}
		name, err := readU30(r)
		if err != nil {
			return mn, err
		}
		mn.NsIndex, mn.NameIndex = ns, name

	case MultinameRTQName, MultinameRTQNameA:
		name, err := readU30(r)
		if err != nil {
			return mn, err
		}
		mn.NameIndex = name

	case MultinameRTQNameL, MultinameRTQNameLA:
		// No further fields: both namespace and name are resolved at runtime.

	case MultinameMultiname, MultinameMultinameA:
		name, err := readU30(r)
		if err != nil {
			return mn, err
		}
		if _, err := readU30(r); err != nil { // ns_set index, unused
			return mn, err
		}
		mn.NameIndex = name

	case MultinameMultinameL, MultinameMultinameLA:
		if _, err := readU30(r); err != nil { // ns_set index, unused
			return mn, err
		}

	case MultinameGeneric:
		name, err := readU30(r)
		if err != nil {
			return mn, err
		}
		mn.NameIndex = name
		gcount, err := readU30(r)
		if err != nil {
			return mn, err
		}
		for j := uint32(0); j < gcount; j++ {
			if _, err := readU30(r); err != nil {
				return mn, err
			}
		}

	default:
		return mn, fmt.Errorf("%w: 0x%02x", ErrUnknownMultinameKind, mn.Kind)
	}

	return mn, nil
}
