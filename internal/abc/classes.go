package abc

import (
	"errors"
	"fmt"

	"swfdec/internal/bitio"
)

// Trait kind values, the low nibble of a trait record's kind byte.
const (
	TraitSlot     = 0
	TraitMethod   = 1
	TraitGetter   = 2
	TraitSetter   = 3
	TraitClass    = 4
	TraitFunction = 5
	TraitConst    = 6
)

// traitMetadataFlag is the high bit of a trait's kind byte: when set, a
// metadata-index list follows the trait's own fields.
const traitMetadataFlag = 0x40

// ErrUnknownTraitKind is returned when a trait record's kind nibble is
// outside the six variants the wire format defines.
var ErrUnknownTraitKind = errors.New("abc: unknown trait kind")

// Trait is one entry of an instance, class, or script's trait table,
// collapsed the same way Multiname is: only the fields this toolchain's
// decompiler actually consults (which method a Method/Getter/Setter trait
// binds, which class a Class trait defines) are kept.
type Trait struct {
	Name        uint32
	Kind        byte
	MethodIndex uint32
	ClassIndex  uint32
}

// readTraits reads a trait table: a count followed by that many
// name+kind-byte+variant-tail records, each optionally followed by a
// metadata-index list the kind byte's high bit announces.
func readTraits(r *bitio.Reader) ([]Trait, error) {
	count, err := readCount(r, "traits")
	if err != nil {
		return nil, err
	}
	traits := make([]Trait, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readU30(r)
		if err != nil {
			return nil, err
		}
		kind := r.ReadByte()
		t := Trait{Name: name, Kind: kind}
		if err := readTraitTail(r, kind, &t); err != nil {
			return nil, err
		}
		if kind&traitMetadataFlag != 0 {
			mcount, err := readU30(r)
			if err != nil {
				return nil, err
			}
			for m := uint32(0); m < mcount; m++ {
				if _, err := readU30(r); err != nil {
					return nil, err
				}
			}
		}
		traits = append(traits, t)
	}
	return traits, nil
}

// readTraitTail reads the variant-specific fields of a trait record,
// following the shared slot_id/disp_id field every variant starts with.
func readTraitTail(r *bitio.Reader, kind byte, t *Trait) error {
	if _, err := readU30(r); err != nil { // slot_id / disp_id, unused
		return err
	}

	switch kind & 0x0F {
	case TraitSlot, TraitConst:
		if _, err := readU30(r); err != nil { // type
			return err
		}
		vindex, err := readU30(r)
		if err != nil {
			return err
		}
		if vindex != 0 {
			r.ReadByte() // vkind
		}
	case TraitMethod, TraitGetter, TraitSetter:
		idx, err := readU30(r)
		if err != nil {
			return err
		}
		t.MethodIndex = idx
	case TraitClass:
		idx, err := readU30(r)
		if err != nil {
			return err
		}
		t.ClassIndex = idx
	case TraitFunction:
		if _, err := readU30(r); err != nil { // function's method index, unused
			return err
		}
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownTraitKind, kind&0x0F)
	}
	return nil
}

// MethodInfo is one entry of the method-info table: the fixed signature
// metadata every method carries, independent of whether it has a body.
type MethodInfo struct {
	Name       uint32
	ParamCount uint32
}

const (
	methodFlagHasOptional   = 0x08
	methodFlagHasParamNames = 0x80
)

func readMethods(r *bitio.Reader) ([]MethodInfo, error) {
	count, err := readCount(r, "methods")
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, count)
	for i := uint32(0); i < count; i++ {
		paramCount, err := readU30(r)
		if err != nil {
			return nil, err
		}
		methods[i].ParamCount = paramCount
		if _, err := readU30(r); err != nil { // return type
			return nil, err
		}
		for j := uint32(0); j < paramCount; j++ {
			if _, err := readU30(r); err != nil { // param type
				return nil, err
			}
		}
		name, err := readU30(r)
		if err != nil {
			return nil, err
		}
		methods[i].Name = name

		flags := r.ReadByte()
		if flags&methodFlagHasOptional != 0 {
			optCount, err := readU30(r)
			if err != nil {
				return nil, err
			}
			for j := uint32(0); j < optCount; j++ {
				if _, err := readU30(r); err != nil {
					return nil, err
				}
				r.ReadByte() // value kind
			}
		}
		if flags&methodFlagHasParamNames != 0 {
			for j := uint32(0); j < paramCount; j++ {
				if _, err := readU30(r); err != nil {
					return nil, err
				}
			}
		}
	}
	return methods, nil
}

// skipMetadata consumes the metadata table between the method-info table
// and the class table. Nothing in this toolchain resolves metadata
// attributes, so their key/value string-pool indices are discarded.
func skipMetadata(r *bitio.Reader) error {
	count, err := readCount(r, "metadata")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := readU30(r); err != nil { // name
			return err
		}
		kv, err := readU30(r)
		if err != nil {
			return err
		}
		for j := uint32(0); j < kv*2; j++ {
			if _, err := readU30(r); err != nil {
				return err
			}
		}
	}
	return nil
}

const (
	instanceFlagProtectedNs = 0x08
	instanceFlagNsSet       = 0x10
	instanceFlagInterface   = 0x20
)

// InstanceInfo is a class's instance-side shape: its qualified name,
// optional superclass, instance initializer method, and instance traits
// (fields and instance methods).
type InstanceInfo struct {
	Name      uint32
	SuperName uint32
	Iinit     uint32
	Traits    []Trait
}

// ClassInfo is a class's static side: its static initializer and static
// traits.
type ClassInfo struct {
	Cinit  uint32
	Traits []Trait
}

// ClassDef pairs a class's instance and static halves, matching how the
// wire format stores them in two separate, index-aligned tables.
type ClassDef struct {
	Instance InstanceInfo
	Statics  ClassInfo
}

func readClasses(r *bitio.Reader) ([]ClassDef, error) {
	count, err := readCount(r, "classes")
	if err != nil {
		return nil, err
	}
	classes := make([]ClassDef, count)

	for i := uint32(0); i < count; i++ {
		inst := &classes[i].Instance
		name, err := readU30(r)
		if err != nil {
			return nil, err
		}
		superName, err := readU30(r)
		if err != nil {
			return nil, err
		}
		inst.Name, inst.SuperName = name, superName

		flags := r.ReadByte()
		if flags&instanceFlagProtectedNs != 0 {
			if _, err := readU30(r); err != nil {
				return nil, err
			}
		}
		if flags&instanceFlagNsSet != 0 {
			if _, err := readU30(r); err != nil {
				return nil, err
			}
		}
		if flags&instanceFlagInterface != 0 {
			if _, err := readU30(r); err != nil {
				return nil, err
			}
		}

		ifaceCount, err := readCount(r, "interfaces")
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < ifaceCount; j++ {
			if _, err := readU30(r); err != nil {
				return nil, err
			}
		}

		iinit, err := readU30(r)
		if err != nil {
			return nil, err
		}
		inst.Iinit = iinit

		traits, err := readTraits(r)
		if err != nil {
			return nil, err
		}
		inst.Traits = traits
	}

	for i := uint32(0); i < count; i++ {
		cls := &classes[i].Statics
		cinit, err := readU30(r)
		if err != nil {
			return nil, err
		}
		cls.Cinit = cinit
		traits, err := readTraits(r)
		if err != nil {
			return nil, err
		}
		cls.Traits = traits
	}

	return classes, nil
}

// Script is a top-level entry point: an init method plus the traits it
// exports, typically one Class trait per symbol the SymbolClass table
// binds to this script.
type Script struct {
	Init   uint32
	Traits []Trait
}

func readScripts(r *bitio.Reader) ([]Script, error) {
	count, err := readCount(r, "scripts")
	if err != nil {
		return nil, err
	}
	scripts := make([]Script, count)
	for i := uint32(0); i < count; i++ {
		init, err := readU30(r)
		if err != nil {
			return nil, err
		}
		traits, err := readTraits(r)
		if err != nil {
			return nil, err
		}
		scripts[i] = Script{Init: init, Traits: traits}
	}
	return scripts, nil
}

// MethodBody is a method's executable half: its declared stack/local
// register budget and the bytecode itself. Exception-table entries are
// parsed only to stay aligned — this toolchain doesn't decompile
// exception handlers as such; a handler's code is reachable like any
// other jump target.
type MethodBody struct {
	Method     uint32
	MaxStack   uint32
	LocalCount uint32
	Code       []byte
}

func readMethodBodies(r *bitio.Reader) ([]MethodBody, error) {
	count, err := readCount(r, "method bodies")
	if err != nil {
		return nil, err
	}
	bodies := make([]MethodBody, count)
	for i := uint32(0); i < count; i++ {
		method, err := readU30(r)
		if err != nil {
			return nil, err
		}
		maxStack, err := readU30(r)
		if err != nil {
			return nil, err
		}
		localCount, err := readU30(r)
		if err != nil {
			return nil, err
		}
		if _, err := readU30(r); err != nil { // init_scope_depth
			return nil, err
		}
		if _, err := readU30(r); err != nil { // max_scope_depth
			return nil, err
		}
		codeLen, err := readCount(r, "method code")
		if err != nil {
			return nil, err
		}
		code := r.ReadBytes(int(codeLen))

		if err := skipExceptions(r); err != nil {
			return nil, err
		}
		if _, err := readTraits(r); err != nil { // method-activation traits, unused
			return nil, err
		}

		bodies[i] = MethodBody{
			Method:     method,
			MaxStack:   maxStack,
			LocalCount: localCount,
			Code:       code,
		}
	}
	return bodies, nil
}

func skipExceptions(r *bitio.Reader) error {
	count, err := readCount(r, "exceptions")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		for j := 0; j < 5; j++ { // from, to, target, exc_type, var_name
			if _, err := readU30(r); err != nil {
				return err
			}
		}
	}
	return nil
}
