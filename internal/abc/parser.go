package abc

import (
	"fmt"

	"swfdec/internal/bitio"
)

// File is a fully parsed ABC container: every table the wire format
// defines, decoded in the fixed order the format requires (constant pool,
// then methods, then metadata, then classes, then scripts, then method
// bodies — each table's entries reference indices into tables that come
// before it).
type File struct {
	ConstantPool ConstantPool
	Namespaces   []Namespace
	Multinames   []Multiname
	Methods      []MethodInfo
	Classes      []ClassDef
	Scripts      []Script
	Bodies       []MethodBody
	MinorVersion uint16
	MajorVersion uint16
}

// doABCHeaderFlag is the value a DoABC tag's leading 4-byte flags field
// carries when a nul-terminated name string follows it, before the ABC
// data itself begins. A DoABCDefine-equivalent body with no such header
// starts the ABC data immediately, recognizable because its first 4 bytes
// are a minor/major version pair, not this sentinel.
const doABCHeaderFlag = 1

// Parse decodes an ABC container from data. If data carries a DoABC tag's
// optional 4-byte flags + nul-terminated name header, it's detected and
// skipped automatically; callers don't need to strip it themselves.
func Parse(data []byte) (*File, error) {
	r := bitio.New(data)

	flags := r.ReadU32LE()
	if flags == doABCHeaderFlag {
		r.ReadCString()
	} else {
		r.SeekBytes(0)
	}

	f := &File{}
	f.MinorVersion = r.ReadU16LE()
	f.MajorVersion = r.ReadU16LE()

	cp, namespaces, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}
	f.ConstantPool = cp
	f.Namespaces = namespaces

	multinames, err := readMultinames(r)
	if err != nil {
		return nil, err
	}
	f.Multinames = multinames

	methods, err := readMethods(r)
	if err != nil {
		return nil, err
	}
	f.Methods = methods

	if err := skipMetadata(r); err != nil {
		return nil, err
	}

	classes, err := readClasses(r)
	if err != nil {
		return nil, err
	}
	f.Classes = classes

	scripts, err := readScripts(r)
	if err != nil {
		return nil, err
	}
	f.Scripts = scripts

	bodies, err := readMethodBodies(r)
	if err != nil {
		return nil, err
	}
	f.Bodies = bodies

	return f, nil
}

// String resolves a constant-pool string index, returning the empty
// string for an out-of-range index rather than erroring — the decompiler
// treats a dangling index as a cosmetic decoding glitch, not a fatal one.
func (f *File) String(idx uint32) string {
	if idx == 0 || int(idx) >= len(f.ConstantPool.Strings) {
		return ""
	}
	return f.ConstantPool.Strings[idx]
}

// Name resolves a multiname index to its local name string, falling back
// to a synthetic "nameN" when the name index itself doesn't resolve (a
// runtime-qualified multiname with no statically-known local name).
func (f *File) Name(idx uint32) string {
	if idx == 0 || int(idx) >= len(f.Multinames) {
		return "unknown"
	}
	mn := f.Multinames[idx]
	if int(mn.NameIndex) < len(f.ConstantPool.Strings) {
		return f.ConstantPool.Strings[mn.NameIndex]
	}
	return fmt.Sprintf("name%d", idx)
}

// Package resolves a multiname index to the dotted package name of its
// namespace, or "" if the multiname has no statically-known namespace
// (runtime-qualified and namespace-set variants, or namespace index 0 —
// the public/global namespace).
func (f *File) Package(idx uint32) string {
	if idx == 0 || int(idx) >= len(f.Multinames) {
		return ""
	}
	mn := f.Multinames[idx]
	if mn.NsIndex == 0 || int(mn.NsIndex) >= len(f.Namespaces) {
		return ""
	}
	ns := f.Namespaces[mn.NsIndex]
	return f.String(ns.Name)
}
