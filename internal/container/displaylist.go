package container

import (
	"sort"

	"swfdec/internal/bitio"
)

// Matrix is the container format's 2x3 affine transform, stored as floating
// point once decoded from its 16.16 fixed-point wire encoding.
type Matrix struct {
	A, B, C, D, TX, TY float64
}

// IdentityMatrix returns the identity transform, used when a PlaceObject
// record omits its matrix field.
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// ColorTransform is the container format's RGBA multiply/add transform.
type ColorTransform struct {
	RedMul, GreenMul, BlueMul, AlphaMul     float64
	RedAdd, GreenAdd, BlueAdd, AlphaAdd     float64
}

// IdentityColorTransform returns the no-op color transform.
func IdentityColorTransform() ColorTransform {
	return ColorTransform{RedMul: 1, GreenMul: 1, BlueMul: 1, AlphaMul: 1}
}

// readMatrix decodes a MATRIX record: a has-scale flag gated pair of 16.16
// fixed-point scale fields, a has-rotate flag gated pair of skew fields, and
// an unconditional pair of twip translation fields.
func readMatrix(r *bitio.Reader) Matrix {
	m := IdentityMatrix()
	if r.ReadBits(1) != 0 { // hasScale
		nBits := int(r.ReadBits(5))
		m.A = fixed16(r.ReadSignedBits(nBits))
		m.D = fixed16(r.ReadSignedBits(nBits))
	}
	if r.ReadBits(1) != 0 { // hasRotate
		nBits := int(r.ReadBits(5))
		m.B = fixed16(r.ReadSignedBits(nBits))
		m.C = fixed16(r.ReadSignedBits(nBits))
	}
	nBits := int(r.ReadBits(5))
	m.TX = float64(r.ReadSignedBits(nBits))
	m.TY = float64(r.ReadSignedBits(nBits))
	return m
}

func fixed16(v int32) float64 {
	return float64(v) / 65536.0
}

// readColorTransform decodes a CXFORM record, optionally with alpha
// (PlaceObject2/3 and later tags carry alpha; PlaceObject2's predecessor did
// not).
func readColorTransform(r *bitio.Reader, withAlpha bool) ColorTransform {
	ct := IdentityColorTransform()
	hasAdd := r.ReadBits(1) != 0
	hasMul := r.ReadBits(1) != 0
	nBits := int(r.ReadBits(4))
	if hasMul {
		ct.RedMul = float64(r.ReadSignedBits(nBits)) / 256.0
		ct.GreenMul = float64(r.ReadSignedBits(nBits)) / 256.0
		ct.BlueMul = float64(r.ReadSignedBits(nBits)) / 256.0
		if withAlpha {
			ct.AlphaMul = float64(r.ReadSignedBits(nBits)) / 256.0
		}
	}
	if hasAdd {
		ct.RedAdd = float64(r.ReadSignedBits(nBits))
		ct.GreenAdd = float64(r.ReadSignedBits(nBits))
		ct.BlueAdd = float64(r.ReadSignedBits(nBits))
		if withAlpha {
			ct.AlphaAdd = float64(r.ReadSignedBits(nBits))
		}
	}
	return ct
}

// DisplayObject is one entry in a display list: a character occupying a
// depth slot with its placement transform.
type DisplayObject struct {
	Depth          uint16
	CharacterID    uint16
	Matrix         Matrix
	ColorTransform ColorTransform
	Name           string
}

// DisplayList tracks the depth -> character mapping a tag stream builds up
// via PlaceObject/RemoveObject and snapshots at each ShowFrame, exactly the
// structure extractSymbolClassAndFrames mirrors in the original walker.
type DisplayList struct {
	objects map[uint16]DisplayObject
}

// NewDisplayList returns an empty display list.
func NewDisplayList() *DisplayList {
	return &DisplayList{objects: make(map[uint16]DisplayObject)}
}

// Place inserts or replaces the object occupying a depth slot.
func (dl *DisplayList) Place(obj DisplayObject) {
	dl.objects[obj.Depth] = obj
}

// Remove deletes whatever occupies a depth slot, a no-op if nothing does.
func (dl *DisplayList) Remove(depth uint16) {
	delete(dl.objects, depth)
}

// At returns whatever currently occupies a depth slot, and whether
// anything does. PlaceObject2's "move" flag updates only the fields its
// own flags mark present, leaving the rest as whatever already occupied
// the slot, so handlers need to read the existing entry before replacing
// it.
func (dl *DisplayList) At(depth uint16) (DisplayObject, bool) {
	obj, ok := dl.objects[depth]
	return obj, ok
}

// Snapshot returns the current display list's objects ordered by ascending
// depth, the order a frame's objects are conventionally composited in.
func (dl *DisplayList) Snapshot() []DisplayObject {
	out := make([]DisplayObject, 0, len(dl.objects))
	for _, obj := range dl.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}

// CharacterKind classifies what a character-ID in the character table
// refers to, so the frame/manifest writer knows which asset file backs it.
type CharacterKind int

const (
	CharacterUnknown CharacterKind = iota
	CharacterShape
	CharacterMorphShape
	CharacterImage
	CharacterSound
	CharacterSprite
	CharacterBinary
	CharacterFont
	CharacterText
)

// CharacterEntry records what kind of asset a character ID resolved to and
// where its extracted file (if any) was written, relative to the output
// directory.
type CharacterEntry struct {
	Kind CharacterKind
	Path string
}

// CharacterTable maps character IDs to their resolved kind and output path,
// shared across a sprite's recursive sub-stream walk so nested symbols
// still resolve against the same table the top-level stream populates.
type CharacterTable map[uint16]CharacterEntry
