package shape

import "swfdec/internal/bitio"

// Point is a shape coordinate already converted from twips to pixels.
type Point struct {
	X, Y float64
}

const pointTolerance = 1e-4

// closeEnough reports whether two points are within the tolerance path
// chaining treats as "the same point" — twips-to-pixel rounding means two
// edges meant to share a vertex rarely compare bit-for-bit equal.
func closeEnough(a, b Point) bool {
	return absf(a.X-b.X) < pointTolerance && absf(a.Y-b.Y) < pointTolerance
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Edge is one segment of a shape outline: a straight line when Quad is
// false, a quadratic Bézier through Control when true.
type Edge struct {
	P1, P2  Point
	Control Point
	Quad    bool
}

// Reversed returns the edge with its endpoints swapped, used to keep the
// fill0 side of a pen stroke wound consistently with fill1 — the two sides
// of a single drawn edge bound two different fills, and only one of them
// is traversed in the edge's natural direction.
func (e Edge) Reversed() Edge {
	return Edge{P1: e.P2, P2: e.P1, Control: e.Control, Quad: e.Quad}
}

// Bounds is a shape's declared bounding rect, in twips as recorded on the
// wire (the SVG emitter divides by 20 when it builds the viewBox).
type Bounds struct {
	XMin, XMax, YMin, YMax int32
}

func readBounds(r *bitio.Reader) Bounds {
	n := int(r.ReadBits(5))
	b := Bounds{
		XMin: r.ReadSignedBits(n),
		XMax: r.ReadSignedBits(n),
		YMin: r.ReadSignedBits(n),
		YMax: r.ReadSignedBits(n),
	}
	r.AlignToByte()
	return b
}

// Group is one style-table "generation" within a shape: the fill/line
// styles in effect plus the edges drawn while they were, keyed by style
// table index exactly as the pen state machine assigned them. A shape
// with a single StyleChangeRecord that swaps style tables mid-stream (the
// 0x10 "new styles" flag) produces more than one Group.
type Group struct {
	FillStyles   []FillStyle
	LineStyles   []LineStyle
	FillLayers   map[int][]Edge
	StrokeLayers map[int][]Edge
}

// Shape is a fully decoded shape record: its declared bounds and the
// sequence of style groups its edge stream produced.
type Shape struct {
	Version int
	Bounds  Bounds
	Groups  []Group
}

// Decode parses a DefineShape(2,3,4) character body (with the leading
// character-ID field already stripped by the caller) into a Shape.
// version selects which record layout to apply: 1 has no extended bounds
// or alpha; 3 adds an alpha channel to every color; 4 adds the extra edge
// bounds rect, an edge-flags byte, and LINESTYLE2 records.
func Decode(data []byte, version int) *Shape {
	r := bitio.New(data)
	bounds := readBounds(r)

	if version == 4 {
		readBounds(r) // edge bounds, unused by this decoder
		r.ReadBits(5) // reserved
		r.ReadBits(1) // usesNonScalingStrokes
		r.ReadBits(1) // usesScalingStrokes
		r.AlignToByte()
	}

	hasAlpha := version >= 3
	sh := &Shape{Version: version, Bounds: bounds}

	group := newGroup(readFillStyles(r, version, hasAlpha), readLineStyles(r, version, hasAlpha))
	numFillBits := int(r.ReadBits(4))
	numLineBits := int(r.ReadBits(4))

	var pos Point
	var fill0, fill1, line int

	for {
		isEdge := r.ReadBits(1) != 0
		if !isEdge {
			flags := r.ReadBits(5)
			if flags == 0 {
				break
			}
			if flags&0x01 != 0 { // moveTo
				n := int(r.ReadBits(5))
				x := r.ReadSignedBits(n)
				y := r.ReadSignedBits(n)
				pos = Point{X: float64(x) / 20.0, Y: float64(y) / 20.0}
			}
			if flags&0x02 != 0 {
				fill0 = int(r.ReadBits(numFillBits))
			}
			if flags&0x04 != 0 {
				fill1 = int(r.ReadBits(numFillBits))
			}
			if flags&0x08 != 0 {
				line = int(r.ReadBits(numLineBits))
			}
			if flags&0x10 != 0 {
				sh.Groups = append(sh.Groups, group)
				group = newGroup(readFillStyles(r, version, hasAlpha), readLineStyles(r, version, hasAlpha))
				numFillBits = int(r.ReadBits(4))
				numLineBits = int(r.ReadBits(4))
			}
			continue
		}

		edge := Edge{P1: pos}
		straight := r.ReadBits(1) != 0
		numBits := int(r.ReadBits(4)) + 2

		if straight {
			general := r.ReadBits(1) != 0
			var dx, dy int32
			if general {
				dx = r.ReadSignedBits(numBits)
				dy = r.ReadSignedBits(numBits)
			} else if r.ReadBits(1) != 0 {
				dy = r.ReadSignedBits(numBits)
			} else {
				dx = r.ReadSignedBits(numBits)
			}
			edge.P2 = Point{X: pos.X + float64(dx)/20.0, Y: pos.Y + float64(dy)/20.0}
		} else {
			cdx := r.ReadSignedBits(numBits)
			cdy := r.ReadSignedBits(numBits)
			adx := r.ReadSignedBits(numBits)
			ady := r.ReadSignedBits(numBits)
			edge.Control = Point{X: pos.X + float64(cdx)/20.0, Y: pos.Y + float64(cdy)/20.0}
			edge.P2 = Point{X: edge.Control.X + float64(adx)/20.0, Y: edge.Control.Y + float64(ady)/20.0}
			edge.Quad = true
		}

		if fill0 != 0 {
			group.FillLayers[fill0] = append(group.FillLayers[fill0], edge.Reversed())
		}
		if fill1 != 0 {
			group.FillLayers[fill1] = append(group.FillLayers[fill1], edge)
		}
		if line != 0 {
			group.StrokeLayers[line] = append(group.StrokeLayers[line], edge)
		}
		pos = edge.P2
	}

	sh.Groups = append(sh.Groups, group)
	return sh
}

func newGroup(fills []FillStyle, lines []LineStyle) Group {
	return Group{
		FillStyles:   fills,
		LineStyles:   lines,
		FillLayers:   make(map[int][]Edge),
		StrokeLayers: make(map[int][]Edge),
	}
}
