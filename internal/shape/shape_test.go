package shape

import (
	"strings"
	"testing"

	"swfdec/internal/bitio"
)

func TestReadMatrixIdentityWhenNoFlags(t *testing.T) {
	// hasScale=0, hasRotate=0, translate nBits=0 -> single byte of zero bits.
	r := bitio.New([]byte{0x00})
	m := readMatrix(r)
	if m != IdentityMatrix() {
		t.Errorf("readMatrix = %+v, want identity", m)
	}
}

func TestReadFillStylesSolidColor(t *testing.T) {
	// count=1, fillType=0x00 (solid), RGB color (no alpha since hasAlpha=false)
	data := []byte{0x01, 0x00, 0x11, 0x22, 0x33}
	r := bitio.New(data)
	styles := readFillStyles(r, 1, false)
	if len(styles) != 1 {
		t.Fatalf("len(styles) = %d, want 1", len(styles))
	}
	want := RGBA{0x11, 0x22, 0x33, 255}
	if styles[0].Color != want {
		t.Errorf("color = %+v, want %+v", styles[0].Color, want)
	}
}

func TestReadFillStylesExtendedCount(t *testing.T) {
	// count escape 0xFF then u16 count = 0 (version >= 2), no style records follow.
	data := []byte{0xFF, 0x00, 0x00}
	r := bitio.New(data)
	styles := readFillStyles(r, 2, false)
	if len(styles) != 0 {
		t.Fatalf("len(styles) = %d, want 0", len(styles))
	}
}

func TestPathDChainsConnectedEdges(t *testing.T) {
	edges := []Edge{
		{P1: Point{0, 0}, P2: Point{1, 0}},
		{P1: Point{1, 0}, P2: Point{1, 1}},
		{P1: Point{1, 1}, P2: Point{0, 0}},
	}
	d := PathD(edges, true)
	if !strings.HasPrefix(d, "M 0.0000 0.0000 ") {
		t.Errorf("PathD start = %q", d)
	}
	if strings.Count(d, "L ") != 3 {
		t.Errorf("PathD = %q, want 3 line segments", d)
	}
	if !strings.Contains(d, "Z") {
		t.Errorf("PathD closed fill should contain Z: %q", d)
	}
}

func TestPathDDisjointSubpaths(t *testing.T) {
	edges := []Edge{
		{P1: Point{0, 0}, P2: Point{1, 0}},
		{P1: Point{10, 10}, P2: Point{11, 10}},
	}
	d := PathD(edges, true)
	if strings.Count(d, "M ") != 2 {
		t.Errorf("PathD with disjoint edges = %q, want 2 M commands", d)
	}
}

func TestEdgeReversedSwapsEndpoints(t *testing.T) {
	e := Edge{P1: Point{1, 2}, P2: Point{3, 4}}
	r := e.Reversed()
	if r.P1 != e.P2 || r.P2 != e.P1 {
		t.Errorf("Reversed = %+v, want swapped endpoints of %+v", r, e)
	}
}

func TestDecodeSimpleTriangle(t *testing.T) {
	// Construct a minimal version-1 shape: bounds rect (nbits=0),
	// empty fill styles, empty line styles, numFillBits=1, numLineBits=0,
	// one moveTo + fill1=1 straight edges forming a closed triangle, end.
	var bits bitWriter
	bits.writeBits(0, 5) // bounds nBits=0 -> all four fields 0 bits
	bits.align()         // readBounds byte-aligns when it's done

	bits.writeBits(0, 8) // fill style count = 0
	bits.writeBits(0, 8) // line style count = 0
	bits.writeBits(1, 4) // numFillBits = 1
	bits.writeBits(0, 4) // numLineBits = 0

	// style-change: moveTo + fill1, flags bit0(move)=1, bit2(fill1)=1 -> 0b00101=5
	bits.writeBits(0, 1) // edge flag = 0 (style-change record)
	bits.writeBits(5, 5) // flags = moveTo|fill1
	bits.writeBits(5, 5) // nBits for moveTo = 5
	bits.writeBits(0, 5) // x = 0
	bits.writeBits(0, 5) // y = 0
	bits.writeBits(1, 1) // fill1 = 1 (numFillBits=1)

	// straight edge: dx=20 (1px), dy=0; needs a 6-bit signed field to hold 20.
	bits.writeBits(1, 1) // edge flag = 1 (edge record)
	bits.writeBits(1, 1) // straight = 1
	bits.writeBits(4, 4) // numBits selector -> numBits = 4+2 = 6
	bits.writeBits(0, 1) // general line = 0 (axis-aligned)
	bits.writeBits(0, 1) // vertical = 0 (horizontal)
	bits.writeSigned(20, 6)

	// end-of-shape
	bits.writeBits(0, 1) // edge flag = 0
	bits.writeBits(0, 5) // flags = 0 -> terminator

	sh := Decode(bits.bytes(), 1)
	if len(sh.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(sh.Groups))
	}
	edges := sh.Groups[0].FillLayers[1]
	if len(edges) != 1 {
		t.Fatalf("fill1 edges = %d, want 1", len(edges))
	}
	if edges[0].P2.X != 1.0 {
		t.Errorf("edge P2.X = %v, want 1.0", edges[0].P2.X)
	}
}

// bitWriter is a minimal MSB-first bit writer used only by this test to
// construct synthetic shape records byte-for-byte compatible with
// bitio.Reader's layout.
type bitWriter struct {
	buf  []byte
	bit  int
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		b := byte((v >> i) & 1)
		if w.bit == 0 {
			w.buf = append(w.buf, 0)
		}
		w.buf[len(w.buf)-1] |= b << (7 - w.bit)
		w.bit++
		if w.bit == 8 {
			w.bit = 0
		}
	}
}

func (w *bitWriter) align() {
	if w.bit != 0 {
		w.writeBits(0, 8-w.bit)
	}
}

func (w *bitWriter) writeSigned(v int32, n int) {
	w.writeBits(uint32(v)&((1<<uint(n))-1), n)
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}
