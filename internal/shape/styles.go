// Package shape decodes a DefineShape(2,3,4) character's bit-packed
// outline — fill/line style tables plus a pen-state edge stream — into a
// portable vector document. The tag walker hands off a character's raw
// shape bytes as-is; this package interprets them independently, given
// the shape record version alongside the payload.
package shape

import "swfdec/internal/bitio"

// RGBA is a shape-record color. Fill/line styles before shape version 3
// carry no alpha channel; the decoder fills A with 255 in that case.
type RGBA struct {
	R, G, B, A uint8
}

// Matrix is a 2x3 affine transform already reduced to the units this
// package renders in: scale/rotate terms divided by the 16.16 fixed-point
// denominator, translate terms divided by 20 (twips to pixels). It is
// deliberately a separate type from any display-list matrix — a gradient's
// transform is consumed directly as an SVG gradientTransform and has no
// other use in this package.
type Matrix struct {
	A, B, C, D, TX, TY float64
}

// IdentityMatrix returns the no-op transform.
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// FillKind classifies a fill style's paint: a flat color, one of the two
// gradient kinds, or a bitmap fill.
type FillKind int

const (
	FillSolid FillKind = iota
	FillLinearGradient
	FillRadialGradient
	FillBitmap
)

// FillStyle is one entry of a shape's fill style table.
type FillStyle struct {
	Kind            FillKind
	Color           RGBA
	Matrix          Matrix
	GradientColors  []RGBA
	GradientRatios  []uint8
	BitmapID        uint16
}

// LineStyle is one entry of a shape's line style table. Version 4 shapes
// carry cap/join/miter detail and may substitute a fill style for a flat
// stroke color; earlier versions are just a width and a color.
type LineStyle struct {
	Width      uint16
	Color      RGBA
	StartCap   int
	EndCap     int
	JoinStyle  int
	MiterLimit uint16
	HasFill    bool
	FillStyle  FillStyle
}

const (
	CapRound = 0
	CapNone  = 1
	CapSquare = 2

	JoinRound = 0
	JoinBevel = 1
	JoinMiter = 2
)

// readU8 reads a single byte-aligned byte, discarding any partial bit
// position first — mirroring how the shape record interleaves bit-packed
// edge data with byte-aligned style-table fields.
func readU8(r *bitio.Reader) uint8 {
	r.AlignToByte()
	return r.ReadByte()
}

// readU16 reads a byte-aligned little-endian uint16.
func readU16(r *bitio.Reader) uint16 {
	r.AlignToByte()
	return r.ReadU16LE()
}

func readRGB(r *bitio.Reader) RGBA {
	return RGBA{R: readU8(r), G: readU8(r), B: readU8(r), A: 255}
}

func readRGBA(r *bitio.Reader) RGBA {
	return RGBA{R: readU8(r), G: readU8(r), B: readU8(r), A: readU8(r)}
}

func readColor(r *bitio.Reader, hasAlpha bool) RGBA {
	if hasAlpha {
		return readRGBA(r)
	}
	return readRGB(r)
}

// readMatrix decodes a MATRIX record into pixel-space units, used here
// only for fill/bitmap gradient transforms.
func readMatrix(r *bitio.Reader) Matrix {
	m := IdentityMatrix()
	if r.ReadBits(1) != 0 {
		n := int(r.ReadBits(5))
		m.A = float64(r.ReadSignedBits(n)) / 65536.0
		m.D = float64(r.ReadSignedBits(n)) / 65536.0
	}
	if r.ReadBits(1) != 0 {
		n := int(r.ReadBits(5))
		m.C = float64(r.ReadSignedBits(n)) / 65536.0
		m.B = float64(r.ReadSignedBits(n)) / 65536.0
	}
	n := int(r.ReadBits(5))
	m.TX = float64(r.ReadSignedBits(n)) / 20.0
	m.TY = float64(r.ReadSignedBits(n)) / 20.0
	return m
}

// fillStyleTypeCode values from the shape record's FILLSTYLE tag byte.
const (
	fillTypeSolid          = 0x00
	fillTypeLinearGradient = 0x10
	fillTypeRadialGradient = 0x12
	fillTypeFocalGradient  = 0x13
	fillTypeBitmapMin      = 0x40
)

// readFillStyles decodes a FILLSTYLEARRAY: a count (extended to 16 bits
// via the 0xFF escape for shape version >= 2) followed by that many
// FILLSTYLE records.
func readFillStyles(r *bitio.Reader, version int, hasAlpha bool) []FillStyle {
	count := uint16(readU8(r))
	if count == 0xFF && version >= 2 {
		count = readU16(r)
	}
	styles := make([]FillStyle, 0, count)
	for i := uint16(0); i < count; i++ {
		styles = append(styles, readFillStyle(r, version, hasAlpha))
	}
	return styles
}

func readFillStyle(r *bitio.Reader, version int, hasAlpha bool) FillStyle {
	var fs FillStyle
	fillType := readU8(r)
	switch {
	case fillType == fillTypeSolid:
		fs.Kind = FillSolid
		fs.Color = readColor(r, hasAlpha)
	case fillType == fillTypeLinearGradient || fillType == fillTypeRadialGradient || fillType == fillTypeFocalGradient:
		if fillType == fillTypeLinearGradient {
			fs.Kind = FillLinearGradient
		} else {
			fs.Kind = FillRadialGradient
		}
		fs.Matrix = readMatrix(r)
		r.AlignToByte()
		r.ReadBits(2) // spread mode
		r.ReadBits(2) // interpolation mode
		numGradients := int(r.ReadBits(4))
		for k := 0; k < numGradients; k++ {
			fs.GradientRatios = append(fs.GradientRatios, readU8(r))
			fs.GradientColors = append(fs.GradientColors, readColor(r, hasAlpha))
		}
		if version >= 4 && fillType == fillTypeFocalGradient {
			readU16(r) // focal point ratio; not modeled as a distinct gradient kind (see DESIGN.md)
		}
	case fillType >= fillTypeBitmapMin:
		fs.Kind = FillBitmap
		fs.BitmapID = readU16(r)
		fs.Matrix = readMatrix(r)
		r.AlignToByte()
	}
	return fs
}

// readLineStyles decodes a LINESTYLEARRAY (version < 4) or
// LINESTYLE2ARRAY (version >= 4), sharing the same 0xFF count escape as
// readFillStyles.
func readLineStyles(r *bitio.Reader, version int, hasAlpha bool) []LineStyle {
	count := uint16(readU8(r))
	if count == 0xFF && version >= 2 {
		count = readU16(r)
	}
	styles := make([]LineStyle, 0, count)
	for i := uint16(0); i < count; i++ {
		styles = append(styles, readLineStyle(r, version, hasAlpha))
	}
	return styles
}

func readLineStyle(r *bitio.Reader, version int, hasAlpha bool) LineStyle {
	ls := LineStyle{}
	ls.Width = readU16(r)

	if version >= 4 {
		ls.StartCap = int(r.ReadBits(2))
		ls.JoinStyle = int(r.ReadBits(2))
		ls.HasFill = r.ReadBits(1) != 0
		r.ReadBits(1) // noHScale
		r.ReadBits(1) // noVScale
		r.ReadBits(1) // pixelHinting
		r.ReadBits(5) // reserved
		r.ReadBits(1) // noClose
		ls.EndCap = int(r.ReadBits(2))
		r.AlignToByte()

		if ls.JoinStyle == JoinMiter {
			ls.MiterLimit = readU16(r)
		}
		if ls.HasFill {
			fills := readFillStyles(r, version, hasAlpha)
			if len(fills) > 0 {
				ls.FillStyle = fills[0]
			}
			ls.Color = RGBA{A: 255}
		} else {
			ls.Color = readRGBA(r)
		}
	} else {
		ls.Color = readColor(r, hasAlpha)
	}
	return ls
}
