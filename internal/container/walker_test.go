package container

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// buildTag encodes a tag header (short or extended length) followed by body.
func buildTag(code TagCode, body []byte) []byte {
	var buf bytes.Buffer
	if len(body) < 0x3F {
		head := uint16(code)<<6 | uint16(len(body))
		buf.WriteByte(byte(head))
		buf.WriteByte(byte(head >> 8))
	} else {
		head := uint16(code)<<6 | 0x3F
		buf.WriteByte(byte(head))
		buf.WriteByte(byte(head >> 8))
		length := uint32(len(body))
		buf.WriteByte(byte(length))
		buf.WriteByte(byte(length >> 8))
		buf.WriteByte(byte(length >> 16))
		buf.WriteByte(byte(length >> 24))
	}
	buf.Write(body)
	return buf.Bytes()
}

func minimalSWF(tags []byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0x00) // RECT: nbits=0 -> xmin=xmax=ymin=ymax=0, fits in 1 byte (5 bits + 0)
	body.WriteByte(0x00) // frame rate low
	body.WriteByte(0x00) // frame rate high
	body.WriteByte(0x01) // frame count low
	body.WriteByte(0x00) // frame count high
	body.Write(tags)
	body.Write(buildTag(TagEnd, nil))

	var out bytes.Buffer
	out.WriteString("FWS")
	out.WriteByte(6)
	var lenBuf [4]byte
	total := uint32(8 + body.Len())
	lenBuf[0] = byte(total)
	lenBuf[1] = byte(total >> 8)
	lenBuf[2] = byte(total >> 16)
	lenBuf[3] = byte(total >> 24)
	out.Write(lenBuf[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestExtractRejectsBadSignature(t *testing.T) {
	_, err := Extract([]byte("XYZ12345"), t.TempDir())
	if err != ErrBadSignature {
		t.Fatalf("Extract bad signature: got %v, want ErrBadSignature", err)
	}
}

func TestExtractRejectsTruncatedHeader(t *testing.T) {
	_, err := Extract([]byte("FW"), t.TempDir())
	if err != ErrTruncatedHeader {
		t.Fatalf("Extract truncated: got %v, want ErrTruncatedHeader", err)
	}
}

func TestExtractShowFrameProducesFrame(t *testing.T) {
	data := minimalSWF(buildTag(TagShowFrame, nil))
	m, err := Extract(data, t.TempDir())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(m.Frames) != 1 {
		t.Fatalf("Frames = %d, want 1", len(m.Frames))
	}
}

func TestExtractCompressedBody(t *testing.T) {
	var body bytes.Buffer
	body.WriteByte(0x00)
	body.WriteByte(0x00)
	body.WriteByte(0x00)
	body.WriteByte(0x01)
	body.WriteByte(0x00)
	body.Write(buildTag(TagShowFrame, nil))
	body.Write(buildTag(TagEnd, nil))

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(body.Bytes())
	zw.Close()

	var out bytes.Buffer
	out.WriteString("CWS")
	out.WriteByte(6)
	total := uint32(8 + compressed.Len())
	out.WriteByte(byte(total))
	out.WriteByte(byte(total >> 8))
	out.WriteByte(byte(total >> 16))
	out.WriteByte(byte(total >> 24))
	out.Write(compressed.Bytes())

	m, err := Extract(out.Bytes(), t.TempDir())
	if err != nil {
		t.Fatalf("Extract compressed: %v", err)
	}
	if len(m.Frames) != 1 {
		t.Fatalf("Frames = %d, want 1", len(m.Frames))
	}
}

func TestExtractBinaryDataWritesFile(t *testing.T) {
	binBody := append([]byte{0x05, 0x00, 0, 0, 0, 0}, []byte("hello")...)
	data := minimalSWF(buildTag(TagDefineBinaryData, binBody))
	dir := t.TempDir()
	m, err := Extract(data, dir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(m.Assets) != 1 {
		t.Fatalf("Assets = %d, want 1", len(m.Assets))
	}
	got, err := os.ReadFile(filepath.Join(dir, m.Assets[0].Path))
	if err != nil {
		t.Fatalf("read extracted binary: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("binary data = %q, want %q", got, "hello")
	}
}

func TestSpliceJPEGConcatenatesAtBoundary(t *testing.T) {
	tables := append([]byte{0xFF, 0xD8, 0xAA, 0xBB}, jpegEOI...)
	body := append(append([]byte{}, jpegSOI...), []byte{0xCC, 0xDD}...)
	got := spliceJPEG(tables, body)
	want := []byte{0xFF, 0xD8, 0xAA, 0xBB, 0xFF, 0xD8, 0xCC, 0xDD}
	if !bytes.Equal(got, want) {
		t.Errorf("spliceJPEG = %x, want %x", got, want)
	}
}

func TestDisplayListPlaceRemoveSnapshotOrder(t *testing.T) {
	dl := NewDisplayList()
	dl.Place(DisplayObject{Depth: 3, CharacterID: 9})
	dl.Place(DisplayObject{Depth: 1, CharacterID: 7})
	dl.Place(DisplayObject{Depth: 2, CharacterID: 8})
	dl.Remove(3)

	snap := dl.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0].Depth != 1 || snap[1].Depth != 2 {
		t.Errorf("Snapshot order = %+v, want ascending depth", snap)
	}
}

func TestExtractShapeWritesInfoSidecar(t *testing.T) {
	shapeBody := append([]byte{0x07, 0x00}, []byte{0x00}...) // char 7, empty shape record
	data := minimalSWF(buildTag(TagDefineShape2, shapeBody))
	dir := t.TempDir()
	if _, err := Extract(data, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	dat, err := os.ReadFile(filepath.Join(dir, "shape_7.dat"))
	if err != nil {
		t.Fatalf("read shape_7.dat: %v", err)
	}
	if len(dat) != len(shapeBody) {
		t.Errorf("shape_7.dat = %d bytes, want full tag body of %d bytes", len(dat), len(shapeBody))
	}
	info, err := os.ReadFile(filepath.Join(dir, "shape_7_info.txt"))
	if err != nil {
		t.Fatalf("read shape_7_info.txt: %v", err)
	}
	if !bytes.Contains(info, []byte("Version: 2")) {
		t.Errorf("shape_7_info.txt = %q, want it to mention Version: 2", info)
	}
}

func TestExtractMorphShapeWritesFile(t *testing.T) {
	body := append([]byte{0x09, 0x00}, []byte("morphdata")...)
	data := minimalSWF(buildTag(TagDefineMorphShape, body))
	dir := t.TempDir()
	if _, err := Extract(data, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "morph_shape_9.dat"))
	if err != nil {
		t.Fatalf("read morph_shape_9.dat: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("morph_shape_9.dat = %x, want %x", got, body)
	}
}

func TestExtractDoABCUsesAbcNaming(t *testing.T) {
	data := minimalSWF(buildTag(TagDoABC, append([]byte{1, 0, 0, 0, 0}, []byte("ignored")...)))
	dir := t.TempDir()
	m, err := Extract(data, dir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(m.ABCFiles) != 1 || m.ABCFiles[0] != "abc_0.abc" {
		t.Fatalf("ABCFiles = %+v, want [abc_0.abc]", m.ABCFiles)
	}
	if _, err := os.Stat(filepath.Join(dir, "abc_0.abc")); err != nil {
		t.Errorf("abc_0.abc not written: %v", err)
	}
}

func TestExtractDoActionDumpsRawAndHex(t *testing.T) {
	tags := append(buildTag(TagDoAction, []byte{0x00, 0x01, 0x02}), buildTag(TagShowFrame, nil)...)
	data := minimalSWF(tags)
	dir := t.TempDir()
	if _, err := Extract(data, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// DoAction precedes the first ShowFrame, so it belongs to frame 0
	// (topLevelFrame hasn't been incremented yet).
	as, err := os.ReadFile(filepath.Join(dir, "frame_0000_action_0.as"))
	if err != nil {
		t.Fatalf("read frame_0000_action_0.as: %v", err)
	}
	if !bytes.Equal(as, []byte{0x00, 0x01, 0x02}) {
		t.Errorf("action bytes = %x, want 000102", as)
	}
	hex, err := os.ReadFile(filepath.Join(dir, "frame_0000_action_0.as.hex"))
	if err != nil {
		t.Fatalf("read frame_0000_action_0.as.hex: %v", err)
	}
	if string(hex) != "00 01 02 " {
		t.Errorf("hex dump = %q, want %q", hex, "00 01 02 ")
	}
}

func TestExtractSpriteWritesInfoDescriptor(t *testing.T) {
	inner := buildTag(TagShowFrame, nil)
	spriteBody := append([]byte{0x0A, 0x00, 0x01, 0x00}, inner...)
	spriteBody = append(spriteBody, buildTag(TagEnd, nil)...)
	data := minimalSWF(buildTag(TagDefineSprite, spriteBody))
	dir := t.TempDir()
	if _, err := Extract(data, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	info, err := os.ReadFile(filepath.Join(dir, "sprite_10_info.txt"))
	if err != nil {
		t.Fatalf("read sprite_10_info.txt: %v", err)
	}
	if !bytes.Contains(info, []byte("Sprite ID: 10")) || !bytes.Contains(info, []byte("Frame 1")) {
		t.Errorf("sprite_10_info.txt = %q, want Sprite ID and Frame 1 lines", info)
	}
}

func TestPlaceObjectBuildsDisplayList(t *testing.T) {
	var place bytes.Buffer
	place.WriteByte(0x2A)
	place.WriteByte(0x00) // character ID 42
	place.WriteByte(0x05)
	place.WriteByte(0x00) // depth 5
	place.WriteByte(0x00) // matrix: no scale, no rotate, nBits=0 translate

	var tags bytes.Buffer
	tags.Write(buildTag(TagPlaceObject, place.Bytes()))
	tags.Write(buildTag(TagShowFrame, nil))

	data := minimalSWF(tags.Bytes())
	dir := t.TempDir()
	m, err := Extract(data, dir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(m.Frames) != 1 || len(m.Frames[0].Objects) != 1 {
		t.Fatalf("Frames = %+v, want one frame with one object", m.Frames)
	}
	if m.Frames[0].Objects[0].CharacterID != 42 || m.Frames[0].Objects[0].Depth != 5 {
		t.Errorf("placed object = %+v, want characterID=42 depth=5", m.Frames[0].Objects[0])
	}
}
