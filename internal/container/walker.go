// Package container demultiplexes the tag stream of an SWF-like container:
// it parses the file header, walks the flat/recursive tag records, and
// dispatches each to the asset extractor or the display-list state
// machine. It does not decode shape or bytecode payloads itself — those
// are handed off raw to internal/shape and internal/abc, keeping this
// package's job strictly the tag-stream plumbing.
package container

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"

	"swfdec/internal/bitio"
)

// ErrBadSignature is returned when the first three bytes of the file are
// neither "FWS" nor "CWS".
var ErrBadSignature = errors.New("container: unrecognized file signature")

// ErrTruncatedHeader is returned when the file is too short to contain a
// valid 8-byte header.
var ErrTruncatedHeader = errors.New("container: file shorter than header")

const headerSize = 8

// FrameRecord is one ShowFrame's worth of display-list state, captured in
// ascending depth order.
type FrameRecord struct {
	Index   int             `json:"index"`
	Objects []DisplayObject `json:"objects"`
}

// AssetRecord describes one extracted, non-shape, non-bytecode character:
// an image, sound, or binary blob written to the output directory.
type AssetRecord struct {
	CharacterID uint16 `json:"characterId"`
	Kind        string `json:"kind"`
	Path        string `json:"path"`
}

// Manifest is the side-channel JSON summary written alongside extracted
// assets, recording what was found and where it landed so downstream
// tooling (shape2svg, abcdec) doesn't have to re-walk the container.
type Manifest struct {
	Version      int            `json:"version"`
	FrameCount   int            `json:"frameCount"`
	FrameRate    float64        `json:"frameRate"`
	Frames       []FrameRecord  `json:"frames"`
	Assets       []AssetRecord  `json:"assets"`
	SymbolClasses map[uint16]string `json:"symbolClasses,omitempty"`
	ShapeFiles   map[uint16]string `json:"shapeFiles,omitempty"`
	ABCFiles     []string          `json:"abcFiles,omitempty"`
}

func kindName(k CharacterKind) string {
	switch k {
	case CharacterShape:
		return "shape"
	case CharacterMorphShape:
		return "morphshape"
	case CharacterImage:
		return "image"
	case CharacterSound:
		return "sound"
	case CharacterSprite:
		return "sprite"
	case CharacterBinary:
		return "binary"
	case CharacterFont:
		return "font"
	case CharacterText:
		return "text"
	default:
		return "unknown"
	}
}

// walker holds the mutable state threaded through a tag-stream walk,
// shared between the top-level stream and any DefineSprite sub-streams it
// recurses into.
type walker struct {
	outDir         string
	jpegTables     []byte
	characterTable CharacterTable
	symbolClasses  map[uint16]string
	manifest       *Manifest
	shapeCounter   int
	topLevelFrame  int // 1-based count of ShowFrame tags seen at the top level
	actionCounter  int // shared across every top-level DoAction tag in the file
}

// spriteCtx carries the per-sprite state a DefineSprite sub-stream walk
// needs that the top-level walk doesn't: its own frame/action counters (both
// restart at one per sprite, matching how the original extractor scopes
// them) and the descriptor text accumulated for sprite_<id>_info.txt.
type spriteCtx struct {
	id          uint16
	frame       int
	actionCount int
	meta        *bytes.Buffer
}

// Extract parses an SWF-like file from data, writes extracted image/sound/
// binary/shape/bytecode assets under outDir, and returns a manifest
// summarizing what it found. A malformed signature or truncated header
// fails outright; malformed individual tags are skipped and logged to
// stderr rather than aborting the whole walk, matching how a real-world
// decompressor has to tolerate partially-corrupt captures.
func Extract(data []byte, outDir string) (*Manifest, error) {
	if len(data) < headerSize {
		return nil, ErrTruncatedHeader
	}
	if !(bytes.HasPrefix(data, []byte("FWS")) || bytes.HasPrefix(data, []byte("CWS"))) {
		return nil, ErrBadSignature
	}
	compressed := data[0] == 'C'
	version := data[3]

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("container: create output dir: %w", err)
	}

	body := data[headerSize:]
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("container: zlib header: %w", err)
		}
		inflated, err := io.ReadAll(zr)
		zr.Close()
		if err != nil && len(inflated) == 0 {
			return nil, fmt.Errorf("container: zlib inflate: %w", err)
		}
		body = inflated
	}

	r := bitio.New(body)
	readRect(r) // stage/frame bounds, unused by the walker itself
	r.AlignToByte()
	frameRateRaw := r.ReadU16LE()
	frameCount := r.ReadU16LE()

	w := &walker{
		outDir:         outDir,
		characterTable: make(CharacterTable),
		symbolClasses:  make(map[uint16]string),
		manifest: &Manifest{
			Version:    int(version),
			FrameCount: int(frameCount),
			FrameRate:  float64(frameRateRaw) / 256.0,
		},
	}

	dl := NewDisplayList()
	w.walkTags(r, dl, nil)

	w.manifest.SymbolClasses = w.symbolClasses
	if err := w.writeSymbolClassTable(); err != nil {
		fmt.Fprintf(os.Stderr, "container: symbol class table: %v\n", err)
	}
	if err := w.writeManifest(); err != nil {
		fmt.Fprintf(os.Stderr, "container: manifest: %v\n", err)
	}
	return w.manifest, nil
}

// readRect consumes a RECT record: a 5-bit field-width prefix followed by
// four signed fields of that width (xmin, xmax, ymin, ymax, in twips). The
// walker doesn't use stage bounds for anything, so the values are
// discarded — reading them is only needed to advance the cursor correctly.
func readRect(r *bitio.Reader) {
	nBits := int(r.ReadBits(5))
	r.ReadSignedBits(nBits)
	r.ReadSignedBits(nBits)
	r.ReadSignedBits(nBits)
	r.ReadSignedBits(nBits)
}

// tagHeader is one decoded tag record header: its code and declared body
// length in bytes.
type tagHeader struct {
	code   TagCode
	length int
}

// readTagHeader decodes a tag record's 16-bit head (10-bit code, 6-bit
// short length) and, when the short length reads as the escape value 0x3F,
// the 32-bit extended length that follows it.
func readTagHeader(r *bitio.Reader) tagHeader {
	head := r.ReadU16LE()
	code := TagCode(head >> 6)
	length := int(head & 0x3F)
	if length == 0x3F {
		length = int(r.ReadU32LE())
	}
	return tagHeader{code: code, length: length}
}

// walkTags runs the core tag loop shared by the top-level stream and every
// DefineSprite sub-stream: read a tag header, slice out its declared body,
// dispatch it, and advance past it regardless of how much of the body the
// handler actually consumed (a handler that errors or under-reads must
// never desynchronize the stream for the tags that follow).
func (w *walker) walkTags(r *bitio.Reader, dl *DisplayList, sp *spriteCtx) {
	frameIndex := 0
	for !r.AtEnd() {
		th := readTagHeader(r)
		if th.code == TagEnd {
			break
		}
		start := r.BytePosition()
		end := start + th.length
		if end > r.Len() {
			end = r.Len()
		}
		body := r.ReadBytes(end - start)

		switch {
		case th.code == TagShowFrame:
			if sp != nil {
				sp.frame++
				fmt.Fprintf(sp.meta, "  Frame %d\n", sp.frame)
			} else {
				w.topLevelFrame++
				w.writeFrameDisplay(w.topLevelFrame, dl)
			}
			w.manifest.Frames = append(w.manifest.Frames, FrameRecord{
				Index:   frameIndex,
				Objects: dl.Snapshot(),
			})
			frameIndex++
		case th.code == TagJPEGTables:
			w.jpegTables = body
		case th.code == TagDefineBits:
			w.recordAsset(extractImageJPEGBody(w, body, true))
		case th.code == TagDefineBitsJPEG2:
			w.recordAsset(extractImageJPEGBody(w, body, false))
		case th.code == TagDefineBitsJPEG3, th.code == TagDefineBitsJPEG4:
			w.recordAssetAlpha(body)
		case th.code == TagDefineBitsLossless, th.code == TagDefineBitsLossless2:
			w.recordLossless(body)
		case th.code == TagDefineSound:
			w.recordSound(body)
		case th.code == TagDefineBinaryData:
			w.recordBinary(body)
		case th.code == TagDefineSprite:
			w.processSprite(body)
		case th.code == TagPlaceObject:
			w.handlePlaceObject(body, dl)
		case th.code == TagPlaceObject2, th.code == TagPlaceObject3:
			w.handlePlaceObject2(body, dl, th.code == TagPlaceObject3)
		case th.code == TagRemoveObject, th.code == TagRemoveObject2:
			w.handleRemoveObject(th.code, body, dl)
		case th.code == TagSymbolClass:
			w.handleSymbolClass(body)
		case th.code == TagDoABC:
			w.recordABC(body)
		case th.code == TagDoAction:
			w.recordAction(body, sp)
		case th.code == TagDefineMorphShape, th.code == TagDefineMorphShape2:
			w.recordMorphShape(body)
		case shapeVersion(th.code) > 0:
			w.recordShape(th.code, body)
		default:
			// Unknown or not-yet-handled tag: skip by its declared length,
			// already consumed above via ReadBytes.
		}
	}
}

func extractImageJPEGBody(w *walker, body []byte, needsSplice bool) (uint16, string, error) {
	if len(body) < 2 {
		return 0, "", fmt.Errorf("container: jpeg tag body too short")
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	path, err := extractImageJPEG(w.outDir, charID, body[2:], w.jpegTables, needsSplice)
	return charID, path, err
}

func (w *walker) recordAsset(charID uint16, path string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "container: image character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterImage, Path: path}
	w.manifest.Assets = append(w.manifest.Assets, AssetRecord{CharacterID: charID, Kind: kindName(CharacterImage), Path: path})
}

func (w *walker) recordAssetAlpha(body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	path, err := extractImageJPEGWithAlpha(w.outDir, charID, body[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "container: image alpha character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterImage, Path: path}
	w.manifest.Assets = append(w.manifest.Assets, AssetRecord{CharacterID: charID, Kind: kindName(CharacterImage), Path: path})
}

func (w *walker) recordLossless(body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	path, err := extractLossless(w.outDir, charID, body[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "container: lossless character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterImage, Path: path}
	w.manifest.Assets = append(w.manifest.Assets, AssetRecord{CharacterID: charID, Kind: kindName(CharacterImage), Path: path})
}

func (w *walker) recordSound(body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	path, err := extractSound(w.outDir, charID, body[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "container: sound character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterSound, Path: path}
	w.manifest.Assets = append(w.manifest.Assets, AssetRecord{CharacterID: charID, Kind: kindName(CharacterSound), Path: path})
}

func (w *walker) recordBinary(body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	path, err := extractBinaryData(w.outDir, charID, body[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "container: binary character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterBinary, Path: path}
	w.manifest.Assets = append(w.manifest.Assets, AssetRecord{CharacterID: charID, Kind: kindName(CharacterBinary), Path: path})
}

// recordShape writes a DefineShape(2,3,4) tag's full raw body — the
// character ID header included, not just the geometry that follows it — to
// outDir for internal/shape to decode later, plus a shape_<id>_info.txt
// sidecar recording the shape's id, record version, and byte size. The
// walker never decodes shape geometry itself — it just locates and files it
// away, keeping the dependency direction one-way (shape depends on
// container's output, not the reverse).
func (w *walker) recordShape(code TagCode, body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	name := fmt.Sprintf("shape_%d.dat", charID)
	if err := os.WriteFile(filepath.Join(w.outDir, name), body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write shape character %d: %v\n", charID, err)
		return
	}
	infoName := fmt.Sprintf("shape_%d_info.txt", charID)
	info := fmt.Sprintf("Shape ID: %d\nVersion: %d\nData size: %d bytes\n", charID, shapeVersion(code), len(body))
	if err := os.WriteFile(filepath.Join(w.outDir, infoName), []byte(info), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write shape info %d: %v\n", charID, err)
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterShape, Path: name}
	if w.manifest.ShapeFiles == nil {
		w.manifest.ShapeFiles = make(map[uint16]string)
	}
	w.manifest.ShapeFiles[charID] = name
	w.shapeCounter++
}

// recordMorphShape writes a DefineMorphShape(2) tag's full raw body — start
// and end shapes plus the morph-specific edge records, undecoded — to
// outDir. Nothing in this toolchain interprets morph geometry; the payload
// is filed away the same way a plain shape is, under its own character kind.
func (w *walker) recordMorphShape(body []byte) {
	if len(body) < 2 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	name := fmt.Sprintf("morph_shape_%d.dat", charID)
	if err := os.WriteFile(filepath.Join(w.outDir, name), body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write morph shape character %d: %v\n", charID, err)
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterMorphShape, Path: name}
}

// recordABC writes a DoABC tag's bytecode payload to outDir for
// internal/abc to parse. A DoABC body starts with a 4-byte flags field and
// a nul-terminated name string before the actual ABC container; both are
// kept in the dumped file since internal/abc's parser detects and skips
// them itself.
func (w *walker) recordABC(body []byte) {
	name := fmt.Sprintf("abc_%d.abc", len(w.manifest.ABCFiles))
	if err := os.WriteFile(filepath.Join(w.outDir, name), body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write abc %s: %v\n", name, err)
		return
	}
	w.manifest.ABCFiles = append(w.manifest.ABCFiles, name)
}

// recordAction dumps a DoAction tag's legacy bytecode unchanged: this
// toolchain has no AVM1 interpreter, so the payload is treated as opaque
// and written both as a raw .as blob and a space-separated .hex listing for
// manual inspection. At the top level, frame number and action index share
// the walker-wide counters; inside a sprite, sp supplies a per-sprite frame
// and action counter instead, matching how the original extractor scopes
// them.
func (w *walker) recordAction(body []byte, sp *spriteCtx) {
	var base string
	if sp != nil {
		base = fmt.Sprintf("sprite_%d_frame_%d_action_%d", sp.id, sp.frame, sp.actionCount)
		sp.actionCount++
		fmt.Fprintf(sp.meta, "    Action script\n")
	} else {
		base = fmt.Sprintf("frame_%04d_action_%d", w.topLevelFrame, w.actionCounter)
		w.actionCounter++
	}
	if err := os.WriteFile(filepath.Join(w.outDir, base+".as"), body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write action script %s: %v\n", base, err)
		return
	}
	var hex bytes.Buffer
	for i, b := range body {
		fmt.Fprintf(&hex, "%02x ", b)
		if (i+1)%16 == 0 {
			hex.WriteByte('\n')
		}
	}
	if err := os.WriteFile(filepath.Join(w.outDir, base+".as.hex"), hex.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write action script hex %s: %v\n", base, err)
	}
}

// writeFrameDisplay writes the zero-padded frame_<NNNN>_display.txt text
// dump of dl's current state: one block per occupied depth listing its
// character id, resolved kind and extracted-asset path (when known), matrix,
// and instance name.
func (w *walker) writeFrameDisplay(frameNum int, dl *DisplayList) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== FRAME %d DISPLAY LIST ===\n\n", frameNum)
	for _, obj := range dl.Snapshot() {
		fmt.Fprintf(&buf, "Depth: %d\n", obj.Depth)
		fmt.Fprintf(&buf, "  Character ID: %d\n", obj.CharacterID)
		if entry, ok := w.characterTable[obj.CharacterID]; ok {
			fmt.Fprintf(&buf, "  Type: %s\n", kindName(entry.Kind))
			if entry.Path != "" {
				fmt.Fprintf(&buf, "  File: %s\n", entry.Path)
			}
		}
		m := obj.Matrix
		fmt.Fprintf(&buf, "  Matrix: [%v, %v, %v, %v, %v, %v]\n", m.A, m.B, m.C, m.D, m.TX, m.TY)
		if obj.Name != "" {
			fmt.Fprintf(&buf, "  Name: %s\n", obj.Name)
		}
		buf.WriteByte('\n')
	}
	name := fmt.Sprintf("frame_%04d_display.txt", frameNum)
	if err := os.WriteFile(filepath.Join(w.outDir, name), buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write frame display %d: %v\n", frameNum, err)
	}
}

// processSprite decodes a DefineSprite tag's character ID and frame count,
// then recurses walkTags over the sprite's own nested tag sub-stream,
// sharing this walker's character table, JPEG tables, and output
// directory so a symbol referenced inside a sprite still resolves. A
// sprite_<id>_info.txt descriptor is written listing the frames and any
// frame-level action scripts the sub-stream contained.
func (w *walker) processSprite(body []byte) {
	if len(body) < 4 {
		return
	}
	charID := uint16(body[0]) | uint16(body[1])<<8
	sub := bitio.New(body[4:])
	subDL := NewDisplayList()

	var meta bytes.Buffer
	fmt.Fprintf(&meta, "Sprite ID: %d\nContains:\n", charID)
	sp := &spriteCtx{id: charID, meta: &meta}
	w.walkTags(sub, subDL, sp)

	name := fmt.Sprintf("sprite_%d_info.txt", charID)
	if err := os.WriteFile(filepath.Join(w.outDir, name), meta.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "container: write sprite info %d: %v\n", charID, err)
		w.characterTable[charID] = CharacterEntry{Kind: CharacterSprite}
		return
	}
	w.characterTable[charID] = CharacterEntry{Kind: CharacterSprite, Path: name}
}

// handlePlaceObject decodes the original PlaceObject record: character ID,
// depth, an unconditional matrix, and an optional color transform that
// runs to the end of the declared body.
func (w *walker) handlePlaceObject(body []byte, dl *DisplayList) {
	if len(body) < 4 {
		return
	}
	r := bitio.New(body)
	charID := r.ReadU16LE()
	depth := r.ReadU16LE()
	matrix := readMatrix(r)
	ct := IdentityColorTransform()
	r.AlignToByte()
	if r.BytePosition() < len(body) {
		ct = readColorTransform(r, false)
	}
	dl.Place(DisplayObject{Depth: depth, CharacterID: charID, Matrix: matrix, ColorTransform: ct})
}

// handlePlaceObject2 decodes the flags-gated PlaceObject2/3 record: a flags
// byte selects which of move/character/matrix/colorTransform/ratio/name/
// clipDepth fields follow. PlaceObject3 additionally prefixes a second
// flags byte carrying bitmap-cache and visibility bits this walker doesn't
// otherwise act on, but must still consume to stay aligned.
func (w *walker) handlePlaceObject2(body []byte, dl *DisplayList, isV3 bool) {
	if len(body) < 3 {
		return
	}
	r := bitio.New(body)
	flags := r.ReadByte()
	if isV3 {
		r.ReadByte() // extended flags: cacheAsBitmap, blendMode presence, filter list presence, visibility, opaque background
	}
	depth := r.ReadU16LE()

	hasCharacter := flags&0x02 != 0
	hasMatrix := flags&0x04 != 0
	hasColorTransform := flags&0x08 != 0
	hasRatio := flags&0x10 != 0
	hasName := flags&0x20 != 0
	hasClipDepth := flags&0x40 != 0

	existing, _ := dl.At(depth)

	charID := existing.CharacterID
	if hasCharacter {
		charID = r.ReadU16LE()
	}
	matrix := existing.Matrix
	if hasMatrix {
		matrix = readMatrix(r)
	}
	ct := existing.ColorTransform
	if hasColorTransform {
		r.AlignToByte()
		ct = readColorTransform(r, true)
	}
	if hasRatio {
		r.ReadU16LE()
	}
	name := ""
	if hasName {
		r.AlignToByte()
		name = r.ReadCString()
	}
	if hasClipDepth {
		r.ReadU16LE()
	}

	dl.Place(DisplayObject{Depth: depth, CharacterID: charID, Matrix: matrix, ColorTransform: ct, Name: name})
}

func (w *walker) handleRemoveObject(code TagCode, body []byte, dl *DisplayList) {
	if code == TagRemoveObject {
		if len(body) < 4 {
			return
		}
		depth := uint16(body[2]) | uint16(body[3])<<8
		dl.Remove(depth)
		return
	}
	if len(body) < 2 {
		return
	}
	depth := uint16(body[0]) | uint16(body[1])<<8
	dl.Remove(depth)
}

// handleSymbolClass decodes a SymbolClass tag: a u16 count followed by
// that many (characterID u16, nul-terminated class-name) pairs mapping
// exported bytecode class names onto the character they instantiate.
func (w *walker) handleSymbolClass(body []byte) {
	if len(body) < 2 {
		return
	}
	r := bitio.New(body)
	count := r.ReadU16LE()
	for i := 0; i < int(count); i++ {
		if r.AtEnd() {
			break
		}
		charID := r.ReadU16LE()
		name := r.ReadCString()
		w.symbolClasses[charID] = name
	}
}

// writeSymbolClassTable writes the tab-separated symbol_class.txt sidecar:
// one "characterID\tclassName" line per exported symbol, matching the
// plain-text manifest convention the rest of this toolchain uses for
// cross-referencing extracted assets by name.
func (w *walker) writeSymbolClassTable() error {
	if len(w.symbolClasses) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for id, name := range w.symbolClasses {
		fmt.Fprintf(&buf, "%d\t%s\n", id, name)
	}
	return os.WriteFile(filepath.Join(w.outDir, "symbol_class.txt"), buf.Bytes(), 0o644)
}

// writeManifest writes the JSON manifest describing every frame and asset
// this walk produced, indented for human readability the way the rest of
// this toolchain's side-channel files are.
func (w *walker) writeManifest() error {
	f, err := os.Create(filepath.Join(w.outDir, "manifest.json"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(w.manifest)
}
