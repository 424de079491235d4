package container

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ktx2Identifier is the 12-byte magic every KTX2 file starts with.
var ktx2Identifier = [12]byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x32, 0x30, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

// SupercompressionScheme identifies how each mip level's byte range is
// compressed beyond the texture format's own block compression.
type SupercompressionScheme uint32

const (
	SupercompressionNone      SupercompressionScheme = 0
	SupercompressionBasisLZ   SupercompressionScheme = 1
	SupercompressionZstandard SupercompressionScheme = 2
)

var ErrInvalidKTX2Identifier = errors.New("container: not a KTX2 file")

// ktx2HeaderSize is the 12-byte identifier plus the fixed header fields
// (thirteen 4-byte and two 8-byte); the level index starts here.
const ktx2HeaderSize = 12 + 4*13 + 8*2

// KTX2Header holds a KTX2 file's fixed-size header fields.
type KTX2Header struct {
	VKFormat              uint32
	TypeSize               uint32
	PixelWidth              uint32
	PixelHeight             uint32
	PixelDepth              uint32
	LayerCount              uint32
	FaceCount               uint32
	LevelCount              uint32
	SupercompressionScheme SupercompressionScheme

	DFDByteOffset uint32
	DFDByteLength uint32
	KVDByteOffset uint32
	KVDByteLength uint32
	SGDByteOffset uint64
	SGDByteLength uint64
}

// KTX2Level is one entry of the level index array.
type KTX2Level struct {
	ByteOffset     uint64
	ByteLength     uint64
	UncompressedByteLength uint64
}

// KTX2File is a parsed KTX2 container: header, level index, key/value
// metadata, and the raw supercompression-global-data block (present only
// when SupercompressionScheme is BasisLZ, spec §4.11).
type KTX2File struct {
	Header   KTX2Header
	Levels   []KTX2Level
	KeyValue map[string][]byte
	SGD      []byte
}

// ParseKTX2 parses a KTX2 file's header, level index, and key/value
// metadata. It does not interpret per-level payload bytes; callers combine
// Levels with the raw file bytes to extract each mip's data.
func ParseKTX2(data []byte) (*KTX2File, error) {
	if len(data) < 12 || !bytes.Equal(data[:12], ktx2Identifier[:]) {
		return nil, ErrInvalidKTX2Identifier
	}
	if len(data) < ktx2HeaderSize {
		return nil, ErrTruncated
	}
	f := &KTX2File{KeyValue: map[string][]byte{}}
	b := data[12:]
	h := &f.Header
	h.VKFormat = binary.LittleEndian.Uint32(b[0:4])
	h.TypeSize = binary.LittleEndian.Uint32(b[4:8])
	h.PixelWidth = binary.LittleEndian.Uint32(b[8:12])
	h.PixelHeight = binary.LittleEndian.Uint32(b[12:16])
	h.PixelDepth = binary.LittleEndian.Uint32(b[16:20])
	h.LayerCount = binary.LittleEndian.Uint32(b[20:24])
	h.FaceCount = binary.LittleEndian.Uint32(b[24:28])
	h.LevelCount = binary.LittleEndian.Uint32(b[28:32])
	h.SupercompressionScheme = SupercompressionScheme(binary.LittleEndian.Uint32(b[32:36]))
	h.DFDByteOffset = binary.LittleEndian.Uint32(b[36:40])
	h.DFDByteLength = binary.LittleEndian.Uint32(b[40:44])
	h.KVDByteOffset = binary.LittleEndian.Uint32(b[44:48])
	h.KVDByteLength = binary.LittleEndian.Uint32(b[48:52])
	h.SGDByteOffset = binary.LittleEndian.Uint64(b[52:60])
	h.SGDByteLength = binary.LittleEndian.Uint64(b[60:68])

	levelCount := h.LevelCount
	if levelCount == 0 {
		levelCount = 1
	}
	levelIdxOff := ktx2HeaderSize
	const levelEntrySize = 24
	need := levelIdxOff + int(levelCount)*levelEntrySize
	if len(data) < need {
		return nil, ErrTruncated
	}
	f.Levels = make([]KTX2Level, levelCount)
	for i := 0; i < int(levelCount); i++ {
		e := data[levelIdxOff+i*levelEntrySize:]
		f.Levels[i] = KTX2Level{
			ByteOffset:             binary.LittleEndian.Uint64(e[0:8]),
			ByteLength:             binary.LittleEndian.Uint64(e[8:16]),
			UncompressedByteLength: binary.LittleEndian.Uint64(e[16:24]),
		}
	}

	if h.KVDByteLength > 0 {
		start := int(h.KVDByteOffset)
		end := start + int(h.KVDByteLength)
		if end > len(data) {
			return nil, ErrTruncated
		}
		kv, err := parseKTX2KeyValueData(data[start:end])
		if err != nil {
			return nil, err
		}
		f.KeyValue = kv
	}

	if h.SGDByteLength > 0 {
		start := int(h.SGDByteOffset)
		end := start + int(h.SGDByteLength)
		if end > len(data) {
			return nil, ErrTruncated
		}
		f.SGD = data[start:end]
	}

	return f, nil
}

// parseKTX2KeyValueData parses the length-prefixed, 4-byte-aligned
// key\0value entries of the KVD block.
func parseKTX2KeyValueData(data []byte) (map[string][]byte, error) {
	out := map[string][]byte{}
	pos := 0
	for pos < len(data) {
		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		entryLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if entryLen == 0 {
			continue
		}
		if pos+entryLen > len(data) {
			return nil, ErrTruncated
		}
		entry := data[pos : pos+entryLen]
		nul := bytes.IndexByte(entry, 0)
		if nul < 0 {
			return nil, ErrTruncated
		}
		key := string(entry[:nul])
		value := append([]byte(nil), entry[nul+1:]...)
		out[key] = value
		pos += entryLen
		if pad := (4 - pos%4) % 4; pad > 0 {
			pos += pad
		}
	}
	return out, nil
}

// VideoFrameDuration returns the per-frame duration in microseconds
// encoded in the "KTXanimData" key, if present (spec §4.14: video files
// carry frame timing in a KTX2 key-value entry rather than the .basis
// header's USPerFrame field).
func (f *KTX2File) VideoFrameDuration() (microsecondsPerFrame uint32, loopCount uint32, ok bool) {
	raw, present := f.KeyValue["KTXanimData"]
	if !present || len(raw) < 12 {
		return 0, 0, false
	}
	// duration, timescale, loopCount, all little-endian uint32 (matches
	// the libktx convention this key originated from).
	duration := binary.LittleEndian.Uint32(raw[0:4])
	timescale := binary.LittleEndian.Uint32(raw[4:8])
	loop := binary.LittleEndian.Uint32(raw[8:12])
	if timescale == 0 {
		return 0, loop, false
	}
	return duration * 1_000_000 / timescale, loop, true
}
