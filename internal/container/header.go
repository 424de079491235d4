package container

import (
	"encoding/binary"
	"errors"
)

// Common errors, mirroring the sentinel-per-failure-mode style deepteams-webp
// uses for its RIFF layer.
var (
	ErrTruncated      = errors.New("container: truncated data")
	ErrInvalidSig     = errors.New("container: invalid file signature")
	ErrTooLarge       = errors.New("container: file too large")
	ErrHeaderCRC      = errors.New("container: header checksum mismatch")
	ErrDataCRC        = errors.New("container: data checksum mismatch")
	ErrInvalidSlice   = errors.New("container: invalid slice descriptor")
	ErrSliceOutOfFile = errors.New("container: slice data extends past end of file")
)

// Header is the fixed 78-byte .basis file header (spec §3, §4.11).
type Header struct {
	Sig               uint16
	Version           uint16
	HeaderSize        uint16
	HeaderCRC16       uint16
	DataSize          uint32
	DataCRC16         uint16
	TotalSlices       uint32
	TotalImages       uint32
	TexFormat         TexFormat
	Flags             HeaderFlags
	TextureType       TextureType
	USPerFrame        uint32
	UserData0         uint32
	UserData1         uint32
	EndpointCBCount   uint32
	EndpointCBOffset  uint32
	EndpointCBSize    uint32
	SelectorCBCount   uint32
	SelectorCBOffset  uint32
	SelectorCBSize    uint32
	TablesOffset      uint32
	TablesSize        uint32
	SliceDescOffset   uint32
	SliceDescSize     uint32
}

// ParseHeader decodes the fixed-size header from the start of data and
// verifies its signature and declared size, but not yet its CRC (callers
// that want integrity checking call VerifyHeaderCRC separately, the same
// split deepteams-webp uses between structural parse and checksum verify).
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTruncated
	}
	var h Header
	h.Sig = binary.LittleEndian.Uint16(data[0:2])
	if h.Sig != Sig {
		return Header{}, ErrInvalidSig
	}
	h.Version = binary.LittleEndian.Uint16(data[2:4])
	h.HeaderSize = binary.LittleEndian.Uint16(data[4:6])
	h.HeaderCRC16 = binary.LittleEndian.Uint16(data[6:8])
	h.DataSize = binary.LittleEndian.Uint32(data[8:12])
	h.DataCRC16 = binary.LittleEndian.Uint16(data[12:14])
	h.TotalSlices = binary.LittleEndian.Uint32(data[14:18])
	h.TotalImages = binary.LittleEndian.Uint32(data[18:22])
	h.TexFormat = TexFormat(data[22])
	h.Flags = HeaderFlags(binary.LittleEndian.Uint16(data[23:25]))
	h.TextureType = TextureType(data[25])
	h.USPerFrame = binary.LittleEndian.Uint32(data[26:30])
	h.UserData0 = binary.LittleEndian.Uint32(data[30:34])
	h.UserData1 = binary.LittleEndian.Uint32(data[34:38])
	h.EndpointCBCount = binary.LittleEndian.Uint32(data[38:42])
	h.EndpointCBOffset = binary.LittleEndian.Uint32(data[42:46])
	h.EndpointCBSize = binary.LittleEndian.Uint32(data[46:50])
	h.SelectorCBCount = binary.LittleEndian.Uint32(data[50:54])
	h.SelectorCBOffset = binary.LittleEndian.Uint32(data[54:58])
	h.SelectorCBSize = binary.LittleEndian.Uint32(data[58:62])
	h.TablesOffset = binary.LittleEndian.Uint32(data[62:66])
	h.TablesSize = binary.LittleEndian.Uint32(data[66:70])
	h.SliceDescOffset = binary.LittleEndian.Uint32(data[70:74])
	h.SliceDescSize = binary.LittleEndian.Uint32(data[74:78])

	if uint64(h.DataSize) > MaxFileSize {
		return Header{}, ErrTooLarge
	}
	return h, nil
}

// VerifyHeaderCRC recomputes the header checksum over the serialized header
// bytes (with the HeaderCRC16 field itself zeroed, per spec §3) and compares
// it against the HeaderCRC16 field stored at raw[6:8].
func VerifyHeaderCRC(raw []byte) error {
	if len(raw) < HeaderSize {
		return ErrTruncated
	}
	want := binary.LittleEndian.Uint16(raw[6:8])
	scratch := append([]byte(nil), raw[:HeaderSize]...)
	binary.LittleEndian.PutUint16(scratch[6:8], 0)
	got := CRC16(scratch)
	if got != want {
		return ErrHeaderCRC
	}
	return nil
}

// VerifyDataCRC recomputes the checksum over the file's data region
// (everything from HeaderSize to HeaderSize+DataSize) and compares it
// against h.DataCRC16.
func VerifyDataCRC(h Header, raw []byte) error {
	end := int(HeaderSize) + int(h.DataSize)
	if end > len(raw) {
		return ErrTruncated
	}
	got := CRC16(raw[HeaderSize:end])
	if got != h.DataCRC16 {
		return ErrDataCRC
	}
	return nil
}

// SliceDesc is one entry of the slice descriptor array (spec §4.11).
type SliceDesc struct {
	ImageIndex    uint32 // stored as 3 bytes on the wire
	LevelIndex    uint8
	Flags         SliceFlags
	OrigWidth     uint16
	OrigHeight    uint16
	NumBlocksX    uint16
	NumBlocksY    uint16
	FileOffset    uint32
	FileSize      uint32
	SliceDataCRC16 uint16
}

// ParseSliceDescs reads count fixed-size slice descriptors starting at
// data[0], validating that each one's file region lies within fileLen.
func ParseSliceDescs(data []byte, count int, fileLen int) ([]SliceDesc, error) {
	need := count * SliceDescSize
	if len(data) < need {
		return nil, ErrTruncated
	}
	out := make([]SliceDesc, count)
	for i := 0; i < count; i++ {
		d := data[i*SliceDescSize:]
		var s SliceDesc
		s.ImageIndex = uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16
		s.LevelIndex = d[3]
		s.Flags = SliceFlags(d[4])
		s.OrigWidth = binary.LittleEndian.Uint16(d[5:7])
		s.OrigHeight = binary.LittleEndian.Uint16(d[7:9])
		s.NumBlocksX = binary.LittleEndian.Uint16(d[9:11])
		s.NumBlocksY = binary.LittleEndian.Uint16(d[11:13])
		s.FileOffset = binary.LittleEndian.Uint32(d[13:17])
		s.FileSize = binary.LittleEndian.Uint32(d[17:21])
		s.SliceDataCRC16 = binary.LittleEndian.Uint16(d[21:23])

		if uint64(s.FileOffset)+uint64(s.FileSize) > uint64(fileLen) {
			return nil, ErrSliceOutOfFile
		}
		out[i] = s
	}
	return out, nil
}

// VerifySliceCRC checks one slice's data region against its declared CRC16.
func VerifySliceCRC(s SliceDesc, raw []byte) error {
	end := int(s.FileOffset) + int(s.FileSize)
	if end > len(raw) {
		return ErrTruncated
	}
	got := CRC16(raw[s.FileOffset:end])
	if got != s.SliceDataCRC16 {
		return ErrDataCRC
	}
	return nil
}
