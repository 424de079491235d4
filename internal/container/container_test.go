package container

import (
	"encoding/binary"
	"testing"
)

func buildTestFile(slices []SliceDesc, payload []byte) []byte {
	sliceDescOffset := HeaderSize
	sliceDescBytes := make([]byte, 0, len(slices)*SliceDescSize)
	for _, s := range slices {
		sliceDescBytes = append(sliceDescBytes, EncodeSliceDesc(s)...)
	}
	dataStart := sliceDescOffset + len(sliceDescBytes)
	full := append([]byte(nil), payload...)

	h := Header{
		Version:         1,
		HeaderSize:      HeaderSize,
		DataSize:        uint32(len(sliceDescBytes) + len(full)),
		TotalSlices:     uint32(len(slices)),
		TotalImages:     1,
		TexFormat:       TexFormatETC1S,
		SliceDescOffset: uint32(sliceDescOffset),
		SliceDescSize:   uint32(len(sliceDescBytes)),
	}
	dataRegion := append(append([]byte(nil), sliceDescBytes...), full...)
	h.DataCRC16 = CRC16(dataRegion)

	hdrBytes := EncodeHeader(h)
	out := append(hdrBytes, dataRegion...)
	_ = dataStart
	return out
}

func TestHeaderRoundTrip(t *testing.T) {
	slice := SliceDesc{
		ImageIndex: 0,
		LevelIndex: 0,
		OrigWidth:  8,
		OrigHeight: 8,
		NumBlocksX: 2,
		NumBlocksY: 2,
		FileOffset: uint32(HeaderSize + SliceDescSize),
		FileSize:   4,
	}
	payload := []byte{1, 2, 3, 4}
	slice.SliceDataCRC16 = CRC16(payload)

	raw := buildTestFile([]SliceDesc{slice}, payload)

	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Sig != Sig {
		t.Fatalf("sig mismatch")
	}
	if err := VerifyHeaderCRC(raw); err != nil {
		t.Fatalf("VerifyHeaderCRC: %v", err)
	}
	if err := VerifyDataCRC(h, raw); err != nil {
		t.Fatalf("VerifyDataCRC: %v", err)
	}

	descs, err := ParseSliceDescs(raw[h.SliceDescOffset:], int(h.TotalSlices), len(raw))
	if err != nil {
		t.Fatalf("ParseSliceDescs: %v", err)
	}
	if len(descs) != 1 {
		t.Fatalf("got %d slices, want 1", len(descs))
	}
	if err := VerifySliceCRC(descs[0], raw); err != nil {
		t.Fatalf("VerifySliceCRC: %v", err)
	}

	images, err := GroupSlices(descs)
	if err != nil {
		t.Fatalf("GroupSlices: %v", err)
	}
	if len(images) != 1 || len(images[0].Levels) != 1 {
		t.Fatalf("unexpected grouping: %+v", images)
	}
	if images[0].Levels[0].Width != 8 || images[0].Levels[0].Height != 8 {
		t.Fatalf("unexpected level dims: %+v", images[0].Levels[0])
	}
}

func TestVerifyDataCRC_DetectsCorruption(t *testing.T) {
	slice := SliceDesc{
		OrigWidth:  4,
		OrigHeight: 4,
		NumBlocksX: 1,
		NumBlocksY: 1,
		FileOffset: uint32(HeaderSize + SliceDescSize),
		FileSize:   4,
	}
	payload := []byte{9, 9, 9, 9}
	slice.SliceDataCRC16 = CRC16(payload)
	raw := buildTestFile([]SliceDesc{slice}, payload)

	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := VerifyDataCRC(h, raw); err == nil {
		t.Fatalf("expected data CRC mismatch after corruption")
	}
}

func TestParseKTX2_RejectsBadIdentifier(t *testing.T) {
	if _, err := ParseKTX2(make([]byte, 64)); err != ErrInvalidKTX2Identifier {
		t.Fatalf("got %v, want ErrInvalidKTX2Identifier", err)
	}
}

func TestParseKTX2_HeaderFields(t *testing.T) {
	buf := make([]byte, ktx2HeaderSize+24)
	copy(buf[:12], ktx2Identifier[:])
	b := buf[12:]
	binary.LittleEndian.PutUint32(b[8:12], 64)  // pixelWidth
	binary.LittleEndian.PutUint32(b[12:16], 64) // pixelHeight
	binary.LittleEndian.PutUint32(b[28:32], 1)  // levelCount

	f, err := ParseKTX2(buf)
	if err != nil {
		t.Fatalf("ParseKTX2: %v", err)
	}
	if f.Header.PixelWidth != 64 || f.Header.PixelHeight != 64 {
		t.Fatalf("unexpected dims: %+v", f.Header)
	}
	if len(f.Levels) != 1 {
		t.Fatalf("got %d levels, want 1", len(f.Levels))
	}
}
