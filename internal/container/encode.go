package container

import "encoding/binary"

// EncodeHeader serializes h to its fixed 78-byte wire form and patches in
// the header CRC16 (computed with the CRC field itself zeroed, matching
// VerifyHeaderCRC's convention).
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], Sig)
	binary.LittleEndian.PutUint16(buf[2:4], h.Version)
	binary.LittleEndian.PutUint16(buf[4:6], h.HeaderSize)
	binary.LittleEndian.PutUint16(buf[6:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], h.DataSize)
	binary.LittleEndian.PutUint16(buf[12:14], h.DataCRC16)
	binary.LittleEndian.PutUint32(buf[14:18], h.TotalSlices)
	binary.LittleEndian.PutUint32(buf[18:22], h.TotalImages)
	buf[22] = byte(h.TexFormat)
	binary.LittleEndian.PutUint16(buf[23:25], uint16(h.Flags))
	buf[25] = byte(h.TextureType)
	binary.LittleEndian.PutUint32(buf[26:30], h.USPerFrame)
	binary.LittleEndian.PutUint32(buf[30:34], h.UserData0)
	binary.LittleEndian.PutUint32(buf[34:38], h.UserData1)
	binary.LittleEndian.PutUint32(buf[38:42], h.EndpointCBCount)
	binary.LittleEndian.PutUint32(buf[42:46], h.EndpointCBOffset)
	binary.LittleEndian.PutUint32(buf[46:50], h.EndpointCBSize)
	binary.LittleEndian.PutUint32(buf[50:54], h.SelectorCBCount)
	binary.LittleEndian.PutUint32(buf[54:58], h.SelectorCBOffset)
	binary.LittleEndian.PutUint32(buf[58:62], h.SelectorCBSize)
	binary.LittleEndian.PutUint32(buf[62:66], h.TablesOffset)
	binary.LittleEndian.PutUint32(buf[66:70], h.TablesSize)
	binary.LittleEndian.PutUint32(buf[70:74], h.SliceDescOffset)
	binary.LittleEndian.PutUint32(buf[74:78], h.SliceDescSize)

	crc := CRC16(buf)
	binary.LittleEndian.PutUint16(buf[6:8], crc)
	return buf
}

// EncodeSliceDesc serializes one slice descriptor to its fixed 23-byte
// wire form.
func EncodeSliceDesc(s SliceDesc) []byte {
	buf := make([]byte, SliceDescSize)
	buf[0] = byte(s.ImageIndex)
	buf[1] = byte(s.ImageIndex >> 8)
	buf[2] = byte(s.ImageIndex >> 16)
	buf[3] = s.LevelIndex
	buf[4] = byte(s.Flags)
	binary.LittleEndian.PutUint16(buf[5:7], s.OrigWidth)
	binary.LittleEndian.PutUint16(buf[7:9], s.OrigHeight)
	binary.LittleEndian.PutUint16(buf[9:11], s.NumBlocksX)
	binary.LittleEndian.PutUint16(buf[11:13], s.NumBlocksY)
	binary.LittleEndian.PutUint32(buf[13:17], s.FileOffset)
	binary.LittleEndian.PutUint32(buf[17:21], s.FileSize)
	binary.LittleEndian.PutUint16(buf[21:23], s.SliceDataCRC16)
	return buf
}
