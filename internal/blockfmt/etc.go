package blockfmt

// ToETC1 writes the 8-byte ETC1 RGB block directly: the source logical
// block already *is* an ETC1 block, so this is a bit-identical pack with
// no intermediate decode (spec §4.9: "identity bit-pack").
func ToETC1(src SourceBlock) []byte {
	v := src.Block.Pack()
	out := make([]byte, 8)
	out[0] = byte(v >> 56)
	out[1] = byte(v >> 48)
	out[2] = byte(v >> 40)
	out[3] = byte(v >> 32)
	out[4] = byte(v >> 24)
	out[5] = byte(v >> 16)
	out[6] = byte(v >> 8)
	out[7] = byte(v)
	return out
}

// ToETC2RGBA writes a 16-byte ETC2 RGBA block: an EAC A8 alpha block
// followed by the ETC1-identical color block, matching the format's
// on-disk layout (alpha block first, spec §4.9: "ETC1S -> ETC2 RGBA").
func ToETC2RGBA(src SourceBlock) []byte {
	out := make([]byte, 16)
	copy(out[0:8], ToETC2EACA8(src))
	copy(out[8:16], ToETC1(src))
	return out
}
