// Package container implements the .basis file format: its fixed header,
// slice descriptor array, and the CRC16 integrity checks protecting both.
// It also understands the KTX2 wrapper some files arrive in.
//
// Structurally this mirrors deepteams-webp's internal/container package:
// package-level error vars, explicit-offset binary.LittleEndian decode
// functions, and a small Header/Slice struct pair, generalized from
// WebP's RIFF/VP8X layout to this format's fixed-size header.
package container

// HeaderSize is the fixed size, in bytes, of the .basis file header.
const HeaderSize = 78

// SliceDescSize is the fixed size, in bytes, of one slice descriptor
// (3+1+1+2+2+2+2+4+4+2, packed with no padding, spec §6).
const SliceDescSize = 23

// Sig is the two-byte magic value at the start of a .basis file.
const Sig uint16 = 0x4273 // "sB"

// TexFormat identifies the payload's logical block format before
// transcoding (spec §3).
type TexFormat uint8

const (
	TexFormatETC1S TexFormat = 0
	TexFormatUASTC TexFormat = 1
)

// TextureType classifies how the image array in a file is organized
// (spec §4.11).
type TextureType uint8

const (
	TextureType2D TextureType = iota
	TextureType2DArray
	TextureTypeCubemapArray
	TextureTypeVideoFrames
	TextureTypeVolume
)

// HeaderFlags is a bitmask of per-file flags (spec §3).
type HeaderFlags uint16

const (
	HeaderFlagETC1SNoDiffOnly HeaderFlags = 1 << 0
	HeaderFlagYFlipped        HeaderFlags = 1 << 1
	HeaderFlagHasAlphaSlices  HeaderFlags = 1 << 2
)

// SliceFlags is a bitmask of per-slice flags (spec §4.11).
type SliceFlags uint8

const (
	SliceFlagHasAlpha   SliceFlags = 1 << 0
	SliceFlagFrameIsIFrame SliceFlags = 1 << 1
)

// MaxFileSize bounds the total size this package will parse, guarding
// against pathological header values when reading untrusted input.
const MaxFileSize = 1 << 31
