package bitio

import "errors"

// ErrInvalidEOF names a read past the end of the stream. Reader itself
// never returns it: every read past the end of the underlying buffer is
// padded with zero bits rather than erroring; the container-level CRC
// check is what catches genuine truncation (see spec §4.1).
var ErrInvalidEOF = errors.New("bitio: read past end of stream")

// Reader is an unaligned bit reader with a small in-register buffer,
// refilled one byte at a time from the underlying slice.
type Reader struct {
	data []byte
	pos  int // next unread byte in data

	acc  uint64
	used int // number of valid bits currently in acc
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// refill tops up the accumulator until it holds at least n bits or the
// underlying buffer is exhausted (past-end reads are zero-padded).
func (r *Reader) refill(n int) {
	for r.used < n {
		var b byte
		if r.pos < len(r.data) {
			b = r.data[r.pos]
			r.pos++
		}
		r.acc |= uint64(b) << uint(r.used)
		r.used += 8
	}
}

// PeekBits refills until n bits are available and returns the low n bits
// without advancing the stream.
func (r *Reader) PeekBits(n int) uint32 {
	if n <= 0 {
		return 0
	}
	r.refill(n)
	return uint32(r.acc & (uint64(1)<<uint(n) - 1))
}

// RemoveBits advances the stream by n bits (n must be <= currently
// available bits, i.e. called after a Peek/Get of at least that width).
func (r *Reader) RemoveBits(n int) {
	r.acc >>= uint(n)
	r.used -= n
	if r.used < 0 {
		r.used = 0
	}
}

// GetBits reads and consumes n bits (n in [0,25]).
func (r *Reader) GetBits(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n > 25 {
		panic("bitio: GetBits supports at most 25 bits, use GetBitsWide")
	}
	v := r.PeekBits(n)
	r.RemoveBits(n)
	return v
}

// GetBitsWide reads and consumes n bits (n in [0,32]), splitting the read
// across two sub-25-bit reads.
func (r *Reader) GetBitsWide(n int) uint32 {
	if n <= 25 {
		return r.GetBits(n)
	}
	lo := r.GetBits(25)
	hi := r.GetBits(n - 25)
	return lo | (hi << 25)
}

// GetTruncatedBinary is the decode counterpart of Writer.PutTruncatedBinary.
func (r *Reader) GetTruncatedBinary(n uint32) uint32 {
	if n <= 1 {
		return 0
	}
	k := bitLength(n - 1)
	u := uint32(1) << uint(k)
	thresh := u - n
	prefix := r.GetBits(k - 1)
	if prefix < thresh {
		return prefix
	}
	full := prefix<<1 | r.GetBits(1)
	return full - thresh
}

// GetRice is the decode counterpart of Writer.PutRice.
func (r *Reader) GetRice(m int) uint32 {
	q := uint32(0)
	for r.GetBits(1) == 0 {
		q++
	}
	var low uint32
	if m > 0 {
		low = r.GetBits(m)
	}
	return (q << uint(m)) | low
}

// GetVLC is the decode counterpart of Writer.PutVLC.
func (r *Reader) GetVLC(chunkBits int) uint32 {
	var v uint32
	shift := 0
	for {
		chunk := r.GetBits(chunkBits)
		more := r.GetBits(1)
		v |= chunk << uint(shift)
		shift += chunkBits
		if more == 0 {
			return v
		}
	}
}

// BitsRemaining returns the number of bits left in the underlying buffer
// (including whatever is currently buffered in the accumulator), useful for
// bounds checks before a bulk read.
func (r *Reader) BitsRemaining() int {
	return (len(r.data)-r.pos)*8 + r.used
}

// Exhausted reports whether the reader has consumed every byte of its
// backing buffer and accumulator (used to sanity-check slice-payload
// framing; real truncation is still caught by the container CRC).
func (r *Reader) Exhausted() bool {
	return r.pos >= len(r.data) && r.used == 0
}
