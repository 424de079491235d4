// Package codebook implements the endpoint and selector palettes, their
// reorder tables, and the move-to-front selector-history buffer that the
// ETC1S backend and container transcoder both depend on (spec §3, §4.3,
// §4.5, §4.6).
package codebook

// MaxHistory is the maximum number of recent selector indices the
// move-to-front buffer tracks (spec §3, "MAX_HIST = 64").
const MaxHistory = 64

// MoveToFrontBuffer is a bounded approximate-MTF recent-symbol buffer. It
// is a first-class value type (spec §9 design note: lifted out of the
// transcoder's per-state fields so it is trivially testable in isolation),
// grounded in shape on deepteams-webp/internal/lossless/colorcache.go's
// small bounded recent-value structure but implementing this format's
// exact promote-by-pairwise-swap semantics, which has no webp counterpart.
type MoveToFrontBuffer struct {
	entries []int
}

// NewMoveToFrontBuffer creates an empty buffer.
func NewMoveToFrontBuffer() *MoveToFrontBuffer {
	return &MoveToFrontBuffer{entries: make([]int, 0, MaxHistory)}
}

// Reset empties the buffer for reuse.
func (m *MoveToFrontBuffer) Reset() {
	m.entries = m.entries[:0]
}

// Size returns the number of entries currently buffered.
func (m *MoveToFrontBuffer) Size() int {
	return len(m.entries)
}

// At returns the value stored at position i (0 = most recently promoted).
func (m *MoveToFrontBuffer) At(i int) int {
	return m.entries[i]
}

// Add appends a new value. When the buffer is at capacity, the oldest half
// is dropped and the new value wraps in through the second half, matching
// spec §3's "wrapping through the second half of the buffer".
func (m *MoveToFrontBuffer) Add(value int) {
	if len(m.entries) < MaxHistory {
		m.entries = append(m.entries, value)
		return
	}
	half := MaxHistory / 2
	copy(m.entries[0:half], m.entries[half:MaxHistory])
	m.entries[MaxHistory-1] = value
}

// Use promotes entry i toward the front by swapping positions i/2 and i
// (spec §3/§4.6). It is a no-op for i == 0 (already at the front; spec
// §4.6 calls out history-hit-at-0 as doing nothing).
func (m *MoveToFrontBuffer) Use(i int) {
	if i <= 0 || i >= len(m.entries) {
		return
	}
	j := i / 2
	m.entries[j], m.entries[i] = m.entries[i], m.entries[j]
}

// Find returns the index of value in the buffer, scanning front to back, or
// -1 if not present. Used by the encoder's RDO search (spec §4.6 step 2).
func (m *MoveToFrontBuffer) Find(value int) int {
	for i, v := range m.entries {
		if v == value {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy, used when the encoder needs to try a
// speculative substitution without disturbing the committed state.
func (m *MoveToFrontBuffer) Clone() *MoveToFrontBuffer {
	c := &MoveToFrontBuffer{entries: make([]int, len(m.entries), MaxHistory)}
	copy(c.entries, m.entries)
	return c
}
