package bitio

import (
	"math/rand"
	"testing"
)

func TestWriterReader_RoundTrip_PutBits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	type entry struct {
		v uint32
		n int
	}
	entries := make([]entry, 2000)
	w := NewWriter(0)
	for i := range entries {
		n := 1 + rng.Intn(25)
		v := uint32(rng.Int63()) & (uint32(1)<<uint(n) - 1)
		entries[i] = entry{v: v, n: n}
		w.PutBits(v, n)
	}
	w.Flush()
	r := NewReader(w.Bytes())
	for i, e := range entries {
		got := r.GetBits(e.n)
		if got != e.v {
			t.Fatalf("entry %d: got %d want %d (n=%d)", i, got, e.v, e.n)
		}
	}
}

func TestWriterReader_RoundTrip_Wide(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(32)
		var v uint32
		if n == 32 {
			v = rng.Uint32()
		} else {
			v = rng.Uint32() & (uint32(1)<<uint(n) - 1)
		}
		w := NewWriter(0)
		w.PutBitsWide(v, n)
		w.Flush()
		r := NewReader(w.Bytes())
		got := r.GetBitsWide(n)
		if got != v {
			t.Fatalf("trial %d: got %d want %d (n=%d)", trial, got, v, n)
		}
	}
}

func TestRice_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(123))
	for m := 0; m < 6; m++ {
		for trial := 0; trial < 100; trial++ {
			v := uint32(rng.Intn(1 << 12))
			w := NewWriter(0)
			w.PutRice(v, m)
			w.Flush()
			r := NewReader(w.Bytes())
			got := r.GetRice(m)
			if got != v {
				t.Fatalf("m=%d trial=%d: got %d want %d", m, trial, got, v)
			}
		}
	}
}

func TestVLC_RoundTrip(t *testing.T) {
	vals := []uint32{0, 1, 2, 127, 128, 200, 1 << 20, 0xffffffff}
	for _, v := range vals {
		w := NewWriter(0)
		w.PutVLC(v, 7)
		w.Flush()
		r := NewReader(w.Bytes())
		got := r.GetVLC(7)
		if got != v {
			t.Fatalf("v=%d: got %d", v, got)
		}
	}
}

func TestTruncatedBinary_RoundTrip(t *testing.T) {
	for _, n := range []uint32{2, 3, 5, 7, 16, 17, 31, 100} {
		for v := uint32(0); v < n; v++ {
			w := NewWriter(0)
			w.PutTruncatedBinary(v, n)
			w.Flush()
			r := NewReader(w.Bytes())
			got := r.GetTruncatedBinary(n)
			if got != v {
				t.Fatalf("n=%d v=%d: got %d", n, v, got)
			}
		}
	}
}

func TestReader_PadsZeroPastEnd(t *testing.T) {
	r := NewReader([]byte{0xff})
	_ = r.GetBits(8)
	if got := r.GetBits(16); got != 0 {
		t.Fatalf("expected zero padding past end, got %d", got)
	}
	if !r.Exhausted() {
		t.Fatalf("expected reader to report exhausted")
	}
}
