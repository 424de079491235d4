package huffman

import (
	"math/rand"
	"testing"

	"github.com/basisgo/transcoder/internal/bitio"
)

func TestBuild_DecodeRoundTrip(t *testing.T) {
	lengths := []int{2, 2, 3, 3, 3, 3}
	tbl, err := Build(lengths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := bitio.NewWriter(0)
	syms := []int{0, 1, 2, 3, 4, 5, 0, 5, 2, 1}
	for _, s := range syms {
		tbl.Encode(w, s)
	}
	w.Flush()
	r := bitio.NewReader(w.Bytes())
	for i, want := range syms {
		got, err := tbl.Decode(r)
		if err != nil {
			t.Fatalf("symbol %d: decode error %v", i, err)
		}
		if int(got) != want {
			t.Fatalf("symbol %d: got %d want %d", i, got, want)
		}
	}
}

func TestBuild_DegenerateSingleSymbol(t *testing.T) {
	lengths := []int{0, 1, 0}
	tbl, err := Build(lengths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := bitio.NewWriter(0)
	tbl.Encode(w, 1)
	tbl.Encode(w, 1)
	w.Flush()
	r := bitio.NewReader(w.Bytes())
	for i := 0; i < 2; i++ {
		got, err := tbl.Decode(r)
		if err != nil || got != 1 {
			t.Fatalf("iter %d: got %d err %v", i, got, err)
		}
	}
}

func TestBuild_InvalidLengths(t *testing.T) {
	// Three symbols all claiming length 1 over-subscribe the code space.
	if _, err := Build([]int{1, 1, 1}); err == nil {
		t.Fatalf("expected error for over-subscribed lengths")
	}
}

func TestWireRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	// Synthesize lengths from a real Huffman build over random frequencies
	// so Kraft's equality holds exactly.
	freq := make([]int, 64)
	for i := range freq {
		freq[i] = 1 + rng.Intn(50)
	}
	canon, err := lengthLimitedLengths(freq, MaxCodeLength)
	if err != nil {
		t.Fatalf("lengthLimitedLengths: %v", err)
	}

	w := bitio.NewWriter(0)
	if err := Serialize(w, canon); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	w.Flush()

	r := bitio.NewReader(w.Bytes())
	got, err := Deserialize(r)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(got) != len(canon) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(canon))
	}
	for i := range canon {
		if got[i] != canon[i] {
			t.Fatalf("symbol %d: got %d want %d", i, got[i], canon[i])
		}
	}
}

func TestWireRoundTrip_Small(t *testing.T) {
	freq := []int{10, 1, 1, 1}
	canon, err := lengthLimitedLengths(freq, MaxCodeLength)
	if err != nil {
		t.Fatalf("lengthLimitedLengths: %v", err)
	}
	w := bitio.NewWriter(0)
	if err := Serialize(w, canon); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	w.Flush()
	r := bitio.NewReader(w.Bytes())
	got, err := Deserialize(r)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	for i := range canon {
		if got[i] != canon[i] {
			t.Fatalf("symbol %d: got %d want %d", i, got[i], canon[i])
		}
	}
}
