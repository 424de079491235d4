package codebook

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/basisgo/transcoder/internal/bitio"
)

func TestReorderTables_Invariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	usage := make([]int, 500)
	for i := range usage {
		usage[i] = rng.Intn(40)
	}
	tbl := ReorderEndpoints(40, usage)
	if !tbl.Valid() {
		t.Fatalf("reorder table invariant violated")
	}
}

func TestMoveToFrontBuffer_UseAndAdd(t *testing.T) {
	m := NewMoveToFrontBuffer()
	for i := 0; i < 5; i++ {
		m.Add(i)
	}
	if m.Size() != 5 {
		t.Fatalf("size = %d want 5", m.Size())
	}
	// Use(3) should swap positions 1 and 3.
	before := append([]int(nil), m.entries...)
	m.Use(3)
	want := append([]int(nil), before...)
	want[1], want[3] = want[3], want[1]
	if diff := cmp.Diff(want, m.entries); diff != "" {
		t.Fatalf("Use(3) mismatch (-want +got):\n%s", diff)
	}
	// Use(0) is a no-op.
	snapshot := append([]int(nil), m.entries...)
	m.Use(0)
	if diff := cmp.Diff(snapshot, m.entries); diff != "" {
		t.Fatalf("Use(0) should be a no-op (-want +got):\n%s", diff)
	}
}

func TestMoveToFrontBuffer_WrapsAtCapacity(t *testing.T) {
	m := NewMoveToFrontBuffer()
	for i := 0; i < MaxHistory; i++ {
		m.Add(i)
	}
	if m.Size() != MaxHistory {
		t.Fatalf("size = %d want %d", m.Size(), MaxHistory)
	}
	m.Add(9999)
	if m.Size() != MaxHistory {
		t.Fatalf("size changed on wraparound add: %d", m.Size())
	}
	if m.At(MaxHistory-1) != 9999 {
		t.Fatalf("expected wrapped add to land at the end, got %d", m.At(MaxHistory-1))
	}
}

func TestEndpointPalette_EncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := 37
	entries := make([]EndpointEntry, n)
	for i := range entries {
		entries[i] = EndpointEntry{
			R:     uint8(rng.Intn(32)),
			G:     uint8(rng.Intn(32)),
			B:     uint8(rng.Intn(32)),
			Inten: uint8(rng.Intn(8)),
		}
		entries[i].Pred4 = predict444(entries[i])
	}
	reorder := Identity(n)

	w := bitio.NewWriter(0)
	if err := EncodeEndpointPalette(w, entries, reorder.OldToNew); err != nil {
		t.Fatalf("EncodeEndpointPalette: %v", err)
	}
	w.Flush()

	r := bitio.NewReader(w.Bytes())
	pal, err := DecodeEndpointPalette(r, n, reorder.NewToOld)
	if err != nil {
		t.Fatalf("DecodeEndpointPalette: %v", err)
	}
	for i := range entries {
		got := pal.Entries[i]
		want := entries[i]
		if got.R != want.R || got.G != want.G || got.B != want.B || got.Inten != want.Inten {
			t.Fatalf("entry %d: got %+v want %+v", i, got, want)
		}
	}
}

func TestSelectorPalette_EncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 53
	entries := make([]SelectorEntry, n)
	for i := range entries {
		var e SelectorEntry
		for k := range e.Selectors {
			e.Selectors[k] = uint8(rng.Intn(4))
		}
		entries[i] = e
	}
	reorder := Identity(n)

	w := bitio.NewWriter(0)
	if err := EncodeSelectorPalette(w, entries, reorder.OldToNew); err != nil {
		t.Fatalf("EncodeSelectorPalette: %v", err)
	}
	w.Flush()

	r := bitio.NewReader(w.Bytes())
	pal, err := DecodeSelectorPalette(r, n, reorder.NewToOld, nil)
	if err != nil {
		t.Fatalf("DecodeSelectorPalette: %v", err)
	}
	for i := range entries {
		if pal.Entries[i] != entries[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, pal.Entries[i], entries[i])
		}
	}
}
