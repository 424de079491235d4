package xcode

import (
	"testing"

	"github.com/basisgo/transcoder/internal/backend"
	"github.com/basisgo/transcoder/internal/codebook"
)

func TestDecodeSlice_RoundTripsEncodedMacroblocks(t *testing.T) {
	endpointOld := []codebook.EndpointEntry{
		{R: 10, G: 10, B: 10, Inten: 0},
		{R: 12, G: 10, B: 10, Inten: 0},
	}
	selectorOld := []codebook.SelectorEntry{
		{Selectors: [16]uint8{}},
		{Selectors: [16]uint8{1, 1, 1, 1, 1, 1, 1, 1}},
	}

	mbsIn := []backend.MacroblockInput{
		{
			Blocks: [4]backend.BlockClusterInput{
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 1},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
				{EndpointIdx: [2]int{0, 1}, SelectorIdx: 1},
			},
		},
	}

	result, err := backend.EncodeSlice(mbsIn, endpointOld, selectorOld, 1.0)
	if err != nil {
		t.Fatalf("EncodeSlice: %v", err)
	}

	endpointNewOrder := make([]codebook.EndpointEntry, len(endpointOld))
	for newIdx, oldIdx := range result.EndpointReorder.NewToOld {
		endpointNewOrder[newIdx] = endpointOld[oldIdx]
	}
	selectorNewOrder := make([]codebook.SelectorEntry, len(selectorOld))
	for newIdx, oldIdx := range result.SelectorReorder.NewToOld {
		selectorNewOrder[newIdx] = selectorOld[oldIdx]
	}

	mbs, err := DecodeSlice(result.Payload, endpointNewOrder, selectorNewOrder, []byte{0})
	if err != nil {
		t.Fatalf("DecodeSlice: %v", err)
	}
	if len(mbs) != 1 {
		t.Fatalf("got %d macroblocks, want 1", len(mbs))
	}

	for b, blk := range mbs[0].Blocks {
		if !blk.Diff {
			t.Fatalf("block %d: expected diff mode", b)
		}
		wantBase0 := [3]uint8{10, 10, 10}
		wantBase1 := [3]uint8{12, 10, 10}
		if blk.Base5[0] != wantBase0 || blk.Base5[1] != wantBase1 {
			t.Fatalf("block %d: base5 = %v/%v, want %v/%v", b, blk.Base5[0], blk.Base5[1], wantBase0, wantBase1)
		}
	}
}

func TestDecodeSlice_RejectsFlipMaskCountMismatch(t *testing.T) {
	endpointOld := []codebook.EndpointEntry{{R: 1, G: 1, B: 1}, {R: 2, G: 1, B: 1}}
	selectorOld := []codebook.SelectorEntry{{}}
	mbsIn := []backend.MacroblockInput{
		{Blocks: [4]backend.BlockClusterInput{
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
		}},
	}
	result, err := backend.EncodeSlice(mbsIn, endpointOld, selectorOld, 1.0)
	if err != nil {
		t.Fatalf("EncodeSlice: %v", err)
	}
	if _, err := DecodeSlice(result.Payload, endpointOld, selectorOld, nil); err == nil {
		t.Fatalf("expected error for mismatched flip mask count")
	}
}
