package backend

import "testing"

func TestTemplates_AllWithinBounds(t *testing.T) {
	for i, tmpl := range Templates {
		if tmpl.NumLocal < 1 || tmpl.NumLocal > 8 {
			t.Fatalf("template %d has NumLocal=%d, out of [1,8]", i, tmpl.NumLocal)
		}
		if i < 16 && (tmpl.NumLocal < 4 || tmpl.NumLocal > 8) {
			t.Fatalf("within-block template %d has NumLocal=%d, want [4,8]", i, tmpl.NumLocal)
		}
	}
}

func TestWithinBlockFallback_AlwaysMatchesATemplate(t *testing.T) {
	cases := [][8]int{
		{1, 1, 2, 2, 3, 3, 4, 4},
		{5, 5, 5, 5, 5, 5, 5, 5},
		{1, 2, 3, 4, 5, 6, 7, 8},
		{9, 10, 9, 10, 11, 11, 12, 13},
	}
	for _, slots := range cases {
		fb := WithinBlockFallback(slots)
		if _, ok := FindTemplate(fb); !ok {
			t.Fatalf("fallback for %v matched no template: %v", slots, fb)
		}
	}
}

func TestBuildMacroblock_DedupAndDiffMask(t *testing.T) {
	colors := [][3]uint8{
		{10, 10, 10},
		{12, 10, 10},
		{20, 20, 20},
		{22, 20, 20},
	}
	in := MacroblockInput{
		Blocks: [4]BlockClusterInput{
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 1},
			{EndpointIdx: [2]int{2, 3}, SelectorIdx: 2},
			{EndpointIdx: [2]int{2, 3}, SelectorIdx: 3},
		},
	}
	mb, err := BuildMacroblock(in, colors)
	if err != nil {
		t.Fatalf("BuildMacroblock: %v", err)
	}
	if mb.DiffMask != 0x0F {
		t.Fatalf("diff mask = %x, want 0x0F", mb.DiffMask)
	}
	if len(mb.LocalEndpoints) < 2 || len(mb.LocalEndpoints) > 8 {
		t.Fatalf("unexpected local endpoint count: %d", len(mb.LocalEndpoints))
	}
}

func TestBuildMacroblock_RejectsNonRepresentableDiff(t *testing.T) {
	colors := [][3]uint8{
		{0, 0, 0},
		{30, 0, 0}, // delta of 30 channels is far outside [-4,3]
		{1, 1, 1},
		{2, 1, 1},
	}
	in := MacroblockInput{
		Blocks: [4]BlockClusterInput{
			{EndpointIdx: [2]int{0, 1}, SelectorIdx: 0},
			{EndpointIdx: [2]int{2, 3}, SelectorIdx: 1},
			{EndpointIdx: [2]int{2, 3}, SelectorIdx: 2},
			{EndpointIdx: [2]int{2, 3}, SelectorIdx: 3},
		},
	}
	if _, err := BuildMacroblock(in, colors); err != ErrNotDiffRepresentable {
		t.Fatalf("got %v, want ErrNotDiffRepresentable", err)
	}
}
