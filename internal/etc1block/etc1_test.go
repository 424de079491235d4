package etc1block

import "testing"

func TestPackUnpack_RoundTrip(t *testing.T) {
	b := &Block{
		Flip:       true,
		Diff:       true,
		Base5:      [2][3]uint8{{10, 20, 5}, {12, 17, 6}},
		IntenTable: [2]uint8{3, 5},
	}
	for i := range b.Selectors {
		b.Selectors[i] = uint8(i % 4)
	}
	v := b.Pack()
	got := Unpack(v)
	if got.Flip != b.Flip || got.Diff != b.Diff {
		t.Fatalf("flip/diff mismatch: got %+v want %+v", got, b)
	}
	if got.Base5 != b.Base5 {
		t.Fatalf("base5 mismatch: got %v want %v", got.Base5, b.Base5)
	}
	if got.IntenTable != b.IntenTable {
		t.Fatalf("inten table mismatch: got %v want %v", got.IntenTable, b.IntenTable)
	}
	if got.Selectors != b.Selectors {
		t.Fatalf("selectors mismatch: got %v want %v", got.Selectors, b.Selectors)
	}
}

func TestDiffRepresentable(t *testing.T) {
	cases := []struct {
		b0, b1 [3]uint8
		want   bool
	}{
		{[3]uint8{10, 10, 10}, [3]uint8{13, 10, 10}, true},
		{[3]uint8{10, 10, 10}, [3]uint8{6, 10, 10}, true},
		{[3]uint8{10, 10, 10}, [3]uint8{14, 10, 10}, false},
		{[3]uint8{10, 10, 10}, [3]uint8{5, 10, 10}, false},
	}
	for _, c := range cases {
		if got := DiffRepresentable(c.b0, c.b1); got != c.want {
			t.Fatalf("DiffRepresentable(%v,%v) = %v, want %v", c.b0, c.b1, got, c.want)
		}
	}
}

func TestDecodeRGBA_FlatBlockIsUniform(t *testing.T) {
	b := &Block{
		Base5:      [2][3]uint8{{16, 16, 16}, {16, 16, 16}},
		IntenTable: [2]uint8{0, 0},
	}
	for i := range b.Selectors {
		b.Selectors[i] = 0
	}
	px := b.DecodeRGBA()
	want := px[0]
	for i, p := range px {
		if p != want {
			t.Fatalf("pixel %d = %v, want uniform %v", i, p, want)
		}
	}
}
