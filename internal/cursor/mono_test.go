package cursor

import "testing"

func TestExpandMonoCombinations(t *testing.T) {
	// 8x1 cursor: stacked AND row over XOR row, stride 1. First four
	// columns exercise the four AND/XOR combinations.
	const w, h, stride = 8, 1, 1

	mask := []byte{
		0b1001_0000, // AND: x0=1 x1=0 x2=0 x3=1
		0b0011_0000, // XOR: x0=0 x1=0 x2=1 x3=1
	}

	pix, needOutline := expandMono(mask, w, h, stride)

	if !needOutline {
		t.Error("monochrome expansion should request an outline")
	}
	if len(pix) != w*h*4 {
		t.Fatalf("len(pix) = %d, want %d", len(pix), w*h*4)
	}

	tests := []struct {
		x    int
		name string
		want [4]byte
	}{
		{0, "AND=1 XOR=0 transparent", [4]byte{0, 0, 0, 0}},
		{1, "AND=0 XOR=0 opaque black", [4]byte{0, 0, 0, 255}},
		{2, "AND=0 XOR=1 opaque white", [4]byte{255, 255, 255, 255}},
		{3, "AND=1 XOR=1 invert as opaque black", [4]byte{0, 0, 0, 255}},
	}

	for _, tt := range tests {
		got := [4]byte(pix[tt.x*4 : tt.x*4+4])
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExpandMonoMultiRowStride(t *testing.T) {
	// 4x2 cursor at device stride 2: AND rows then XOR rows, with the
	// XOR block starting at row height*stride.
	const w, h, stride = 4, 2, 2

	mask := make([]byte, 2*h*stride)
	// AND all clear; XOR sets only (x=1, y=1).
	mask[(h+1)*stride] = 0b0100_0000

	pix, _ := expandMono(mask, w, h, stride)

	// (1,1) is opaque white, everything else opaque black.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			want := byte(0)
			if x == 1 && y == 1 {
				want = 255
			}
			if pix[i] != want || pix[i+3] != 255 {
				t.Errorf("pixel (%d,%d) = %v", x, y, pix[i:i+4])
			}
		}
	}
}

func TestMaskBitOutOfRange(t *testing.T) {
	if maskBit([]byte{0xFF}, 0, 9) {
		t.Error("out-of-range bit should read as clear")
	}
}
