package bitslice_test

import (
	"testing"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
)

func TestRead64Symmetry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		w      uint64
		hi, lo int
	}{
		{0xdeadbeefcafebabe, 63, 0},
		{0xdeadbeefcafebabe, 15, 0},
		{0xdeadbeefcafebabe, 55, 53},
		{0x1, 0, 0},
		{0x0, 0, 0},
	}

	for _, c := range cases {
		got, err := bitslice.Read64(c.w, c.hi, c.lo)
		if err != nil {
			t.Fatalf("Read64(%#x,%d,%d): unexpected error: %v", c.w, c.hi, c.lo, err)
		}
		want := (c.w >> uint(c.lo)) & ((uint64(1) << uint(c.hi-c.lo+1)) - 1)
		if c.hi-c.lo+1 == 64 {
			want = c.w
		}
		if got != want {
			t.Errorf("Read64(%#x,%d,%d) = %#x, want %#x", c.w, c.hi, c.lo, got, want)
		}
	}
}

func TestRead64InvalidRange(t *testing.T) {
	t.Parallel()

	cases := []struct{ hi, lo int }{
		{-1, -1},
		{64, 0},
		{5, 10},
	}

	for _, c := range cases {
		if _, err := bitslice.Read64(0, c.hi, c.lo); err == nil {
			t.Errorf("Read64(0,%d,%d): expected error, got nil", c.hi, c.lo)
		}
	}
}

func TestBit64(t *testing.T) {
	t.Parallel()

	if got := bitslice.Bit64(1<<63, 63); got != 1 {
		t.Errorf("Bit64: got %d, want 1", got)
	}
	if got := bitslice.Bit64(0, 63); got != 0 {
		t.Errorf("Bit64: got %d, want 0", got)
	}
}

func TestBinary(t *testing.T) {
	t.Parallel()

	if got := bitslice.Binary(0b1011, 4); got != "1011" {
		t.Errorf("Binary = %q, want %q", got, "1011")
	}
}
