// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package enumcode

import (
	"math/bits"
	"testing"
)

func TestBinomialPascalIdentities(t *testing.T) {
	for n := 0; n <= MaxU; n++ {
		if Binomial(n, 0) != 1 {
			t.Fatalf("C(%d,0) = %d, want 1", n, Binomial(n, 0))
		}
		if Binomial(n, n) != 1 {
			t.Fatalf("C(%d,%d) = %d, want 1", n, n, Binomial(n, n))
		}
	}
	// a couple of known values
	cases := []struct{ n, k int; want uint64 }{
		{5, 2, 10},
		{10, 5, 252},
		{64, 32, 1832624140942590534},
		{64, 0, 1},
		{64, 64, 1},
	}
	for _, c := range cases {
		if got := Binomial(c.n, c.k); got != c.want {
			t.Errorf("C(%d,%d) = %d, want %d", c.n, c.k, got, c.want)
		}
	}
}

func TestBinomialRejectsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Binomial(3, 4)
}

// TestCodecBijectionExhaustive enumerates every u-bit value for small u
// (spec property P6) and checks both directions of the bijection.
func TestCodecBijectionExhaustive(t *testing.T) {
	for u := 0; u <= 14; u++ {
		for v := uint64(0); v < uint64(1)<<uint(u); v++ {
			r := bits.OnesCount64(v)
			o := Encode(u, r, v)
			if max := Binomial(u, r); o >= max {
				t.Fatalf("u=%d r=%d v=%#x: offset %d out of range [0,%d)", u, r, v, o, max)
			}
			if got := Decode(u, r, o); got != v {
				t.Fatalf("u=%d r=%d v=%#x: decode(encode(v))=%#x", u, r, v, got)
			}
		}
	}
}

// TestCodecBijectionByOffset walks every (class, offset) pair for a
// slightly larger u and checks encode(decode(o)) == o, the other half of P6.
func TestCodecBijectionByOffset(t *testing.T) {
	const u = 20
	for r := 0; r <= u; r++ {
		max := Binomial(u, r)
		step := max/4096 + 1 // sample densely enough without 2^20-size blowup
		for o := uint64(0); o < max; o += step {
			v := Decode(u, r, o)
			if bits.OnesCount64(v) != r {
				t.Fatalf("u=%d r=%d o=%d: decode popcount = %d, want %d", u, r, o, bits.OnesCount64(v), r)
			}
			if got := Encode(u, r, v); got != o {
				t.Fatalf("u=%d r=%d o=%d: encode(decode(o))=%d", u, r, o, got)
			}
		}
	}
}

func TestOffsetWidthEdgeClasses(t *testing.T) {
	for u := 1; u <= 32; u++ {
		if w := OffsetWidth(u, 0); w != 0 {
			t.Errorf("OffsetWidth(%d,0) = %d, want 0", u, w)
		}
		if w := OffsetWidth(u, u); w != 0 {
			t.Errorf("OffsetWidth(%d,%d) = %d, want 0", u, u, w)
		}
	}
	// u=4: C(4,2)=6, needs ceil(lg 6) = 3 bits (values 0..5)
	if w := OffsetWidth(4, 2); w != 3 {
		t.Errorf("OffsetWidth(4,2) = %d, want 3", w)
	}
}

func TestWidth(t *testing.T) {
	cases := []struct {
		max  uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{7, 3},
		{8, 4},
	}
	for _, c := range cases {
		if got := Width(c.max); got != c.want {
			t.Errorf("Width(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}
