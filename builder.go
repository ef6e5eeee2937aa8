// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package rrrbitmap

import "github.com/elliotnunn/rrrbitmap/internal/bitvector"

// Builder accumulates a set of bit positions and seals them into an RRR
// bitmap. It exists because most callers of a bitmap start from "here are
// the positions that are 1" (a posting list, a set of row IDs) rather
// than from a pre-packed bitvector.V, and building that packed input by
// hand at every call site would just be this type inlined badly.
//
// The small-size inline array is adapted from internal/spinner/bitmap.go's
// trick of keeping an inline fixed-size array for the common small case
// and only falling back to a heap-allocated slice once the caller's size
// exceeds it, avoiding an allocation for the (common, in that package's
// use) case of a handful of directory entries; here the inline case is
// exactly the bitmaps that fit in a single 64-bit word.
type Builder struct {
	size   uint64
	inline [1]uint64
	big    []uint64
}

// NewBuilder returns a Builder for a bitmap of size bits, all initially 0.
// size must be > 0.
func NewBuilder(size uint64) *Builder {
	if size == 0 {
		panic("rrrbitmap: Builder size must be > 0")
	}
	b := &Builder{size: size}
	if size > 64 {
		b.big = make([]uint64, (size+63)/64)
	}
	return b
}

func (b *Builder) words() []uint64 {
	if b.big != nil {
		return b.big
	}
	return b.inline[:]
}

// Set marks position i as a 1-bit. 0 <= i < size.
func (b *Builder) Set(i uint64) {
	if i >= b.size {
		panic("rrrbitmap: Builder.Set index out of range")
	}
	w := b.words()
	w[i/64] |= uint64(1) << (i % 64)
}

// SetRange marks every position in [lo, hi) as a 1-bit.
func (b *Builder) SetRange(lo, hi uint64) {
	if hi > b.size || lo > hi {
		panic("rrrbitmap: Builder.SetRange out of range")
	}
	for i := lo; i < hi; i++ {
		b.Set(i)
	}
}

// Build seals the accumulated positions into an RRR bitmap with block
// size u and marker spacing s, per [Build]'s same preconditions.
func (b *Builder) Build(u, s int) *RRR {
	src := bitvector.FromWords(append([]uint64(nil), b.words()...), b.size)
	return Build(src, u, s)
}
