// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package rrrbitmap implements an RRR succinct bitmap: a compressed
// representation of an immutable bit string that answers Access, Rank1
// and Select1 in O(1) expected time using space close to the zeroth-order
// entropy of the string rather than one bit per input bit.
//
// A bitmap is built once from a [bitvector.V] (the same packed-word bit
// vector type the bitmap's own internal storage is built from) and is
// read-only from that point on: the two-state lifecycle spec.md calls
// Building and Sealed. Once Sealed, any number of goroutines may call
// Access/Rank1/Rank0/Select1/Checksum concurrently without synchronization;
// Access, Rank1, Rank0 and Select1 do not allocate, block, or modify
// global state.
package rrrbitmap

import (
	"log/slog"
	"math/bits"

	"github.com/elliotnunn/rrrbitmap/internal/bitvector"
	"github.com/elliotnunn/rrrbitmap/internal/enumcode"
)

// RRR is a sealed, immutable succinct bitmap. The zero value is not
// usable; construct one with [Build] or a [Builder].
type RRR struct {
	size uint64
	rank uint64
	u    int
	s    int

	nblocks  uint64
	nmarkers uint64

	classes       *bitvector.V
	offsets       *bitvector.V
	markedRanks   *bitvector.V
	markedOffsets *bitvector.V
}

// Build encodes src into an RRR bitmap using block size u and marker
// spacing s, 1 <= u <= 64 and s >= u. src must have size > 0. Violating
// either precondition is a programming error and panics, per spec §7 —
// there is no recoverable error return for malformed construction
// arguments.
func Build(src *bitvector.V, u, s int) *RRR {
	n := src.Size()
	if n == 0 {
		panic("rrrbitmap: input must be non-empty")
	}
	if u < 1 || u > enumcode.MaxU {
		panic("rrrbitmap: u out of range")
	}
	if s < u {
		panic("rrrbitmap: s must be >= u")
	}

	uu, ss := uint64(u), uint64(s)
	nblocks := (n + uu - 1) / uu
	nmarkers := (n + ss - 1) / ss

	classesWidth := enumcode.Width(uint64(u))
	offsetMax := enumcode.OffsetWidth(u, u/2)
	offsetsCapBits := nblocks * uint64(offsetMax)
	markedRanksWidth := enumcode.Width(n)
	markedOffsetsWidth := enumcode.Width(offsetsCapBits)
	if markedOffsetsWidth == 0 {
		markedOffsetsWidth = 1 // AllocRecord requires width >= 1 even when never written
	}

	slog.Debug("rrrbitmap build", "n", n, "u", u, "s", s, "nblocks", nblocks, "nmarkers", nmarkers)

	r := &RRR{
		size:          n,
		u:             u,
		s:             s,
		nblocks:       nblocks,
		nmarkers:      nmarkers,
		classes:       bitvector.AllocRecord(uint64(classesWidth), nblocks),
		offsets:       bitvector.Alloc(offsetsCapBits),
		markedRanks:   bitvector.AllocRecord(uint64(markedRanksWidth), nmarkers),
		markedOffsets: bitvector.AllocRecord(uint64(markedOffsetsWidth), nmarkers),
	}

	var rank, offCursor uint64
	markerNeed := ss
	var markerIdx uint64

	for k := uint64(0); k < nblocks; k++ {
		block := src.ReadZeroExtended(k*uu, uu)
		class := bits.OnesCount64(block)
		width := enumcode.OffsetWidth(u, class)
		markRank, markOff := rank, offCursor
		r.classes.WriteRecord(k, uint64(class))
		if width > 0 {
			offset := enumcode.Encode(u, class, block)
			offCursor = r.offsets.Write(offCursor, uint64(width), offset)
		}

		// A marker records rank and offsets cursor at the start of the block
		// where queries resume: this block, or the next when the boundary
		// falls exactly at this block's end.
		if uu >= markerNeed {
			if uu == markerNeed {
				markRank, markOff = rank+uint64(class), offCursor
			}
			r.markedRanks.WriteRecord(markerIdx, markRank)
			r.markedOffsets.WriteRecord(markerIdx, markOff)
			markerIdx++
			markerNeed = ss - (uu - markerNeed)
		} else {
			markerNeed -= uu
		}

		rank += uint64(class)
	}
	if markerIdx < nmarkers { // last boundary lies past the final block
		r.markedRanks.WriteRecord(markerIdx, rank)
		r.markedOffsets.WriteRecord(markerIdx, offCursor)
	}

	r.offsets.Resize(offCursor)
	r.rank = rank
	return r
}

// Size returns n, the length in bits of the original input.
func (r *RRR) Size() uint64 { return r.size }

// Rank returns the total number of 1-bits, i.e. Rank1(Size()).
func (r *RRR) Rank() uint64 { return r.rank }

// locate returns the block index, offsets-vector bit cursor and rank at
// the start of the block holding the last marker boundary at or before i
// (block 0 when i < s); callers scan forward from there to the block
// containing bit i. It is shared by Access, Rank1 and Rank0; Select1 has its
// own marker search since it starts from a rank target, not a position.
func (r *RRR) locate(i uint64) (classIdx, off, rank uint64) {
	m := i / uint64(r.s)
	if m > 0 {
		classIdx = (m * uint64(r.s)) / uint64(r.u)
		off = r.markedOffsets.ReadRecord(m - 1)
		rank = r.markedRanks.ReadRecord(m - 1)
	}
	return
}

// Access returns bit i of the original input, 0 <= i < Size().
func (r *RRR) Access(i uint64) int {
	if i >= r.size {
		panic("rrrbitmap: Access index out of range")
	}
	classIdx, off, _ := r.locate(i)
	rel := i - classIdx*uint64(r.u)
	for rel >= uint64(r.u) {
		class := r.classes.ReadRecord(classIdx)
		off += uint64(enumcode.OffsetWidth(r.u, int(class)))
		classIdx++
		rel -= uint64(r.u)
	}
	class := int(r.classes.ReadRecord(classIdx))
	block := r.decodeBlock(class, off)
	return int((block >> rel) & 1)
}

// Rank1 returns the number of 1-bits in [0, i). For i >= Size() it
// saturates at Rank() rather than treating i as out of range.
func (r *RRR) Rank1(i uint64) uint64 {
	if i >= r.size {
		return r.rank
	}
	classIdx, off, rank := r.locate(i)
	rel := i - classIdx*uint64(r.u)
	for rel >= uint64(r.u) {
		class := int(r.classes.ReadRecord(classIdx))
		off += uint64(enumcode.OffsetWidth(r.u, class))
		rank += uint64(class)
		classIdx++
		rel -= uint64(r.u)
	}
	class := int(r.classes.ReadRecord(classIdx))
	block := r.decodeBlock(class, off)
	mask := uint64(1)<<rel - 1
	return rank + uint64(bits.OnesCount64(block&mask))
}

// Rank0 returns the number of 0-bits in [0, i): i - Rank1(i).
func (r *RRR) Rank0(i uint64) uint64 {
	return i - r.Rank1(i)
}

// decodeBlock reads the class-and-offset pair for the block whose class
// is already known (the caller fetched it to decide whether to keep
// scanning) and whose offset starts at bit position off in the offsets
// vector, and decodes it back to a u-bit value.
func (r *RRR) decodeBlock(class int, off uint64) uint64 {
	width := enumcode.OffsetWidth(r.u, class)
	var offset uint64
	if width > 0 {
		offset = r.offsets.Read(off, uint64(width))
	}
	return enumcode.Decode(r.u, class, offset)
}

// Select1 returns the position (0-indexed) of the j-th 1-bit, 1 <= j.
// It returns 0 for j == 0 or j > Rank() — out-of-range select is a
// domain result, not a programming error, per spec §7.
func (r *RRR) Select1(j uint64) uint64 {
	if j == 0 || j > r.rank {
		return 0
	}

	// Largest m in [0, nmarkers) with markedRanks[m] < j; markerAt is
	// m+1, or 0 if no marker qualifies. A plain binary search, but one
	// that must find the largest index strictly less than j rather than
	// the more common "<=" variant: marked ranks can repeat (an empty
	// marker window contributes zero), so "<=" would stop too early.
	lo, hi := 0, int(r.nmarkers)
	found := -1
	for lo < hi {
		mid := (lo + hi) / 2
		if r.markedRanks.ReadRecord(uint64(mid)) < j {
			found = mid
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	var classIdx, rank, off uint64
	if found >= 0 {
		markerAt := uint64(found + 1)
		classIdx = (markerAt * uint64(r.s)) / uint64(r.u)
		rank = r.markedRanks.ReadRecord(markerAt - 1)
		off = r.markedOffsets.ReadRecord(markerAt - 1)
	}

	var class int
	for {
		class = int(r.classes.ReadRecord(classIdx))
		if rank+uint64(class) < j {
			off += uint64(enumcode.OffsetWidth(r.u, class))
			rank += uint64(class)
			classIdx++
			continue
		}
		break
	}

	block := r.decodeBlock(class, off)
	remain := j - rank
	for k := uint64(1); k < remain; k++ {
		block &= block - 1 // clear the lowest set bit
	}
	return classIdx*uint64(r.u) + uint64(bits.TrailingZeros64(block))
}
