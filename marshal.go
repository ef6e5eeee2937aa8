// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package rrrbitmap

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/ugorji/go/codec"

	"github.com/elliotnunn/rrrbitmap/internal/bitvector"
)

// Checksum returns an xxhash fingerprint of the bitmap's full encoded
// state (metadata and all four packed vectors), for callers that persist
// a bitmap to cold storage and want to detect silent corruption on
// reload without re-deriving it from the original input.
func (r *RRR) Checksum() uint64 {
	var h xxhash.Digest
	binary.Write(&h, binary.BigEndian, r.size)
	binary.Write(&h, binary.BigEndian, r.rank)
	binary.Write(&h, binary.BigEndian, uint64(r.u))
	binary.Write(&h, binary.BigEndian, uint64(r.s))
	for _, v := range []*bitvector.V{r.classes, r.offsets, r.markedRanks, r.markedOffsets} {
		binary.Write(&h, binary.BigEndian, v.Size())
		for _, w := range v.Words() {
			binary.Write(&h, binary.BigEndian, w)
		}
	}
	return h.Sum64()
}

// wireFormat is the on-the-wire encoding of an RRR, one field per packed
// vector plus the metadata needed to reconstruct record widths without
// recomputing them (and so remaining correct even if a future version
// changes how offsetMax or marker widths are derived).
type wireFormat struct {
	Size uint64
	Rank uint64
	U    uint64
	S    uint64

	ClassesWidth uint64
	ClassesWords []uint64

	OffsetsSize  uint64
	OffsetsWords []uint64

	MarkedRanksWidth uint64
	MarkedRanksWords []uint64

	MarkedOffsetsWidth uint64
	MarkedOffsetsWords []uint64
}

// MarshalBinary encodes the bitmap into a compact binary form.
func (r *RRR) MarshalBinary() (out []byte, err error) {
	w := wireFormat{
		Size: r.size,
		Rank: r.rank,
		U:    uint64(r.u),
		S:    uint64(r.s),

		ClassesWidth: r.classes.RecordNbits(),
		ClassesWords: r.classes.Words(),

		OffsetsSize:  r.offsets.Size(),
		OffsetsWords: r.offsets.Words(),

		MarkedRanksWidth: r.markedRanks.RecordNbits(),
		MarkedRanksWords: r.markedRanks.Words(),

		MarkedOffsetsWidth: r.markedOffsets.RecordNbits(),
		MarkedOffsetsWords: r.markedOffsets.Words(),
	}

	var bh codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&out, &bh)
	err = enc.Encode(w)
	return
}

// UnmarshalBinary decodes a bitmap previously encoded with MarshalBinary,
// replacing the receiver's contents.
func (r *RRR) UnmarshalBinary(in []byte) error {
	var w wireFormat
	var bh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(in, &bh)
	if err := dec.Decode(&w); err != nil {
		return err
	}

	r.size = w.Size
	r.rank = w.Rank
	r.u = int(w.U)
	r.s = int(w.S)
	r.nblocks = (w.Size + w.U - 1) / w.U
	r.nmarkers = (w.Size + w.S - 1) / w.S

	r.classes = bitvector.FromRecordWords(w.ClassesWords, w.ClassesWidth, r.nblocks)
	r.offsets = bitvector.FromWords(w.OffsetsWords, w.OffsetsSize)
	r.markedRanks = bitvector.FromRecordWords(w.MarkedRanksWords, w.MarkedRanksWidth, r.nmarkers)
	r.markedOffsets = bitvector.FromRecordWords(w.MarkedOffsetsWords, w.MarkedOffsetsWidth, r.nmarkers)
	return nil
}
