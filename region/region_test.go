// SPDX-License-Identifier: MIT
//
// Copyright (c) 2023, 2024 Adrian "asie" Siekierka

package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), AlignUp(0, 8), "zero stays put")
	assert.Equal(t, uint64(8), AlignUp(1, 8), "rounds up")
	assert.Equal(t, uint64(8), AlignUp(8, 8), "aligned stays put")
	assert.Equal(t, uint64(55), AlignUp(55, 1), "alignment 1 is a no-op")
	assert.Equal(t, uint64(55), AlignUp(55, 0), "alignment 0 is a no-op")
	assert.Equal(t, uint64(0x2000), AlignUp(0x1001, 0x1000), "page alignment")
}

func TestPadding(t *testing.T) {
	assert.Equal(t, uint64(0), Padding(64, 8), "already aligned")
	assert.Equal(t, uint64(1), Padding(55, 4), "one byte short")
	assert.Equal(t, uint64(0), Padding(55, 0), "alignment 0 needs no padding")
}

func TestAligned(t *testing.T) {
	assert.True(t, Aligned(64, 8), "aligned offset")
	assert.False(t, Aligned(63, 8), "unaligned offset")
	assert.True(t, Aligned(63, 1), "alignment 1 accepts everything")
	assert.True(t, Aligned(63, 0), "alignment 0 accepts everything")
}

func TestCongruent(t *testing.T) {
	assert.True(t, Congruent(0x1000, 0x401000, 0x1000), "same residue")
	assert.False(t, Congruent(0x1008, 0x401000, 0x1000), "different residue")
	assert.True(t, Congruent(120, 0x1000, 1), "alignment 1 always congruent")
}

func TestCongruentAdjust(t *testing.T) {
	assert.Equal(t, uint64(0), CongruentAdjust(64, 0x1000, 4), "already congruent")
	assert.Equal(t, uint64(2), CongruentAdjust(64, 0x1002, 4), "adjust forward")
	assert.Equal(t, uint64(0), CongruentAdjust(64, 0x1002, 1), "alignment 1 never adjusts")
	adjusted := 120 + CongruentAdjust(120, 0x1000, 0x1000)
	assert.True(t, Congruent(adjusted, 0x1000, 0x1000), "adjusted offset is congruent")
}

func TestTrack(t *testing.T) {
	var tr Track
	tr.Place(0, 64)
	tr.Place(64, 0)
	tr.Place(64, 36)
	assert.Equal(t, uint64(100), tr.Total(), "span total")
	assert.True(t, tr.Contiguous(100), "spans tile the file")
	assert.False(t, tr.Contiguous(101), "short of the declared end")

	var gap Track
	gap.Place(0, 64)
	gap.Place(72, 8)
	assert.False(t, gap.Contiguous(80), "gap between spans")
}
