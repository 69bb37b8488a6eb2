// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treeFixture() *ElfFile {
	return &ElfFile{
		Header: ElfHeader{Class: ELFCLASS64, Endian: ELFDATA2LSB},
		Regions: []DataRegion{
			HeaderRegion{},
			ProgramHeadersRegion{},
			&Segment{
				Index: 0, Type: PT_LOAD, Align: 1,
				Regions: []DataRegion{
					SectionRegion{Section: &Section{Index: 1, Name: ".text", AddrAlign: 1, Data: []byte{1}}},
					SectionRegion{Section: &Section{Index: 2, Name: ".rodata", AddrAlign: 1, Data: []byte{2}}},
				},
			},
			SectionRegion{Section: &Section{Index: 3, Name: ".comment", AddrAlign: 1, Data: []byte{3}}},
			SectionHeadersRegion{},
		},
	}
}

func sectionNamesOf(f *ElfFile) []string {
	var names []string
	f.UpdateSections(func(s *Section) *Section {
		names = append(names, s.Name)
		return s
	})
	return names
}

func TestUpdateSectionsVisitsNested(t *testing.T) {
	f := treeFixture()
	assert.Equal(t, []string{".text", ".rodata", ".comment"}, sectionNamesOf(f),
		"walk descends into segments and preserves order")
}

func TestUpdateSectionsDelete(t *testing.T) {
	f := treeFixture()
	f.UpdateSections(func(s *Section) *Section {
		if s.Name == ".rodata" {
			return nil
		}
		return s
	})
	assert.Equal(t, []string{".text", ".comment"}, sectionNamesOf(f), "deleted in place")

	seg := f.Regions[2].(*Segment)
	assert.Equal(t, 1, len(seg.Regions), "segment child removed")
}

func TestUpdateSectionsReplace(t *testing.T) {
	f := treeFixture()
	f.UpdateSections(func(s *Section) *Section {
		if s.Name == ".comment" {
			replaced := *s
			replaced.Data = []byte("edited")
			return &replaced
		}
		return s
	})

	var comment *Section
	f.UpdateSections(func(s *Section) *Section {
		if s.Name == ".comment" {
			comment = s
		}
		return s
	})
	require.NotNil(t, comment, "replacement is still in the tree")
	assert.Equal(t, []byte("edited"), comment.Data, "replacement took effect")
}

func TestUpdateSegmentsDelete(t *testing.T) {
	f := treeFixture()
	f.UpdateSegments(func(s *Segment) *Segment {
		return nil
	})
	assert.Equal(t, []string{".comment"}, sectionNamesOf(f), "segment children removed with it")
	assert.Equal(t, 4, len(f.Regions), "sibling regions untouched")
}

func TestFilterSections(t *testing.T) {
	f := treeFixture()
	f.FilterSections(func(s *Section) bool {
		return s.Name != ".comment"
	})
	assert.Equal(t, []string{".text", ".rodata"}, sectionNamesOf(f), "rejected section dropped")
}

func TestUpdateDataRegionsRewritesRaw(t *testing.T) {
	f := treeFixture()
	f.Regions = append(f.Regions, RawRegion{Data: []byte{0xFF}})
	f.UpdateDataRegions(func(r DataRegion) DataRegion {
		if raw, ok := r.(RawRegion); ok {
			return RawRegion{Data: append(raw.Data, 0x00)}
		}
		return r
	})

	raw := f.Regions[len(f.Regions)-1].(RawRegion)
	assert.Equal(t, []byte{0xFF, 0x00}, raw.Data, "raw region replaced")
}
