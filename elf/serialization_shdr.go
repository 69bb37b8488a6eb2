// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"encoding/binary"
	"io"

	"github.com/yangboyd/elf-edit/region"
)

type sectionHeader32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Address   uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntrySize uint32
}

type sectionHeader64 struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Address   uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntrySize uint64
}

func sizeSectionHeader(c FileClass) int {
	if c == ELFCLASS64 {
		return binary.Size(&sectionHeader64{})
	} else {
		return binary.Size(&sectionHeader32{})
	}
}

func secHdrAlign(c FileClass) uint64 {
	if c == ELFCLASS64 {
		return 8
	} else {
		return 4
	}
}

// shdrFileOffset returns the sh_offset to record for input. For a section
// with no file data the recorded offset is nudged forward until it agrees
// with sh_addr modulo sh_addralign; loaders read the offset of empty
// sections, and consumers expect the congruence to hold there too. The
// adjustment exists only in the emitted header, never in the planner's
// accounting.
func shdrFileOffset(input *Shdr) uint64 {
	s := input.Section
	if len(s.Data) == 0 {
		return input.Offset + region.CongruentAdjust(input.Offset, s.Address, s.AddrAlign)
	}
	return input.Offset
}

func (l *Layout) writeSectionHeader(w io.Writer, input *Shdr) error {
	s := input.Section
	if l.header.Class == ELFCLASS64 {
		var sh sectionHeader64

		sh.Name = input.NameOffset
		sh.Type = uint32(s.Type)
		sh.Flags = uint64(s.Flags)
		sh.Address = s.Address
		sh.Offset = shdrFileOffset(input)
		sh.Size = s.declaredSize()
		sh.Link = s.Link
		sh.Info = s.Info
		sh.AddrAlign = s.AddrAlign
		sh.EntrySize = s.EntrySize

		if err := binary.Write(w, l.header.GetByteOrder(), &sh); err != nil {
			return err
		}
	} else {
		var sh sectionHeader32

		sh.Name = input.NameOffset
		sh.Type = uint32(s.Type)
		sh.Flags = uint32(s.Flags)
		sh.Address = uint32(s.Address)
		sh.Offset = uint32(shdrFileOffset(input))
		sh.Size = uint32(s.declaredSize())
		sh.Link = s.Link
		sh.Info = s.Info
		sh.AddrAlign = uint32(s.AddrAlign)
		sh.EntrySize = uint32(s.EntrySize)

		if err := binary.Write(w, l.header.GetByteOrder(), &sh); err != nil {
			return err
		}
	}

	return nil
}

// writeNullSectionHeader emits the reserved all-zero entry at index 0.
func (l *Layout) writeNullSectionHeader(w io.Writer) error {
	if l.header.Class == ELFCLASS64 {
		return binary.Write(w, l.header.GetByteOrder(), &sectionHeader64{})
	} else {
		return binary.Write(w, l.header.GetByteOrder(), &sectionHeader32{})
	}
}
