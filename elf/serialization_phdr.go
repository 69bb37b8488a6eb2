// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"encoding/binary"
	"io"
)

// The 32- and 64-bit program headers differ in field order, not just
// width: p_flags sits seventh in the 32-bit entry and second in the 64-bit
// one.

type programHeader32 struct {
	Type     uint32
	Offset   uint32
	VAddr    uint32
	PAddr    uint32
	FileSize uint32
	MemSize  uint32
	Flags    uint32
	Align    uint32
}

type programHeader64 struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	VAddr    uint64
	PAddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

func sizeProgramHeader(c FileClass) int {
	if c == ELFCLASS64 {
		return binary.Size(&programHeader64{})
	} else {
		return binary.Size(&programHeader32{})
	}
}

func progHdrAlign(c FileClass) uint64 {
	if c == ELFCLASS64 {
		return 8
	} else {
		return 4
	}
}

func (l *Layout) writeProgramHeader(w io.Writer, input *Phdr) error {
	if l.header.Class == ELFCLASS64 {
		var ph programHeader64

		ph.Type = uint32(input.Type)
		ph.Flags = uint32(input.Flags)
		ph.Offset = input.Offset
		ph.VAddr = input.VAddr
		ph.PAddr = input.PAddr
		ph.FileSize = input.FileSize
		ph.MemSize = input.MemSize
		ph.Align = input.Align

		if err := binary.Write(w, l.header.GetByteOrder(), &ph); err != nil {
			return err
		}
	} else {
		var ph programHeader32

		ph.Type = uint32(input.Type)
		ph.Flags = uint32(input.Flags)
		ph.Offset = uint32(input.Offset)
		ph.VAddr = uint32(input.VAddr)
		ph.PAddr = uint32(input.PAddr)
		ph.FileSize = uint32(input.FileSize)
		ph.MemSize = uint32(input.MemSize)
		ph.Align = uint32(input.Align)

		if err := binary.Write(w, l.header.GetByteOrder(), &ph); err != nil {
			return err
		}
	}

	return nil
}
