// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"encoding/binary"
	"io"
)

type elfHeader32 struct {
	Type             uint16
	Machine          uint16
	Version          uint32
	Entry            uint32
	ProgHdrOff       uint32
	SecHdrOff        uint32
	Flags            uint32
	HeaderSize       uint16
	ProgHdrEntrySize uint16
	ProgHdrCount     uint16
	SecHdrEntrySize  uint16
	SecHdrCount      uint16
	SecHdrStrIndex   uint16
}

type elfHeader64 struct {
	Type             uint16
	Machine          uint16
	Version          uint32
	Entry            uint64
	ProgHdrOff       uint64
	SecHdrOff        uint64
	Flags            uint32
	HeaderSize       uint16
	ProgHdrEntrySize uint16
	ProgHdrCount     uint16
	SecHdrEntrySize  uint16
	SecHdrCount      uint16
	SecHdrStrIndex   uint16
}

func sizeElfHeader(c FileClass) int {
	// Add 16 bytes of ELF identification section
	if c == ELFCLASS64 {
		return binary.Size(&elfHeader64{}) + 16
	} else {
		return binary.Size(&elfHeader32{}) + 16
	}
}

func (l *Layout) writeElfHeader(w io.Writer) error {
	ident := make([]byte, 16)

	ident[0] = 0x7F
	ident[1] = 0x45
	ident[2] = 0x4C
	ident[3] = 0x46

	ident[4] = uint8(l.header.Class)
	ident[5] = uint8(l.header.Endian)
	ident[6] = 1 // EV_CURRENT
	ident[7] = uint8(l.header.ABI)
	ident[8] = l.header.ABIVersion

	if _, err := w.Write(ident); err != nil {
		return err
	}

	// A file with no program headers records e_phoff 0, even though the
	// table sentinel still has a position.
	progHdrOffset := l.progHdrOffset
	if l.progHdrCount == 0 {
		progHdrOffset = 0
	}

	if l.header.Class == ELFCLASS64 {
		var fh elfHeader64

		fh.Type = uint16(l.header.Type)
		fh.Machine = uint16(l.header.Machine)
		fh.Version = 1
		fh.Entry = l.header.Entry
		fh.ProgHdrOff = progHdrOffset
		fh.SecHdrOff = l.secHdrOffset
		fh.Flags = l.header.Flags
		fh.HeaderSize = uint16(sizeElfHeader(l.header.Class))
		fh.ProgHdrEntrySize = uint16(sizeProgramHeader(l.header.Class))
		fh.ProgHdrCount = l.progHdrCount
		fh.SecHdrEntrySize = uint16(sizeSectionHeader(l.header.Class))
		fh.SecHdrCount = l.secHdrCount
		fh.SecHdrStrIndex = l.secHdrStrIdx

		if err := binary.Write(w, l.header.GetByteOrder(), &fh); err != nil {
			return err
		}
	} else {
		var fh elfHeader32

		fh.Type = uint16(l.header.Type)
		fh.Machine = uint16(l.header.Machine)
		fh.Version = 1
		fh.Entry = uint32(l.header.Entry)
		fh.ProgHdrOff = uint32(progHdrOffset)
		fh.SecHdrOff = uint32(l.secHdrOffset)
		fh.Flags = l.header.Flags
		fh.HeaderSize = uint16(sizeElfHeader(l.header.Class))
		fh.ProgHdrEntrySize = uint16(sizeProgramHeader(l.header.Class))
		fh.ProgHdrCount = l.progHdrCount
		fh.SecHdrEntrySize = uint16(sizeSectionHeader(l.header.Class))
		fh.SecHdrCount = l.secHdrCount
		fh.SecHdrStrIndex = l.secHdrStrIdx

		if err := binary.Write(w, l.header.GetByteOrder(), &fh); err != nil {
			return err
		}
	}

	return nil
}
