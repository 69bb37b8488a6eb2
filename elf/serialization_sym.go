// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"encoding/binary"
	"io"
)

// The 64-bit symbol entry moves Value and Size behind the short fields so
// the 8-byte members stay naturally aligned.

type symbol32 struct {
	Name         uint32
	Value        uint32
	Size         uint32
	Info         uint8
	Other        uint8
	SectionIndex uint16
}

type symbol64 struct {
	Name         uint32
	Info         uint8
	Other        uint8
	SectionIndex uint16
	Value        uint64
	Size         uint64
}

func sizeSymbol(c FileClass) int {
	if c == ELFCLASS64 {
		return binary.Size(&symbol64{})
	} else {
		return binary.Size(&symbol32{})
	}
}

func (l *Layout) writeSymbol(w io.Writer, input *Symbol, nameOffset uint32) error {
	if l.header.Class == ELFCLASS64 {
		var sh symbol64

		sh.Name = nameOffset
		sh.Info = (uint8(input.Binding) << 4) | (uint8(input.Type) & 0xF)
		sh.Other = uint8(input.Visibility)
		sh.SectionIndex = input.SectionIndex
		sh.Value = input.Value
		sh.Size = input.Size

		if err := binary.Write(w, l.header.GetByteOrder(), &sh); err != nil {
			return err
		}
	} else {
		var sh symbol32

		sh.Name = nameOffset
		sh.Info = (uint8(input.Binding) << 4) | (uint8(input.Type) & 0xF)
		sh.Other = uint8(input.Visibility)
		sh.SectionIndex = input.SectionIndex
		sh.Value = uint32(input.Value)
		sh.Size = uint32(input.Size)

		if err := binary.Write(w, l.header.GetByteOrder(), &sh); err != nil {
			return err
		}
	}

	return nil
}
