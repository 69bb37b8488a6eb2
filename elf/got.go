// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"fmt"
)

// Got is a global offset table: a writable, allocated section of
// word-sized slots.
type Got struct {
	Index   uint16
	Name    string
	Address uint64
	Entries []uint64
}

func wordSize(c FileClass) uint64 {
	if c == ELFCLASS64 {
		return 8
	} else {
		return 4
	}
}

// Section materializes the table as a section, encoding each entry at the
// class's word width.
func (g *Got) Section(h *ElfHeader) *Section {
	word := wordSize(h.Class)
	order := h.GetByteOrder()
	data := make([]byte, uint64(len(g.Entries))*word)
	for i, entry := range g.Entries {
		if h.Class == ELFCLASS64 {
			order.PutUint64(data[uint64(i)*word:], entry)
		} else {
			order.PutUint32(data[uint64(i)*word:], uint32(entry))
		}
	}
	name := g.Name
	if name == "" {
		name = gotName
	}
	return &Section{
		Index:     g.Index,
		Name:      name,
		Type:      SHT_PROGBITS,
		Flags:     SHF_ALLOC | SHF_WRITE,
		Address:   g.Address,
		AddrAlign: word,
		EntrySize: word,
		Data:      data,
	}
}

// GotFromSection decodes a section back into a Got, validating that the
// section has the shape of a global offset table. The errors here are
// recoverable: they describe external data, not engine state.
func GotFromSection(h *ElfHeader, s *Section) (error, *Got) {
	word := wordSize(h.Class)
	if s.Type != SHT_PROGBITS {
		return fmt.Errorf("section %s: GOT must have type SHT_PROGBITS, got %d", s.Name, s.Type), nil
	}
	if s.Flags&(SHF_ALLOC|SHF_WRITE) != SHF_ALLOC|SHF_WRITE {
		return fmt.Errorf("section %s: GOT must be allocated and writable", s.Name), nil
	}
	if s.EntrySize != word {
		return fmt.Errorf("section %s: GOT entry size %d does not match class word size %d", s.Name, s.EntrySize, word), nil
	}
	if uint64(len(s.Data))%word != 0 {
		return fmt.Errorf("section %s: GOT data length %d is not a multiple of %d", s.Name, len(s.Data), word), nil
	}

	order := h.GetByteOrder()
	entries := make([]uint64, 0, uint64(len(s.Data))/word)
	for off := uint64(0); off < uint64(len(s.Data)); off += word {
		if h.Class == ELFCLASS64 {
			entries = append(entries, order.Uint64(s.Data[off:]))
		} else {
			entries = append(entries, uint64(order.Uint32(s.Data[off:])))
		}
	}
	return nil, &Got{
		Index:   s.Index,
		Name:    s.Name,
		Address: s.Address,
		Entries: entries,
	}
}
