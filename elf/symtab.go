// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"bytes"
	"slices"
	"strings"
)

// SortLocalFirst orders the table's symbols STB_LOCAL first, as the format
// requires, sorting by name within a binding.
func (t *SymbolTable) SortLocalFirst() {
	slices.SortStableFunc(t.Symbols, func(a *Symbol, b *Symbol) int {
		if a.Binding != b.Binding {
			return int(a.Binding) - int(b.Binding)
		} else {
			return strings.Compare(a.Name, b.Name)
		}
	})
}

// localCount counts the leading run of STB_LOCAL entries; sh_info of a
// symtab section holds the index one past the last local symbol.
func (t *SymbolTable) localCount() uint32 {
	var n uint32
	for _, sym := range t.Symbols {
		if sym.Binding != STB_LOCAL {
			break
		}
		n++
	}
	return n
}

// symbolNames returns every symbol name in table order, for the .strtab
// builder.
func (t *SymbolTable) symbolNames() []string {
	names := make([]string, 0, len(t.Symbols))
	for _, sym := range t.Symbols {
		names = append(names, sym.Name)
	}
	return names
}

// symbolTablePayload serializes the table into .symtab section data,
// resolving each name against .strtab.
func (l *Layout) symbolTablePayload(t *SymbolTable) []byte {
	var buf bytes.Buffer
	for _, sym := range t.Symbols {
		if err := l.writeSymbol(&buf, sym, l.strtab.Lookup(sym.Name)); err != nil {
			// bytes.Buffer writes do not fail
			panic(err)
		}
	}
	return buf.Bytes()
}

func symbolTableAlign(c FileClass) uint64 {
	if c == ELFCLASS64 {
		return 8
	} else {
		return 4
	}
}

// symbolTableSection synthesizes the .symtab section header record around
// the serialized payload. Link points at .strtab, Info at the first
// non-local entry.
func (l *Layout) symbolTableSection(t *SymbolTable) *Section {
	return &Section{
		Index:     t.Index,
		Name:      symtabName,
		Type:      SHT_SYMTAB,
		Link:      uint32(l.strtabIdx),
		Info:      t.localCount(),
		AddrAlign: symbolTableAlign(l.header.Class),
		EntrySize: uint64(sizeSymbol(l.header.Class)),
		Data:      l.symbolTablePayload(t),
	}
}
