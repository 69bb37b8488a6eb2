// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"fmt"
	"sort"
	"strings"
)

// StringTable is a finished string-table payload plus the offset of every
// name (and every suffix of every name) stored in it.
type StringTable struct {
	data    []byte
	offsets map[string]uint32
}

// BuildStringTable builds a NUL-prefixed string-table payload from names,
// merging any name that is a suffix of another into the longer name's
// entry. ELF permits a shorter name to be stored as the tail of a longer
// one; detecting suffixes as prefixes of the reversed strings keeps this
// O(n log n).
func BuildStringTable(names []string) *StringTable {
	t := &StringTable{
		data:    []byte{0},
		offsets: map[string]uint32{"": 0},
	}

	reversed := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		reversed = append(reversed, reverseString(name))
	}
	sort.Strings(reversed)

	kept := make([]string, 0, len(reversed))
	for i, r := range reversed {
		// A sorted run places each string directly before its extensions,
		// so a suffix-redundant entry is a prefix of its successor.
		if i+1 < len(reversed) && strings.HasPrefix(reversed[i+1], r) {
			continue
		}
		kept = append(kept, r)
	}

	for i := len(kept) - 1; i >= 0; i-- {
		name := reverseString(kept[i])
		pos := uint32(len(t.data))
		t.data = append(t.data, name...)
		t.data = append(t.data, 0)
		for j := 0; j < len(name); j++ {
			suffix := name[j:]
			if _, ok := t.offsets[suffix]; !ok {
				t.offsets[suffix] = pos + uint32(j)
			}
		}
	}

	return t
}

// Lookup returns the payload offset of name. Every name handed to
// BuildStringTable resolves, as does any suffix of one; a miss means the
// layout engine failed to collect the name up front.
func (t *StringTable) Lookup(name string) uint32 {
	off, ok := t.offsets[name]
	if !ok {
		panic(fmt.Sprint("string table: no entry for ", name))
	}
	return off
}

func (t *StringTable) Data() []byte {
	return t.data
}

func (t *StringTable) Size() int {
	return len(t.data)
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
