// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringTableSuffixMerge(t *testing.T) {
	st := BuildStringTable([]string{"foo", "o", "bar"})

	assert.Equal(t, []byte("\x00bar\x00foo\x00"), st.Data(), "suffix-merged payload")
	assert.Equal(t, uint32(0), st.Lookup(""), "empty string")
	assert.Equal(t, uint32(5), st.Lookup("foo"), "foo offset")
	assert.Equal(t, uint32(7), st.Lookup("o"), "o stored as tail of foo")
	assert.Equal(t, uint32(1), st.Lookup("bar"), "bar offset")
}

func TestStringTableDuplicates(t *testing.T) {
	st := BuildStringTable([]string{".text", ".text", ".text"})

	assert.Equal(t, []byte("\x00.text\x00"), st.Data(), "duplicates collapse")
	assert.Equal(t, uint32(1), st.Lookup(".text"), ".text offset")
}

func TestStringTableEmptyInput(t *testing.T) {
	st := BuildStringTable(nil)

	assert.Equal(t, []byte{0}, st.Data(), "payload starts with NUL")
	assert.Equal(t, uint32(0), st.Lookup(""), "empty string maps to 0")
}

// Indexing the payload at a name's offset and reading to the next NUL must
// give the name back, merged or not.
func TestStringTableRoundTrip(t *testing.T) {
	names := []string{".text", ".rela.text", ".data", ".shstrtab", ".strtab", ".symtab", "tab", "ab", ""}
	st := BuildStringTable(names)

	for _, name := range names {
		off := st.Lookup(name)
		end := bytes.IndexByte(st.Data()[off:], 0)
		assert.Equal(t, name, string(st.Data()[off:int(off)+end]), "round trip of "+name)
	}
}

func TestStringTableLookupMissing(t *testing.T) {
	st := BuildStringTable([]string{"foo"})

	assert.Panics(t, func() { st.Lookup("bar") }, "missing name is an engine bug")
}
