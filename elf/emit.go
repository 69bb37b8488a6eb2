// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yangboyd/elf-edit/region"
)

// Bytes materializes the laid-out file as a single buffer. It cannot fail:
// the planner already rejected every structural violation, so a short or
// mismatched image here is an engine bug and panics.
func (l *Layout) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(int(l.outputSize))
	if err := l.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Write streams the laid-out file to w. The only errors it returns are
// w's own.
func (l *Layout) Write(w io.Writer) error {
	e := &emitter{l: l, w: &countingWriter{w: w}}
	for _, r := range l.regions {
		if err := e.emitRegion(r, false); err != nil {
			return err
		}
	}
	if e.w.count != l.outputSize {
		panic(fmt.Sprintf("emitter produced %d bytes, layout size is %d", e.w.count, l.outputSize))
	}
	return nil
}

type countingWriter struct {
	w     io.Writer
	count uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += uint64(n)
	return n, err
}

// emitter replays the planner's walk, producing the bytes whose offsets
// the planner computed.
type emitter struct {
	l *Layout
	w *countingWriter
}

func (e *emitter) pad(n uint64) error {
	if n == 0 {
		return nil
	}
	_, err := e.w.Write(make([]byte, n))
	return err
}

func (e *emitter) emitRegion(r DataRegion, inLoad bool) error {
	switch v := r.(type) {
	case HeaderRegion:
		return e.l.writeElfHeader(e.w)

	case ProgramHeadersRegion:
		for _, ph := range e.l.Phdrs() {
			if err := e.l.writeProgramHeader(e.w, ph); err != nil {
				return err
			}
		}
		return nil

	case *Segment:
		for _, child := range v.Regions {
			if err := e.emitRegion(child, true); err != nil {
				return err
			}
		}
		return nil

	case SectionHeadersRegion:
		if err := e.pad(region.Padding(e.w.count, secHdrAlign(e.l.header.Class))); err != nil {
			return err
		}
		if err := e.l.writeNullSectionHeader(e.w); err != nil {
			return err
		}
		for _, sh := range e.l.sortedShdrs() {
			if err := e.l.writeSectionHeader(e.w, sh); err != nil {
				return err
			}
		}
		return nil

	case SectionNameTableRegion:
		return e.emitSectionPayload(v.Index, inLoad)

	case StringTableRegion:
		return e.emitSectionPayload(v.Index, inLoad)

	case SymbolTableRegion:
		return e.emitSectionPayload(v.Table.Index, inLoad)

	case GotRegion:
		return e.emitSectionPayload(v.Got.Index, inLoad)

	case SectionRegion:
		return e.emitSectionPayload(v.Section.Index, inLoad)

	case RawRegion:
		_, err := e.w.Write(v.Data)
		return err

	default:
		panic(fmt.Sprintf("unknown data region %T", r))
	}
}

// emitSectionPayload writes the payload of the section registered under
// idx: the planner stored the synthesized sections alongside the caller's,
// so both walks see identical bytes.
func (e *emitter) emitSectionPayload(idx uint16, inLoad bool) error {
	sh, ok := e.l.shdrs[idx]
	if !ok {
		panic(fmt.Sprint("no planned section under index ", idx))
	}
	s := sh.Section
	if len(s.Data) == 0 {
		return nil
	}
	if inLoad {
		if !region.Aligned(e.w.count, s.AddrAlign) {
			panic(fmt.Sprintf("section %d (%s): emitter reached unaligned offset %#x", s.Index, s.Name, e.w.count))
		}
	} else {
		if err := e.pad(region.Padding(e.w.count, s.AddrAlign)); err != nil {
			return err
		}
	}
	if e.w.count != sh.Offset {
		panic(fmt.Sprintf("section %d (%s): emitter at %#x, planner placed it at %#x", s.Index, s.Name, e.w.count, sh.Offset))
	}
	_, err := e.w.Write(s.Data)
	return err
}
