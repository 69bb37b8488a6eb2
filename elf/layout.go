// SPDX-License-Identifier: MIT
//
// Copyright (c) 2024 Adrian "asie" Siekierka

package elf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yangboyd/elf-edit/region"
)

const (
	shstrtabName = ".shstrtab"
	strtabName   = ".strtab"
	symtabName   = ".symtab"
	gotName      = ".got"
)

const maxHeaderCount = 65535

// Layout is the resolved form of an ElfFile: every region and table entry
// assigned a final file offset, every forward reference (header table
// offsets, name offsets, shstrndx) filled in. It is a snapshot; mutating
// the source file invalidates it.
type Layout struct {
	header  ElfHeader
	regions []DataRegion

	progHdrCount uint16
	secHdrCount  uint16

	shstrtab *StringTable
	strtab   *StringTable

	outputSize    uint64
	progHdrOffset uint64
	secHdrOffset  uint64
	secHdrStrIdx  uint16
	strtabIdx     uint16

	phdrs map[uint16]*Phdr
	shdrs map[uint16]*Shdr

	placed region.Track
}

func (l *Layout) Size() uint64 {
	return l.outputSize
}

// Phdrs returns the resolved program headers in index order.
func (l *Layout) Phdrs() []*Phdr {
	phdrs := make([]*Phdr, 0, len(l.phdrs))
	for _, ph := range l.phdrs {
		phdrs = append(phdrs, ph)
	}
	sort.Slice(phdrs, func(i, j int) bool {
		return phdrs[i].Index < phdrs[j].Index
	})
	return phdrs
}

// Shdrs returns the resolved section headers keyed by section index. Index
// 0, the null section, is not part of the map.
func (l *Layout) Shdrs() map[uint16]*Shdr {
	return l.shdrs
}

// sortedShdrs returns the resolved section headers in index order.
func (l *Layout) sortedShdrs() []*Shdr {
	shdrs := make([]*Shdr, 0, len(l.shdrs))
	for _, sh := range l.shdrs {
		shdrs = append(shdrs, sh)
	}
	sort.Slice(shdrs, func(i, j int) bool {
		return shdrs[i].Section.Index < shdrs[j].Section.Index
	})
	return shdrs
}

// collector gathers the forward-referenced counts and names the planner
// needs before the walk: header counts go into the ELF header, section and
// symbol names into the two string tables.
type collector struct {
	segments     int
	sections     int
	sectionNames []string
	symbolNames  []string
	strtabIdx    uint16
}

func (c *collector) collect(regions []DataRegion) {
	for _, r := range regions {
		switch v := r.(type) {
		case *Segment:
			c.segments++
			c.collect(v.Regions)
		case SectionRegion:
			c.sections++
			c.sectionNames = append(c.sectionNames, v.Section.Name)
		case GotRegion:
			c.sections++
			name := v.Got.Name
			if name == "" {
				name = gotName
			}
			c.sectionNames = append(c.sectionNames, name)
		case SymbolTableRegion:
			c.sections++
			c.sectionNames = append(c.sectionNames, symtabName)
			c.symbolNames = append(c.symbolNames, v.Table.symbolNames()...)
		case StringTableRegion:
			c.sections++
			c.sectionNames = append(c.sectionNames, strtabName)
			c.strtabIdx = v.Index
		case SectionNameTableRegion:
			c.sections++
			c.sectionNames = append(c.sectionNames, shstrtabName)
		}
	}
}

// BuildLayout resolves f into a Layout, or reports the first structural
// violation. The walk is deterministic: the same file always produces the
// same Layout.
func BuildLayout(f *ElfFile) (error, *Layout) {
	var c collector
	c.collect(f.Regions)

	progHdrCount := c.segments
	if f.GnuStack != nil {
		progHdrCount++
	}
	progHdrCount += len(f.RelroRegions)
	if progHdrCount > maxHeaderCount {
		return fmt.Errorf("program header count %d exceeds %d", progHdrCount, maxHeaderCount), nil
	}
	// The null section occupies index 0 of the section header table.
	secHdrCount := c.sections + 1
	if secHdrCount > maxHeaderCount {
		return fmt.Errorf("section header count %d exceeds %d", secHdrCount, maxHeaderCount), nil
	}

	l := &Layout{
		header:       f.Header,
		regions:      f.Regions,
		progHdrCount: uint16(progHdrCount),
		secHdrCount:  uint16(secHdrCount),
		shstrtab:     BuildStringTable(c.sectionNames),
		strtab:       BuildStringTable(c.symbolNames),
		strtabIdx:    c.strtabIdx,
		phdrs:        make(map[uint16]*Phdr),
		shdrs:        make(map[uint16]*Shdr),
	}

	for _, r := range f.Regions {
		if err := l.planRegion(r, false); err != nil {
			return err, nil
		}
	}

	if f.GnuStack != nil {
		if err := l.planGnuStack(f.GnuStack); err != nil {
			return err, nil
		}
	}
	for _, relro := range f.RelroRegions {
		if err := l.planRelro(relro); err != nil {
			return err, nil
		}
	}

	if !l.placed.Contiguous(l.outputSize) {
		panic("layout planner placed non-contiguous spans")
	}

	return nil, l
}

// advance claims n bytes at the current end of the file.
func (l *Layout) advance(n uint64) {
	l.placed.Place(l.outputSize, n)
	l.outputSize += n
}

func (l *Layout) planRegion(r DataRegion, inLoad bool) error {
	switch v := r.(type) {
	case HeaderRegion:
		if l.outputSize != 0 {
			return fmt.Errorf("ELF header must be at offset 0, not %#x", l.outputSize)
		}
		l.advance(uint64(sizeElfHeader(l.header.Class)))

	case ProgramHeadersRegion:
		if !region.Aligned(l.outputSize, progHdrAlign(l.header.Class)) {
			return fmt.Errorf("program header table at offset %#x is not aligned to %d",
				l.outputSize, progHdrAlign(l.header.Class))
		}
		l.progHdrOffset = l.outputSize
		l.advance(uint64(l.progHdrCount) * uint64(sizeProgramHeader(l.header.Class)))

	case *Segment:
		return l.planSegment(v)

	case SectionHeadersRegion:
		if inLoad {
			return errors.New("Section headers should not be within a segment")
		}
		l.advance(region.Padding(l.outputSize, secHdrAlign(l.header.Class)))
		l.secHdrOffset = l.outputSize
		l.advance(uint64(l.secHdrCount) * uint64(sizeSectionHeader(l.header.Class)))

	case SectionNameTableRegion:
		l.secHdrStrIdx = v.Index
		return l.addSection(&Section{
			Index:     v.Index,
			Name:      shstrtabName,
			Type:      SHT_STRTAB,
			AddrAlign: 1,
			Data:      l.shstrtab.Data(),
		}, inLoad)

	case StringTableRegion:
		return l.addSection(&Section{
			Index:     v.Index,
			Name:      strtabName,
			Type:      SHT_STRTAB,
			AddrAlign: 1,
			Data:      l.strtab.Data(),
		}, inLoad)

	case SymbolTableRegion:
		return l.addSection(l.symbolTableSection(v.Table), inLoad)

	case GotRegion:
		return l.addSection(v.Got.Section(&l.header), inLoad)

	case SectionRegion:
		return l.addSection(v.Section, inLoad)

	case RawRegion:
		l.advance(uint64(len(v.Data)))

	default:
		panic(fmt.Sprintf("unknown data region %T", r))
	}
	return nil
}

func (l *Layout) planSegment(s *Segment) error {
	start := l.outputSize
	for _, child := range s.Regions {
		if err := l.planRegion(child, true); err != nil {
			return err
		}
	}
	fileSize := l.outputSize - start

	// A loader maps the segment page-by-page; a segment with real bytes
	// must keep its file offset and virtual address congruent modulo its
	// alignment.
	if fileSize > 0 && !region.Congruent(start, s.VAddr, s.Align) {
		return fmt.Errorf("segment %d: file offset %#x and virtual address %#x disagree modulo alignment %#x",
			s.Index, start, s.VAddr, s.Align)
	}
	if _, ok := l.phdrs[s.Index]; ok {
		return fmt.Errorf("Segment index %d already exists", s.Index)
	}

	l.phdrs[s.Index] = &Phdr{
		Index:    s.Index,
		Type:     s.Type,
		Flags:    s.Flags,
		Offset:   start,
		VAddr:    s.VAddr,
		PAddr:    s.PAddr,
		FileSize: fileSize,
		MemSize:  s.MemSize.resolve(fileSize),
		Align:    s.Align,
	}
	return nil
}

func (l *Layout) addSection(s *Section, inLoad bool) error {
	if len(s.Data) > 0 && !region.Aligned(s.Address, s.AddrAlign) {
		return fmt.Errorf("section %d (%s): address %#x is not aligned to %d",
			s.Index, s.Name, s.Address, s.AddrAlign)
	}
	// Inside a loadable segment padding would shift the segment's own view
	// of the file, so the author must have arranged the offset already;
	// outside one the engine pads freely.
	if len(s.Data) > 0 && inLoad && !region.Aligned(l.outputSize, s.AddrAlign) {
		return fmt.Errorf("section %d (%s): offset %#x within a loadable segment is not aligned to %d",
			s.Index, s.Name, l.outputSize, s.AddrAlign)
	}
	if _, ok := l.shdrs[s.Index]; ok {
		return fmt.Errorf("Section index %d already exists", s.Index)
	}
	if !inLoad && len(s.Data) > 0 {
		l.advance(region.Padding(l.outputSize, s.AddrAlign))
	}

	l.shdrs[s.Index] = &Shdr{
		Section:    s,
		NameOffset: l.shstrtab.Lookup(s.Name),
		Offset:     l.outputSize,
	}
	l.advance(s.fileSize())
	return nil
}

func (l *Layout) planGnuStack(gs *GnuStack) error {
	if _, ok := l.phdrs[gs.Index]; ok {
		return fmt.Errorf("Segment index %d already exists", gs.Index)
	}
	flags := PF_R | PF_W
	if gs.Executable {
		flags |= PF_X
	}
	l.phdrs[gs.Index] = &Phdr{
		Index: gs.Index,
		Type:  PT_GNU_STACK,
		Flags: flags,
		Align: 8,
	}
	return nil
}

func (l *Layout) planRelro(relro *GnuRelroRegion) error {
	ref, ok := l.phdrs[relro.RefSegmentIndex]
	if !ok {
		return fmt.Errorf("relro region %d references missing segment %d",
			relro.Index, relro.RefSegmentIndex)
	}
	if _, ok := l.phdrs[relro.Index]; ok {
		return fmt.Errorf("Segment index %d already exists", relro.Index)
	}
	l.phdrs[relro.Index] = &Phdr{
		Index:    relro.Index,
		Type:     PT_GNU_RELRO,
		Flags:    PF_R,
		Offset:   ref.Offset + (relro.VAddr - ref.VAddr),
		VAddr:    relro.VAddr,
		PAddr:    relro.VAddr,
		FileSize: relro.MemSize,
		MemSize:  relro.MemSize,
		Align:    1,
	}
	return nil
}
