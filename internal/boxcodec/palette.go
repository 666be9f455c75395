package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// bytesForBits returns ceil(bits/8), the packed width of one palette sample.
func bytesForBits(bits int) int { return (bits + 7) / 8 }

// Palette is the pclr box payload. Entries[e][i] is the i-th component's
// value for palette entry e; each value is stored MSB-first in
// ceil(BitsPerComponent[i]/8) bytes.
type Palette struct {
	BitsPerComponent []uint8 // one per component column, packed like ImageHeader's byte
	Entries          [][]uint32
}

// ParsePalette decodes a pclr box payload.
func ParsePalette(data []byte) (*Palette, error) {
	c := bprim.NewCursor(data)
	numEntries, err := c.U16()
	if err != nil {
		return nil, err
	}
	numColumns, err := c.U8()
	if err != nil {
		return nil, err
	}
	if numEntries < 1 || numEntries > 1024 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParsePalette", "num_entries out of range [1,1024]")
	}
	if numColumns < 1 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParsePalette", "num_components out of range [1,255]")
	}

	bits := make([]uint8, numColumns)
	widths := make([]int, numColumns)
	for i := range bits {
		v, err := c.U8()
		if err != nil {
			return nil, err
		}
		bits[i] = v
		depth := int(v&0x7F) + 1
		if depth < 1 || depth > 38 {
			return nil, errs.New(errs.KindFileFormat, "boxcodec.ParsePalette", "component bit depth out of range [1,38]")
		}
		widths[i] = bytesForBits(depth)
	}

	entries := make([][]uint32, numEntries)
	for e := range entries {
		row := make([]uint32, numColumns)
		for i, w := range widths {
			raw, err := c.Bytes(w)
			if err != nil {
				return nil, err
			}
			var v uint32
			for _, b := range raw {
				v = v<<8 | uint32(b)
			}
			depth := int(bits[i]&0x7F) + 1
			if depth < 32 && v >= (uint32(1)<<uint(depth)) {
				return nil, errs.New(errs.KindFileFormat, "boxcodec.ParsePalette", "palette value does not fit its bit depth")
			}
			row[i] = v
		}
		entries[e] = row
	}
	return &Palette{BitsPerComponent: bits, Entries: entries}, nil
}

// Encode serializes a pclr box payload.
func (p *Palette) Encode() ([]byte, error) {
	if len(p.Entries) < 1 || len(p.Entries) > 1024 {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.Palette.Encode", "num_entries out of range [1,1024]")
	}
	n := len(p.BitsPerComponent)
	if n < 1 || n > 255 {
		return nil, errs.New(errs.KindInvalidParameter, "boxcodec.Palette.Encode", "num_components out of range [1,255]")
	}
	widths := make([]int, n)
	total := 3 + n
	for i, v := range p.BitsPerComponent {
		depth := int(v&0x7F) + 1
		widths[i] = bytesForBits(depth)
	}
	for range p.Entries {
		for _, w := range widths {
			total += w
		}
	}
	b := bprim.NewBuilder(total)
	b.U16(uint16(len(p.Entries))).U8(uint8(n)).Bytes(p.BitsPerComponent)
	for _, row := range p.Entries {
		if len(row) != n {
			return nil, errs.New(errs.KindInvalidParameter, "boxcodec.Palette.Encode", "entry column count mismatch")
		}
		for i, v := range row {
			w := widths[i]
			for shift := w - 1; shift >= 0; shift-- {
				b.U8(uint8(v >> uint(8*shift)))
			}
		}
	}
	return b.Build(), nil
}

// ComponentMapping is a single cmap entry: which codestream Component
// feeds this output channel, directly (Direct) or through a Palette column.
type ComponentMapping struct {
	Component     uint16
	MappingType   uint8 // 0=direct, 1=palette
	PaletteColumn uint8
}

// ComponentMap is the cmap box payload.
type ComponentMap struct {
	Mappings []ComponentMapping
}

// ParseComponentMap decodes a cmap box payload. Payload length must be a
// multiple of 4 (component:u16, type:u8, column:u8 per entry).
func ParseComponentMap(data []byte) (*ComponentMap, error) {
	if len(data)%4 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseComponentMap", "cmap payload length must be a multiple of 4")
	}
	n := len(data) / 4
	out := make([]ComponentMapping, n)
	c := bprim.NewCursor(data)
	for i := range out {
		comp, err := c.U16()
		if err != nil {
			return nil, err
		}
		typ, err := c.U8()
		if err != nil {
			return nil, err
		}
		col, err := c.U8()
		if err != nil {
			return nil, err
		}
		out[i] = ComponentMapping{Component: comp, MappingType: typ, PaletteColumn: col}
	}
	return &ComponentMap{Mappings: out}, nil
}

// Encode serializes a cmap box payload.
func (m *ComponentMap) Encode() []byte {
	b := bprim.NewBuilder(4 * len(m.Mappings))
	for _, e := range m.Mappings {
		b.U16(e.Component).U8(e.MappingType).U8(e.PaletteColumn)
	}
	return b.Build()
}

// Channel type values for ChannelDefinition.Type.
const (
	ChannelColor            = 0
	ChannelOpacity          = 1
	ChannelPremultOpacity   = 2
	ChannelUnspecified      = 65535
)

// ChannelDefinition is a single cdef entry.
type ChannelDefinition struct {
	Index       uint16
	Type        uint16
	Association uint16
}

// ChannelDef is the cdef box payload.
type ChannelDef struct {
	Definitions []ChannelDefinition
}

// ParseChannelDef decodes a cdef box payload. Payload length must be exactly
// 2 + 6N (a u16 count followed by N six-byte entries).
func ParseChannelDef(data []byte) (*ChannelDef, error) {
	c := bprim.NewCursor(data)
	n, err := c.U16()
	if err != nil {
		return nil, err
	}
	want := 2 + 6*int(n)
	if len(data) != want {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseChannelDef", "cdef payload length does not match channel count")
	}
	defs := make([]ChannelDefinition, n)
	for i := range defs {
		idx, err := c.U16()
		if err != nil {
			return nil, err
		}
		typ, err := c.U16()
		if err != nil {
			return nil, err
		}
		assoc, err := c.U16()
		if err != nil {
			return nil, err
		}
		defs[i] = ChannelDefinition{Index: idx, Type: typ, Association: assoc}
	}
	return &ChannelDef{Definitions: defs}, nil
}

// Encode serializes a cdef box payload.
func (d *ChannelDef) Encode() []byte {
	b := bprim.NewBuilder(2 + 6*len(d.Definitions))
	b.U16(uint16(len(d.Definitions)))
	for _, e := range d.Definitions {
		b.U16(e.Index).U16(e.Type).U16(e.Association)
	}
	return b.Build()
}
