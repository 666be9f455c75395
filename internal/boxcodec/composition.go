package boxcodec

import (
	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/mrjoshuak/go-j2kbox/internal/box"
	"github.com/mrjoshuak/go-j2kbox/internal/bprim"
)

// Instruction is the inst box payload: one frame of an animation layer's
// instruction set. Offsets are signed two's-complement; Persistence is a
// bool byte.
type Instruction struct {
	HOffset     int32
	VOffset     int32
	Width       uint32
	Height      uint32
	LifeStart   uint32
	LifeEnd     uint32
	NextUse     uint32
	Persistence bool
}

// ParseInstruction decodes an inst box payload. Payload must be exactly 29
// bytes: four signed/unsigned 32-bit fields of geometry, three of timing,
// and a one-byte persistence flag.
func ParseInstruction(data []byte) (*Instruction, error) {
	if len(data) != 29 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseInstruction", "inst payload must be exactly 29 bytes")
	}
	c := bprim.NewCursor(data)
	in := &Instruction{}
	var err error
	if in.HOffset, err = c.I32(); err != nil {
		return nil, err
	}
	if in.VOffset, err = c.I32(); err != nil {
		return nil, err
	}
	if in.Width, err = c.U32(); err != nil {
		return nil, err
	}
	if in.Height, err = c.U32(); err != nil {
		return nil, err
	}
	if in.LifeStart, err = c.U32(); err != nil {
		return nil, err
	}
	if in.LifeEnd, err = c.U32(); err != nil {
		return nil, err
	}
	if in.NextUse, err = c.U32(); err != nil {
		return nil, err
	}
	persist, err := c.U8()
	if err != nil {
		return nil, err
	}
	in.Persistence = persist != 0
	return in, nil
}

// Encode serializes an inst box payload.
func (in *Instruction) Encode() []byte {
	b := bprim.NewBuilder(29)
	b.I32(in.HOffset).I32(in.VOffset).U32(in.Width).U32(in.Height)
	b.U32(in.LifeStart).U32(in.LifeEnd).U32(in.NextUse)
	if in.Persistence {
		b.U8(1)
	} else {
		b.U8(0)
	}
	return b.Build()
}

// InstructionSet is the jplh super-box's inst child collection; it holds
// only the instruction entries (opct/creg siblings live on LayerHeader).
type InstructionSet struct {
	Instructions []Instruction
}

// ParseInstructionSet decodes an inst super-box's sequence of instructions
// (a jplh's composition layer may carry several).
func ParseInstructionSet(content []byte) (*InstructionSet, error) {
	entries, err := bprim.Slice(content, 0, len(content))
	if err != nil {
		return nil, err
	}
	if len(entries)%29 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseInstructionSet", "inst payload not a multiple of the 29-byte entry size")
	}
	n := len(entries) / 29
	out := make([]Instruction, n)
	for i := 0; i < n; i++ {
		in, err := ParseInstruction(entries[i*29 : (i+1)*29])
		if err != nil {
			return nil, err
		}
		out[i] = *in
	}
	return &InstructionSet{Instructions: out}, nil
}

// Encode serializes every instruction back-to-back.
func (s *InstructionSet) Encode() []byte {
	b := bprim.NewBuilder(29 * len(s.Instructions))
	for i := range s.Instructions {
		b.Bytes(s.Instructions[i].Encode())
	}
	return b.Build()
}

// Opacity is the opct box payload: per-channel opacity type for a
// composition layer.
type Opacity struct {
	OpacityType uint8
}

// ParseOpacity decodes an opct box payload.
func ParseOpacity(data []byte) (*Opacity, error) {
	v, err := bprim.ReadU8(data, 0)
	if err != nil {
		return nil, err
	}
	return &Opacity{OpacityType: v}, nil
}

// Encode serializes an opct box payload.
func (o *Opacity) Encode() []byte { return []byte{o.OpacityType} }

// CodestreamRegistration is the creg box payload: per-codestream
// registration of sub-sampled components against the composition grid.
type CodestreamRegistration struct {
	XSiz, YSiz uint16
	Entries    []CodestreamRegEntry
}

// CodestreamRegEntry is one creg entry: a codestream index and its
// registration offsets/grid denominators.
type CodestreamRegEntry struct {
	CodestreamIdx     uint16
	XReg, YReg        uint8
	XDenom, YDenom    uint8
}

// ParseCodestreamRegistration decodes a creg box payload.
func ParseCodestreamRegistration(data []byte) (*CodestreamRegistration, error) {
	c := bprim.NewCursor(data)
	xsiz, err := c.U16()
	if err != nil {
		return nil, err
	}
	ysiz, err := c.U16()
	if err != nil {
		return nil, err
	}
	if c.Remaining()%6 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseCodestreamRegistration", "creg entry region not a multiple of 6 bytes")
	}
	n := c.Remaining() / 6
	entries := make([]CodestreamRegEntry, n)
	for i := range entries {
		idx, err := c.U16()
		if err != nil {
			return nil, err
		}
		xreg, err := c.U8()
		if err != nil {
			return nil, err
		}
		yreg, err := c.U8()
		if err != nil {
			return nil, err
		}
		xd, err := c.U8()
		if err != nil {
			return nil, err
		}
		yd, err := c.U8()
		if err != nil {
			return nil, err
		}
		entries[i] = CodestreamRegEntry{CodestreamIdx: idx, XReg: xreg, YReg: yreg, XDenom: xd, YDenom: yd}
	}
	return &CodestreamRegistration{XSiz: xsiz, YSiz: ysiz, Entries: entries}, nil
}

// Encode serializes a creg box payload.
func (r *CodestreamRegistration) Encode() []byte {
	b := bprim.NewBuilder(4 + 6*len(r.Entries))
	b.U16(r.XSiz).U16(r.YSiz)
	for _, e := range r.Entries {
		b.U16(e.CodestreamIdx).U8(e.XReg).U8(e.YReg).U8(e.XDenom).U8(e.YDenom)
	}
	return b.Build()
}

// LayerHeader is the jplh super-box payload: the composition layer's
// instruction set plus optional opacity/registration children, with every
// other child (grouping included) preserved as Raw.
type LayerHeader struct {
	Instructions *InstructionSet
	Opacity      *Opacity
	Registration *CodestreamRegistration
	Unknown      []Raw
}

// ParseLayerHeader walks a jplh super-box's children.
func ParseLayerHeader(content []byte) (*LayerHeader, error) {
	h := &LayerHeader{}
	r := box.NewReader(content)
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		child := r.ExtractContent(info)
		switch info.Type {
		case box.TypeInstructionSet:
			set, err := ParseInstructionSet(child)
			if err != nil {
				return nil, err
			}
			h.Instructions = set
		case box.TypeOpacity:
			op, err := ParseOpacity(child)
			if err != nil {
				return nil, err
			}
			h.Opacity = op
		case box.TypeCodestreamReg:
			reg, err := ParseCodestreamRegistration(child)
			if err != nil {
				return nil, err
			}
			h.Registration = reg
		default:
			owned := make([]byte, len(child))
			copy(owned, child)
			h.Unknown = append(h.Unknown, Raw{Type: info.Type, Content: owned})
		}
	}
	return h, nil
}

// Encode serializes the jplh super-box content.
func (h *LayerHeader) Encode() []byte {
	w := box.NewWriter()
	if h.Instructions != nil {
		w.WriteBox(box.TypeInstructionSet, h.Instructions.Encode())
	}
	if h.Opacity != nil {
		w.WriteBox(box.TypeOpacity, h.Opacity.Encode())
	}
	if h.Registration != nil {
		w.WriteBox(box.TypeCodestreamReg, h.Registration.Encode())
	}
	for _, u := range h.Unknown {
		w.WriteRawBox(u.Type, u.Content)
	}
	return w.Bytes()
}

// Composition is the comp super-box payload: the overall animation's
// ordered layer headers plus grid dimensions, carried as child jplh boxes.
type Composition struct {
	Width, Height uint32
	Layers        []LayerHeader
}

// ParseComposition walks a comp super-box. The first 8 bytes are the
// composition's width/height grid; remaining children are jplh layers.
func ParseComposition(content []byte) (*Composition, error) {
	if len(content) < 8 {
		return nil, errs.New(errs.KindTruncated, "boxcodec.ParseComposition", "comp payload shorter than its 8-byte grid header")
	}
	width, err := bprim.ReadU32(content, 0)
	if err != nil {
		return nil, err
	}
	height, err := bprim.ReadU32(content, 4)
	if err != nil {
		return nil, err
	}
	comp := &Composition{Width: width, Height: height}
	r := box.NewReader(content[8:])
	for {
		info, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if info.Type != box.TypeLayerHeader {
			continue
		}
		lh, err := ParseLayerHeader(r.ExtractContent(info))
		if err != nil {
			return nil, err
		}
		comp.Layers = append(comp.Layers, *lh)
	}
	return comp, nil
}

// Encode serializes the comp super-box content.
func (c *Composition) Encode() []byte {
	w := box.NewWriter()
	head := bprim.NewBuilder(8)
	head.U32(c.Width).U32(c.Height)
	buf := head.Build()
	for i := range c.Layers {
		w.WriteBox(box.TypeLayerHeader, c.Layers[i].Encode())
	}
	return append(buf, w.Bytes()...)
}

// Grouping is the cgrp box payload: an equivalency group of codestreams or
// layers, represented as a flat list of group member indices (entries are
// uniform 2-byte indices per the simplified reader-side model this module
// targets — encoders that need entry-type discrimination can wrap this as a
// Raw box instead).
type Grouping struct {
	Members []uint16
}

// ParseGrouping decodes a cgrp box payload.
func ParseGrouping(data []byte) (*Grouping, error) {
	if len(data)%2 != 0 {
		return nil, errs.New(errs.KindFileFormat, "boxcodec.ParseGrouping", "cgrp payload length must be a multiple of 2")
	}
	n := len(data) / 2
	out := make([]uint16, n)
	for i := range out {
		v, err := bprim.ReadU16(data, i*2)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return &Grouping{Members: out}, nil
}

// Encode serializes a cgrp box payload.
func (g *Grouping) Encode() []byte {
	b := bprim.NewBuilder(2 * len(g.Members))
	for _, m := range g.Members {
		b.U16(m)
	}
	return b.Build()
}
