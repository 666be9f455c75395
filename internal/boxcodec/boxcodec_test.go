package boxcodec

import (
	"testing"

	"github.com/mrjoshuak/go-j2kbox/errs"
	"github.com/stretchr/testify/require"
)

func TestImageHeaderRoundTrip(t *testing.T) {
	bits, err := PackBitsPerComponent(8, false)
	require.NoError(t, err)
	h := &ImageHeader{Height: 100, Width: 200, NumComponents: 3, BitsPerComponent: bits, CompressionType: 7}
	got, err := ParseImageHeader(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.Equal(t, 8, got.BitDepth())
	require.False(t, got.Signed())
}

func TestImageHeaderRejectsWrongLength(t *testing.T) {
	_, err := ParseImageHeader(make([]byte, 10))
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindFileFormat))
}

func TestColorSpecEnumeratedRequiresSevenBytes(t *testing.T) {
	cs := &ColorSpec{Method: MethodEnumerated, EnumeratedCS: CSsRGB}
	enc, err := cs.Encode()
	require.NoError(t, err)
	require.Len(t, enc, 7)

	got, err := ParseColorSpec(enc)
	require.NoError(t, err)
	require.Equal(t, cs, got)
}

func TestColorSpecRejectsOutsideClosedSet(t *testing.T) {
	cs := &ColorSpec{Method: MethodEnumerated, EnumeratedCS: 999}
	_, err := cs.Encode()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindInvalidParameter))
}

func TestColorSpecICCRequiresNonEmptyProfile(t *testing.T) {
	cs := &ColorSpec{Method: MethodRestrictedICC}
	_, err := cs.Encode()
	require.Error(t, err)
}

func TestPaletteRoundTrip(t *testing.T) {
	p := &Palette{
		BitsPerComponent: []uint8{7, 15}, // depths 8 and 16
		Entries: [][]uint32{
			{200, 60000},
			{1, 1},
		},
	}
	enc, err := p.Encode()
	require.NoError(t, err)
	got, err := ParsePalette(enc)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestPaletteRejectsTooManyEntries(t *testing.T) {
	entries := make([][]uint32, 1025)
	for i := range entries {
		entries[i] = []uint32{0}
	}
	p := &Palette{BitsPerComponent: []uint8{7}, Entries: entries}
	_, err := p.Encode()
	require.Error(t, err)
}

func TestComponentMapRoundTrip(t *testing.T) {
	m := &ComponentMap{Mappings: []ComponentMapping{
		{Component: 0, MappingType: 0, PaletteColumn: 0},
		{Component: 0, MappingType: 1, PaletteColumn: 2},
	}}
	got, err := ParseComponentMap(m.Encode())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestChannelDefRoundTrip(t *testing.T) {
	d := &ChannelDef{Definitions: []ChannelDefinition{
		{Index: 0, Type: ChannelColor, Association: 1},
		{Index: 1, Type: ChannelOpacity, Association: 0},
	}}
	got, err := ParseChannelDef(d.Encode())
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestFragmentListChoosesDRByMagnitude(t *testing.T) {
	small := &FragmentList{Entries: []FragmentEntry{{Offset: 10, Length: 20}}}
	enc, err := small.Encode()
	require.NoError(t, err)
	require.Equal(t, uint8(4), enc[2])

	big := &FragmentList{Entries: []FragmentEntry{{Offset: 1 << 33, Length: 20}}}
	enc, err = big.Encode()
	require.NoError(t, err)
	require.Equal(t, uint8(8), enc[2])

	got, err := ParseFragmentList(enc)
	require.NoError(t, err)
	require.Equal(t, big, got)
}

func TestReaderRequirementsRoundTrip(t *testing.T) {
	rreq := &ReaderRequirements{
		MaskLength: 2,
		FUAM:       []byte{0xC0, 0x00},
		DCM:        []byte{0x80, 0x00},
		StandardFeatures: []StandardFeatureEntry{
			{SF: 5, Mask: []byte{0x80, 0x00}},
		},
		VendorFeatures: []VendorFeatureEntry{
			{UUID: [16]byte{1, 2, 3}, Mask: []byte{0x40, 0x00}},
		},
	}
	enc, err := rreq.Encode()
	require.NoError(t, err)
	got, err := ParseReaderRequirements(enc)
	require.NoError(t, err)
	require.Equal(t, rreq, got)
}

func TestReaderRequirementsRejectsBadMaskLength(t *testing.T) {
	rreq := &ReaderRequirements{MaskLength: 3, FUAM: []byte{0, 0, 0}, DCM: []byte{0, 0, 0}}
	_, err := rreq.Encode()
	require.Error(t, err)
}

func TestSetBitAndHasBit(t *testing.T) {
	mask := make([]byte, 2)
	SetBit(mask, 0)
	SetBit(mask, 9)
	require.True(t, HasBit(mask, 0))
	require.True(t, HasBit(mask, 9))
	require.False(t, HasBit(mask, 1))
}

func TestJP2HeaderRequiresImageHeader(t *testing.T) {
	_, err := (&JP2Header{}).Encode()
	require.Error(t, err)
	require.True(t, errs.HasKind(err, errs.KindInvalidParameter))
}

func TestJP2HeaderRoundTripWithColorAndUnknownChild(t *testing.T) {
	bits, _ := PackBitsPerComponent(8, false)
	h := &JP2Header{
		ImageHeader: &ImageHeader{Height: 10, Width: 10, NumComponents: 3, BitsPerComponent: bits, CompressionType: 7},
		ColorSpec:   []*ColorSpec{{Method: MethodEnumerated, EnumeratedCS: CSsRGB}},
		Unknown:     []Raw{{Type: 0x61626364, Content: []byte{1, 2, 3}}},
	}
	enc, err := h.Encode()
	require.NoError(t, err)
	got, err := ParseJP2Header(enc)
	require.NoError(t, err)
	require.Equal(t, h.ImageHeader, got.ImageHeader)
	require.Equal(t, h.ColorSpec, got.ColorSpec)
	require.Equal(t, h.Unknown, got.Unknown)
}

func TestFileTypeRoundTrip(t *testing.T) {
	ft := NewFileType(BrandJPH)
	got, err := ParseFileType(ft.Encode())
	require.NoError(t, err)
	require.Equal(t, ft, got)
	require.Len(t, got.Compatibility, 2)
}

func TestAssociationNestedRoundTrip(t *testing.T) {
	a := &Association{
		Label:   &Label{Text: "outer"},
		Numbers: &NumberList{Indices: []uint32{0, 1}},
		Children: []Association{
			{Label: &Label{Text: "inner"}},
		},
	}
	got, err := ParseAssociation(a.Encode())
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestURLRoundTrip(t *testing.T) {
	u := &URL{Version: 0, Location: "frames/0001.jpx"}
	got, err := ParseURL(u.Encode())
	require.NoError(t, err)
	require.Equal(t, u, got)
}
