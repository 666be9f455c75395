package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubCodec struct{ name string }

func (s stubCodec) Encode(ctx context.Context, params EncodeParams) ([]byte, error) {
	return []byte{0xFF, 0x4F}, nil
}

func (s stubCodec) Decode(ctx context.Context, codestream []byte) (*DecodeResult, error) {
	return &DecodeResult{}, nil
}

func (s stubCodec) Name() string { return s.name }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubCodec{name: "fake-j2k"})
	c, err := r.Get("fake-j2k")
	require.NoError(t, err)
	require.Equal(t, "fake-j2k", c.Name())
}

func TestRegistryGetMissingReturnsNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(stubCodec{name: "a"})
	r.Register(stubCodec{name: "b"})
	require.ElementsMatch(t, []string{"a", "b"}, r.List())
}
