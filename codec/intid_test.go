package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegerIDRoundTrip(t *testing.T) {
	for _, labelCode := range []uint8{1, 2, 127, 255} {
		for _, id := range []int64{0, 1, 1 << 20, (1 << 56) - 1} {
			encoded, err := Encode(labelCode, id)
			require.NoError(t, err)
			gotCode, gotID := Decode(encoded)
			require.Equal(t, labelCode, gotCode)
			require.Equal(t, id, gotID)
		}
	}
}

func TestIsEncodedDetection(t *testing.T) {
	encoded, err := Encode(5, 42)
	require.NoError(t, err)
	require.True(t, IsEncoded(encoded))
	require.False(t, IsEncoded(42))
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	_, err := Encode(1, 1<<56)
	require.True(t, ErrIDOutOfRange.Is(err))

	_, err = Encode(1, -1)
	require.True(t, ErrIDOutOfRange.Is(err))
}

func TestLabelRegistryMonotonic(t *testing.T) {
	r := NewLabelRegistry()
	codeA := r.RegisterLabel("User")
	codeB := r.RegisterLabel("Post")
	codeAAgain := r.RegisterLabel("User")

	require.Equal(t, uint8(1), codeA)
	require.Equal(t, uint8(2), codeB)
	require.Equal(t, codeA, codeAAgain)

	name, ok := r.LookupLabel(1)
	require.True(t, ok)
	require.Equal(t, "User", name)
}

func TestLabelRegistryOverflowCollidesOn255(t *testing.T) {
	r := NewLabelRegistry()
	r.nextCode = 255
	codeLast := r.RegisterLabel("Last")
	require.Equal(t, uint8(255), codeLast)

	codeOverflow := r.RegisterLabel("Overflow")
	require.Equal(t, uint8(255), codeOverflow)
}
