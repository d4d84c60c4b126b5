package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Value{
		Int(0),
		Int(-42),
		Int(9223372036854775807),
		Float(3.5),
		Float(-0.001),
		Bool(true),
		Bool(false),
		Str(""),
		Str("héllo wörld 🎉"),
		List(Int(1), Str("x"), Bool(true)),
		List(),
		Map(map[string]Value{"a": Int(1), "b": List(Str("nested"))}),
		Map(map[string]Value{
			"outer": Map(map[string]Value{"inner": Int(7)}),
		}),
	}

	for _, v := range cases {
		encoded, err := Encode(v)
		require.NoError(t, err)

		decoded, err := Decode(encoded)
		require.NoError(t, err)

		assert.True(t, Equal(v, decoded), "round-trip mismatch for %v", v)
	}
}

func TestEncodeTombstoneRejected(t *testing.T) {
	_, err := Encode(Tombstone)
	assert.Error(t, err)
}

func TestEqualDistinguishesIntAndFloat(t *testing.T) {
	assert.False(t, Equal(Int(3), Float(3.0)))
}

func TestEncodeStableAcrossMapKeyOrder(t *testing.T) {
	v := Map(map[string]Value{"z": Int(1), "a": Int(2), "m": Int(3)})
	encoded1, err := Encode(v)
	require.NoError(t, err)
	encoded2, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, encoded1, encoded2)
}
