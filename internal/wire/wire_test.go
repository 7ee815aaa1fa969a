package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputFrameRoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeInput, InputPayload{
		Slot:    2,
		Seq:     41,
		Buttons: ButtonUp | ButtonPunch,
	})
	require.NoError(t, err)

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeInput, decoded.Type)

	var in InputPayload
	require.NoError(t, decoded.DecodePayload(&in))
	assert.Equal(t, 2, in.Slot)
	assert.Equal(t, uint32(41), in.Seq)
	assert.True(t, in.Buttons&ButtonUp != 0)
	assert.True(t, in.Buttons&ButtonPunch != 0)
	assert.Zero(t, in.Buttons&ButtonDrop)
}

func TestStartFrameRoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeStart, StartPayload{Seed: "test"})
	require.NoError(t, err)

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	var start StartPayload
	require.NoError(t, decoded.DecodePayload(&start))
	assert.Equal(t, "test", start.Seed)
}

func TestButtonBitsAreDisjoint(t *testing.T) {
	buttons := []uint8{
		ButtonUp, ButtonLeft, ButtonDown, ButtonRight,
		ButtonPunch, ButtonPickup, ButtonDrop,
	}
	var all uint8
	for _, b := range buttons {
		assert.Zero(t, all&b, "button bits overlap")
		all |= b
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xc1, 0xff, 0x00})
	assert.Error(t, err)
}
