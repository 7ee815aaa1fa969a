// Package wire is the codec for gameplay traffic on the established data
// channel. Frames are msgpack: a small typed envelope around an opaque
// payload, compact enough to send every input tick.
package wire

import "github.com/vmihailenco/msgpack/v5"

// Frame types.
const (
	// TypeStart is sent by the host (slot 0), the sole authority to start
	// the session, carrying the shared world seed.
	TypeStart = "start"

	// TypeInput carries one tick of a player's button state.
	TypeInput = "input"
)

// Button bitmask for input frames.
const (
	ButtonUp uint8 = 1 << iota
	ButtonLeft
	ButtonDown
	ButtonRight
	ButtonPunch
	ButtonPickup
	ButtonDrop
)

// Message is the data-channel envelope.
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// StartPayload announces session start with the deterministic world seed.
type StartPayload struct {
	Seed string `msgpack:"seed"`
}

// InputPayload is one tick of input from one slot.
type InputPayload struct {
	Slot    int    `msgpack:"slot"`
	Seq     uint32 `msgpack:"seq"`
	Buttons uint8  `msgpack:"buttons"`
}

// NewMessage wraps a payload into an envelope of the given type.
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: b}, nil
}

// DecodePayload decodes the envelope payload into v.
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// Encode serializes an envelope for the data channel.
func Encode(m Message) ([]byte, error) {
	return msgpack.Marshal(m)
}

// Decode parses a data-channel frame into an envelope.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}
