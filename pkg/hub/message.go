// Package hub fans encoded frames and status snapshots out to every
// connected websocket viewer.
package hub

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/websocket/v2"
)

// Message is one payload queued for every viewer. Frames travel as binary
// JPEG, status snapshots as JSON text.
type Message struct {
	Frame bool
	Data  []byte
}

// FrameMessage wraps one JPEG-encoded frame.
func FrameMessage(jpeg []byte) Message {
	return Message{Frame: true, Data: jpeg}
}

// StatusMessage encodes v as a JSON text message.
func StatusMessage(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("hub: encode status: %w", err)
	}
	return Message{Data: data}, nil
}

// Opcode is the websocket frame type m is written with.
func (m Message) Opcode() int {
	if m.Frame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
