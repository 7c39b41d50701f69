package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ClientMessageType names a message sent by the browser.
type ClientMessageType string

const (
	MessageStartSimulation ClientMessageType = "START_SIMULATION"
	MessageStopSimulation  ClientMessageType = "STOP_SIMULATION"
	MessagePing            ClientMessageType = "PING"
)

// MaxInputLength bounds the user input of START_SIMULATION, in characters
// (runes), not bytes.
const MaxInputLength = 4096

// ErrInvalidMessage is returned by ParseClientMessage for malformed messages.
var ErrInvalidMessage = errors.New("invalid client message")

// ClientMessage is a message received over the game WebSocket.
type ClientMessage struct {
	Type  ClientMessageType `json:"type" validate:"required,oneof=START_SIMULATION STOP_SIMULATION PING"`
	Input string            `json:"input,omitempty" validate:"required_if=Type START_SIMULATION,max=4096"`
}

// ParseClientMessage decodes and validates a client message. The input of
// START_SIMULATION is trimmed and must not be empty.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	msg.Input = strings.TrimSpace(msg.Input)
	if err := ValidateStruct(msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}
