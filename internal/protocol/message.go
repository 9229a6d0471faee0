// Package protocol holds the wire format shared by the relay and its clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arcade-relay/internal/entity"
)

// Inbound actions.
const (
	ActionCreateRoom = "createRoom"
	ActionJoinRoom   = "joinRoom"
	ActionMakeMove   = "makeMove"
	ActionResetGame  = "resetGame"
	ActionGetRooms   = "getRooms"
	ActionLeaveRoom  = "leaveRoom"
)

// Outbound actions.
const (
	ActionRoomCreated    = "roomCreated"
	ActionGameState      = "gameState"
	ActionPlayersUpdate  = "playersUpdate"
	ActionRoomsList      = "roomsList"
	ActionPlayerAssigned = "playerAssigned"
	ActionRejected       = "actionRejected"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomRef addresses a room. On the wire it is either a bare room id string
// or an object carrying the id and an optional resume token.
type RoomRef struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token,omitempty"`
}

func (that *RoomRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		that.RoomID = id
		return nil
	}

	type plain RoomRef

	var ref plain
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("room reference: %w", err)
	}

	*that = RoomRef(ref)

	return nil
}

type MovePayload struct {
	RoomID   string `json:"roomId"`
	Position *int   `json:"position"`
}

type PlayerAssigned struct {
	RoomID string      `json:"roomId"`
	Symbol entity.Mark `json:"symbol"`
	Token  string      `json:"token"`
}

type Rejection struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Encode - builds a framed message ready to be written to a socket.
func Encode(action string, payload any) ([]byte, error) {
	msg := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
		}
		msg.Payload = raw
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", action, err)
	}

	return data, nil
}

// Decode - parses a framed message.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}
