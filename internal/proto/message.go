// Package proto defines the websocket wire protocol: the inbound and
// outbound envelopes and the validated payload types for each event.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client-emitted event names.
const (
	EventCreateGame = "create-game"
	EventJoinGame   = "join-game"
	EventLeaveGame  = "leave-game"
	EventMakeMove   = "make-move"
)

// Server-emitted event names.
const (
	EventOpponentConnected    = "opponent-connected"
	EventOpponentDisconnected = "opponent-disconnected"
)

// Length bounds checked before any core call. Values at the bound are
// rejected.
const (
	MaxNameLen   = 20
	MaxRoomIDLen = 10
	MaxSquareLen = 3
)

// ErrViolation marks a payload that a conforming client cannot produce.
// Call sites treat it as abuse, not as a transient failure.
var ErrViolation = errors.New("protocol violation")

// Inbound is the envelope for client events.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound either acknowledges a request (Type echoes the request type and
// Success is set) or carries a server-initiated event. Failures get no
// structured reply at all; the connection is simply closed.
type Outbound struct {
	Type    string `json:"type"`
	Success bool   `json:"success,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Ack builds a success acknowledgment for a request.
func Ack(event string, payload any) Outbound {
	return Outbound{Type: event, Success: true, Payload: payload}
}

// Event builds a server-initiated broadcast frame.
func Event(event string, payload any) Outbound {
	return Outbound{Type: event, Payload: payload}
}

// PlayerInfo describes an occupied seat to the other side of the board.
type PlayerInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateGame opens a room with the sender on the chosen color.
type CreateGame struct {
	Color string `json:"color"`
	Name  string `json:"name"`
}

func (p CreateGame) Validate() error {
	if p.Color != "w" && p.Color != "b" {
		return fmt.Errorf("%w: bad color %q", ErrViolation, p.Color)
	}
	if len(p.Name) >= MaxNameLen {
		return fmt.Errorf("%w: name too long", ErrViolation)
	}
	return nil
}

// JoinGame seats the sender in an existing room.
type JoinGame struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

func (p JoinGame) Validate() error {
	if len(p.RoomID) >= MaxRoomIDLen {
		return fmt.Errorf("%w: room id too long", ErrViolation)
	}
	if len(p.Name) >= MaxNameLen {
		return fmt.Errorf("%w: name too long", ErrViolation)
	}
	return nil
}

// LeaveGame vacates the sender's seat.
type LeaveGame struct {
	RoomID string `json:"room_id"`
}

func (p LeaveGame) Validate() error {
	if len(p.RoomID) >= MaxRoomIDLen {
		return fmt.Errorf("%w: room id too long", ErrViolation)
	}
	return nil
}

// Move is relayed opaquely; squares are algebraic coordinates and the
// server never checks legality.
type Move struct {
	From           string `json:"from"`
	To             string `json:"to"`
	PromotionPiece string `json:"promotion_piece,omitempty"`
}

// MakeMove relays a move to the opponent.
type MakeMove struct {
	RoomID string `json:"room_id"`
	Move   Move   `json:"move"`
}

func (p MakeMove) Validate() error {
	if len(p.RoomID) >= MaxRoomIDLen {
		return fmt.Errorf("%w: room id too long", ErrViolation)
	}
	if len(p.Move.From) >= MaxSquareLen || len(p.Move.To) >= MaxSquareLen || len(p.Move.PromotionPiece) >= MaxSquareLen {
		return fmt.Errorf("%w: bad move shape", ErrViolation)
	}
	return nil
}
