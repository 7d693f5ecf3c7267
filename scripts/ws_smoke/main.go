package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ospanenko/chesswire-server/internal/proto"
)

// Smoke test against a running server: open a game as white, join it from
// a second connection as black, relay one move and check it comes out the
// other side.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	white, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial white: %w", err)
	}
	defer white.Close(websocket.StatusNormalClosure, "bye")

	black, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial black: %w", err)
	}
	defer black.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, white, proto.EventCreateGame, proto.CreateGame{Color: "w", Name: "smoke-w"}); err != nil {
		return err
	}
	ack, err := read(ctx, white)
	if err != nil {
		return err
	}
	if ack.Type != proto.EventCreateGame || !ack.Success {
		return fmt.Errorf("unexpected create reply: type=%s success=%v", ack.Type, ack.Success)
	}
	var roomID string
	if err := json.Unmarshal(ack.Payload, &roomID); err != nil {
		return fmt.Errorf("unmarshal room id: %w", err)
	}
	fmt.Printf("created room %s\n", roomID)

	if err := send(ctx, black, proto.EventJoinGame, proto.JoinGame{RoomID: roomID, Name: "smoke-b"}); err != nil {
		return err
	}
	joinAck, err := read(ctx, black)
	if err != nil {
		return err
	}
	var opponent proto.PlayerInfo
	if err := json.Unmarshal(joinAck.Payload, &opponent); err != nil {
		return fmt.Errorf("unmarshal join ack: %w", err)
	}
	fmt.Printf("joined, opponent: name=%s color=%s\n", opponent.Name, opponent.Color)

	// White should be told black arrived.
	arrived, err := read(ctx, white)
	if err != nil {
		return err
	}
	if arrived.Type != proto.EventOpponentConnected {
		return fmt.Errorf("unexpected frame on white: type=%s", arrived.Type)
	}

	move := proto.Move{From: "e2", To: "e4"}
	if err := send(ctx, white, proto.EventMakeMove, proto.MakeMove{RoomID: roomID, Move: move}); err != nil {
		return err
	}
	relayed, err := read(ctx, black)
	if err != nil {
		return err
	}
	var got proto.Move
	if err := json.Unmarshal(relayed.Payload, &got); err != nil {
		return fmt.Errorf("unmarshal relayed move: %w", err)
	}
	if got != move {
		return fmt.Errorf("relayed move mismatch: sent %+v got %+v", move, got)
	}
	fmt.Printf("move relayed: %s -> %s\n", got.From, got.To)

	return nil
}

func send(ctx context.Context, conn *websocket.Conn, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: event, Payload: raw}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

type frame struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

func read(ctx context.Context, conn *websocket.Conn) (frame, error) {
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		return frame{}, fmt.Errorf("read: %w", err)
	}
	return f, nil
}
