package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ospanenko/chesswire-server/internal/proto"
)

// Interactive client for manual testing. Run without -room to create a
// game, then start a second instance with -room set to the printed id.
// Moves are typed as "e2 e4" with an optional promotion piece: "e7 e8 q".
func main() {
	if err := run(); err != nil {
		log.Printf("ws_play: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-player", "player name")
	room := flag.String("room", "", "room id to join; empty creates a new game")
	color := flag.String("color", "w", "color when creating a game (w or b)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	roomID := *room
	if roomID == "" {
		if err := send(ctx, conn, proto.EventCreateGame, proto.CreateGame{Color: *color, Name: *name}); err != nil {
			return err
		}
		ack, err := readFrame(ctx, conn)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(ack.Payload, &roomID); err != nil {
			return fmt.Errorf("unmarshal room id: %w", err)
		}
		fmt.Printf("created room %s, waiting for an opponent\n", roomID)
	} else {
		if err := send(ctx, conn, proto.EventJoinGame, proto.JoinGame{RoomID: roomID, Name: *name}); err != nil {
			return err
		}
		ack, err := readFrame(ctx, conn)
		if err != nil {
			return err
		}
		var opponent proto.PlayerInfo
		if err := json.Unmarshal(ack.Payload, &opponent); err != nil {
			return fmt.Errorf("unmarshal join ack: %w", err)
		}
		fmt.Printf("joined room %s against %s (%s)\n", roomID, opponent.Name, opponent.Color)
	}

	fmt.Println("Type moves as \"from to [promotion]\" and press Enter. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, roomID)

	if err := send(ctx, conn, proto.EventLeaveGame, proto.LeaveGame{RoomID: roomID}); err != nil {
		return err
	}

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		f, err := readFrame(ctx, conn)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case proto.EventOpponentConnected:
			var info proto.PlayerInfo
			if err := json.Unmarshal(f.Payload, &info); err != nil {
				log.Printf("unmarshal opponent-connected: %v", err)
				continue
			}
			fmt.Printf("%s joined as %s\n", info.Name, info.Color)
		case proto.EventOpponentDisconnected:
			var info proto.PlayerInfo
			if err := json.Unmarshal(f.Payload, &info); err != nil {
				log.Printf("unmarshal opponent-disconnected: %v", err)
				continue
			}
			fmt.Printf("%s (%s) left the game\n", info.Name, info.Color)
		case proto.EventMakeMove:
			var move proto.Move
			if err := json.Unmarshal(f.Payload, &move); err != nil {
				log.Printf("unmarshal move: %v", err)
				continue
			}
			if move.PromotionPiece != "" {
				fmt.Printf("opponent: %s -> %s =%s\n", move.From, move.To, move.PromotionPiece)
			} else {
				fmt.Printf("opponent: %s -> %s\n", move.From, move.To)
			}
		default:
			fmt.Printf("event=%s payload=%s\n", f.Type, f.Payload)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, roomID string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				if len(fields) != 0 {
					fmt.Println("expected: from to [promotion]")
				}
				continue
			}

			move := proto.Move{From: fields[0], To: fields[1]}
			if len(fields) > 2 {
				move.PromotionPiece = fields[2]
			}
			if err := send(ctx, conn, proto.EventMakeMove, proto.MakeMove{RoomID: roomID, Move: move}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
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

func readFrame(ctx context.Context, conn *websocket.Conn) (frame, error) {
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		return frame{}, fmt.Errorf("read: %w", err)
	}
	return f, nil
}
