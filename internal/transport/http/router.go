package http

import (
	"encoding/json"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/ospanenko/chesswire-server/internal/core"
	"github.com/ospanenko/chesswire-server/internal/limit"
	"github.com/ospanenko/chesswire-server/internal/proto"
)

// Router applies admission and rate policy to inbound events, mutates the
// session registry, and issues replies and broadcasts back through the
// transport.
//
// Failure policy: errors on create-game/join-game are soft (the connection
// is dropped, the client may retry from scratch). Errors on leave-game,
// make-move, any malformed payload, and any rate violation are hard: a
// conforming client cannot produce them, so the source address is banned
// before the drop.
type Router struct {
	registry *core.Registry
	gateway  *limit.Gateway
	limiter  *limit.RateLimiter
	groups   *groups
	log      *zerolog.Logger
}

// NewRouter wires the three core components to the transport.
func NewRouter(registry *core.Registry, gateway *limit.Gateway, limiter *limit.RateLimiter, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		gateway:  gateway,
		limiter:  limiter,
		groups:   newGroups(),
		log:      logger,
	}
}

// Connect admits the connection's address and registers it as a client.
// A false return means the connection must be refused.
func (rt *Router) Connect(s *session) bool {
	if !rt.gateway.HandleConnect(s.addr) {
		rt.log.Debug().Str("addr", s.addr).Msg("connection refused")
		return false
	}
	if _, err := rt.registry.RegisterClient(s.id); err != nil {
		// Give the admission slot back; no disconnect event will follow
		// for a refused connection.
		rt.gateway.HandleDisconnect(s.addr)
		rt.log.Debug().Err(err).Str("addr", s.addr).Msg("client registration refused")
		return false
	}
	rt.log.Debug().Str("addr", s.addr).Str("client_id", s.id).Msg("client connected")
	return true
}

// Disconnect runs the teardown cascade for a connection that passed
// Connect. The caller guarantees it runs exactly once, after the read loop
// has stopped.
func (rt *Router) Disconnect(s *session) {
	departures := rt.registry.DisconnectClient(s.id, rt.groups.rooms(s))
	for _, d := range departures {
		if d.RoomClosed {
			rt.groups.closeRoom(d.RoomID)
			continue
		}
		rt.groups.leave(d.RoomID, s)
		rt.groups.broadcast(d.RoomID, s, proto.Event(proto.EventOpponentDisconnected, playerInfo(d.Departed)))
	}
	rt.groups.forget(s)
	rt.gateway.HandleDisconnect(s.addr)

	rt.logCounts("client disconnected")
}

// Route dispatches one inbound frame. A false return tells the caller the
// connection is done for.
func (rt *Router) Route(s *session, in proto.Inbound) bool {
	switch in.Type {
	case proto.EventCreateGame:
		return rt.createGame(s, in.Payload)
	case proto.EventJoinGame:
		return rt.joinGame(s, in.Payload)
	case proto.EventLeaveGame:
		return rt.leaveGame(s, in.Payload)
	case proto.EventMakeMove:
		return rt.makeMove(s, in.Payload)
	default:
		// Unknown events are ignored, fire-and-forget.
		rt.log.Debug().Str("type", in.Type).Msg("unknown event")
		return true
	}
}

func (rt *Router) createGame(s *session, payload json.RawMessage) bool {
	var req proto.CreateGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return rt.banDrop(s, err)
	}
	if err := req.Validate(); err != nil {
		return rt.banDrop(s, err)
	}
	if !rt.guard(s) {
		return false
	}

	roomID, err := rt.registry.CreateRoom(s.id, req.Name)
	if err != nil {
		return rt.softDrop(s, err)
	}
	if _, _, err := rt.registry.JoinRoom(roomID, s.id, req.Name, core.Seat(req.Color)); err != nil {
		return rt.softDrop(s, err)
	}
	rt.groups.join(roomID, s)

	s.send(proto.Ack(proto.EventCreateGame, roomID))
	rt.logCounts("game created")
	return true
}

func (rt *Router) joinGame(s *session, payload json.RawMessage) bool {
	var req proto.JoinGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return rt.banDrop(s, err)
	}
	if err := req.Validate(); err != nil {
		return rt.banDrop(s, err)
	}
	if !rt.guard(s) {
		return false
	}

	player, opponent, err := rt.registry.JoinRoom(req.RoomID, s.id, req.Name, "")
	if err != nil {
		return rt.softDrop(s, err)
	}
	rt.groups.join(req.RoomID, s)

	// Let the seated player know who arrived, then ack the joiner with the
	// opponent's info.
	rt.groups.broadcast(req.RoomID, s, proto.Event(proto.EventOpponentConnected, playerInfo(player)))

	var ack any
	if opponent != nil {
		ack = playerInfo(*opponent)
	}
	s.send(proto.Ack(proto.EventJoinGame, ack))
	rt.logCounts("game joined")
	return true
}

func (rt *Router) leaveGame(s *session, payload json.RawMessage) bool {
	var req proto.LeaveGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return rt.banDrop(s, err)
	}
	if err := req.Validate(); err != nil {
		return rt.banDrop(s, err)
	}
	if !rt.guard(s) {
		return false
	}

	departed, closed, err := rt.registry.LeaveRoom(req.RoomID, s.id)
	if err != nil {
		// Leaving cannot fail for a well-behaved client, so an error here
		// is presumed malicious.
		return rt.banDrop(s, err)
	}
	rt.groups.leave(req.RoomID, s)
	if closed {
		rt.groups.closeRoom(req.RoomID)
	} else {
		rt.groups.broadcast(req.RoomID, s, proto.Event(proto.EventOpponentDisconnected, playerInfo(departed)))
	}

	s.send(proto.Ack(proto.EventLeaveGame, nil))
	rt.logCounts("game left")
	return true
}

func (rt *Router) makeMove(s *session, payload json.RawMessage) bool {
	var req proto.MakeMove
	if err := json.Unmarshal(payload, &req); err != nil {
		return rt.banDrop(s, err)
	}
	if err := req.Validate(); err != nil {
		return rt.banDrop(s, err)
	}
	if !rt.guard(s) {
		return false
	}

	// Relayed opaquely, no ack; legality is the clients' business.
	rt.groups.broadcast(req.RoomID, s, proto.Event(proto.EventMakeMove, req.Move))
	rt.log.Debug().Str("room_id", req.RoomID).Str("from", req.Move.From).Str("to", req.Move.To).Msg("move relayed")
	return true
}

// guard applies the per-address rate window; on violation the address is
// banned and the connection dropped.
func (rt *Router) guard(s *session) bool {
	return rt.limiter.Guard(s.addr, func() {
		rt.log.Warn().Str("addr", s.addr).Msg("rate limit exceeded")
		rt.gateway.Ban(s.addr)
		s.drop(websocket.StatusPolicyViolation, "rate limit exceeded")
	})
}

func (rt *Router) banDrop(s *session, err error) bool {
	rt.log.Warn().Err(err).Str("addr", s.addr).Msg("protocol violation, banning")
	rt.gateway.Ban(s.addr)
	s.drop(websocket.StatusPolicyViolation, "protocol violation")
	return false
}

func (rt *Router) softDrop(s *session, err error) bool {
	rt.log.Debug().Err(err).Str("addr", s.addr).Str("code", core.ErrCode(err)).Msg("request failed, dropping connection")
	s.drop(websocket.StatusNormalClosure, "request failed")
	return false
}

func (rt *Router) logCounts(msg string) {
	rt.log.Debug().
		Int("rooms", rt.registry.RoomCount()).
		Int("clients", rt.registry.ClientCount()).
		Msg(msg)
}

func playerInfo(info core.SeatInfo) proto.PlayerInfo {
	return proto.PlayerInfo{Name: info.Name, Color: string(info.Seat)}
}
