package http

import (
	"sync"

	"github.com/ospanenko/chesswire-server/internal/proto"
)

// groups tracks which sessions joined which room on the transport side.
// It mirrors the registry's seating but is owned here: the disconnect
// cascade reads a connection's membership from groups instead of making the
// registry scan every room.
//
// Both maps are kept in sync under one lock so room→sessions lookup
// (broadcast) and session→rooms lookup (disconnect) are each O(members).
type groups struct {
	mu        sync.RWMutex
	byRoom    map[string]map[*session]struct{}
	bySession map[*session]map[string]struct{}
}

func newGroups() *groups {
	return &groups{
		byRoom:    make(map[string]map[*session]struct{}),
		bySession: make(map[*session]map[string]struct{}),
	}
}

func (g *groups) join(roomID string, s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.byRoom[roomID] == nil {
		g.byRoom[roomID] = make(map[*session]struct{})
	}
	g.byRoom[roomID][s] = struct{}{}

	if g.bySession[s] == nil {
		g.bySession[s] = make(map[string]struct{})
	}
	g.bySession[s][roomID] = struct{}{}
}

func (g *groups) leave(roomID string, s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaveLocked(roomID, s)
}

func (g *groups) leaveLocked(roomID string, s *session) {
	if members, ok := g.byRoom[roomID]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(g.byRoom, roomID)
		}
	}
	if joined, ok := g.bySession[s]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(g.bySession, s)
		}
	}
}

// closeRoom tears down the whole group for a room that no longer exists.
func (g *groups) closeRoom(roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for member := range g.byRoom[roomID] {
		g.leaveLocked(roomID, member)
	}
	delete(g.byRoom, roomID)
}

// forget removes every membership of s, for connection teardown.
func (g *groups) forget(s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for roomID := range g.bySession[s] {
		g.leaveLocked(roomID, s)
	}
	delete(g.bySession, s)
}

// rooms returns the ids of every room s currently belongs to.
func (g *groups) rooms(s *session) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.bySession[s]))
	for roomID := range g.bySession[s] {
		out = append(out, roomID)
	}
	return out
}

// broadcast queues msg for every member of roomID except the sender.
func (g *groups) broadcast(roomID string, except *session, msg proto.Outbound) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for member := range g.byRoom[roomID] {
		if member == except {
			continue
		}
		member.send(msg)
	}
}
