package core

import (
	"sync"

	"github.com/ospanenko/chesswire-server/internal/utils"
)

// Registry owns every client and room in the process. All operations take
// the single registry lock; none of them block or perform I/O, so holding
// the lock for a full operation is safe.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]*Room

	connLimit  int
	roomsLimit int

	newRoomID func() string
}

// NewRegistry constructs a registry with the given global client cap and
// per-client created-room quota.
func NewRegistry(connLimit, roomsLimit int) *Registry {
	return &Registry{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*Room),
		connLimit:  connLimit,
		roomsLimit: roomsLimit,
		newRoomID:  utils.NewRoomID,
	}
}

// RegisterClient creates and stores a client for a freshly admitted
// connection.
func (g *Registry) RegisterClient(id string) (*Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.clients) >= g.connLimit {
		return nil, ErrCapacityExceeded
	}
	if _, ok := g.clients[id]; ok {
		return nil, ErrAlreadyExists
	}

	c := NewClient(id)
	g.clients[id] = c
	return c, nil
}

// UnregisterClient removes a client. Removing an unknown id is a no-op.
func (g *Registry) UnregisterClient(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, id)
}

// CreateRoom opens an empty room owned by clientID and returns its id. A
// non-empty name overwrites the client's display name. The creator is not
// seated; callers follow up with JoinRoom.
func (g *Registry) CreateRoom(clientID, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, ok := g.clients[clientID]
	if !ok {
		return "", ErrUnknownClient
	}
	if client.CreatedRooms >= g.roomsLimit {
		return "", ErrRoomQuotaExceeded
	}
	if name != "" {
		client.Name = name
	}

	id := g.newRoomID()
	if _, taken := g.rooms[id]; taken {
		// One retry on collision; two in a row means the id space is
		// effectively exhausted.
		id = g.newRoomID()
		if _, taken := g.rooms[id]; taken {
			return "", ErrCapacityExceeded
		}
	}

	g.rooms[id] = NewRoom(id, clientID)
	client.CreatedRooms++
	return id, nil
}

// JoinRoom seats the client in an existing room. An empty seat requests the
// first free seat in scan order. Returns snapshots of the joiner's own seat
// and of the opponent's, never the live room.
func (g *Registry) JoinRoom(roomID, clientID, name string, seat Seat) (SeatInfo, *SeatInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, ok := g.clients[clientID]
	if !ok {
		return SeatInfo{}, nil, ErrUnknownClient
	}
	if name != "" {
		client.Name = name
	}

	room, ok := g.rooms[roomID]
	if !ok {
		return SeatInfo{}, nil, ErrUnknownRoom
	}
	if room.IsFull() {
		return SeatInfo{}, nil, ErrRoomFull
	}
	if room.Player(clientID) != nil {
		return SeatInfo{}, nil, ErrAlreadyInRoom
	}
	if !room.addPlayer(client, seat) {
		// The only remaining failure is a taken seat.
		return SeatInfo{}, nil, ErrRoomFull
	}

	return *room.Player(clientID), room.Opponent(clientID), nil
}

// LeaveRoom vacates the client's seat. When the room becomes empty it is
// deleted and roomClosed is true, so the transport can release its own
// grouping for it.
func (g *Registry) LeaveRoom(roomID, clientID string) (SeatInfo, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaveRoomLocked(roomID, clientID)
}

func (g *Registry) leaveRoomLocked(roomID, clientID string) (SeatInfo, bool, error) {
	if _, ok := g.clients[clientID]; !ok {
		return SeatInfo{}, false, ErrUnknownClient
	}
	room, ok := g.rooms[roomID]
	if !ok {
		return SeatInfo{}, false, ErrUnknownRoom
	}
	player := room.Player(clientID)
	if player == nil {
		return SeatInfo{}, false, ErrNotInRoom
	}

	room.removePlayer(clientID)

	closed := room.IsEmpty()
	if closed {
		delete(g.rooms, roomID)
	}
	return *player, closed, nil
}

// Player returns the seat info for clientID in roomID, or nil.
func (g *Registry) Player(roomID, clientID string) *SeatInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[roomID]; ok {
		return room.Player(clientID)
	}
	return nil
}

// Opponent returns the seat info of the other occupant of roomID, or nil.
func (g *Registry) Opponent(roomID, clientID string) *SeatInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[roomID]; ok {
		return room.Opponent(clientID)
	}
	return nil
}

// Departure describes one room a disconnecting client was removed from.
type Departure struct {
	RoomID     string
	Departed   SeatInfo
	RoomClosed bool
}

// DisconnectClient cascades a disconnect: the client leaves every room in
// roomIDs (the transport's membership list for the connection; the registry
// does not scan all rooms), then is unregistered. The returned departures
// let the caller notify each room; the registry itself emits nothing.
func (g *Registry) DisconnectClient(clientID string, roomIDs []string) []Departure {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []Departure
	for _, roomID := range roomIDs {
		departed, closed, err := g.leaveRoomLocked(roomID, clientID)
		if err != nil {
			// Transport and registry disagree about membership; nothing
			// to vacate.
			continue
		}
		out = append(out, Departure{RoomID: roomID, Departed: departed, RoomClosed: closed})
	}

	delete(g.clients, clientID)
	return out
}

// Reset clears all rooms and clients.
func (g *Registry) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients = make(map[string]*Client)
	g.rooms = make(map[string]*Room)
}

// RoomCount returns the number of open rooms.
func (g *Registry) RoomCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// ClientCount returns the number of registered clients.
func (g *Registry) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// GetRoom reports whether a room currently exists.
func (g *Registry) GetRoom(roomID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rooms[roomID]
	return ok
}
