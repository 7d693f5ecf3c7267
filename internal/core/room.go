package core

// Seat identifies one of the two sides of a room, named by the protocol's
// color values.
type Seat string

const (
	SeatWhite Seat = "w"
	SeatBlack Seat = "b"
)

// seatScan is the fixed order used when a joiner does not ask for a seat,
// so auto-assignment stays deterministic.
var seatScan = [2]Seat{SeatWhite, SeatBlack}

// ValidSeat reports whether s is one of the two playable seats.
func ValidSeat(s Seat) bool {
	return s == SeatWhite || s == SeatBlack
}

// SeatInfo is the client-visible description of an occupied seat.
type SeatInfo struct {
	Name string `json:"name"`
	Seat Seat   `json:"color"`
}

// Room pairs up to two clients for one game session. It always has exactly
// two seats; it is created when a client opens a game and deleted by the
// registry the moment both seats are empty.
type Room struct {
	ID      string
	OwnerID string

	seats map[Seat]*Client
	order []string // client ids, in join order
}

// NewRoom constructs an empty room owned by ownerID.
func NewRoom(id, ownerID string) *Room {
	return &Room{
		ID:      id,
		OwnerID: ownerID,
		seats:   map[Seat]*Client{SeatWhite: nil, SeatBlack: nil},
	}
}

// Player returns the seat info for clientID, or nil if it holds no seat.
func (r *Room) Player(clientID string) *SeatInfo {
	for _, seat := range seatScan {
		if c := r.seats[seat]; c != nil && c.ID == clientID {
			return &SeatInfo{Name: c.Name, Seat: seat}
		}
	}
	return nil
}

// Opponent returns the seat info of the other occupant, or nil if clientID
// sits alone.
func (r *Room) Opponent(clientID string) *SeatInfo {
	for _, seat := range seatScan {
		if c := r.seats[seat]; c != nil && c.ID != clientID {
			return &SeatInfo{Name: c.Name, Seat: seat}
		}
	}
	return nil
}

// IsFull reports whether both seats are occupied.
func (r *Room) IsFull() bool {
	for _, seat := range seatScan {
		if r.seats[seat] == nil {
			return false
		}
	}
	return true
}

// IsEmpty reports whether both seats are vacant.
func (r *Room) IsEmpty() bool {
	for _, seat := range seatScan {
		if r.seats[seat] != nil {
			return false
		}
	}
	return true
}

// SeatOrder returns the ids of the current occupants in join order.
func (r *Room) SeatOrder() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// addPlayer seats the client. An empty seat value means "first free seat"
// in the fixed scan order. Returns false when the client is already seated,
// the requested seat is taken, or no seat is free.
func (r *Room) addPlayer(c *Client, seat Seat) bool {
	for _, id := range r.order {
		if id == c.ID {
			return false
		}
	}

	if seat == "" {
		for _, s := range seatScan {
			if r.seats[s] == nil {
				seat = s
				break
			}
		}
		if seat == "" {
			return false
		}
	} else if !ValidSeat(seat) || r.seats[seat] != nil {
		return false
	}

	r.seats[seat] = c
	r.order = append(r.order, c.ID)
	return true
}

// removePlayer vacates the client's seat and drops it from the join order.
// The departing client's created-room counter is decremented, floor-clamped
// at zero.
func (r *Room) removePlayer(clientID string) {
	for _, seat := range seatScan {
		c := r.seats[seat]
		if c == nil || c.ID != clientID {
			continue
		}
		if c.CreatedRooms > 0 {
			c.CreatedRooms--
		}
		r.seats[seat] = nil
		for i, id := range r.order {
			if id == clientID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		return
	}
}
