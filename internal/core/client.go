package core

// DefaultName is assigned to clients that never sent a display name.
const DefaultName = "anonymous"

// Client is a connected player as seen by the registry.
type Client struct {
	ID   string
	Name string
	// CreatedRooms counts the rooms this client opened that are still
	// alive. Joining someone else's room does not touch it.
	CreatedRooms int
}

// NewClient constructs a client with the default display name.
func NewClient(id string) *Client {
	return &Client{ID: id, Name: DefaultName}
}
