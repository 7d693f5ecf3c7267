package utils

import (
	"crypto/rand"
	"strconv"
	"time"
)

const roomIDLen = 6

// Alphabet without characters that read ambiguously when a room id is
// shared by hand.
const roomIDAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewRoomID returns a short random room identifier. Ids are random rather
// than sequential so active rooms cannot be discovered by enumeration.
func NewRoomID() string {
	buf := make([]byte, roomIDLen)
	if _, err := rand.Read(buf); err != nil {
		// Fallback to timestamp if crypto/rand is unavailable.
		id := strconv.FormatInt(time.Now().UnixNano(), 36)
		return id[len(id)-roomIDLen:]
	}

	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(buf)
}
