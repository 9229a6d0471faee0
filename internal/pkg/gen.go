package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	roomCodeMin   = 10000
	roomCodeRange = 90000
)

// GenerateRoomCode - generates a human-shareable 5-digit room code.
func GenerateRoomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(roomCodeRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}

	return fmt.Sprintf("%d", roomCodeMin+n.Int64()), nil
}

// GenerateConnectionID - generates the opaque id of a websocket connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}

// GeneratePlayerToken - generates the stable identity handed to a player on first join.
func GeneratePlayerToken() string {
	return uuid.NewString()
}
