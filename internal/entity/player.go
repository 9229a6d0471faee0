package entity

import "fmt"

type Player struct {
	ConnectionID string `json:"connectionId"`
	Symbol       Mark   `json:"symbol"`
	DisplayName  string `json:"displayName"`
	Connected    bool   `json:"connected"`

	// Token is the stable identity a returning client presents on rejoin.
	Token string `json:"-"`
	// Disconnects counts drops of this seat; a pending expiry only applies
	// to the drop it was scheduled for.
	Disconnects int `json:"-"`
}

func NewPlayer(connectionID, token string, symbol Mark) *Player {
	return &Player{
		ConnectionID: connectionID,
		Symbol:       symbol,
		DisplayName:  DisplayName(symbol),
		Connected:    true,
		Token:        token,
	}
}

func DisplayName(symbol Mark) string {
	return fmt.Sprintf("Player %s", symbol)
}
