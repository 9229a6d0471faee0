package entity

import "time"

// MaxPlayers is the seat capacity of a room.
const MaxPlayers = len(Marks)

type Room struct {
	ID        string
	Players   []*Player
	GameState GameState
	CreatedAt time.Time
}

// RoomSummary is the lobby view of a joinable room.
type RoomSummary struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	CreatedAt   int64  `json:"createdAt"`
}

func NewRoom(id string, state GameState, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Players:   make([]*Player, 0, MaxPlayers),
		GameState: state,
		CreatedAt: createdAt,
	}
}

func (that *Room) PlayerByConnection(connectionID string) *Player {
	for _, player := range that.Players {
		if player.ConnectionID == connectionID {
			return player
		}
	}
	return nil
}

func (that *Room) PlayerByToken(token string) *Player {
	if token == "" {
		return nil
	}

	for _, player := range that.Players {
		if player.Token == token {
			return player
		}
	}
	return nil
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// FreeMark returns the first marker not held by a seated player.
func (that *Room) FreeMark() (Mark, bool) {
	if that.IsFull() {
		return EmptyCell, false
	}

	for _, mark := range Marks {
		taken := false
		for _, player := range that.Players {
			if player.Symbol == mark {
				taken = true
				break
			}
		}

		if !taken {
			return mark, true
		}
	}

	return EmptyCell, false
}

// RemovePlayer drops the seat bound to the connection and reports whether one was found.
func (that *Room) RemovePlayer(connectionID string) (*Player, bool) {
	for i, player := range that.Players {
		if player.ConnectionID == connectionID {
			that.Players = append(that.Players[:i], that.Players[i+1:]...)
			return player, true
		}
	}
	return nil, false
}

// PlayerList returns a copy of the seats in join order.
func (that *Room) PlayerList() []Player {
	players := make([]Player, 0, len(that.Players))
	for _, player := range that.Players {
		players = append(players, *player)
	}
	return players
}

func (that *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          that.ID,
		PlayerCount: len(that.Players),
		CreatedAt:   that.CreatedAt.UnixMilli(),
	}
}
