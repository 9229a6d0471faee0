package repository

import (
	"sort"
	"time"

	"github.com/rocketscienceinc/arcade-relay/internal/apperror"
	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/pkg"
)

type stateFactory interface {
	NewState() entity.GameState
}

// Removal describes a seat taken out of a room.
type Removal struct {
	RoomID      string
	Player      *entity.Player
	Room        *entity.Room
	RoomDeleted bool
}

// RoomStore owns the rooms and the session table. It is not safe for
// concurrent use: the relay loop is its only caller.
type RoomStore struct {
	rooms    map[string]*entity.Room
	sessions map[string]entity.Session

	states   stateFactory
	now      func() time.Time
	newToken func() string
}

func NewRoomStore(states stateFactory) *RoomStore {
	return &RoomStore{
		rooms:    make(map[string]*entity.Room),
		sessions: make(map[string]entity.Session),
		states:   states,
		now:      time.Now,
		newToken: pkg.GeneratePlayerToken,
	}
}

// GetOrCreate - returns the room, creating an empty one on first use.
func (that *RoomStore) GetOrCreate(roomID string) *entity.Room {
	if room, ok := that.rooms[roomID]; ok {
		return room
	}

	room := entity.NewRoom(roomID, that.states.NewState(), that.now())
	that.rooms[roomID] = room

	return room
}

func (that *RoomStore) Get(roomID string) (*entity.Room, error) {
	room, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *RoomStore) Exists(roomID string) bool {
	_, ok := that.rooms[roomID]
	return ok
}

func (that *RoomStore) Len() int {
	return len(that.rooms)
}

// Session - looks up the seat bound to a connection.
func (that *RoomStore) Session(connectionID string) (entity.Session, bool) {
	session, ok := that.sessions[connectionID]
	return session, ok
}

// CanSeat - reports whether AddPlayer would find a seat for the connection.
func (that *RoomStore) CanSeat(roomID, connectionID, token string) bool {
	room, ok := that.rooms[roomID]
	if !ok {
		return true
	}

	if room.PlayerByConnection(connectionID) != nil || room.PlayerByToken(token) != nil {
		return true
	}

	return !room.IsFull()
}

// AddPlayer - seats the connection in the room.
//
// Joining twice from the same connection is a no-op. A token matching an
// existing seat rebinds that seat to the new connection; if another
// connection still held it, that connection id is returned as displaced.
// Otherwise the first free marker is assigned together with a freshly minted
// token; a full room yields apperror.ErrRoomFull and nothing changes.
func (that *RoomStore) AddPlayer(roomID, connectionID, token string) (*entity.Player, string, error) {
	room := that.GetOrCreate(roomID)

	if player := room.PlayerByConnection(connectionID); player != nil {
		return player, "", nil
	}

	if player := room.PlayerByToken(token); player != nil {
		var displaced string
		if old, ok := that.sessions[player.ConnectionID]; ok && old.RoomID == roomID {
			delete(that.sessions, player.ConnectionID)
			displaced = player.ConnectionID
		}

		player.ConnectionID = connectionID
		player.Connected = true
		that.sessions[connectionID] = entity.Session{RoomID: roomID, Symbol: player.Symbol, Token: player.Token}

		return player, displaced, nil
	}

	mark, ok := room.FreeMark()
	if !ok {
		return nil, "", apperror.ErrRoomFull
	}

	player := entity.NewPlayer(connectionID, that.newToken(), mark)
	room.Players = append(room.Players, player)
	that.sessions[connectionID] = entity.Session{RoomID: roomID, Symbol: mark, Token: player.Token}

	return player, "", nil
}

// RemovePlayer - frees the connection's seat; the room goes away with its last player.
func (that *RoomStore) RemovePlayer(connectionID string) (*Removal, error) {
	session, ok := that.sessions[connectionID]
	if !ok {
		return nil, apperror.ErrNotInRoom
	}
	delete(that.sessions, connectionID)

	room, ok := that.rooms[session.RoomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	player, _ := room.RemovePlayer(connectionID)

	return that.finishRemoval(room, player), nil
}

// MarkDisconnected - unbinds the session but holds the seat for a returning token.
func (that *RoomStore) MarkDisconnected(connectionID string) (*entity.Room, *entity.Player, error) {
	session, ok := that.sessions[connectionID]
	if !ok {
		return nil, nil, apperror.ErrNotInRoom
	}
	delete(that.sessions, connectionID)

	room, ok := that.rooms[session.RoomID]
	if !ok {
		return nil, nil, apperror.ErrRoomNotFound
	}

	player := room.PlayerByConnection(connectionID)
	if player == nil {
		return room, nil, apperror.ErrNotInRoom
	}
	player.Connected = false
	player.Disconnects++

	return room, player, nil
}

// ExpireSeat - drops a held seat whose owner never came back after the given
// drop. It reports false when the seat was reclaimed, dropped again since,
// or is already gone.
func (that *RoomStore) ExpireSeat(roomID, token string, disconnects int) (*Removal, bool) {
	room, ok := that.rooms[roomID]
	if !ok {
		return nil, false
	}

	player := room.PlayerByToken(token)
	if player == nil || player.Connected || player.Disconnects != disconnects {
		return nil, false
	}

	room.RemovePlayer(player.ConnectionID)

	return that.finishRemoval(room, player), true
}

// ListJoinable - summaries of rooms with a free seat, oldest first.
func (that *RoomStore) ListJoinable() []entity.RoomSummary {
	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		if !room.IsFull() {
			rooms = append(rooms, room)
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})

	summaries := make([]entity.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	return summaries
}

// Connections - ids of the connected players in the room, in join order.
func (that *RoomStore) Connections(roomID string) []string {
	room, ok := that.rooms[roomID]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(room.Players))
	for _, player := range room.Players {
		if player.Connected {
			ids = append(ids, player.ConnectionID)
		}
	}

	return ids
}

func (that *RoomStore) finishRemoval(room *entity.Room, player *entity.Player) *Removal {
	removal := &Removal{
		RoomID: room.ID,
		Player: player,
		Room:   room,
	}

	if room.IsEmpty() {
		delete(that.rooms, room.ID)
		removal.RoomDeleted = true
	}

	return removal
}
