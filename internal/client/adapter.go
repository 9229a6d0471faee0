// Package client connects a player to the relay and mirrors the room it plays in.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected to the relay")
	ErrNoRoom       = errors.New("not in a room")
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusDisconnected Status = "disconnected"
)

// View renders what the relay broadcasts. Callbacks run on the adapter's read
// goroutine and must not block.
type View interface {
	OnStatus(status Status)
	OnRoomCreated(roomID string)
	OnAssigned(roomID string, symbol entity.Mark)
	OnState(state entity.GameState)
	OnPlayers(players []entity.Player)
	OnRooms(rooms []entity.RoomSummary)
	OnRejected(rejection protocol.Rejection)
}

type Options struct {
	// AutoJoin joins a room as soon as the relay confirms its creation.
	AutoJoin bool
	// NewBackOff builds the reconnect schedule; nil means exponential without a deadline.
	NewBackOff func() backoff.BackOff
	Dialer     *websocket.Dialer
}

func DefaultOptions() Options {
	return Options{
		AutoJoin: true,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		Dialer: websocket.DefaultDialer,
	}
}

// Adapter bridges local intents to relay messages and mirrors broadcast state.
// It never decides game outcomes itself.
type Adapter struct {
	logger *slog.Logger
	url    string
	view   View
	tokens TokenStore
	opts   Options

	mu      sync.Mutex
	conn    *websocket.Conn
	status  Status
	roomID  string
	symbol  entity.Mark
	state   *entity.GameState
	players []entity.Player

	writeMu sync.Mutex
}

func New(logger *slog.Logger, url string, view View, tokens TokenStore, opts Options) *Adapter {
	if opts.NewBackOff == nil {
		opts.NewBackOff = DefaultOptions().NewBackOff
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Adapter{
		logger: logger.With("component", "client", "url", url),
		url:    url,
		view:   view,
		tokens: tokens,
		opts:   opts,
		status: StatusDisconnected,
	}
}

// Run - keeps a connection to the relay until ctx is cancelled, rejoining the
// current room after every reconnect.
func (that *Adapter) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	that.setStatus(StatusConnecting)

	for {
		conn, err := that.dial(ctx)
		if err != nil {
			that.setStatus(StatusDisconnected)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		that.mu.Lock()
		that.conn = conn
		roomID := that.roomID
		that.mu.Unlock()

		that.setStatus(StatusConnected)

		if roomID != "" {
			if err = that.JoinRoom(roomID); err != nil {
				log.Warn("failed to rejoin room", "roomID", roomID, "error", err)
			}
		}

		err = that.readLoop(ctx, conn)

		that.mu.Lock()
		that.conn = nil
		that.mu.Unlock()

		if ctx.Err() != nil {
			that.setStatus(StatusDisconnected)
			return nil
		}

		log.Warn("connection lost", "error", err)
		that.setStatus(StatusReconnecting)
	}
}

func (that *Adapter) dial(ctx context.Context) (*websocket.Conn, error) {
	log := that.logger.With("method", "dial")

	var conn *websocket.Conn

	operation := func() error {
		c, resp, err := that.opts.Dialer.DialContext(ctx, that.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Debug("dial failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(that.opts.NewBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	return conn, nil
}

func (that *Adapter) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			that.logger.With("method", "readLoop").Debug("dropping malformed message", "error", err)
			continue
		}

		if err = that.handle(msg); err != nil {
			that.logger.With("method", "readLoop").Debug("failed to handle message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Adapter) handle(msg *protocol.Message) error {
	switch msg.Action {
	case protocol.ActionRoomCreated:
		var roomID string
		if err := json.Unmarshal(msg.Payload, &roomID); err != nil {
			return err
		}

		that.view.OnRoomCreated(roomID)

		if that.opts.AutoJoin {
			return that.JoinRoom(roomID)
		}

	case protocol.ActionPlayerAssigned:
		var assigned protocol.PlayerAssigned
		if err := json.Unmarshal(msg.Payload, &assigned); err != nil {
			return err
		}

		if err := that.tokens.Save(assigned.Token); err != nil {
			that.logger.With("method", "handle").Warn("failed to save token", "error", err)
		}

		that.mu.Lock()
		that.roomID = assigned.RoomID
		that.symbol = assigned.Symbol
		that.mu.Unlock()

		that.view.OnAssigned(assigned.RoomID, assigned.Symbol)

	case protocol.ActionGameState:
		var state entity.GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			return err
		}

		that.mu.Lock()
		that.state = &state
		that.mu.Unlock()

		that.view.OnState(state.Clone())

	case protocol.ActionPlayersUpdate:
		var players []entity.Player
		if err := json.Unmarshal(msg.Payload, &players); err != nil {
			return err
		}

		that.mu.Lock()
		that.players = players
		that.mu.Unlock()

		that.view.OnPlayers(players)

	case protocol.ActionRoomsList:
		var rooms []entity.RoomSummary
		if err := json.Unmarshal(msg.Payload, &rooms); err != nil {
			return err
		}

		that.view.OnRooms(rooms)

	case protocol.ActionRejected:
		var rejection protocol.Rejection
		if err := json.Unmarshal(msg.Payload, &rejection); err != nil {
			return err
		}

		that.view.OnRejected(rejection)

	default:
		return fmt.Errorf("unexpected action %q", msg.Action)
	}

	return nil
}

func (that *Adapter) emit(action string, payload any) error {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}

	that.mu.Lock()
	conn := that.conn
	that.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}

func (that *Adapter) setStatus(status Status) {
	that.mu.Lock()
	changed := that.status != status
	that.status = status
	that.mu.Unlock()

	if changed {
		that.view.OnStatus(status)
	}
}

func (that *Adapter) CreateRoom() error {
	return that.emit(protocol.ActionCreateRoom, nil)
}

// JoinRoom - asks for a seat, presenting the stored token so a held seat is resumed.
func (that *Adapter) JoinRoom(roomID string) error {
	token, err := that.tokens.Load()
	if err != nil {
		return err
	}

	return that.emit(protocol.ActionJoinRoom, protocol.RoomRef{RoomID: roomID, Token: token})
}

func (that *Adapter) LeaveRoom() error {
	if err := that.emit(protocol.ActionLeaveRoom, nil); err != nil {
		return err
	}

	that.mu.Lock()
	that.roomID = ""
	that.symbol = entity.EmptyCell
	that.state = nil
	that.players = nil
	that.mu.Unlock()

	return nil
}

func (that *Adapter) ListRooms() error {
	return that.emit(protocol.ActionGetRooms, nil)
}

func (that *Adapter) ResetGame() error {
	roomID := that.RoomID()
	if roomID == "" {
		return ErrNoRoom
	}

	return that.emit(protocol.ActionResetGame, roomID)
}

// RequestMove - sends the move only when the mirrored state says it is our
// turn. It reports whether anything was sent; the relay still has the final word.
func (that *Adapter) RequestMove(position int) (bool, error) {
	that.mu.Lock()
	roomID := that.roomID
	myTurn := that.state != nil && that.state.Active && that.symbol != entity.EmptyCell && that.state.CurrentPlayer == that.symbol
	that.mu.Unlock()

	if roomID == "" {
		return false, ErrNoRoom
	}

	if !myTurn {
		return false, nil
	}

	if err := that.emit(protocol.ActionMakeMove, protocol.MovePayload{RoomID: roomID, Position: &position}); err != nil {
		return false, err
	}

	return true, nil
}

func (that *Adapter) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

func (that *Adapter) RoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomID
}

func (that *Adapter) Symbol() entity.Mark {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.symbol
}

// State - the last mirrored game state, if any.
func (that *Adapter) State() (entity.GameState, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state == nil {
		return entity.GameState{}, false
	}

	return that.state.Clone(), true
}

func (that *Adapter) Players() []entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Player(nil), that.players...)
}
