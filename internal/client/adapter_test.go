package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/protocol"
	"github.com/rocketscienceinc/arcade-relay/internal/repository"
	"github.com/rocketscienceinc/arcade-relay/internal/tictactoe"
	"github.com/rocketscienceinc/arcade-relay/internal/usecase"
	"github.com/rocketscienceinc/arcade-relay/transport/websocket"
)

const waitTimeout = 2 * time.Second

type assignment struct {
	roomID string
	symbol entity.Mark
}

type recorder struct {
	statuses chan Status
	created  chan string
	assigned chan assignment
	states   chan entity.GameState
	players  chan []entity.Player
	rooms    chan []entity.RoomSummary
	rejected chan protocol.Rejection
}

func newRecorder() *recorder {
	return &recorder{
		statuses: make(chan Status, 64),
		created:  make(chan string, 64),
		assigned: make(chan assignment, 64),
		states:   make(chan entity.GameState, 64),
		players:  make(chan []entity.Player, 64),
		rooms:    make(chan []entity.RoomSummary, 64),
		rejected: make(chan protocol.Rejection, 64),
	}
}

func (that *recorder) OnStatus(status Status) { that.statuses <- status }
func (that *recorder) OnRoomCreated(roomID string) { that.created <- roomID }
func (that *recorder) OnState(state entity.GameState) { that.states <- state }
func (that *recorder) OnPlayers(players []entity.Player) { that.players <- players }
func (that *recorder) OnRooms(rooms []entity.RoomSummary) { that.rooms <- rooms }
func (that *recorder) OnRejected(rejection protocol.Rejection) { that.rejected <- rejection }
func (that *recorder) OnAssigned(roomID string, symbol entity.Mark) {
	that.assigned <- assignment{roomID: roomID, symbol: symbol}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %T", *new(T))
		return *new(T)
	}
}

// waitStatus - drains status changes until the wanted one shows up.
func waitStatus(t *testing.T, rec *recorder, want Status) {
	t.Helper()

	for {
		if receive(t, rec.statuses) == want {
			return
		}
	}
}

// waitState - drains states until one matches.
func waitState(t *testing.T, rec *recorder, match func(entity.GameState) bool) entity.GameState {
	t.Helper()

	for {
		if state := receive(t, rec.states); match(state) {
			return state
		}
	}
}

func startRelay(t *testing.T, grace time.Duration) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := tictactoe.NewEngine()
	manager := usecase.NewRoomManager(logger, repository.NewRoomStore(engine), repository.NewMemoryCodeRegistry(time.Minute), engine)

	opts := websocket.DefaultOptions()
	opts.AckRejections = true
	opts.ReconnectGrace = grace
	relay := websocket.New(logger, manager, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go relay.Run(ctx)

	srv := httptest.NewServer(relay)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startAdapter(t *testing.T, url string, tokens TokenStore) (*Adapter, *recorder) {
	t.Helper()

	rec := newRecorder()
	opts := DefaultOptions()
	opts.NewBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(20 * time.Millisecond)
	}

	adapter := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), url, rec, tokens, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- adapter.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitStatus(t, rec, StatusConnected)

	return adapter, rec
}

func TestAdapter_CreateRoom(t *testing.T) {
	url := startRelay(t, 0)
	adapter, rec := startAdapter(t, url, NewMemoryTokenStore())

	// When: a room is created
	require.NoError(t, adapter.CreateRoom())

	// Then: the adapter joins it on its own and mirrors the fresh state
	code := receive(t, rec.created)
	assigned := receive(t, rec.assigned)
	assert.Equal(t, assignment{roomID: code, symbol: entity.MarkX}, assigned)

	state := receive(t, rec.states)
	assert.True(t, state.Active)
	assert.Equal(t, entity.MarkX, state.CurrentPlayer)
	assert.Equal(t, code, adapter.RoomID())
	assert.Equal(t, entity.MarkX, adapter.Symbol())
}

func TestAdapter_RequestMove(t *testing.T) {
	url := startRelay(t, 0)
	x, xRec := startAdapter(t, url, NewMemoryTokenStore())
	o, oRec := startAdapter(t, url, NewMemoryTokenStore())

	// Given: X and O in the same room
	require.NoError(t, x.JoinRoom("12345"))
	receive(t, xRec.assigned)
	require.NoError(t, o.JoinRoom("12345"))
	receive(t, oRec.assigned)
	waitState(t, oRec, func(entity.GameState) bool { return true })

	t.Run("Not our turn, nothing is sent", func(t *testing.T) {
		sent, err := o.RequestMove(4)

		require.NoError(t, err)
		assert.False(t, sent)
	})

	t.Run("Our turn, the move is mirrored on both sides", func(t *testing.T) {
		waitState(t, xRec, func(entity.GameState) bool { return true })

		sent, err := x.RequestMove(4)
		require.NoError(t, err)
		require.True(t, sent)

		state := waitState(t, oRec, func(s entity.GameState) bool { return s.Board[4] == entity.MarkX })
		assert.Equal(t, entity.MarkO, state.CurrentPlayer)

		mirrored, ok := o.State()
		require.True(t, ok)
		assert.Equal(t, state, mirrored)
	})

	t.Run("Without a room", func(t *testing.T) {
		require.NoError(t, x.LeaveRoom())

		_, err := x.RequestMove(0)

		require.ErrorIs(t, err, ErrNoRoom)
		assert.ErrorIs(t, x.ResetGame(), ErrNoRoom)
	})
}

func TestAdapter_ListRooms(t *testing.T) {
	url := startRelay(t, 0)
	adapter, rec := startAdapter(t, url, NewMemoryTokenStore())
	require.NoError(t, adapter.JoinRoom("11111"))
	receive(t, rec.assigned)

	require.NoError(t, adapter.ListRooms())

	rooms := receive(t, rec.rooms)
	require.Len(t, rooms, 1)
	assert.Equal(t, "11111", rooms[0].ID)
}

func TestAdapter_Reconnect(t *testing.T) {
	// Given: a relay that holds seats and X seated in 12345
	url := startRelay(t, time.Minute)
	tokens := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	adapter, rec := startAdapter(t, url, tokens)

	require.NoError(t, adapter.JoinRoom("12345"))
	first := receive(t, rec.assigned)
	token, err := tokens.Load()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// When: the transport drops
	adapter.mu.Lock()
	require.NotNil(t, adapter.conn)
	require.NoError(t, adapter.conn.Close())
	adapter.mu.Unlock()

	// Then: the adapter reconnects and gets the same seat back
	waitStatus(t, rec, StatusReconnecting)
	waitStatus(t, rec, StatusConnected)

	again := receive(t, rec.assigned)
	assert.Equal(t, first, again)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestAdapter_NotConnected(t *testing.T) {
	adapter := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), "ws://127.0.0.1:1/ws", newRecorder(), NewMemoryTokenStore(), DefaultOptions())

	assert.ErrorIs(t, adapter.CreateRoom(), ErrNotConnected)
	assert.Equal(t, StatusDisconnected, adapter.Status())
}
