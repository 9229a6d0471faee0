package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/arcade-relay/internal/apperror"
	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/pkg"
	"github.com/rocketscienceinc/arcade-relay/internal/repository"
)

const maxCodeAttempts = 64

type roomStore interface {
	Get(roomID string) (*entity.Room, error)
	Exists(roomID string) bool
	Session(connectionID string) (entity.Session, bool)
	CanSeat(roomID, connectionID, token string) bool
	AddPlayer(roomID, connectionID, token string) (*entity.Player, string, error)
	RemovePlayer(connectionID string) (*repository.Removal, error)
	MarkDisconnected(connectionID string) (*entity.Room, *entity.Player, error)
	ExpireSeat(roomID, token string, disconnects int) (*repository.Removal, bool)
	ListJoinable() []entity.RoomSummary
	Connections(roomID string) []string
}

type codeRegistry interface {
	Reserve(ctx context.Context, code string) (bool, error)
	Claim(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

// gameEngine is the rules of a turn-based two-player game played in a room.
type gameEngine interface {
	ApplyMove(state *entity.GameState, mark entity.Mark, position int) error
	CheckTerminal(board []entity.Mark) (entity.Mark, bool)
	Reset(state *entity.GameState)
}

// JoinResult is the outcome of a successful join.
type JoinResult struct {
	Room   *entity.Room
	Player *entity.Player
	// Left is set when joining moved the connection out of another room.
	Left *repository.Removal
	// Displaced is the connection that held the resumed seat until now.
	Displaced string
}

type RoomManager struct {
	logger *slog.Logger

	store  roomStore
	codes  codeRegistry
	engine gameEngine

	generateCode func() (string, error)
}

func NewRoomManager(logger *slog.Logger, store roomStore, codes codeRegistry, engine gameEngine) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room_manager"),

		store:  store,
		codes:  codes,
		engine: engine,

		generateCode: pkg.GenerateRoomCode,
	}
}

// CreateRoom - picks a room code that is neither live nor reserved.
func (that *RoomManager) CreateRoom(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := that.generateCode()
		if err != nil {
			return "", err
		}

		if that.store.Exists(code) {
			continue
		}

		ok, err := that.codes.Reserve(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to reserve code %s: %w", code, err)
		}

		if ok {
			return code, nil
		}
	}

	return "", apperror.ErrCodeExhausted
}

// JoinRoom - seats the connection in the room, creating the room on first join.
func (that *RoomManager) JoinRoom(ctx context.Context, roomID, connectionID, token string) (*JoinResult, error) {
	log := that.logger.With("method", "JoinRoom", "roomID", roomID, "connectionID", connectionID)

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperror.ErrInvalidRoomID
	}

	if !that.store.CanSeat(roomID, connectionID, token) {
		return nil, fmt.Errorf("failed to join room %s: %w", roomID, apperror.ErrRoomFull)
	}

	result := &JoinResult{}

	if session, ok := that.store.Session(connectionID); ok && session.RoomID != roomID {
		left, err := that.LeaveRoom(ctx, connectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to leave room %s: %w", session.RoomID, err)
		}
		result.Left = left
	}

	created := !that.store.Exists(roomID)

	player, displaced, err := that.store.AddPlayer(roomID, connectionID, token)
	if err != nil {
		return result, fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	if created {
		if err = that.codes.Claim(ctx, roomID); err != nil {
			log.Error("failed to claim room code", "error", err)
		}
	}

	room, err := that.store.Get(roomID)
	if err != nil {
		return result, err
	}

	result.Room = room
	result.Player = player
	result.Displaced = displaced

	log.Info("player joined room", "symbol", player.Symbol, "players", len(room.Players))

	return result, nil
}

// MakeMove - applies a move for the connection's seat.
// The room is returned on rejection as well so the caller can echo the state.
func (that *RoomManager) MakeMove(connectionID, roomID string, position int) (*entity.Room, error) {
	room, err := that.store.Get(roomID)
	if err != nil {
		return nil, err
	}

	session, ok := that.store.Session(connectionID)
	if !ok || session.RoomID != roomID {
		return room, apperror.ErrNotInRoom
	}

	if err = that.engine.ApplyMove(&room.GameState, session.Symbol, position); err != nil {
		return room, fmt.Errorf("move rejected: %w", err)
	}

	if winner, over := that.engine.CheckTerminal(room.GameState.Board); over {
		that.logger.With("method", "MakeMove").Info("round finished", "roomID", roomID, "winner", winner)
	}

	return room, nil
}

// ResetGame - starts a new round; scores carry over.
func (that *RoomManager) ResetGame(connectionID, roomID string) (*entity.Room, error) {
	room, err := that.store.Get(roomID)
	if err != nil {
		return nil, err
	}

	session, ok := that.store.Session(connectionID)
	if !ok || session.RoomID != roomID {
		return room, apperror.ErrNotInRoom
	}

	that.engine.Reset(&room.GameState)

	return room, nil
}

func (that *RoomManager) ListRooms() []entity.RoomSummary {
	return that.store.ListJoinable()
}

// Connections - connection ids of the players currently connected to the room.
func (that *RoomManager) Connections(roomID string) []string {
	return that.store.Connections(roomID)
}

// LeaveRoom - frees the connection's seat and releases the code of a room that emptied.
func (that *RoomManager) LeaveRoom(ctx context.Context, connectionID string) (*repository.Removal, error) {
	removal, err := that.store.RemovePlayer(connectionID)
	if err != nil {
		return nil, err
	}

	that.afterRemoval(ctx, removal)

	return removal, nil
}

// Disconnect - handles a dropped connection. With hold set the seat is kept
// for the player's token; otherwise it is freed at once.
func (that *RoomManager) Disconnect(ctx context.Context, connectionID string, hold bool) (*repository.Removal, error) {
	if !hold {
		return that.LeaveRoom(ctx, connectionID)
	}

	room, player, err := that.store.MarkDisconnected(connectionID)
	if err != nil {
		return nil, err
	}

	return &repository.Removal{RoomID: room.ID, Player: player, Room: room}, nil
}

// ExpireSeat - drops a held seat whose owner did not come back in time after
// the given drop.
func (that *RoomManager) ExpireSeat(ctx context.Context, roomID, token string, disconnects int) (*repository.Removal, bool) {
	removal, ok := that.store.ExpireSeat(roomID, token, disconnects)
	if !ok {
		return nil, false
	}

	that.afterRemoval(ctx, removal)

	return removal, true
}

func (that *RoomManager) afterRemoval(ctx context.Context, removal *repository.Removal) {
	if !removal.RoomDeleted {
		return
	}

	log := that.logger.With("method", "afterRemoval", "roomID", removal.RoomID)

	if err := that.codes.Release(ctx, removal.RoomID); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("failed to release room code", "error", err)
	}

	log.Info("room deleted")
}
