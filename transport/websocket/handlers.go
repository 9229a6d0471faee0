package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/arcade-relay/internal/apperror"
	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/protocol"
)

func errUnknownAction(action string) error {
	return fmt.Errorf("%w: %q", apperror.ErrUnknownAction, action)
}

func decodePayload(msg *protocol.Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", apperror.ErrInvalidPayload)
	}

	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return nil
}

// reject - tells the sender its message was refused, when acknowledgements are enabled.
func (that *Server) reject(client *Client, action string, err error) {
	if !that.opts.AckRejections {
		return
	}

	that.send(client, protocol.ActionRejected, protocol.Rejection{
		Action: action,
		Reason: apperror.Reason(err),
	})
}

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, _ *protocol.Message) error {
	code, err := that.rooms.CreateRoom(ctx)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.logger.With("method", "handleCreateRoom").Info("room code issued", "connectionID", client.id, "roomID", code)

	that.send(client, protocol.ActionRoomCreated, code)

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, msg *protocol.Message) error {
	var ref protocol.RoomRef
	if err := decodePayload(msg, &ref); err != nil {
		return err
	}

	result, err := that.rooms.JoinRoom(ctx, ref.RoomID, client.id, ref.Token)
	if result != nil {
		that.announceRemoval(result.Left)
	}
	if err != nil {
		return err
	}

	that.send(client, protocol.ActionPlayerAssigned, protocol.PlayerAssigned{
		RoomID: result.Room.ID,
		Symbol: result.Player.Symbol,
		Token:  result.Player.Token,
	})

	// The old connection of a resumed seat no longer receives room traffic.
	if displaced, ok := that.clients[result.Displaced]; ok {
		that.send(displaced, protocol.ActionPlayersUpdate, result.Room.PlayerList())
	}

	that.broadcastRoom(result.Room)

	return nil
}

func (that *Server) handleMakeMove(_ context.Context, client *Client, msg *protocol.Message) error {
	var move protocol.MovePayload
	if err := decodePayload(msg, &move); err != nil {
		return err
	}

	if move.Position == nil {
		return fmt.Errorf("%w: position is required", apperror.ErrInvalidPayload)
	}

	room, err := that.rooms.MakeMove(client.id, move.RoomID, *move.Position)

	// A seated player learns about a refused move from the unchanged state.
	if room != nil && !errors.Is(err, apperror.ErrNotInRoom) {
		that.broadcast(room.ID, protocol.ActionGameState, room.GameState)
	}

	return err
}

func (that *Server) handleResetGame(_ context.Context, client *Client, msg *protocol.Message) error {
	var ref protocol.RoomRef
	if err := decodePayload(msg, &ref); err != nil {
		return err
	}

	room, err := that.rooms.ResetGame(client.id, ref.RoomID)
	if err != nil {
		return err
	}

	that.broadcast(room.ID, protocol.ActionGameState, room.GameState)

	return nil
}

func (that *Server) handleGetRooms(_ context.Context, client *Client, _ *protocol.Message) error {
	that.send(client, protocol.ActionRoomsList, that.rooms.ListRooms())

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, client *Client, _ *protocol.Message) error {
	removal, err := that.rooms.LeaveRoom(ctx, client.id)
	if err != nil {
		return err
	}

	that.announceRemoval(removal)

	return nil
}

// broadcastRoom - sends the full room picture: state first, then the seats.
func (that *Server) broadcastRoom(room *entity.Room) {
	that.broadcast(room.ID, protocol.ActionGameState, room.GameState)
	that.broadcast(room.ID, protocol.ActionPlayersUpdate, room.PlayerList())
}
