package apperror

import "errors"

var (
	ErrGameFinished   = errors.New("game is already finished")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotInRoom      = errors.New("player is not in the room")
	ErrInvalidRoomID  = errors.New("invalid room id")
	ErrCodeExhausted  = errors.New("no free room code")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrGameFinished, "game_finished"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrCellOccupied, "cell_occupied"},
	{ErrInvalidCell, "invalid_cell"},
	{ErrRoomFull, "room_full"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrNotInRoom, "not_in_room"},
	{ErrInvalidRoomID, "invalid_room_id"},
	{ErrCodeExhausted, "code_exhausted"},
	{ErrUnknownAction, "unknown_action"},
	{ErrInvalidPayload, "invalid_payload"},
}

// Reason - short machine-readable code for err, "internal" when it is not one of ours.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
