package entity

// Mark is the turn marker a player holds in a room.
type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""
)

// Marks is the fixed set of markers handed out in join order.
var Marks = [2]Mark{MarkX, MarkO}

// Opponent returns the other marker of the pair.
func (that Mark) Opponent() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

func (that Mark) IsValid() bool {
	return that == MarkX || that == MarkO
}

// GameState is the authoritative state of a room's game.
// It is broadcast verbatim to every connection in the room.
type GameState struct {
	Board         []Mark       `json:"board"`
	CurrentPlayer Mark         `json:"currentPlayer"`
	Active        bool         `json:"active"`
	Scores        map[Mark]int `json:"scores"`
}

func (that *GameState) IsFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the state.
func (that *GameState) Clone() GameState {
	board := make([]Mark, len(that.Board))
	copy(board, that.Board)

	scores := make(map[Mark]int, len(that.Scores))
	for mark, score := range that.Scores {
		scores[mark] = score
	}

	return GameState{
		Board:         board,
		CurrentPlayer: that.CurrentPlayer,
		Active:        that.Active,
		Scores:        scores,
	}
}
