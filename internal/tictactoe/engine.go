package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/arcade-relay/internal/apperror"
	"github.com/rocketscienceinc/arcade-relay/internal/entity"
)

const BoardSize = 9

// WinCombos lists rows, then columns, then diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Engine implements the 3x3 rules. It keeps no state of its own; everything
// lives in the entity.GameState it is handed.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// NewState - returns an empty board with X to move and zeroed scores.
func (that *Engine) NewState() entity.GameState {
	return entity.GameState{
		Board:         make([]entity.Mark, BoardSize),
		CurrentPlayer: entity.MarkX,
		Active:        true,
		Scores:        map[entity.Mark]int{entity.MarkX: 0, entity.MarkO: 0},
	}
}

// ApplyMove - places mark on cell. A rejected move leaves state untouched.
func (that *Engine) ApplyMove(state *entity.GameState, mark entity.Mark, cell int) error {
	if !state.Active {
		return apperror.ErrGameFinished
	}

	if err := validateMove(state, mark, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	state.Board[cell] = mark
	that.updateGameStatus(state, mark)

	return nil
}

// Reset - clears the board for a new round. Scores carry over.
func (that *Engine) Reset(state *entity.GameState) {
	state.Board = make([]entity.Mark, BoardSize)
	state.CurrentPlayer = entity.MarkX
	state.Active = true

	if state.Scores == nil {
		state.Scores = map[entity.Mark]int{entity.MarkX: 0, entity.MarkO: 0}
	}
}

// CheckTerminal - reports the winning mark, or a draw as (EmptyCell, true).
func (that *Engine) CheckTerminal(board []entity.Mark) (entity.Mark, bool) {
	if len(board) != BoardSize {
		return entity.EmptyCell, false
	}

	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a, true
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return entity.EmptyCell, false
		}
	}

	return entity.EmptyCell, true
}

// validateMove - checks if the move is valid.
func validateMove(state *entity.GameState, mark entity.Mark, cell int) error {
	if len(state.Board) != BoardSize || cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if state.CurrentPlayer != mark {
		return apperror.ErrNotYourTurn
	}

	if state.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func (that *Engine) updateGameStatus(state *entity.GameState, mark entity.Mark) {
	winner, terminal := that.CheckTerminal(state.Board)

	switch {
	case winner != entity.EmptyCell:
		if state.Scores == nil {
			state.Scores = make(map[entity.Mark]int, len(entity.Marks))
		}
		state.Scores[winner]++
		state.Active = false
	case terminal:
		state.Active = false
	default:
		state.CurrentPlayer = mark.Opponent()
	}
}
