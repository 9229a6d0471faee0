package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/arcade-relay/internal/entity"
)

func TestRenderState(t *testing.T) {
	t.Run("Empty cells show their index", func(t *testing.T) {
		state := entity.GameState{
			Board:         []entity.Mark{"X", "", "", "", "O", "", "", "", ""},
			CurrentPlayer: entity.MarkX,
			Active:        true,
			Scores:        map[entity.Mark]int{entity.MarkX: 2, entity.MarkO: 1},
		}

		want := " X | 1 | 2\n" +
			"---+---+---\n" +
			" 3 | O | 5\n" +
			"---+---+---\n" +
			" 6 | 7 | 8\n" +
			"X to move  (X 2 : 1 O)\n"

		assert.Equal(t, want, renderState(state))
	})

	t.Run("Finished game", func(t *testing.T) {
		state := entity.GameState{Board: make([]entity.Mark, 9), Scores: map[entity.Mark]int{}}

		assert.Contains(t, renderState(state), "game over")
	})
}

func TestPrintRooms(t *testing.T) {
	var out bytes.Buffer

	printRooms(&out, nil)
	assert.Equal(t, "no open rooms\n", out.String())

	out.Reset()
	printRooms(&out, []entity.RoomSummary{{ID: "12345", PlayerCount: 1}})
	assert.Contains(t, out.String(), "12345  1/2")
}

func TestSession_Execute(t *testing.T) {
	s := &session{}

	t.Run("Malformed move", func(t *testing.T) {
		quit, err := s.execute("move")

		assert.False(t, quit)
		assert.Error(t, err)
	})

	t.Run("Bad cell", func(t *testing.T) {
		_, err := s.execute("move x")

		assert.Error(t, err)
	})

	t.Run("Blank line", func(t *testing.T) {
		quit, err := s.execute("   ")

		assert.False(t, quit)
		assert.NoError(t, err)
	})
}
