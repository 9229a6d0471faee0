package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/arcade-relay/internal/client"
	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/protocol"
)

// terminal prints relay events as text.
type terminal struct {
	out io.Writer
	mu  sync.Mutex

	connected chan struct{}
	once      sync.Once
	rooms     chan []entity.RoomSummary
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{
		out:       out,
		connected: make(chan struct{}),
		rooms:     make(chan []entity.RoomSummary, 1),
	}
}

func (that *terminal) printf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintf(that.out, format, args...)
}

func (that *terminal) OnStatus(status client.Status) {
	if status == client.StatusConnected {
		that.once.Do(func() { close(that.connected) })
	}
	that.printf("[%s]\n", status)
}

func (that *terminal) OnRoomCreated(roomID string) {
	that.printf("room %s created, share the code with your opponent\n", roomID)
}

func (that *terminal) OnAssigned(roomID string, symbol entity.Mark) {
	that.printf("joined room %s as %s\n", roomID, symbol)
}

func (that *terminal) OnState(state entity.GameState) {
	that.printf("%s", renderState(state))
}

func (that *terminal) OnPlayers(players []entity.Player) {
	names := make([]string, 0, len(players))
	for _, player := range players {
		name := player.DisplayName
		if !player.Connected {
			name += " (away)"
		}
		names = append(names, name)
	}
	that.printf("players: %s\n", strings.Join(names, ", "))
}

func (that *terminal) OnRooms(rooms []entity.RoomSummary) {
	select {
	case that.rooms <- rooms:
	default:
		that.mu.Lock()
		printRooms(that.out, rooms)
		that.mu.Unlock()
	}
}

func (that *terminal) OnRejected(rejection protocol.Rejection) {
	that.printf("%s refused: %s\n", rejection.Action, rejection.Reason)
}

func printRooms(out io.Writer, rooms []entity.RoomSummary) {
	if len(rooms) == 0 {
		fmt.Fprintln(out, "no open rooms")
		return
	}

	for _, room := range rooms {
		created := time.UnixMilli(room.CreatedAt).Format(time.Kitchen)
		fmt.Fprintf(out, "%s  %d/%d  since %s\n", room.ID, room.PlayerCount, entity.MaxPlayers, created)
	}
}

// renderState draws the board with cell numbers in empty squares.
func renderState(state entity.GameState) string {
	var b strings.Builder

	for row := 0; row < 3; row++ {
		cells := make([]string, 0, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cell := fmt.Sprintf("%d", i)
			if i < len(state.Board) && state.Board[i] != entity.EmptyCell {
				cell = string(state.Board[i])
			}
			cells = append(cells, cell)
		}
		b.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}

	if state.Active {
		fmt.Fprintf(&b, "%s to move", state.CurrentPlayer)
	} else {
		b.WriteString("game over, reset to play again")
	}

	fmt.Fprintf(&b, "  (X %d : %d O)\n", state.Scores[entity.MarkX], state.Scores[entity.MarkO])

	return b.String()
}
