package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rocketscienceinc/arcade-relay/internal/client"
)

const connectTimeout = 10 * time.Second

const help = "commands: move N (0-8), reset, rooms, leave, quit"

type session struct {
	adapter *client.Adapter
	view    *terminal
	cancel  context.CancelFunc
	done    chan error
}

func connect(ctx context.Context, cmd *cli.Command, out io.Writer) (*session, error) {
	view := newTerminal(out)
	tokens := client.NewFileTokenStore(cmd.String("token-file"))
	adapter := client.New(newLogger(cmd.String("log-level")), cmd.String("server"), view, tokens, client.DefaultOptions())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- adapter.Run(runCtx) }()

	select {
	case <-view.connected:
	case err := <-done:
		cancel()
		return nil, err
	case <-time.After(connectTimeout):
		cancel()
		<-done
		return nil, fmt.Errorf("could not reach %s", cmd.String("server"))
	}

	return &session{adapter: adapter, view: view, cancel: cancel, done: done}, nil
}

func (that *session) close() error {
	that.cancel()
	return <-that.done
}

func listRooms(ctx context.Context, cmd *cli.Command) error {
	s, err := connect(ctx, cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer s.close()

	if err = s.adapter.ListRooms(); err != nil {
		return err
	}

	select {
	case rooms := <-s.view.rooms:
		printRooms(os.Stdout, rooms)
		return nil
	case <-time.After(connectTimeout):
		return errors.New("no answer from the relay")
	case <-ctx.Done():
		return nil
	}
}

func play(ctx context.Context, cmd *cli.Command, roomID string) error {
	s, err := connect(ctx, cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer s.close()

	if roomID == "" {
		err = s.adapter.CreateRoom()
	} else {
		err = s.adapter.JoinRoom(roomID)
	}
	if err != nil {
		return err
	}

	fmt.Println(help)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.execute(line)
			if err != nil {
				fmt.Println("error:", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// execute - runs one interactive command and reports whether to quit.
func (that *session) execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "move", "m":
		if len(fields) != 2 {
			return false, errors.New("usage: move N")
		}
		position, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("bad cell %q", fields[1])
		}
		sent, err := that.adapter.RequestMove(position)
		if err != nil {
			return false, err
		}
		if !sent {
			fmt.Println("not your turn")
		}
	case "reset":
		return false, that.adapter.ResetGame()
	case "rooms":
		return false, that.adapter.ListRooms()
	case "leave":
		return false, that.adapter.LeaveRoom()
	case "quit", "exit", "q":
		if that.adapter.RoomID() != "" {
			_ = that.adapter.LeaveRoom()
		}
		return true, nil
	default:
		fmt.Println(help)
	}

	return false, nil
}
