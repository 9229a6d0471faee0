package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "arcade-client",
		Usage: "play tic-tac-toe against another player through the arcade relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "ws://localhost:8000/ws",
				Usage:   "relay websocket url",
				Sources: cli.EnvVars("ARCADE_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token-file",
				Value:   defaultTokenFile(),
				Usage:   "where the player token is kept between runs",
				Sources: cli.EnvVars("ARCADE_TOKEN_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "error",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a room and wait for an opponent",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return play(ctx, cmd, "")
				},
			},
			{
				Name:      "join",
				Usage:     "join a room by its code",
				ArgsUsage: "ROOM",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					roomID := cmd.Args().First()
					if roomID == "" {
						return cli.Exit("room code is required", 2)
					}
					return play(ctx, cmd, roomID)
				},
			},
			{
				Name:   "rooms",
				Usage:  "list rooms waiting for a player",
				Action: listRooms,
			},
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".arcade-token"
	}
	return filepath.Join(dir, "arcade-relay", "token")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
