package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/arcade-relay/internal/config"
	"github.com/rocketscienceinc/arcade-relay/internal/repository"
	"github.com/rocketscienceinc/arcade-relay/internal/repository/storage"
	"github.com/rocketscienceinc/arcade-relay/internal/tictactoe"
	"github.com/rocketscienceinc/arcade-relay/internal/usecase"
	"github.com/rocketscienceinc/arcade-relay/transport/rest"
	"github.com/rocketscienceinc/arcade-relay/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var relay http.Handler

	if conf.Multiplayer {
		codes, closeCodes, err := newCodeRegistry(ctx, log, conf)
		if err != nil {
			return err
		}
		defer closeCodes()

		engine := tictactoe.NewEngine()
		store := repository.NewRoomStore(engine)
		rooms := usecase.NewRoomManager(logger, store, codes, engine)

		wsServer := websocket.New(logger, rooms, relayOptions(conf.Relay))
		go wsServer.Run(ctx)

		relay = wsServer
	}

	httpServer := rest.NewServer(logger, conf.Port(), rest.NewRouter(conf.StaticDir, relay))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		if httpErr := httpServer.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return httpServer.Shutdown(shutdownCtx)
}

// newCodeRegistry - redis backed when enabled so several relays never hand out the same code.
func newCodeRegistry(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.CodeRegistry, func(), error) {
	if !conf.Redis.Enabled {
		return repository.NewMemoryCodeRegistry(conf.Relay.CodeTTL), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRedisCodeRegistry(redisStorage, conf.Relay.CodeTTL), closeFn, nil
}

func relayOptions(conf config.Relay) websocket.Options {
	opts := websocket.DefaultOptions()

	opts.AckRejections = conf.AckRejections
	opts.ReconnectGrace = conf.ReconnectGrace
	opts.RateLimit = conf.RateLimit
	opts.RateBurst = conf.RateBurst
	opts.MaxMessageSize = conf.MaxMessageSize
	opts.PingInterval = conf.PingInterval
	opts.PongWait = conf.PongWait
	opts.WriteWait = conf.WriteWait

	return opts
}
