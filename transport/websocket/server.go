package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/arcade-relay/internal/entity"
	"github.com/rocketscienceinc/arcade-relay/internal/pkg"
	"github.com/rocketscienceinc/arcade-relay/internal/protocol"
	"github.com/rocketscienceinc/arcade-relay/internal/repository"
	"github.com/rocketscienceinc/arcade-relay/internal/usecase"
)

type roomManager interface {
	CreateRoom(ctx context.Context) (string, error)
	JoinRoom(ctx context.Context, roomID, connectionID, token string) (*usecase.JoinResult, error)
	MakeMove(connectionID, roomID string, position int) (*entity.Room, error)
	ResetGame(connectionID, roomID string) (*entity.Room, error)
	ListRooms() []entity.RoomSummary
	Connections(roomID string) []string
	LeaveRoom(ctx context.Context, connectionID string) (*repository.Removal, error)
	Disconnect(ctx context.Context, connectionID string, hold bool) (*repository.Removal, error)
	ExpireSeat(ctx context.Context, roomID, token string, disconnects int) (*repository.Removal, bool)
}

// Options tunes the relay.
type Options struct {
	// AckRejections sends actionRejected to the sender of a refused message.
	AckRejections bool
	// ReconnectGrace holds a dropped player's seat for this long. Zero frees it at once.
	ReconnectGrace time.Duration

	RateLimit      float64
	RateBurst      int
	MaxMessageSize int64
	SendBuffer     int

	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
}

// DefaultOptions mirrors the defaults of the config package.
func DefaultOptions() Options {
	return Options{
		ReconnectGrace: 15 * time.Second,
		RateLimit:      20,
		RateBurst:      40,
		MaxMessageSize: 4096,
		SendBuffer:     64,
		PingInterval:   25 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

type inboundMessage struct {
	client *Client
	data   []byte
}

type seatExpiry struct {
	roomID      string
	token       string
	disconnects int
}

// Server relays room traffic between connected players.
//
// All room state is touched only from the Run loop, one event at a time.
type Server struct {
	logger *slog.Logger
	rooms  roomManager
	opts   Options

	upgrader websocket.Upgrader
	clients  map[string]*Client

	register    chan *Client
	unregister  chan *Client
	inbound     chan inboundMessage
	expirations chan seatExpiry
	done        chan struct{}

	handlers map[string]func(ctx context.Context, client *Client, msg *protocol.Message) error
}

func New(logger *slog.Logger, rooms roomManager, opts Options) *Server {
	server := &Server{
		logger: logger.With("component", "relay"),
		rooms:  rooms,
		opts:   opts,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*Client),

		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inboundMessage),
		expirations: make(chan seatExpiry),
		done:        make(chan struct{}),

		handlers: make(map[string]func(context.Context, *Client, *protocol.Message) error),
	}

	server.handlers[protocol.ActionCreateRoom] = server.handleCreateRoom
	server.handlers[protocol.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[protocol.ActionMakeMove] = server.handleMakeMove
	server.handlers[protocol.ActionResetGame] = server.handleResetGame
	server.handlers[protocol.ActionGetRooms] = server.handleGetRooms
	server.handlers[protocol.ActionLeaveRoom] = server.handleLeaveRoom

	return server
}

// Run - processes connection events until ctx is cancelled.
func (that *Server) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")
	log.Info("relay started")

	defer close(that.done)

	for {
		select {
		case <-ctx.Done():
			log.Info("relay stopped", "clients", len(that.clients))
			return

		case client := <-that.register:
			that.clients[client.id] = client
			log.Debug("client registered", "connectionID", client.id, "clients", len(that.clients))

		case client := <-that.unregister:
			that.handleDisconnect(ctx, client)

		case msg := <-that.inbound:
			that.dispatch(ctx, msg.client, msg.data)

		case expiry := <-that.expirations:
			that.handleSeatExpiry(ctx, expiry)
		}
	}
}

// ServeHTTP - upgrades the request and starts the connection pumps.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that, conn, pkg.GenerateConnectionID())

	select {
	case that.register <- client:
	case <-that.done:
		conn.Close()
		return
	}

	log.Info("connection established", "connectionID", client.id)

	go client.writePump()
	go client.readPump()
}

// dispatch - runs the handler for a single inbound message.
func (that *Server) dispatch(ctx context.Context, client *Client, data []byte) {
	log := that.logger.With("method", "dispatch", "connectionID", client.id)

	if _, ok := that.clients[client.id]; !ok {
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		log.Debug("dropping malformed message", "error", err)
		that.reject(client, "", err)
		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Debug("dropping unknown action", "action", msg.Action)
		that.reject(client, msg.Action, errUnknownAction(msg.Action))
		return
	}

	if err = handler(ctx, client, msg); err != nil {
		log.Debug("action rejected", "action", msg.Action, "error", err)
		that.reject(client, msg.Action, err)
	}
}

// handleDisconnect - releases or holds the seat of a closed connection.
func (that *Server) handleDisconnect(ctx context.Context, client *Client) {
	log := that.logger.With("method", "handleDisconnect", "connectionID", client.id)

	if _, ok := that.clients[client.id]; !ok {
		return
	}
	delete(that.clients, client.id)
	close(client.send)

	hold := that.opts.ReconnectGrace > 0

	removal, err := that.rooms.Disconnect(ctx, client.id, hold)
	if err != nil {
		log.Debug("connection closed outside a room", "error", err)
		return
	}

	log.Info("player disconnected", "roomID", removal.RoomID, "hold", hold)

	if hold && removal.Player != nil {
		that.scheduleExpiry(seatExpiry{
			roomID:      removal.RoomID,
			token:       removal.Player.Token,
			disconnects: removal.Player.Disconnects,
		})
	}

	that.announceRemoval(removal)
}

func (that *Server) scheduleExpiry(expiry seatExpiry) {
	time.AfterFunc(that.opts.ReconnectGrace, func() {
		select {
		case that.expirations <- expiry:
		case <-that.done:
		}
	})
}

func (that *Server) handleSeatExpiry(ctx context.Context, expiry seatExpiry) {
	removal, ok := that.rooms.ExpireSeat(ctx, expiry.roomID, expiry.token, expiry.disconnects)
	if !ok {
		return
	}

	that.logger.With("method", "handleSeatExpiry").Info("held seat expired", "roomID", expiry.roomID)

	that.announceRemoval(removal)
}

// announceRemoval - tells the rest of the room who is left.
func (that *Server) announceRemoval(removal *repository.Removal) {
	if removal == nil || removal.RoomDeleted {
		return
	}

	that.broadcast(removal.RoomID, protocol.ActionPlayersUpdate, removal.Room.PlayerList())
}

// broadcast - sends the message to every connected player of the room, in order.
func (that *Server) broadcast(roomID, action string, payload any) {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		that.logger.With("method", "broadcast").Error("failed to encode message", "action", action, "error", err)
		return
	}

	for _, id := range that.rooms.Connections(roomID) {
		if client, ok := that.clients[id]; ok {
			that.deliver(client, data)
		}
	}
}

// send - sends the message to one client.
func (that *Server) send(client *Client, action string, payload any) {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		that.logger.With("method", "send").Error("failed to encode message", "action", action, "error", err)
		return
	}

	that.deliver(client, data)
}

// deliver - queues data without blocking the loop. A client that cannot keep
// up is closed; its read pump then reports the disconnect.
func (that *Server) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		that.logger.With("method", "deliver").Warn("send buffer full, closing connection", "connectionID", client.id)
		client.conn.Close()
	}
}
