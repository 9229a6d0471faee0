package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Client is one websocket connection to the relay.
type Client struct {
	id string

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

func newClient(server *Server, conn *websocket.Conn, id string) *Client {
	return &Client{
		id:      id,
		server:  server,
		conn:    conn,
		send:    make(chan []byte, server.opts.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(server.opts.RateLimit), server.opts.RateBurst),
	}
}

// readPump - forwards inbound frames to the relay loop until the connection fails.
func (that *Client) readPump() {
	log := that.server.logger.With("method", "readPump", "connectionID", that.id)

	defer func() {
		select {
		case that.server.unregister <- that:
		case <-that.server.done:
		}
		that.conn.Close()
	}()

	that.conn.SetReadLimit(that.server.opts.MaxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(that.server.opts.PongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.server.opts.PongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		if !that.limiter.Allow() {
			log.Debug("rate limit exceeded, dropping message")
			continue
		}

		select {
		case that.server.inbound <- inboundMessage{client: that, data: data}:
		case <-that.server.done:
			return
		}
	}
}

// writePump - writes queued messages, one per frame, and keeps the peer alive with pings.
func (that *Client) writePump() {
	ticker := time.NewTicker(that.server.opts.PingInterval)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.server.opts.WriteWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.server.opts.WriteWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.server.done:
			deadline := time.Now().Add(that.server.opts.WriteWait)
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = that.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}
