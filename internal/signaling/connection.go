package signaling

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akshayasree99/healthx-signal/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// ConnState is where a connection is in the relay protocol.
type ConnState int

const (
	StateUnjoined ConnState = iota
	StateJoined
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnjoined:
		return "connected-unjoined"
	case StateJoined:
		return "connected-joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one client's websocket link to the relay.
//
// id is fixed at accept. participant, room and state belong to the hub and
// are only read or written from the hub's Run goroutine.
type Connection struct {
	id          string
	participant string
	room        string
	state       ConnState

	hub  *Hub
	ws   *websocket.Conn
	log  *slog.Logger
	send chan []byte
}

// NewConnection wraps an upgraded websocket. The connection does nothing
// until it is registered with the hub and its pumps are started.
func NewConnection(hub *Hub, ws *websocket.Conn) *Connection {
	return newConnection(hub, ws, ws.RemoteAddr().String())
}

func newConnection(hub *Hub, ws *websocket.Conn, remote string) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:          id,
		participant: newParticipantID(),
		state:       StateUnjoined,
		hub:         hub,
		ws:          ws,
		log:         hub.log.With(logging.Conn(id), logging.Remote(remote)),
		send:        make(chan []byte, hub.opts.SendBuffer),
	}
}

// ID returns the connection's unique id.
func (c *Connection) ID() string {
	return c.id
}

// enqueue hands a frame to the write pump without blocking. It reports false
// when the send queue is full.
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. All reads
// happen here, so frames from one client reach the hub in the order they
// were sent.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(c.hub.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("connection closed unexpectedly", logging.Err(err))
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			// Protocol errors never close the connection.
			c.log.Warn("dropping inbound message", logging.Err(err))
			continue
		}

		if err := c.hub.Dispatch(c, msg); err != nil {
			return
		}
	}
}

// WritePump pumps frames from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection and is the
// only writer on it.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("write failed", logging.Err(err))
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
