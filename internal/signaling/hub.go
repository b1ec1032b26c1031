package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/akshayasree99/healthx-signal/internal/logging"
)

// Options tunes per-connection transport limits.
type Options struct {
	// SendBuffer is the number of outbound frames queued per connection
	// before further frames to it are dropped.
	SendBuffer int

	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	MaxMessageSize int64
}

// DefaultOptions returns limits sized for SDP offers and ICE candidates.
func DefaultOptions() Options {
	return Options{
		SendBuffer:     256,
		MaxMessageSize: 64 * 1024,
	}
}

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type inboundEvent struct {
	conn *Connection
	msg  Inbound
}

// Hub is the relay's state machine. It owns the connection table and the
// room registry and mutates both from a single goroutine (Run), so no two
// events ever interleave on the same room.
type Hub struct {
	log   *slog.Logger
	opts  Options
	rooms *Registry

	// conns maps connection ids to live connections.
	conns map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	inbound    chan inboundEvent

	// inspect runs read-only functions on the Run goroutine.
	inspect chan func()

	// done is closed when Run returns.
	done chan struct{}
}

// NewHub creates a Hub. Call Run to start processing events.
func NewHub(log *slog.Logger, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultOptions().MaxMessageSize
	}
	return &Hub{
		log:        log.With(logging.Component("hub")),
		opts:       opts,
		rooms:      NewRegistry(),
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		inbound:    make(chan inboundEvent),
		inspect:    make(chan func()),
		done:       make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled. On exit every connection's
// send queue is closed, which makes its write pump send a close frame.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.conns[c.id] = c
			c.log.Debug("connection registered", logging.Participant(c.participant))

		case c := <-h.unregister:
			h.disconnect(c)

		case ev := <-h.inbound:
			h.handle(ev.conn, ev.msg)

		case fn := <-h.inspect:
			fn()
		}
	}
}

// Register adds a freshly accepted connection to the hub.
func (h *Hub) Register(c *Connection) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister removes a connection after its transport closed. Calling it more
// than once is harmless.
func (h *Hub) Unregister(c *Connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch queues one decoded inbound message from c for processing.
func (h *Hub) Dispatch(c *Connection, msg Inbound) error {
	select {
	case h.inbound <- inboundEvent{conn: c, msg: msg}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Rooms returns a snapshot of every live room.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	reply := make(chan []RoomInfo, 1)
	fn := func() { reply <- h.snapshot() }

	select {
	case h.inspect <- fn:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handle(c *Connection, msg Inbound) {
	switch m := msg.(type) {
	case JoinRoom:
		h.join(c, m)
	case Offer:
		h.forward(c, MessageTypeOffer, m.Signal)
	case Answer:
		h.forward(c, MessageTypeAnswer, m.Signal)
	case Candidate:
		h.forward(c, MessageTypeCandidate, m.Signal)
	default:
		c.log.Error("unhandled inbound message", slog.String("go_type", fmt.Sprintf("%T", msg)))
	}
}

// join places c in the requested room. A join for the room c is already in
// changes nothing; a join for another room is a room switch.
func (h *Hub) join(c *Connection, m JoinRoom) {
	if c.state == StateJoined && c.room == m.Room {
		c.log.Debug("already in room", logging.Room(m.Room))
		return
	}
	if c.state == StateJoined {
		h.leave(c)
	}

	if m.Participant != "" {
		c.participant = m.Participant
	}
	h.rooms.Join(m.Room, c.id)
	c.room = m.Room
	c.state = StateJoined

	notified := h.fanOut(m.Room, c.id, "", UserJoined{Participant: c.participant})
	c.log.Info("joined room",
		logging.Room(m.Room),
		logging.Participant(c.participant),
		slog.Int("notified", notified),
	)
}

// leave takes c out of its room and tells the remaining members.
func (h *Hub) leave(c *Connection) {
	room, ok := h.rooms.Leave(c.id)
	c.room = ""
	c.state = StateUnjoined
	if !ok {
		return
	}

	notified := h.fanOut(room, c.id, "", UserDisconnected{Participant: c.participant})
	c.log.Info("left room",
		logging.Room(room),
		logging.Participant(c.participant),
		slog.Int("notified", notified),
	)
}

// forward relays an offer, answer or candidate to the other members of the
// sender's room without looking at the payload.
func (h *Hub) forward(c *Connection, kind string, s Signal) {
	if c.state != StateJoined || c.room != s.Room {
		c.log.Warn("dropping inbound message",
			logging.MessageType(kind),
			logging.Room(s.Room),
			logging.Err(ErrNotInRoom),
		)
		return
	}

	delivered := h.fanOut(s.Room, c.id, s.To, Relayed{
		Type:    kind,
		From:    c.participant,
		Payload: s.Payload,
	})
	c.log.Debug("relayed signal",
		logging.MessageType(kind),
		logging.Room(s.Room),
		slog.Int("delivered", delivered),
	)
}

// disconnect handles a closed transport.
func (h *Hub) disconnect(c *Connection) {
	if _, ok := h.conns[c.id]; !ok {
		return
	}
	delete(h.conns, c.id)

	if c.state == StateJoined {
		h.leave(c)
	}
	c.state = StateClosed
	close(c.send)
	c.log.Debug("connection unregistered")
}

// fanOut encodes msg once and enqueues it for every member of room except
// the excluded connection. When to is set only the member with that
// participant id is a target. A failed enqueue affects only that target.
// It returns the number of targets the frame was queued for.
func (h *Hub) fanOut(room, exclude, to string, msg Outbound) int {
	frame, err := Encode(msg)
	if err != nil {
		h.log.Error("encode outbound message", logging.Room(room), logging.Err(err))
		return 0
	}

	delivered := 0
	for _, id := range h.rooms.MembersExcept(room, exclude) {
		target, ok := h.conns[id]
		if !ok {
			continue
		}
		if to != "" && target.participant != to {
			continue
		}
		if !target.enqueue(frame) {
			target.log.Warn("send queue full, dropping message", logging.Room(room))
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) snapshot() []RoomInfo {
	names := h.rooms.Rooms()
	out := make([]RoomInfo, 0, len(names))
	for _, name := range names {
		ids := h.rooms.AllMembers(name)
		participants := make([]string, 0, len(ids))
		for _, id := range ids {
			if c, ok := h.conns[id]; ok {
				participants = append(participants, c.participant)
			}
		}
		sort.Strings(participants)
		out = append(out, RoomInfo{Name: name, Participants: participants})
	}
	return out
}

func (h *Hub) shutdown() {
	for id, c := range h.conns {
		delete(h.conns, id)
		h.rooms.Leave(id)
		c.state = StateClosed
		close(c.send)
	}
	h.log.Info("hub stopped")
}
