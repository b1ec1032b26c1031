package signaling

import "log/slog"

// Handler routes incoming relay messages to typed channels.
type Handler struct {
	client *Client

	// Joined and Left carry participant ids.
	Joined chan string
	Left   chan string

	// Signal carries relayed offers, answers and candidates in arrival order.
	Signal chan *Signal

	// Disconnected is closed when the relay connection drops.
	Disconnected chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:       client,
		Joined:       make(chan string, 8),
		Left:         make(chan string, 8),
		Signal:       make(chan *Signal, 32),
		Disconnected: make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It returns
// when the client's connection closes.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case MessageTypeUserJoined:
			deliver(h.Joined, msg.Participant, h.client.done)

		case MessageTypeUserDisconnected:
			deliver(h.Left, msg.Participant, h.client.done)

		case MessageTypeOffer, MessageTypeAnswer, MessageTypeCandidate:
			deliver(h.Signal, &Signal{Type: msg.Type, From: msg.From, Payload: msg.Payload}, h.client.done)

		default:
			slog.Debug("ignoring relay message", slog.String("type", msg.Type))
		}
	}
}

// deliver blocks until v is taken from ch or the client is closed.
func deliver[T any](ch chan T, v T, done <-chan struct{}) {
	select {
	case ch <- v:
	case <-done:
	}
}
