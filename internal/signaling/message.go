package signaling

import (
	"encoding/json"
	"fmt"
)

// Message type constants.
const (
	MessageTypeJoinRoom  = "join-room"
	MessageTypeOffer     = "offer"
	MessageTypeAnswer    = "answer"
	MessageTypeCandidate = "candidate"

	MessageTypeUserJoined       = "user-joined"
	MessageTypeUserDisconnected = "user-disconnected"
)

// wireMessage is the JSON frame exchanged with clients in both directions.
// Which fields are meaningful depends on Type.
type wireMessage struct {
	Type        string          `json:"type"`
	Room        string          `json:"room,omitempty"`
	Participant string          `json:"participant,omitempty"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Inbound is a decoded client-to-server message. The concrete type is one of
// JoinRoom, Offer, Answer or Candidate.
type Inbound interface {
	inbound()
}

// JoinRoom asks the relay to place the connection in Room.
type JoinRoom struct {
	Room string
	// Participant is the caller-chosen id announced to the room. Empty keeps
	// the id assigned on accept.
	Participant string
}

// Signal carries an opaque negotiation payload addressed to a room.
type Signal struct {
	Room string
	// To optionally narrows delivery to the member with this participant id.
	To      string
	Payload json.RawMessage
}

// Offer is a session description offer.
type Offer struct{ Signal }

// Answer is a session description answer.
type Answer struct{ Signal }

// Candidate is a trickled ICE candidate.
type Candidate struct{ Signal }

func (JoinRoom) inbound()  {}
func (Offer) inbound()     {}
func (Answer) inbound()    {}
func (Candidate) inbound() {}

// Decode parses one inbound frame. The payload of signal messages is kept
// verbatim and never interpreted.
func Decode(data []byte) (Inbound, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch w.Type {
	case MessageTypeJoinRoom:
		if w.Room == "" {
			return nil, fmt.Errorf("%s: %w", w.Type, ErrMissingRoom)
		}
		return JoinRoom{Room: w.Room, Participant: w.Participant}, nil

	case MessageTypeOffer, MessageTypeAnswer, MessageTypeCandidate:
		if w.Room == "" {
			return nil, fmt.Errorf("%s: %w", w.Type, ErrMissingRoom)
		}
		if len(w.Payload) == 0 {
			return nil, fmt.Errorf("%s: %w", w.Type, ErrMissingPayload)
		}
		sig := Signal{Room: w.Room, To: w.To, Payload: w.Payload}
		switch w.Type {
		case MessageTypeOffer:
			return Offer{sig}, nil
		case MessageTypeAnswer:
			return Answer{sig}, nil
		default:
			return Candidate{sig}, nil
		}

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
	}
}

// Outbound is a server-to-client message.
type Outbound interface {
	wire() wireMessage
}

// UserJoined announces a new room member to the others.
type UserJoined struct {
	Participant string
}

// UserDisconnected announces that a member left the room, either by closing
// its connection or by joining another room.
type UserDisconnected struct {
	Participant string
}

// Relayed is a forwarded offer, answer or candidate.
type Relayed struct {
	Type    string
	From    string
	Payload json.RawMessage
}

func (m UserJoined) wire() wireMessage {
	return wireMessage{Type: MessageTypeUserJoined, Participant: m.Participant}
}

func (m UserDisconnected) wire() wireMessage {
	return wireMessage{Type: MessageTypeUserDisconnected, Participant: m.Participant}
}

func (m Relayed) wire() wireMessage {
	return wireMessage{Type: m.Type, From: m.From, Payload: m.Payload}
}

// Encode renders an outbound message as a JSON frame.
func Encode(m Outbound) ([]byte, error) {
	return json.Marshal(m.wire())
}
