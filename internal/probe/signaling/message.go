package signaling

import "encoding/json"

// Message is the relay's JSON frame as seen from a client. Inbound and
// outbound frames share one shape; unused fields are omitted.
type Message struct {
	Type        string          `json:"type"`
	Room        string          `json:"room,omitempty"`
	Participant string          `json:"participant,omitempty"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	MessageTypeJoinRoom  = "join-room"
	MessageTypeOffer     = "offer"
	MessageTypeAnswer    = "answer"
	MessageTypeCandidate = "candidate"

	MessageTypeUserJoined       = "user-joined"
	MessageTypeUserDisconnected = "user-disconnected"
)

// Signal is an offer, answer or candidate relayed from another participant.
type Signal struct {
	Type    string
	From    string
	Payload json.RawMessage
}

// Decode unmarshals the relayed payload into v.
func (s *Signal) Decode(v any) error {
	return json.Unmarshal(s.Payload, v)
}
