package peer

import (
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Data channel message types.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is one frame on the probe data channel.
type Message struct {
	Type   string `msgpack:"type"`
	Seq    uint32 `msgpack:"seq"`
	SentAt int64  `msgpack:"sentAt"`
}

// RTT is the round-trip time measured from a pong.
func (m Message) RTT(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, m.SentAt))
}

func SendMessage(dc *pion.DataChannel, msg Message) error {
	if dc == nil {
		return ErrChannelNotOpen
	}
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return NewError("marshal message", err)
	}
	return dc.Send(data)
}

func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, NewError("parse message", err)
	}
	return &msg, nil
}
