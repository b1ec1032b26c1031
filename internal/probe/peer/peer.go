// Package peer negotiates a pion WebRTC connection through the relay and
// measures round trips over a data channel.
package peer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/akshayasree99/healthx-signal/internal/config"
	"github.com/akshayasree99/healthx-signal/internal/logging"
	"github.com/akshayasree99/healthx-signal/internal/probe/signaling"
)

const dataChannelLabel = "callprobe"

// Signaler relays negotiation messages to the other participant.
type Signaler interface {
	SendSignal(msgType, room, to string, payload any) error
}

func NewPeerConnection(cfg *config.Probe) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

// Session is one side of a probe call.
type Session struct {
	pc       *pion.PeerConnection
	signaler Signaler
	room     string
	log      *slog.Logger

	mu     sync.Mutex
	remote string
	dc     *pion.DataChannel

	// pending holds candidates that arrived before the remote description.
	pending []pion.ICECandidateInit

	open   chan struct{}
	pongs  chan Message
	failed chan struct{}

	openOnce sync.Once
	failOnce sync.Once
}

// NewSession wraps pc and starts trickling local candidates through signaler.
func NewSession(pc *pion.PeerConnection, signaler Signaler, room string) *Session {
	s := &Session{
		pc:       pc,
		signaler: signaler,
		room:     room,
		log:      slog.Default().With(logging.Component("peer"), logging.Room(room)),
		open:     make(chan struct{}),
		pongs:    make(chan Message, 64),
		failed:   make(chan struct{}),
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		if err := s.signaler.SendSignal(signaling.MessageTypeCandidate, s.room, s.Remote(), c.ToJSON()); err != nil {
			s.log.Debug("send candidate", logging.Err(err))
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		s.log.Debug("peer connection state", slog.String("state", state.String()))
		if state == pion.PeerConnectionStateFailed || state == pion.PeerConnectionStateClosed {
			s.failOnce.Do(func() { close(s.failed) })
		}
	})

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		s.attach(dc)
	})

	return s
}

// Remote returns the participant id of the other side, once known.
func (s *Session) Remote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

func (s *Session) setRemote(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == "" {
		s.remote = id
	}
}

// Offer opens the data channel and sends an offer addressed to remote.
func (s *Session) Offer(remote string) error {
	s.setRemote(remote)

	dc, err := s.pc.CreateDataChannel(dataChannelLabel, nil)
	if err != nil {
		return NewError("create data channel", err)
	}
	s.attach(dc)

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return NewError("create offer", err)
	}
	if err = s.pc.SetLocalDescription(offer); err != nil {
		return NewError("set local description", err)
	}

	// Trickle ICE: candidates follow through OnICECandidate.
	if err := s.signaler.SendSignal(signaling.MessageTypeOffer, s.room, remote, s.pc.LocalDescription()); err != nil {
		return NewError("send offer", err)
	}
	return nil
}

// HandleSignal applies a relayed offer, answer or candidate.
func (s *Session) HandleSignal(sig *signaling.Signal) error {
	switch sig.Type {
	case signaling.MessageTypeOffer:
		s.setRemote(sig.From)
		var desc pion.SessionDescription
		if err := sig.Decode(&desc); err != nil {
			return NewError("parse offer", err)
		}
		return s.answer(desc)

	case signaling.MessageTypeAnswer:
		var desc pion.SessionDescription
		if err := sig.Decode(&desc); err != nil {
			return NewError("parse answer", err)
		}
		if err := s.pc.SetRemoteDescription(desc); err != nil {
			return NewError("set remote description", err)
		}
		return s.flushCandidates()

	case signaling.MessageTypeCandidate:
		var ice pion.ICECandidateInit
		if err := sig.Decode(&ice); err != nil {
			return NewError("parse ICE candidate", err)
		}
		if s.pc.RemoteDescription() == nil {
			s.pending = append(s.pending, ice)
			return nil
		}
		if err := s.pc.AddICECandidate(ice); err != nil {
			return NewError("add ICE candidate", err)
		}
		return nil

	default:
		return WrapError("handle signal", ErrUnexpectedSignal, sig.Type)
	}
}

func (s *Session) answer(offer pion.SessionDescription) error {
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return NewError("set remote description", err)
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return NewError("create answer", err)
	}
	if err = s.pc.SetLocalDescription(answer); err != nil {
		return NewError("set local description", err)
	}

	if err := s.signaler.SendSignal(signaling.MessageTypeAnswer, s.room, s.Remote(), s.pc.LocalDescription()); err != nil {
		return NewError("send answer", err)
	}
	return s.flushCandidates()
}

func (s *Session) flushCandidates() error {
	pending := s.pending
	s.pending = nil
	for _, ice := range pending {
		if err := s.pc.AddICECandidate(ice); err != nil {
			return NewError("add ICE candidate", err)
		}
	}
	return nil
}

// attach wires the data channel: pings are echoed, pongs are collected.
func (s *Session) attach(dc *pion.DataChannel) {
	s.mu.Lock()
	s.dc = dc
	s.mu.Unlock()

	dc.OnOpen(func() {
		s.openOnce.Do(func() { close(s.open) })
	})

	dc.OnMessage(func(raw pion.DataChannelMessage) {
		msg, err := ParseMessage(raw.Data)
		if err != nil {
			s.log.Debug("dropping data channel message", logging.Err(err))
			return
		}

		switch msg.Type {
		case MessageTypePing:
			pong := *msg
			pong.Type = MessageTypePong
			if err := SendMessage(dc, pong); err != nil {
				s.log.Debug("send pong", logging.Err(err))
			}
		case MessageTypePong:
			select {
			case s.pongs <- *msg:
			default:
			}
		}
	})
}

// WaitOpen blocks until the data channel is open.
func (s *Session) WaitOpen(ctx context.Context) error {
	select {
	case <-s.open:
		return nil
	case <-s.failed:
		return ErrConnectionFailed
	case <-ctx.Done():
		return WrapError("wait for data channel", ErrTimeout, ctx.Err().Error())
	}
}

// Ping sends count pings interval apart and returns the measured round trips.
// Pings that get no pong before ctx ends are counted as lost by Summarize.
func (s *Session) Ping(ctx context.Context, count int, interval time.Duration, onSample func(seq uint32, rtt time.Duration)) ([]time.Duration, error) {
	s.mu.Lock()
	dc := s.dc
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	samples := make([]time.Duration, 0, count)
	var sent uint32
	send := func() error {
		sent++
		return SendMessage(dc, Message{Type: MessageTypePing, Seq: sent, SentAt: time.Now().UnixNano()})
	}

	if err := send(); err != nil {
		return nil, NewError("send ping", err)
	}

	for len(samples) < count {
		select {
		case <-ticker.C:
			if int(sent) < count {
				if err := send(); err != nil {
					return samples, NewError("send ping", err)
				}
			}
		case pong := <-s.pongs:
			rtt := pong.RTT(time.Now())
			samples = append(samples, rtt)
			if onSample != nil {
				onSample(pong.Seq, rtt)
			}
		case <-s.failed:
			return samples, ErrPeerDisconnected
		case <-ctx.Done():
			return samples, nil
		}
	}
	return samples, nil
}

// Close tears down the peer connection.
func (s *Session) Close() error {
	return s.pc.Close()
}
