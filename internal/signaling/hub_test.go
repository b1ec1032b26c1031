package signaling

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayasree99/healthx-signal/internal/logging"
)

// hubFixture runs a hub on its own goroutine for the duration of a test.
type hubFixture struct {
	hub    *Hub
	cancel context.CancelFunc
}

func setupHub(t *testing.T) *hubFixture {
	t.Helper()
	hub := NewHub(logging.Discard(), DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return &hubFixture{hub: hub, cancel: cancel}
}

// connect registers a connection that has no websocket behind it; the test
// reads its send queue directly.
func (fx *hubFixture) connect(t *testing.T) *Connection {
	t.Helper()
	c := newConnection(fx.hub, nil, "test")
	require.NoError(t, fx.hub.Register(c))
	return c
}

func (fx *hubFixture) dispatch(t *testing.T, c *Connection, msg Inbound) {
	t.Helper()
	require.NoError(t, fx.hub.Dispatch(c, msg))
}

func (fx *hubFixture) join(t *testing.T, c *Connection, room, participant string) {
	t.Helper()
	fx.dispatch(t, c, JoinRoom{Room: room, Participant: participant})
}

func (fx *hubFixture) offer(t *testing.T, c *Connection, room, payload string) {
	t.Helper()
	fx.dispatch(t, c, Offer{Signal{Room: room, Payload: json.RawMessage(payload)}})
}

func (fx *hubFixture) rooms(t *testing.T) map[string][]string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	infos, err := fx.hub.Rooms(ctx)
	require.NoError(t, err)

	out := make(map[string][]string, len(infos))
	for _, info := range infos {
		out[info.Name] = info.Participants
	}
	return out
}

// recv waits for the next frame queued for c.
func recv(t *testing.T, c *Connection) wireMessage {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "send queue closed")
		var msg wireMessage
		require.NoError(t, json.Unmarshal(frame, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return wireMessage{}
	}
}

// assertSilent checks that nothing is queued for c once the hub has caught
// up with every event sent so far.
func (fx *hubFixture) assertSilent(t *testing.T, c *Connection) {
	t.Helper()
	fx.rooms(t)
	select {
	case frame := <-c.send:
		t.Fatalf("unexpected message: %s", frame)
	default:
	}
}

func TestHub_JoinNotifiesExistingMembers(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)

	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")

	msg := recv(t, a)
	assert.Equal(t, MessageTypeUserJoined, msg.Type)
	assert.Equal(t, "bob", msg.Participant)

	fx.assertSilent(t, a)
	fx.assertSilent(t, b)
}

func TestHub_OfferReachesOtherMemberOnly(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")
	recv(t, a) // bob joined

	fx.offer(t, a, "r1", `{"type":"offer","sdp":"v=0"}`)

	msg := recv(t, b)
	assert.Equal(t, MessageTypeOffer, msg.Type)
	assert.Equal(t, "alice", msg.From)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(msg.Payload))
	fx.assertSilent(t, a)
}

func TestHub_DisconnectNotifiesRemainingMembers(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")
	recv(t, a)

	fx.hub.Unregister(a)

	msg := recv(t, b)
	assert.Equal(t, MessageTypeUserDisconnected, msg.Type)
	assert.Equal(t, "alice", msg.Participant)
	assert.Equal(t, map[string][]string{"r1": {"bob"}}, fx.rooms(t))

	_, open := <-a.send
	assert.False(t, open, "send queue of a closed connection must be closed")
}

func TestHub_LastMemberLeavingDeletesRoom(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	fx.join(t, a, "r1", "alice")

	fx.hub.Unregister(a)
	fx.hub.Unregister(a)

	assert.Empty(t, fx.rooms(t))
}

func TestHub_JoinOtherRoomSwitches(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	c := fx.connect(t)
	fx.join(t, c, "r1", "carol")
	fx.join(t, a, "r1", "alice")
	recv(t, c) // alice joined

	fx.join(t, a, "r2", "")

	msg := recv(t, c)
	assert.Equal(t, MessageTypeUserDisconnected, msg.Type)
	assert.Equal(t, "alice", msg.Participant)
	assert.Equal(t, map[string][]string{
		"r1": {"carol"},
		"r2": {"alice"},
	}, fx.rooms(t))
}

func TestHub_RepeatedJoinIsNoop(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	fx.join(t, b, "r1", "bob")
	fx.join(t, a, "r1", "alice")
	recv(t, b)

	fx.join(t, a, "r1", "alice")

	fx.assertSilent(t, b)
	assert.Equal(t, map[string][]string{"r1": {"alice", "bob"}}, fx.rooms(t))
}

func TestHub_AssignsParticipantWhenNoneGiven(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "")

	msg := recv(t, a)
	assert.Regexp(t, `^[a-z]+-[a-z]+-\d{3}$`, msg.Participant)
}

func TestHub_SignalFromNonMemberIsDropped(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	fx.join(t, b, "r1", "bob")

	fx.offer(t, a, "r1", `{"sdp":"v=0"}`)
	fx.assertSilent(t, b)

	// The sender is still usable afterwards.
	fx.join(t, a, "r1", "alice")
	msg := recv(t, b)
	assert.Equal(t, MessageTypeUserJoined, msg.Type)
}

func TestHub_SignalToUnknownRoomIsSilent(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	fx.join(t, a, "r1", "alice")

	fx.offer(t, a, "r1", `{"sdp":"v=0"}`)

	fx.assertSilent(t, a)
}

func TestHub_FailedSendDoesNotAbortFanOut(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)

	// b's queue has no capacity and nobody drains it, so every send to b fails.
	b := newConnection(fx.hub, nil, "test")
	b.send = make(chan []byte)
	require.NoError(t, fx.hub.Register(b))

	c := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")
	fx.join(t, c, "r1", "carol")
	recv(t, a) // bob
	recv(t, a) // carol

	fx.offer(t, a, "r1", `{"sdp":"v=0"}`)

	msg := recv(t, c)
	assert.Equal(t, MessageTypeOffer, msg.Type)
	assert.Equal(t, "alice", msg.From)
}

func TestHub_PreservesPerSenderOrder(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	c := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")
	fx.join(t, c, "r1", "carol")
	recv(t, a)
	recv(t, a)
	recv(t, b)

	fx.offer(t, a, "r1", `{"n":0}`)
	fx.dispatch(t, a, Candidate{Signal{Room: "r1", Payload: json.RawMessage(`{"n":1}`)}})
	fx.dispatch(t, a, Candidate{Signal{Room: "r1", Payload: json.RawMessage(`{"n":2}`)}})

	for _, member := range []*Connection{b, c} {
		assert.Equal(t, MessageTypeOffer, recv(t, member).Type)
		first := recv(t, member)
		second := recv(t, member)
		assert.Equal(t, MessageTypeCandidate, first.Type)
		assert.JSONEq(t, `{"n":1}`, string(first.Payload))
		assert.JSONEq(t, `{"n":2}`, string(second.Payload))
	}
}

func TestHub_TargetedSignal(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	b := fx.connect(t)
	c := fx.connect(t)
	fx.join(t, a, "r1", "alice")
	fx.join(t, b, "r1", "bob")
	fx.join(t, c, "r1", "carol")
	recv(t, a)
	recv(t, a)
	recv(t, b)

	fx.dispatch(t, a, Answer{Signal{Room: "r1", To: "carol", Payload: json.RawMessage(`{"sdp":"v=0"}`)}})

	msg := recv(t, c)
	assert.Equal(t, MessageTypeAnswer, msg.Type)
	fx.assertSilent(t, b)
}

func TestHub_StopClosesConnections(t *testing.T) {
	fx := setupHub(t)
	a := fx.connect(t)
	fx.join(t, a, "r1", "alice")

	fx.cancel()
	<-fx.hub.done

	_, open := <-a.send
	assert.False(t, open)
	assert.ErrorIs(t, fx.hub.Register(newConnection(fx.hub, nil, "late")), ErrHubStopped)
	assert.ErrorIs(t, fx.hub.Dispatch(a, JoinRoom{Room: "r1"}), ErrHubStopped)

	_, err := fx.hub.Rooms(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}
