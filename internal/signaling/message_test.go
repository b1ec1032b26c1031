package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr error
	}{
		{
			name:  "join with participant",
			frame: `{"type":"join-room","room":"r1","participant":"dr-lee"}`,
			want:  JoinRoom{Room: "r1", Participant: "dr-lee"},
		},
		{
			name:  "join without participant",
			frame: `{"type":"join-room","room":"r1"}`,
			want:  JoinRoom{Room: "r1"},
		},
		{
			name:  "offer",
			frame: `{"type":"offer","room":"r1","payload":{"type":"offer","sdp":"v=0"}}`,
			want:  Offer{Signal{Room: "r1", Payload: json.RawMessage(`{"type":"offer","sdp":"v=0"}`)}},
		},
		{
			name:  "answer addressed to one participant",
			frame: `{"type":"answer","room":"r1","to":"pat","payload":"x"}`,
			want:  Answer{Signal{Room: "r1", To: "pat", Payload: json.RawMessage(`"x"`)}},
		},
		{
			name:  "candidate",
			frame: `{"type":"candidate","room":"r1","payload":{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}}`,
			want: Candidate{Signal{Room: "r1", Payload: json.RawMessage(
				`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}`)}},
		},
		{
			name:    "offer without room",
			frame:   `{"type":"offer","payload":{}}`,
			wantErr: ErrMissingRoom,
		},
		{
			name:    "join without room",
			frame:   `{"type":"join-room"}`,
			wantErr: ErrMissingRoom,
		},
		{
			name:    "candidate without payload",
			frame:   `{"type":"candidate","room":"r1"}`,
			wantErr: ErrMissingPayload,
		},
		{
			name:    "unknown type",
			frame:   `{"type":"hang-up","room":"r1"}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "missing type",
			frame:   `{"room":"r1"}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "not json",
			frame:   `offer r1`,
			wantErr: ErrMalformed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.frame))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	frame, err := Encode(UserJoined{Participant: "pat"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user-joined","participant":"pat"}`, string(frame))

	frame, err = Encode(UserDisconnected{Participant: "pat"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user-disconnected","participant":"pat"}`, string(frame))

	frame, err = Encode(Relayed{Type: MessageTypeAnswer, From: "dr-lee", Payload: json.RawMessage(`{"sdp":"v=0"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"answer","from":"dr-lee","payload":{"sdp":"v=0"}}`, string(frame))
}
