package signaling

import "errors"

var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownType    = errors.New("unknown message type")
	ErrMissingRoom    = errors.New("missing room")
	ErrMissingPayload = errors.New("missing payload")
	ErrNotInRoom      = errors.New("sender is not a member of the room")
	ErrHubStopped     = errors.New("hub stopped")
)
