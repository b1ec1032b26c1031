package peer

import (
	"errors"
	"fmt"

	"github.com/akshayasree99/healthx-signal/internal/ui"
)

var (
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrRelayClosed      = errors.New("relay connection closed")
	ErrTimeout          = errors.New("timeout")
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrUnexpectedSignal = errors.New("unexpected signal type")
	ErrConnectionFailed = errors.New("connection failed")
)

type ProbeError struct {
	Op      string
	Err     error
	Details string
}

func (e *ProbeError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

func (e *ProbeError) Print() {
	ui.PrintError(e.Error())
}

func NewError(op string, err error) *ProbeError {
	return &ProbeError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *ProbeError {
	return &ProbeError{Op: op, Err: err, Details: details}
}
