package loadctl

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout   = errors.New("timeout")
	ErrStopped   = errors.New("controller stopped")
	ErrRunning   = errors.New("controller already running")
	ErrBadMethod = errors.New("unknown method")
)

// BadRxErr holds the bytes of a response that failed validation.
type BadRxErr []byte

func (e BadRxErr) Error() string {
	return fmt.Sprintf("invalid response: [% X]", []byte(e))
}
