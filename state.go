package loadctl

import (
	"fmt"
	"sync"
)

// State is the load output as last known: Unknown until a read, a frame
// or an acknowledged write says otherwise.
type State int8

const (
	Unknown State = iota
	Off
	On
)

func StateOf(on bool) State {
	if on {
		return On
	}
	return Off
}

// Bool reports the state and whether it is known at all.
func (s State) Bool() (on bool, known bool) {
	return s == On, s != Unknown
}

func (s State) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Off:
		return "OFF"
	case On:
		return "ON"
	default:
		return fmt.Sprintf("ERR:%d", s)
	}
}

func (s State) MarshalText() ([]byte, error) {
	switch s {
	case Unknown, Off, On:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid state: %d", s)
	}
}

// stateCache is the single slot shared by the frame reader goroutine and
// callers of Controller.State.
type stateCache struct {
	mu sync.Mutex
	s  State
}

func (c *stateCache) Load() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// Swap stores s and returns the previous value.
func (c *stateCache) Swap(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.s
	c.s = s
	return old
}
