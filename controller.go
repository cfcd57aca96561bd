package loadctl

import (
	"sync"
	"time"
)

// Controller is one on/off switch over either the frame protocol or the
// register protocol, chosen by Config.Method.
//
// The cached State only changes on an acknowledged write, a register read
// or a frame carrying a state key. On the frame backend SetState is
// optimistic: the cache takes the desired value once the command is sent
// and the next frame that says otherwise wins.
//
// OnState is called with the new State from whichever goroutine caused
// the change: the frame reader, or the caller of SetState. Calls never
// overlap and arrive in the order the state changed, so OnState must not
// call SetState or Refresh. Panics in OnState and OnFrame are recovered
// and logged.
//
// On the register backend SetState and Refresh talk to the device
// synchronously and must not be called concurrently.
type Controller struct {
	Port      PortOpener
	Commander Commander
	OnState   func(State)
	OnFrame   func(Frame)

	eff     Effective
	timeout time.Duration

	mu       sync.Mutex
	running  bool
	reader   *FrameReader
	link     *Link
	strategy RegisterStrategy

	state    stateCache
	notifyMu sync.Mutex
	frameMu  sync.Mutex
	last    Frame
}

func NewController(cfg *Config) (*Controller, error) {
	eff, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range eff.Warnings {
		log("WARN: %s", w)
	}
	return &Controller{
		Port:      cfg.serialPort(),
		Commander: DefaultCommand,
		eff:       eff,
		timeout:   cfg.Timeout,
	}, nil
}

// Effective reports the configuration in force, including whether the
// bitfield strategy was turned off by a bad bit_index.
func (c *Controller) Effective() Effective {
	e := c.eff
	e.StateKeys = append([]string(nil), e.StateKeys...)
	e.Warnings = append([]string(nil), e.Warnings...)
	return e
}

// Start opens the link. On the register backend it also reads the state
// once; a failure there is logged and the cached state stays as it was.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRunning
	}

	switch c.eff.Method {
	case FrameMethod:
		c.reader = &FrameReader{Port: c.Port, OnFrame: c.frame}
		if err := c.reader.Start(); err != nil {
			c.mu.Unlock()
			return err
		}
	case RegisterMethod:
		c.link = &Link{Port: c.Port, Timeout: c.timeout}
		c.strategy = c.newStrategy(&Master{Link: c.link, Unit: c.eff.Unit})
		if err := c.link.Open(); err != nil {
			log("%s, will retry on next request", err)
		}
	default:
		c.mu.Unlock()
		return ErrBadMethod
	}
	c.running = true
	c.mu.Unlock()

	if c.eff.Method == RegisterMethod && !c.Refresh() {
		log("initial state read failed")
	}
	return nil
}

func (c *Controller) newStrategy(m *Master) RegisterStrategy {
	e := c.eff
	if e.Strategy == StrategyBitfield {
		return &Bitfield{
			Master:  m,
			Control: e.Control,
			Status:  e.Status,
			Bit:     e.Bit,
		}
	}
	return &Direct{
		Master:   m,
		Control:  e.Control,
		Status:   e.Status,
		Readback: e.Readback,
		OnValue:  e.OnValue,
		OffValue: e.OffValue,
	}
}

// Stop releases the link and the frame reader. Calling it on a stopped
// Controller does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	reader, link := c.reader, c.link
	c.reader, c.link, c.strategy = nil, nil, nil
	c.running = false
	c.mu.Unlock()

	if reader != nil {
		reader.Stop()
	}
	if link != nil {
		link.Close()
	}
}

// State never blocks on the device.
func (c *Controller) State() State {
	return c.state.Load()
}

// LastFrame is a copy of the last frame the reader completed.
func (c *Controller) LastFrame() Frame {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	return c.last.Clone()
}

// SetState reports false on any transport or protocol failure, leaving
// the cached state alone. It does not skip the request when desired
// already matches State.
func (c *Controller) SetState(desired bool) bool {
	c.mu.Lock()
	running, reader, strategy := c.running, c.reader, c.strategy
	c.mu.Unlock()
	if !running {
		return false
	}

	if reader != nil {
		if err := c.Commander.SendLoad(reader, desired); err != nil {
			debugLog("load command: %s", err)
			return false
		}
		c.update(StateOf(desired), true)
		return true
	}

	s, ok := strategy.Set(desired)
	if !ok {
		return false
	}
	c.update(s, true)
	return true
}

// Refresh reads the state register and updates the cache. The frame
// backend has nothing to poll, so it always reports false there.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	running, strategy := c.running, c.strategy
	c.mu.Unlock()
	if !running || strategy == nil {
		return false
	}

	s, ok := strategy.Read()
	if !ok {
		return false
	}
	c.update(s, false)
	return true
}

// update stores s unless it is Unknown. OnState fires when the value
// changed, or always with force. Holding notifyMu across the swap and the
// callback keeps callbacks in swap order.
func (c *Controller) update(s State, force bool) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	changed := false
	if s != Unknown {
		changed = c.state.Swap(s) != s
	} else {
		s = c.state.Load()
	}
	if changed || force {
		c.notify(s)
	}
}

func (c *Controller) frame(f Frame) {
	c.frameMu.Lock()
	c.last = f
	c.frameMu.Unlock()

	if fn := c.OnFrame; fn != nil {
		func() {
			defer c.catch("OnFrame")
			fn(f)
		}()
	}
	c.update(StateFromFrame(f, c.eff.StateKeys), false)
}

func (c *Controller) notify(s State) {
	fn := c.OnState
	if fn == nil {
		return
	}
	defer c.catch("OnState")
	fn(s)
}

func (c *Controller) catch(name string) {
	if r := recover(); r != nil {
		log("%s panic: %v", name, r)
	}
}
