package loadctl

import (
	"io"
	"time"

	"github.com/bangzek/clock"
)

const (
	TIMEOUT = time.Second
)

var (
	ctime interface{ Now() time.Time } = clock.New()
)

// Link runs strict request/response exchanges over one serial port. The
// port is opened lazily and dropped after any failure, so the next Send
// reopens it.
//
// Link has no transaction id and no locking: callers must not Send from
// more than one goroutine at a time. Interleaved exchanges corrupt the
// framing and show up as BadRxErr or ErrTimeout.
type Link struct {
	Port    PortOpener
	Timeout time.Duration

	port   io.ReadWriteCloser
	wait   time.Duration
	repeat bool
}

// Open opens the port unless it is already open.
func (c *Link) Open() error {
	if c.port != nil {
		return nil
	}
	var err error
	c.port, c.wait, err = c.Port.Open(c.repeat)
	if err != nil {
		c.port = nil
		c.repeat = true
		return err
	}
	c.repeat = false
	return nil
}

func (c *Link) IsOpen() bool {
	return c.port != nil
}

func (c *Link) Close() {
	if c.port != nil {
		c.port.Close()
		c.port = nil
	}
}

func (c *Link) Send(cmd Cmd) error {
	if c.Timeout <= 0 {
		c.Timeout = TIMEOUT
	}
	if err := c.Open(); err != nil {
		return err
	}

	tx := cmd.TxBytes()
	debugLog("tx: % X", tx)
	debugLog("TX: %s", cmd.Tx())
	if n, err := c.port.Write(tx); err != nil {
		c.Close()
		return err
	} else if n != len(tx) {
		c.Close()
		return io.ErrShortWrite
	}

	time.Sleep(c.wait)

	rx := cmd.RxBytes()
	if cap(*rx) == 0 {
		return nil
	}

	for deadline := ctime.Now().Add(c.Timeout); ; {
		if n, ok, err := c.read(rx, cmd.IsValidRx); err != nil {
			c.Close()
			return err
		} else if n > 0 {
			debugLog("rx: % X", *rx)
			if !ok {
				c.Close()
				return BadRxErr(*rx)
			}
			debugLog("RX: %s", cmd.Rx())
			break
		}

		if ctime.Now().After(deadline) {
			c.Close()
			return ErrTimeout
		}
	}
	return nil
}

func (c *Link) read(b *[]byte, isValid func() bool) (int, bool, error) {
	*b = (*b)[:cap(*b)]
	for n := 0; n < len(*b); {
		nn, err := c.port.Read((*b)[n:])
		n += nn
		*b = (*b)[:n]
		if err != nil {
			return n, false, err
		} else if nn == 0 {
			return n, false, nil
		} else if isValid() {
			return n, true, nil
		}
		*b = (*b)[:cap(*b)]
	}
	return len(*b), isValid(), nil
}
