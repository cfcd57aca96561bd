package loadctl

import (
	"errors"
	"io"
	"sync"
	"time"
)

const (
	READ_ERR_WAIT = 500 * time.Millisecond
	STOP_WAIT     = 2 * time.Second

	// consecutive read errors before the port is closed and reopened
	READ_ERR_REOPEN = 3
)

// FrameReader owns the frame protocol port. One goroutine reads lines and
// hands completed frames to OnFrame, in wire order. Read errors are
// retried after ErrWait until Stop, and after READ_ERR_REOPEN of them in a
// row the port is reopened; io.EOF ends the stream. Whatever was
// collected when the loop ends is flushed once as a final frame.
type FrameReader struct {
	Port     PortOpener
	OnFrame  func(Frame)
	ErrWait  time.Duration
	StopWait time.Duration

	mu      sync.Mutex
	port    io.ReadWriteCloser
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

func (r *FrameReader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return ErrRunning
	}
	if r.ErrWait <= 0 {
		r.ErrWait = READ_ERR_WAIT
	}
	if r.StopWait <= 0 {
		r.StopWait = STOP_WAIT
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.stopped = false
	go r.loop(r.stop, r.done)
	return nil
}

// Stop asks the loop to end, waits for it at most StopWait and closes the
// port. The loop notices between reads, so Stop can take up to one read
// timeout. Safe to call from any goroutine, and more than once.
func (r *FrameReader) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(r.StopWait):
		log("frame reader did not stop in %s", r.StopWait)
	}

	r.mu.Lock()
	r.stopped = true
	if r.port != nil {
		r.port.Close()
		r.port = nil
	}
	r.mu.Unlock()
	log("frame reader stopped")
}

// Write sends raw bytes on the reader's port.
func (r *FrameReader) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.port == nil {
		return 0, ErrStopped
	}
	n, err := r.port.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err == nil {
		debugLog("frame tx: %q", b)
	}
	return n, err
}

func (r *FrameReader) attach(port io.ReadWriteCloser) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		port.Close()
		return false
	}
	r.port = port
	return true
}

func (r *FrameReader) detach(port io.ReadWriteCloser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.port == port {
		r.port = nil
	}
	port.Close()
}

func (r *FrameReader) wait(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-time.After(r.ErrWait):
		return true
	}
}

func (r *FrameReader) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	p := FrameParser{OnFrame: r.OnFrame}
	var lines lineBuffer
	var port io.ReadWriteCloser
	buf := make([]byte, 128)
	repeat := false
	errs := 0

	log("frame reader started")
	defer func() {
		p.Feed(lines.Rest())
		p.Flush()
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if port == nil {
			var err error
			port, _, err = r.Port.Open(repeat)
			if err != nil {
				port = nil
				repeat = true
				debugLog("frame open: %s", err)
				if !r.wait(stop) {
					return
				}
				continue
			}
			repeat = false
			if !r.attach(port) {
				return
			}
		}

		n, err := port.Read(buf)
		if n > 0 {
			lines.Write(buf[:n], p.Feed)
		}
		if errors.Is(err, io.EOF) {
			log("frame stream ended")
			return
		} else if err != nil {
			debugLog("frame read: %s", err)
			errs++
			if errs >= READ_ERR_REOPEN {
				log("%d read errors, reopening port", errs)
				r.detach(port)
				port, repeat, errs = nil, true, 0
			}
			if !r.wait(stop) {
				return
			}
		} else {
			errs = 0
		}
	}
}
