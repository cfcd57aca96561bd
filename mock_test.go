package loadctl_test

import (
	"fmt"
	"io"
	"sync"
	"time"

	. "github.com/acredsfan/solar-control"
)

type MockPort struct {
	Opens []OpenScript

	Calls []bool
	i     int
}

type OpenScript struct {
	Rwc  io.ReadWriteCloser
	Wait time.Duration
	Err  error
}

func (m *MockPort) Open(
	repeat bool,
) (rwc io.ReadWriteCloser, wait time.Duration, err error) {
	if m.i < len(m.Opens) {
		rwc = m.Opens[m.i].Rwc
		wait = m.Opens[m.i].Wait
		err = m.Opens[m.i].Err
	} else {
		err = io.ErrClosedPipe
	}
	m.i++
	m.Calls = append(m.Calls, repeat)
	return
}

// MockRwc replays one script entry per call, for request/response links.
type MockRwc struct {
	Writes []WriteScript
	Reads  []ReadScript

	Calls []string

	iWrite int
	iRead  int
}

type WriteScript struct {
	N   int
	Err error
}

type ReadScript struct {
	Bytes []byte
	Err   error
}

func (m *MockRwc) Write(b []byte) (n int, err error) {
	if m.iWrite < len(m.Writes) {
		n = m.Writes[m.iWrite].N
		err = m.Writes[m.iWrite].Err
	}
	m.Calls = append(m.Calls, fmt.Sprintf("WRITE [% X]", b))
	m.iWrite++
	return
}

func (m *MockRwc) Read(b []byte) (n int, err error) {
	if m.iRead < len(m.Reads) {
		s := m.Reads[m.iRead]
		if len(b) < len(s.Bytes) {
			panic(fmt.Sprintf("Invalid MockRwc.ReadScript[%d].Bytes %d>%d",
				m.iRead, len(s.Bytes), len(b)))
		}
		if len(s.Bytes) > 0 {
			copy(b, s.Bytes)
			n = len(s.Bytes)
		}
		err = s.Err
	}
	m.Calls = append(m.Calls, "READ")
	m.iRead++
	return
}

func (m *MockRwc) Close() error {
	m.Calls = append(m.Calls, "CLOSE")
	return nil
}

// MockStream is a continuous byte stream for the frame reader. With no
// data pending a Read waits a little and returns 0, nil like a serial
// read timeout.
type MockStream struct {
	mu     sync.Mutex
	chunks [][]byte
	fails  []error
	eof    bool
	closed bool
	writes  []string
	reads   int
	hang    time.Duration
	hanging bool
}

func (m *MockStream) Push(s string) {
	m.mu.Lock()
	m.chunks = append(m.chunks, []byte(s))
	m.mu.Unlock()
}

func (m *MockStream) Fail(err error) {
	m.mu.Lock()
	m.fails = append(m.fails, err)
	m.mu.Unlock()
}

func (m *MockStream) End() {
	m.mu.Lock()
	m.eof = true
	m.mu.Unlock()
}

// Hang makes the next Read block for d, like a driver stuck in a read.
func (m *MockStream) Hang(d time.Duration) {
	m.mu.Lock()
	m.hang = d
	m.mu.Unlock()
}

func (m *MockStream) Hanging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hanging
}

func (m *MockStream) Drained() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks) == 0 && len(m.fails) == 0
}

func (m *MockStream) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockStream) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

func (m *MockStream) Read(b []byte) (int, error) {
	m.mu.Lock()
	m.reads++
	if m.closed {
		m.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if d := m.hang; d > 0 {
		m.hang, m.hanging = 0, true
		m.mu.Unlock()
		time.Sleep(d)
		m.mu.Lock()
		m.hanging = false
		m.mu.Unlock()
		return 0, nil
	}
	if len(m.fails) > 0 {
		err := m.fails[0]
		m.fails = m.fails[1:]
		m.mu.Unlock()
		return 0, err
	}
	if len(m.chunks) > 0 {
		n := copy(b, m.chunks[0])
		if n < len(m.chunks[0]) {
			m.chunks[0] = m.chunks[0][n:]
		} else {
			m.chunks = m.chunks[1:]
		}
		m.mu.Unlock()
		return n, nil
	}
	eof := m.eof
	m.mu.Unlock()
	if eof {
		return 0, io.EOF
	}
	time.Sleep(2 * time.Millisecond)
	return 0, nil
}

func (m *MockStream) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	m.writes = append(m.writes, string(b))
	return len(b), nil
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// rxRead is a valid reply to a single register read.
func rxRead(unit byte, v uint16) []byte {
	b := []byte{unit, 3, 2, byte(v >> 8), byte(v), 0, 0}
	SetChecksum(b)
	return b
}

// rxEcho is the acknowledgment of a single register write.
func rxEcho(unit byte, addr, v uint16) []byte {
	return NewWriteRegCmd(unit, addr, v).TxBytes()
}
