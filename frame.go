package loadctl

import (
	"bytes"
	"strings"
)

// SENTINEL is the key of the line that closes every frame.
const SENTINEL = "Checksum"

// DefaultStateKeys are looked up in order; the first one present decides.
var DefaultStateKeys = []string{"LOAD", "Load", "Relay"}

// Frame is one telemetry block, keys in arrival order. A repeated key
// keeps its first position and takes the last value.
type Frame struct {
	Keys   []string
	Values map[string]string
}

func (f *Frame) set(k, v string) {
	if f.Values == nil {
		f.Values = make(map[string]string)
	}
	if _, ok := f.Values[k]; !ok {
		f.Keys = append(f.Keys, k)
	}
	f.Values[k] = v
}

func (f Frame) Get(k string) (string, bool) {
	v, ok := f.Values[k]
	return v, ok
}

func (f Frame) Len() int {
	return len(f.Keys)
}

func (f Frame) Clone() Frame {
	n := Frame{
		Keys:   append([]string(nil), f.Keys...),
		Values: make(map[string]string, len(f.Values)),
	}
	for k, v := range f.Values {
		n.Values[k] = v
	}
	return n
}

// StateFromFrame returns Unknown when no key is present or the value of
// the first present key is not one of on/1/yes or off/0/no.
func StateFromFrame(f Frame, keys []string) State {
	if keys == nil {
		keys = DefaultStateKeys
	}
	for _, k := range keys {
		v, ok := f.Values[k]
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "1", "yes":
			return On
		case "off", "0", "no":
			return Off
		default:
			return Unknown
		}
	}
	return Unknown
}

// FrameParser groups KEY<TAB>VALUE lines into frames. Lines without a tab
// are dropped. It is owned by one goroutine.
type FrameParser struct {
	OnFrame func(Frame)

	cur Frame
}

func (p *FrameParser) Feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	k, v, ok := strings.Cut(line, "\t")
	if !ok {
		return
	}
	if k == SENTINEL {
		p.emit()
		return
	}
	p.cur.set(k, v)
}

// Flush emits what was collected since the last sentinel, if anything.
// Such a frame may be incomplete.
func (p *FrameParser) Flush() {
	if p.cur.Len() > 0 {
		p.emit()
	}
}

func (p *FrameParser) emit() {
	f := p.cur
	p.cur = Frame{}
	if p.OnFrame != nil {
		p.OnFrame(f)
	}
}

// lineBuffer splits a raw byte stream at '\n'.
type lineBuffer struct {
	b []byte
}

const maxLine = 1024

func (l *lineBuffer) Write(p []byte, line func(string)) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			l.b = append(l.b, p...)
			if len(l.b) > maxLine {
				debugLog("dropping %d bytes without newline", len(l.b))
				l.b = l.b[:0]
			}
			return
		}
		l.b = append(l.b, p[:i]...)
		line(string(l.b))
		l.b = l.b[:0]
		p = p[i+1:]
	}
}

// Rest returns an unterminated trailing line and forgets it.
func (l *lineBuffer) Rest() string {
	s := string(l.b)
	l.b = l.b[:0]
	return s
}
