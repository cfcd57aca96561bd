package loadctl

import "io"

// Commander sends a load on/off request over the frame protocol link.
// Formats differ per device and many devices never acknowledge them, so
// the controller treats a nil error as "sent", not as "done".
type Commander interface {
	SendLoad(w io.Writer, on bool) error
}

type CommandFunc func(w io.Writer, on bool) error

func (f CommandFunc) SendLoad(w io.Writer, on bool) error {
	return f(w, on)
}

// TextCommand writes one of two fixed strings.
type TextCommand struct {
	On  string
	Off string
}

// DefaultCommand is unverified against real hardware; replace it with the
// documented sequence for the device at hand.
var DefaultCommand = TextCommand{On: ":LOAD=1\r", Off: ":LOAD=0\r"}

func (c TextCommand) SendLoad(w io.Writer, on bool) error {
	s := c.Off
	if on {
		s = c.On
	}
	_, err := io.WriteString(w, s)
	return err
}
