package loadctl

import (
	"fmt"
	"strings"

	"github.com/albenik/go-serial/v2"
)

type Parity serial.Parity

const (
	NoParity   = Parity(serial.NoParity)
	OddParity  = Parity(serial.OddParity)
	EvenParity = Parity(serial.EvenParity)
)

func (p Parity) IsValid() bool {
	switch p {
	case NoParity, OddParity, EvenParity:
		return true
	default:
		return false
	}
}

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "NONE"
	case OddParity:
		return "ODD"
	case EvenParity:
		return "EVEN"
	default:
		return fmt.Sprintf("ERR:%d", p)
	}
}

func (p Parity) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid parity: %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts NONE, ODD and EVEN in any case. Empty means NONE.
func (p *Parity) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "", "NONE":
		*p = NoParity
	case "ODD":
		*p = OddParity
	case "EVEN":
		*p = EvenParity
	default:
		return fmt.Errorf("invalid parity from %q", b)
	}
	return nil
}
