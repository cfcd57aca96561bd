package loadctl

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_UNIT          = 1
	DEFAULT_LOAD_REGISTER = 0x0120
	DEFAULT_ON_VALUE      = 1
	DEFAULT_OFF_VALUE     = 0
)

type Method int

const (
	FrameMethod Method = iota + 1
	RegisterMethod
)

func (m Method) String() string {
	switch m {
	case FrameMethod:
		return "frame"
	case RegisterMethod:
		return "register"
	default:
		return fmt.Sprintf("ERR:%d", m)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	switch m {
	case FrameMethod, RegisterMethod:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("invalid method: %d", m)
	}
}

// UnmarshalText also takes the protocol names vedirect and modbus.
func (m *Method) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "frame", "vedirect":
		*m = FrameMethod
	case "register", "modbus":
		*m = RegisterMethod
	default:
		return fmt.Errorf("%w %q", ErrBadMethod, b)
	}
	return nil
}

type Strategy int

const (
	StrategyFrame Strategy = iota + 1
	StrategyDirect
	StrategyBitfield
)

func (s Strategy) String() string {
	switch s {
	case StrategyFrame:
		return "frame"
	case StrategyDirect:
		return "direct"
	case StrategyBitfield:
		return "bitfield"
	default:
		return fmt.Sprintf("ERR:%d", s)
	}
}

// Config is the yaml surface of a Controller. Pointer fields are optional.
type Config struct {
	Method   Method        `yaml:"method"`
	Port     string        `yaml:"port"`
	Baudrate int           `yaml:"baudrate"`
	Parity   Parity        `yaml:"parity"`
	Timeout  time.Duration `yaml:"timeout"`

	UnitID        *int    `yaml:"unit_id"`
	LoadRegister  *uint16 `yaml:"load_register"`
	StateRegister *uint16 `yaml:"state_register"`
	BitIndex      *int    `yaml:"bit_index"`
	OnValue       *uint16 `yaml:"on_value"`
	OffValue      *uint16 `yaml:"off_value"`

	StateKeys []string `yaml:"state_keys"`
}

// Effective is what a Config resolves to once defaults and validation
// are applied.
type Effective struct {
	Method   Method
	Strategy Strategy

	Unit     byte
	Control  uint16
	Status   uint16
	Readback bool
	Bit      uint
	OnValue  uint16
	OffValue uint16

	StateKeys []string
	Warnings  []string
}

func ReadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadConfig(f)
}

// Validate fails only for settings nothing can run with. A bit_index
// outside 0-15 turns the bitfield strategy off for good and is reported
// in Warnings.
func (c *Config) Validate() (Effective, error) {
	var e Effective
	switch c.Method {
	case FrameMethod:
		e.Strategy = StrategyFrame
	case RegisterMethod:
		e.Strategy = StrategyDirect
	default:
		return e, fmt.Errorf("method: %w %d", ErrBadMethod, c.Method)
	}
	e.Method = c.Method

	if c.Port == "" {
		return e, fmt.Errorf("port: empty")
	}
	if c.Baudrate < 0 {
		return e, fmt.Errorf("baudrate: %d", c.Baudrate)
	}
	if !c.Parity.IsValid() {
		return e, fmt.Errorf("parity: %s", c.Parity)
	}

	e.StateKeys = append([]string(nil), c.StateKeys...)
	if len(e.StateKeys) == 0 {
		e.StateKeys = append([]string(nil), DefaultStateKeys...)
	}

	e.Unit = DEFAULT_UNIT
	if c.UnitID != nil {
		if *c.UnitID < 1 || *c.UnitID > 247 {
			return e, fmt.Errorf("unit_id: %d out of 1-247", *c.UnitID)
		}
		e.Unit = byte(*c.UnitID)
	}

	e.Control = DEFAULT_LOAD_REGISTER
	if c.LoadRegister != nil {
		e.Control = *c.LoadRegister
	}
	e.Status = e.Control
	if c.StateRegister != nil {
		e.Status = *c.StateRegister
		e.Readback = true
	}

	e.OnValue = DEFAULT_ON_VALUE
	if c.OnValue != nil {
		e.OnValue = *c.OnValue
	}
	e.OffValue = DEFAULT_OFF_VALUE
	if c.OffValue != nil {
		e.OffValue = *c.OffValue
	}

	if c.BitIndex != nil && e.Method == RegisterMethod {
		if i := *c.BitIndex; i < 0 || i > 15 {
			e.Warnings = append(e.Warnings,
				fmt.Sprintf("invalid bit_index %d, bitfield disabled", i))
		} else {
			e.Strategy = StrategyBitfield
			e.Bit = uint(i)
		}
	}
	return e, nil
}

func (c *Config) serialPort() *SerialPort {
	return &SerialPort{
		Dev:      c.Port,
		Baudrate: c.Baudrate,
		Parity:   c.Parity,
	}
}
