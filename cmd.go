package loadctl

import (
	"bytes"
	"fmt"
	"strconv"
)

const (
	FuncReadHRegs = 0x03
	FuncWriteHReg = 0x06
)

// Cmd is one request/response exchange on the register link. The tx frame
// is fixed once built; rx is filled by Link.Send up to its capacity.
type Cmd interface {
	TxBytes() []byte
	DevAddr() byte
	Addr() uint16
	Tx() string

	RxBytes() *[]byte
	IsValidRx() bool
	Rx() string

	String() string
}

type cmd struct {
	tx []byte
	rx []byte
}

func (c *cmd) TxBytes() []byte {
	return c.tx
}

func (c *cmd) DevAddr() byte {
	return c.tx[0]
}

func (c *cmd) Addr() uint16 {
	return (uint16(c.tx[2]) << 8) | uint16(c.tx[3])
}

func (c *cmd) RxBytes() *[]byte {
	return &c.rx
}

func (c *cmd) badRx(b []byte) []byte {
	b = append(b, '[')
	b = fmt.Appendf(b, "% X", c.rx)
	return append(b, ']')
}

func newRequest(devAddr, fn byte, addr, payload uint16) []byte {
	tx := make([]byte, 8)
	tx[0] = devAddr
	tx[1] = fn
	tx[2] = byte(addr >> 8)
	tx[3] = byte(addr)
	tx[4] = byte(payload >> 8)
	tx[5] = byte(payload)
	SetChecksum(tx)
	return tx
}

//----------------------------------------------------------------------

// ReadRegCmd reads exactly one holding register.
type ReadRegCmd struct {
	cmd
}

func NewReadRegCmd(devAddr byte, addr uint16) *ReadRegCmd {
	if devAddr == 0 {
		panic("could not broadcast ReadRegCmd")
	}
	return &ReadRegCmd{cmd{
		tx: newRequest(devAddr, FuncReadHRegs, addr, 1),
		rx: make([]byte, 0, 7),
	}}
}

// Reg is the big-endian register value. Only meaningful when IsValidRx.
func (c *ReadRegCmd) Reg() uint16 {
	return (uint16(c.rx[3]) << 8) | uint16(c.rx[4])
}

// IsValidRx checks shape only: the trailer is not recomputed.
func (c *ReadRegCmd) IsValidRx() bool {
	return len(c.rx) == 7 &&
		c.rx[1] == FuncReadHRegs &&
		c.rx[2] == 2
}

func (c *ReadRegCmd) String() string {
	b := c.aTx(make([]byte, 0, 32))
	b = append(b, '\n')
	if c.IsValidRx() {
		b = c.aRx(b)
	} else {
		b = c.badRx(b)
	}
	return string(b)
}

func (c *ReadRegCmd) Tx() string {
	return string(c.aTx(make([]byte, 0, 16)))
}

func (c *ReadRegCmd) aTx(b []byte) []byte {
	b = strconv.AppendInt(b, int64(c.DevAddr()), 10)
	b = append(b, "<-RHR "...)
	return strconv.AppendInt(b, int64(c.Addr()), 10)
}

func (c *ReadRegCmd) Rx() string {
	return string(c.aRx(make([]byte, 0, 16)))
}

func (c *ReadRegCmd) aRx(b []byte) []byte {
	b = strconv.AppendInt(b, int64(c.rx[0]), 10)
	b = append(b, "->RHR "...)
	return strconv.AppendInt(b, int64(c.Reg()), 10)
}

//----------------------------------------------------------------------

// WriteRegCmd writes one holding register. A unit address of 0 is a
// broadcast, which gets no reply.
type WriteRegCmd struct {
	cmd
}

func NewWriteRegCmd(devAddr byte, addr uint16, val uint16) *WriteRegCmd {
	tx := newRequest(devAddr, FuncWriteHReg, addr, val)

	var rx []byte
	if devAddr > 0 {
		rx = make([]byte, 0, len(tx))
	}

	return &WriteRegCmd{cmd{
		tx: tx,
		rx: rx,
	}}
}

func (c *WriteRegCmd) Reg() uint16 {
	return (uint16(c.tx[4]) << 8) | uint16(c.tx[5])
}

// IsValidRx requires the reply to echo unit, function, address and value.
// The echoed trailer is not compared.
func (c *WriteRegCmd) IsValidRx() bool {
	return len(c.rx) == 8 && bytes.Equal(c.rx[:6], c.tx[:6])
}

func (c *WriteRegCmd) String() string {
	if cap(c.rx) == 0 {
		return c.Tx()
	}
	b := c.aTx(make([]byte, 0, 40))
	b = append(b, '\n')
	if c.IsValidRx() {
		b = c.aRx(b)
	} else {
		b = c.badRx(b)
	}
	return string(b)
}

func (c *WriteRegCmd) Tx() string {
	return string(c.aTx(make([]byte, 0, 20)))
}

func (c *WriteRegCmd) aTx(b []byte) []byte {
	b = strconv.AppendInt(b, int64(c.DevAddr()), 10)
	b = append(b, "<-W1R "...)
	b = strconv.AppendInt(b, int64(c.Addr()), 10)
	b = append(b, ' ')
	return strconv.AppendInt(b, int64(c.Reg()), 10)
}

func (c *WriteRegCmd) Rx() string {
	return string(c.aRx(make([]byte, 0, 20)))
}

func (c *WriteRegCmd) aRx(b []byte) []byte {
	b = strconv.AppendInt(b, int64(c.rx[0]), 10)
	b = append(b, "->W1R "...)
	b = strconv.AppendInt(b, int64((uint16(c.rx[2])<<8)|uint16(c.rx[3])), 10)
	b = append(b, ' ')
	return strconv.AppendInt(b, int64((uint16(c.rx[4])<<8)|uint16(c.rx[5])), 10)
}
