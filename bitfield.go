package loadctl

// RegisterStrategy maps an on/off request onto register traffic. Set and
// Read report ok=false on any failure. A successful call may still return
// Unknown when the device answered with nothing that maps to on or off;
// the caller keeps its cached state then.
type RegisterStrategy interface {
	Set(desired bool) (s State, ok bool)
	Read() (s State, ok bool)
}

// Bitfield drives one bit of a 16 bit command word with read-modify-write
// so the other bits survive. The word is read from Status, which is the
// same as Control unless the device reports state elsewhere.
type Bitfield struct {
	Master  *Master
	Control uint16
	Status  uint16
	Bit     uint
}

func (b *Bitfield) mask() uint16 {
	return 1 << b.Bit
}

func (b *Bitfield) Set(desired bool) (State, bool) {
	cur, ok := b.Master.ReadRegister(b.Status)
	if !ok {
		return Unknown, false
	}

	mask := b.mask()
	word := cur &^ mask
	if desired {
		word = cur | mask
	}
	if word == cur {
		debugLog("bit %d of %d already %t", b.Bit, b.Status, desired)
		return StateOf(cur&mask != 0), true
	}

	if !b.Master.WriteRegister(b.Control, word) {
		return Unknown, false
	}
	if b.Status == b.Control {
		return StateOf(word&mask != 0), true
	}
	// the write landed even if the readback of Status fails
	s, _ := b.Read()
	return s, true
}

func (b *Bitfield) Read() (State, bool) {
	v, ok := b.Master.ReadRegister(b.Status)
	if !ok {
		return Unknown, false
	}
	return StateOf(v&b.mask() != 0), true
}

// Direct writes a whole word: OnValue or OffValue. With Readback set the
// Status register is read after every write and mapped back through the
// same two values.
type Direct struct {
	Master   *Master
	Control  uint16
	Status   uint16
	Readback bool
	OnValue  uint16
	OffValue uint16
}

func (d *Direct) Set(desired bool) (State, bool) {
	v := d.OffValue
	if desired {
		v = d.OnValue
	}
	if !d.Master.WriteRegister(d.Control, v) {
		return Unknown, false
	}
	if !d.Readback {
		return StateOf(desired), true
	}
	s, _ := d.Read()
	return s, true
}

func (d *Direct) Read() (State, bool) {
	v, ok := d.Master.ReadRegister(d.Status)
	if !ok {
		return Unknown, false
	}
	switch v {
	case d.OnValue:
		return On, true
	case d.OffValue:
		return Off, true
	default:
		debugLog("register %d holds %d, neither on nor off", d.Status, v)
		return Unknown, true
	}
}
