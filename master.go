package loadctl

// Master reads and writes single holding registers of one unit. Every
// failure, transport or protocol, collapses into "no value" or false and
// is only visible in the logs. There are no retries here.
//
// Master inherits the single-writer precondition of Link.
type Master struct {
	Link *Link
	Unit byte
}

func (m *Master) ReadRegister(addr uint16) (uint16, bool) {
	cmd := NewReadRegCmd(m.Unit, addr)
	if err := m.Link.Send(cmd); err != nil {
		debugLog("read %d: %s", addr, err)
		return 0, false
	}
	return cmd.Reg(), true
}

func (m *Master) WriteRegister(addr uint16, val uint16) bool {
	cmd := NewWriteRegCmd(m.Unit, addr, val)
	if err := m.Link.Send(cmd); err != nil {
		debugLog("write %d=%d: %s", addr, val, err)
		return false
	}
	return true
}
