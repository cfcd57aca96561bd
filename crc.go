package loadctl

import "github.com/sigurn/crc16"

// CRC16/MODBUS: poly 0xA001 reflected, init 0xFFFF.
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum returns the 2 byte little-endian trailer for b.
func Checksum(b []byte) [2]byte {
	cs := crc16.Checksum(b, crcTable)
	return [2]byte{byte(cs), byte(cs >> 8)}
}

// SetChecksum fills the last 2 bytes of b with the checksum of the rest.
func SetChecksum(b []byte) {
	cs := Checksum(b[:len(b)-2])
	b[len(b)-2] = cs[0]
	b[len(b)-1] = cs[1]
}

func checksum(b []byte) bool {
	cs := Checksum(b[:len(b)-2])
	return b[len(b)-2] == cs[0] && b[len(b)-1] == cs[1]
}
