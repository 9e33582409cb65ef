package shdlc

// Checksum calculates the frame checksum: the inverted low byte of the
// sum of address, command, data length and all data bytes.
func Checksum(addr, cmd byte, data []byte) byte {
	sum := addr + cmd + byte(len(data))
	for _, b := range data {
		sum += b
	}
	return ^sum
}

// VerifyChecksum checks claimed against the calculated checksum.
func VerifyChecksum(addr, cmd byte, data []byte, claimed byte) bool {
	return Checksum(addr, cmd, data) == claimed
}
