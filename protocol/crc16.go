package protocol

// CRC16 is the CCITT variant used on the link: initial value 0xFFFF,
// byte-reflected update, sent high byte first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc16Update(crc, b)
	}
	return crc
}

func crc16Update(crc uint16, b byte) uint16 {
	b ^= uint8(crc)
	b ^= b << 4
	w := uint16(b)
	return (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
}

// appendTrailer appends the CRC and sync byte that close block
func appendTrailer(dst []byte, block []byte) []byte {
	crc := CRC16(block)
	return append(dst, byte(crc>>8), byte(crc), MessageValueSync)
}
