package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{"empty", []byte{}, 0xFFFF},
		{"zero byte", []byte{0x00}, 0x0F87},
		{"ff byte", []byte{0xFF}, 0x00FF},
		{"ack header", []byte{5, MessageDest}, 0x9E81},
		{"check string", []byte("123456789"), 0x6F91},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CRC16(tc.data); got != tc.expected {
				t.Errorf("Expected CRC 0x%04X, got 0x%04X", tc.expected, got)
			}
		})
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
