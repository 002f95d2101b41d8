// Package protocol frames the console's serial link.
//
// Every block on the wire is
//
//	len seq payload... crc_hi crc_lo 0x7E
//
// where len counts the whole block, seq is 0x10|n with a 4-bit sequence
// number, and the payload is a run of VLQ-encoded command IDs each followed
// by its arguments. An empty payload is an ack (or a nak, when seq names a
// block the receiver has not seen yet).
package protocol

// Version of the link format
const Version = "gamer-link-1"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F

	// MessageMax bounds one flush of the device output buffer
	MessageMax = 4 * MessageLengthMax
)

// NextSequence returns the sequence byte that follows seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
