package protocol

import "errors"

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrBadBlock       = errors.New("malformed block")
)

// scanStatus is the outcome of looking for one block at the start of a buffer
type scanStatus uint8

const (
	scanNeedMore scanStatus = iota // buffer holds a partial block
	scanOK                         // a valid block of the returned length
	scanBad                        // not a block; caller must resynchronise
)

// scanBlock checks the block at the start of data. It does not look at
// the sequence byte beyond its destination bits.
func scanBlock(data []byte) (int, scanStatus) {
	if len(data) < MessageLengthMin {
		return 0, scanNeedMore
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return 0, scanBad
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, scanBad
	}
	if len(data) < msgLen {
		return 0, scanNeedMore
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return 0, scanBad
	}

	want := uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1])
	if CRC16(data[:msgLen-MessageTrailerSize]) != want {
		return 0, scanBad
	}
	return msgLen, scanOK
}

// skipToSync drops everything up to and including the next sync byte.
// ok is false if there was none.
func skipToSync(data []byte) (rest []byte, ok bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}

// AppendBlock appends a complete block carrying payload to dst
func AppendBlock(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageLengthMin + len(payload)
	if msgLen > MessageLengthMax {
		return dst, ErrMessageTooLong
	}
	start := len(dst)
	dst = append(dst, byte(msgLen), seq)
	dst = append(dst, payload...)
	return appendTrailer(dst, dst[start:]), nil
}

// ParseBlock validates one complete block and returns its sequence byte
// and payload.
func ParseBlock(block []byte) (seq uint8, payload []byte, err error) {
	n, status := scanBlock(block)
	if status != scanOK || n != len(block) {
		return 0, nil, ErrBadBlock
	}
	return block[MessagePositionSeq], block[MessageHeaderSize : n-MessageTrailerSize], nil
}
