package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
)

const (
	headerSize = 9
	valueSize  = 4

	// MaxPayloadLength - largest payload, in bytes, a frame may announce
	// before it is discarded unread.
	MaxPayloadLength = 64
)

// WriteMessage - encodes one frame:
// [type 1B][senderID int32 BE][payloadLength uint32 BE][payload int32 BE...].
func WriteMessage(w io.Writer, msg *Message) error {
	size := len(msg.Payload) * valueSize
	buf := make([]byte, headerSize+size)

	buf[0] = byte(msg.Type)
	binary.BigEndian.PutUint32(buf[1:5], uint32(msg.SenderID))
	binary.BigEndian.PutUint32(buf[5:9], uint32(size))

	for i, value := range msg.Payload {
		offset := headerSize + i*valueSize
		binary.BigEndian.PutUint32(buf[offset:offset+valueSize], uint32(value))
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Type, err)
	}

	return nil
}

// ReadMessage - decodes one frame. A frame with an unknown type or a payload
// length that does not fit its type is consumed whole and reported as
// ErrMalformedMessage, so the caller can drop it and keep reading.
func ReadMessage(r io.Reader) (*Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	msgType := Type(header[0])
	sender := int32(binary.BigEndian.Uint32(header[1:5]))
	size := binary.BigEndian.Uint32(header[5:9])

	if size > MaxPayloadLength {
		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return nil, unexpectedEOF(err)
		}
		return nil, fmt.Errorf("%w: payload of %d bytes", apperror.ErrMalformedMessage, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, unexpectedEOF(err)
	}

	if !msgType.Known() {
		return nil, fmt.Errorf("%w: unknown type %d", apperror.ErrMalformedMessage, uint8(msgType))
	}

	if size%valueSize != 0 || int(size/valueSize) != payloadValues[msgType] {
		return nil, fmt.Errorf("%w: %s with %d payload bytes", apperror.ErrMalformedMessage, msgType, size)
	}

	payload := make([]int32, 0, size/valueSize)
	for offset := 0; offset < len(body); offset += valueSize {
		payload = append(payload, int32(binary.BigEndian.Uint32(body[offset:offset+valueSize])))
	}

	return &Message{Type: msgType, SenderID: sender, Payload: payload}, nil
}

// IsMalformed reports whether err only concerns the last frame.
func IsMalformed(err error) bool {
	return errors.Is(err, apperror.ErrMalformedMessage)
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
