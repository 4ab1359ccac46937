package wire

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every decode failure caused by a payload that
// does not fit its tag's layout.
var ErrMalformed = errors.New("wire: malformed frame")

// ErrEmptyFrame is returned for a zero-length frame.
var ErrEmptyFrame = fmt.Errorf("%w: empty frame", ErrMalformed)

// DecodeError describes a payload that could not be decoded.
type DecodeError struct {
	Tag Tag
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode %s: %v", e.Tag, e.Err)
}

// Unwrap exposes both ErrMalformed and the underlying read error.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// EncodeCommand serializes a command into a frame: tag byte then payload.
func EncodeCommand(c Command) []byte {
	e := NewEncoder()
	e.WriteByte(uint8(c.Tag()))
	c.encode(e)
	return e.Bytes()
}

// EncodeEvent serializes an event into a frame.
func EncodeEvent(ev Event) []byte {
	e := NewEncoder()
	e.WriteByte(uint8(ev.Tag()))
	ev.encode(e)
	return e.Bytes()
}

// DecodeEvent parses a server frame. An unknown tag is not an error: it
// yields an Unknown event carrying the raw payload. Trailing bytes after a
// fixed layout are ignored.
func DecodeEvent(frame []byte) (Event, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	tag := Tag(frame[0])
	decode, ok := eventDecoders[tag]
	if !ok {
		payload := make([]byte, len(frame)-1)
		copy(payload, frame[1:])
		return Unknown{ID: tag, Payload: payload}, nil
	}
	f := &fields{d: NewDecoder(frame[1:])}
	ev := decode(f)
	if f.err != nil {
		return nil, &DecodeError{Tag: tag, Err: f.err}
	}
	return ev, nil
}

// DecodeCommand parses a client frame. It is the server-side mirror of
// EncodeCommand. Unknown tags are reported as malformed.
func DecodeCommand(frame []byte) (Command, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	tag := Tag(frame[0])
	decode, ok := commandDecoders[tag]
	if !ok {
		return nil, &DecodeError{Tag: tag, Err: errors.New("unknown command")}
	}
	c, err := decode(NewDecoder(frame[1:]))
	if err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return c, nil
}
