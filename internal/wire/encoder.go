// Package wire implements the binary protocol spoken between the arena client
// and the game server.
//
// Every frame is a single tag byte followed by a positional payload. There is
// no schema on the wire: both sides must agree on the layout byte for byte.
// Multi-byte integers and floats are big-endian.
package wire

import "math"

// Encoder appends protocol fields to an internal buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with room for a typical frame.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteByte appends a single byte.
func (e *Encoder) WriteByte(b byte) {
	e.buf = append(e.buf, b)
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteBool appends 0x01 or 0x00.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
}

// WriteUint16 appends a uint16 in big-endian byte order.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteInt16 appends an int16 in big-endian byte order.
func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

// WriteUint32 appends a uint32 in big-endian byte order.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = append(e.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteFloat32 appends a float32 in IEEE 754 format (big-endian).
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFixedString appends s into a null-padded slot of exactly size bytes.
// s is truncated on a rune boundary first, so the slot never holds a split
// character.
func (e *Encoder) WriteFixedString(s string, size int) {
	t := TruncateUTF8(s, size)
	e.buf = append(e.buf, t...)
	for i := len(t); i < size; i++ {
		e.buf = append(e.buf, 0)
	}
}

// WriteText appends s truncated to max bytes with no length prefix and no
// padding. Used for trailing text fields that run to the end of the frame.
func (e *Encoder) WriteText(s string, max int) {
	e.buf = append(e.buf, TruncateUTF8(s, max)...)
}

// WriteColor appends a color as three raw bytes. An unset color is written
// as the (0,0,0) sentinel.
func (e *Encoder) WriteColor(c Color) {
	if !c.Set {
		e.buf = append(e.buf, 0, 0, 0)
		return
	}
	e.buf = append(e.buf, c.R, c.G, c.B)
}

// WriteIDs appends one byte per id.
func (e *Encoder) WriteIDs(ids []uint8) {
	e.buf = append(e.buf, ids...)
}
