package wire

import (
	"io"
	"math"
)

// Decoder reads protocol fields from a byte buffer.
// Every read is bounds-checked and fails with io.ErrUnexpectedEOF.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The result references the decoder's
// buffer.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadRest returns every unread byte.
func (d *Decoder) ReadRest() []byte {
	b := d.buf[d.pos:]
	d.pos = len(d.buf)
	return b
}

// ReadBool reads a byte and reports whether it is non-zero.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadUint16 reads a big-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	if d.pos+2 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := uint16(d.buf[d.pos])<<8 | uint16(d.buf[d.pos+1])
	d.pos += 2
	return v, nil
}

// ReadInt16 reads a big-endian int16.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := uint32(d.buf[d.pos])<<24 | uint32(d.buf[d.pos+1])<<16 |
		uint32(d.buf[d.pos+2])<<8 | uint32(d.buf[d.pos+3])
	d.pos += 4
	return v, nil
}

// ReadFloat32 reads an IEEE 754 float32 (big-endian).
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFixedString reads a null-padded slot of size bytes.
func (d *Decoder) ReadFixedString(size int) (string, error) {
	b, err := d.ReadBytes(size)
	if err != nil {
		return "", err
	}
	return cString(b), nil
}

// ReadText reads the rest of the frame as text, stopping at the first null.
func (d *Decoder) ReadText() string {
	return cString(d.ReadRest())
}

// ReadColor reads three raw bytes. (0,0,0) decodes to an unset color.
func (d *Decoder) ReadColor() (Color, error) {
	b, err := d.ReadBytes(3)
	if err != nil {
		return Color{}, err
	}
	return ColorFromBytes(b[0], b[1], b[2]), nil
}

// ReadIDs reads one id per remaining byte. It returns nil when nothing is
// left.
func (d *Decoder) ReadIDs() []uint8 {
	rest := d.ReadRest()
	if len(rest) == 0 {
		return nil
	}
	ids := make([]uint8, len(rest))
	copy(ids, rest)
	return ids
}

// ReadCountedIDs reads n ids.
func (d *Decoder) ReadCountedIDs(n int) ([]uint8, error) {
	b, err := d.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	ids := make([]uint8, n)
	copy(ids, b)
	return ids, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
