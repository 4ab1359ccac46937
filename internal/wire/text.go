package wire

import "unicode/utf8"

// Field capacities in bytes.
const (
	NameSize = 12
	ChatSize = 64
)

// TruncateUTF8 shortens s to at most max bytes without splitting a
// multi-byte character. Invalid UTF-8 bytes count as one byte each.
func TruncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > max {
			break
		}
		cut += size
	}
	return s[:cut]
}

// Color is an RGB triple. Set is false for the (0,0,0) sentinel, which means
// "no color override" rather than black.
type Color struct {
	R, G, B uint8
	Set     bool
}

// RGB returns a set color.
func RGB(r, g, b uint8) Color {
	return ColorFromBytes(r, g, b)
}

// ColorFromBytes builds a color from its wire bytes.
func ColorFromBytes(r, g, b uint8) Color {
	if r == 0 && g == 0 && b == 0 {
		return Color{}
	}
	return Color{R: r, G: g, B: b, Set: true}
}

// Hex returns the color as #rrggbb, or "" when unset.
func (c Color) Hex() string {
	if !c.Set {
		return ""
	}
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		out[1+i*2] = digits[v>>4]
		out[2+i*2] = digits[v&0x0f]
	}
	return string(out)
}
