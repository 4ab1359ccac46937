package wire

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{"short ascii", "Ada", 12, "Ada"},
		{"exact", "abcdefghijkl", 12, "abcdefghijkl"},
		{"thirteen ascii bytes", "abcdefghijklm", 12, "abcdefghijkl"},
		{"multibyte on boundary", "ééééééé", 12, "éééééé"},
		{"multibyte split avoided", "aééééééé", 12, "aééééé"},
		{"four byte rune", "abcdefghij😀", 12, "abcdefghij"},
		{"zero max", "abc", 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateUTF8(tc.in, tc.max)
			if got != tc.expected {
				t.Errorf("TruncateUTF8(%q, %d) = %q, expected %q", tc.in, tc.max, got, tc.expected)
			}
			if len(got) > tc.max {
				t.Errorf("result is %d bytes, limit %d", len(got), tc.max)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result %q is not valid UTF-8", got)
			}
		})
	}
}

func TestFixedStringSlot(t *testing.T) {
	e := NewEncoder()
	e.WriteFixedString("abcdefghijklm", NameSize)
	if e.Len() != NameSize {
		t.Fatalf("Len() = %d, expected %d", e.Len(), NameSize)
	}
	got, err := NewDecoder(e.Bytes()).ReadFixedString(NameSize)
	if err != nil {
		t.Fatalf("ReadFixedString() failed: %v", err)
	}
	if got != "abcdefghijkl" {
		t.Errorf("ReadFixedString() = %q", got)
	}
}

func TestChatTruncation(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	frame := EncodeCommand(ChatMessage{Text: string(long)})
	if len(frame) != 1+ChatSize {
		t.Errorf("len(frame) = %d, expected %d", len(frame), 1+ChatSize)
	}
}

func TestColorSentinel(t *testing.T) {
	if c := ColorFromBytes(0, 0, 0); c.Set {
		t.Error("(0,0,0) should decode to an unset color")
	}
	if c := RGB(0, 0, 1); !c.Set {
		t.Error("(0,0,1) should be a set color")
	}
	if hex := RGB(255, 16, 1).Hex(); hex != "#ff1001" {
		t.Errorf("Hex() = %q, expected #ff1001", hex)
	}
	if hex := (Color{}).Hex(); hex != "" {
		t.Errorf("Hex() of unset color = %q, expected empty", hex)
	}

	e := NewEncoder()
	e.WriteColor(Color{R: 9, G: 9, B: 9})
	if got := e.Bytes(); got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Errorf("unset color encoded as % x, expected zeros", got)
	}
}
