package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewCanvas(t *testing.T) {
	c := NewCanvas(80, 24)

	if c.Width() != 80 || c.Height() != 24 {
		t.Errorf("NewCanvas(80, 24) is %dx%d", c.Width(), c.Height())
	}
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if c.Get(x, y).Rune != ' ' {
				t.Fatalf("New canvas should be blank, got %q at (%d, %d)", c.Get(x, y).Rune, x, y)
			}
		}
	}
}

func TestCanvasSetGet(t *testing.T) {
	c := NewCanvas(10, 10)
	red := lipgloss.Color("1")

	c.Set(5, 5, 'X', red)
	if got := c.Get(5, 5); got.Rune != 'X' || got.Color != red {
		t.Errorf("Get(5, 5) = %+v, expected X in red", got)
	}

	// Out of bounds should be silent
	c.Set(-1, 0, 'A', "")
	c.Set(100, 0, 'A', "")
	c.Set(0, -1, 'A', "")
	c.Set(0, 100, 'A', "")

	if c.Get(-1, 0).Rune != ' ' || c.Get(100, 0).Rune != ' ' {
		t.Error("Out of bounds Get should return a blank")
	}
}

func TestCanvasDrawText(t *testing.T) {
	c := NewCanvas(20, 5)
	c.DrawText(2, 1, "Héllo", "")

	for i, ch := range []rune("Héllo") {
		if c.Get(2+i, 1).Rune != ch {
			t.Errorf("DrawText: expected %q at (%d, 1), got %q", ch, 2+i, c.Get(2+i, 1).Rune)
		}
	}

	// Only "He" fits
	c.DrawText(18, 0, "Hello", "")
	if c.Get(18, 0).Rune != 'H' || c.Get(19, 0).Rune != 'e' {
		t.Error("Text should be clipped at right boundary")
	}
}

func TestCanvasDrawBox(t *testing.T) {
	c := NewCanvas(10, 10)
	c.DrawBox(1, 1, 5, 4, "")

	corners := map[[2]int]rune{
		{1, 1}: '┌',
		{5, 1}: '┐',
		{1, 4}: '└',
		{5, 4}: '┘',
	}
	for pos, want := range corners {
		if got := c.Get(pos[0], pos[1]).Rune; got != want {
			t.Errorf("corner at %v = %q, expected %q", pos, got, want)
		}
	}
	for x := 2; x < 5; x++ {
		if c.Get(x, 1).Rune != '─' || c.Get(x, 4).Rune != '─' {
			t.Errorf("horizontal edge missing at x=%d", x)
		}
	}
	for y := 2; y < 4; y++ {
		if c.Get(1, y).Rune != '│' || c.Get(5, y).Rune != '│' {
			t.Errorf("vertical edge missing at y=%d", y)
		}
	}
	if c.Get(3, 2).Rune != ' ' {
		t.Error("DrawBox should not fill the inside")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(5, 3)
	c.DrawText(0, 0, "AAAAA", "")
	c.DrawText(0, 1, "BBBBB", lipgloss.Color("2"))
	c.DrawText(0, 2, "CCCCC", "")

	expected := "AAAAA\nBBBBB\nCCCCC"
	if got := c.String(); got != expected {
		t.Errorf("String() = %q, expected %q", got, expected)
	}
}

func TestCanvasRenderKeepsText(t *testing.T) {
	c := NewCanvas(6, 2)
	c.DrawText(0, 0, "ab", lipgloss.Color("1"))
	c.DrawText(2, 0, "cd", lipgloss.Color("2"))
	c.DrawText(0, 1, "plain", "")

	out := c.Render()
	if lines := strings.Split(out, "\n"); len(lines) != 2 {
		t.Fatalf("Render() produced %d lines, expected 2", len(lines))
	}
	for _, want := range []string{"ab", "cd", "plain"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() lost %q: %q", want, out)
		}
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(10, 10)
	c.DrawText(0, 0, "Hello", "")

	c.Resize(8, 4)
	if c.Width() != 8 || c.Height() != 4 {
		t.Errorf("After resize, dimensions should be 8x4, got %dx%d", c.Width(), c.Height())
	}
	if c.Get(0, 0).Rune != ' ' {
		t.Error("Resize should clear the canvas")
	}

	c.Resize(-1, 3)
	if c.Width() != 0 {
		t.Errorf("negative width should clamp to 0, got %d", c.Width())
	}
}
