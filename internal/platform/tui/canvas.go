package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one character of the canvas with its foreground color. An empty
// color means the terminal default.
type Cell struct {
	Rune  rune
	Color lipgloss.Color
}

// Canvas is a 2D character buffer the arena is projected onto.
type Canvas struct {
	width  int
	height int
	cells  [][]Cell
}

// NewCanvas creates a blank canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Width returns the canvas width in characters.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in characters.
func (c *Canvas) Height() int { return c.height }

// Resize changes the dimensions and clears the canvas.
func (c *Canvas) Resize(width, height int) {
	c.width = max(width, 0)
	c.height = max(height, 0)
	c.cells = make([][]Cell, c.height)
	for y := range c.cells {
		c.cells[y] = make([]Cell, c.width)
	}
	c.Clear()
}

// Clear fills the canvas with blanks.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = Cell{Rune: ' '}
		}
	}
}

// Set places a rune. Out-of-bounds coordinates are ignored.
func (c *Canvas) Set(x, y int, r rune, color lipgloss.Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y][x] = Cell{Rune: r, Color: color}
}

// Get returns the cell at (x, y), or a blank outside the canvas.
func (c *Canvas) Get(x, y int) Cell {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Cell{Rune: ' '}
	}
	return c.cells[y][x]
}

// DrawText writes text starting at (x, y), clipped at the edges.
func (c *Canvas) DrawText(x, y int, text string, color lipgloss.Color) {
	i := 0
	for _, r := range text {
		c.Set(x+i, y, r, color)
		i++
	}
}

// DrawBox outlines the rectangle with box-drawing characters.
func (c *Canvas) DrawBox(x, y, w, h int, color lipgloss.Color) {
	if w < 2 || h < 2 {
		return
	}
	right, bottom := x+w-1, y+h-1
	c.Set(x, y, '┌', color)
	c.Set(right, y, '┐', color)
	c.Set(x, bottom, '└', color)
	c.Set(right, bottom, '┘', color)
	for i := x + 1; i < right; i++ {
		c.Set(i, y, '─', color)
		c.Set(i, bottom, '─', color)
	}
	for j := y + 1; j < bottom; j++ {
		c.Set(x, j, '│', color)
		c.Set(right, j, '│', color)
	}
}

// String returns the canvas as plain text, rows joined with newlines.
func (c *Canvas) String() string {
	var sb strings.Builder
	sb.Grow(c.width*c.height + c.height)
	for y := range c.cells {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for _, cell := range c.cells[y] {
			sb.WriteRune(cell.Rune)
		}
	}
	return sb.String()
}

// Render returns the canvas styled with lipgloss. Adjacent cells of the same
// color share one style run to keep escape sequences down.
func (c *Canvas) Render() string {
	var sb strings.Builder
	sb.Grow(c.width*c.height*2 + c.height)

	for y := range c.cells {
		if y > 0 {
			sb.WriteRune('\n')
		}
		row := c.cells[y]
		for x := 0; x < len(row); {
			color := row[x].Color
			var run strings.Builder
			for x < len(row) && row[x].Color == color {
				run.WriteRune(row[x].Rune)
				x++
			}
			if color == "" {
				sb.WriteString(run.String())
				continue
			}
			sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(run.String()))
		}
	}
	return sb.String()
}
