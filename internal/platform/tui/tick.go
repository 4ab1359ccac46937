// Package tui is the terminal front end of the arena client: a Bubble Tea
// screen that shows the synced match and turns key presses into intents, and
// a Wish SSH server that hosts one client per session.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg asks the screen to pick up the latest rendered frame.
type TickMsg time.Time

// tickCmd returns a command that sends a TickMsg at the given rate.
func tickCmd(rate int) tea.Cmd {
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
