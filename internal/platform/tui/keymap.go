package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vovakirdan/arena-sync/internal/registry"
)

// KeyMap defines the key bindings for the arena screen.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Kind    key.Binding
	Place   key.Binding
	Mark    key.Binding
	Unmark  key.Binding
	Sell    key.Binding
	Upgrade key.Binding
	Spawn   key.Binding
	Select  key.Binding
	Move    key.Binding
	Chat    key.Binding
	Resync  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Kind, k.Place, k.Move, k.Chat, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Kind, k.Place, k.Mark, k.Unmark, k.Sell, k.Upgrade, k.Spawn},
		{k.Select, k.Move, k.Chat, k.Resync},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "cursor down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "cursor left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "cursor right"),
		),
		Kind: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "building"),
		),
		Place: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "place"),
		),
		Mark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "mark building"),
		),
		Unmark: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear marks"),
		),
		Sell: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "sell"),
		),
		Upgrade: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upgrade"),
		),
		Spawn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle spawning"),
		),
		Select: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select units"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move units"),
		),
		Chat: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "chat"),
		),
		Resync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "resync"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// kindKeys maps the number row to building kinds.
var kindKeys = map[string]uint8{
	"1": registry.KindMine,
	"2": registry.KindBarracks,
	"3": registry.KindTurret,
	"4": registry.KindWall,
	"5": registry.KindHealer,
}
