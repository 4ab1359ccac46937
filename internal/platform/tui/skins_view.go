package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arena-sync/internal/skins"
	"github.com/vovakirdan/arena-sync/internal/storage"
)

// SkinStore is the persistence the skin browser reads and edits.
// *storage.Store implements it.
type SkinStore interface {
	Entries(bucket string) ([]storage.Entry, error)
	Delete(bucket, key string) error
	Clear(bucket string) (int64, error)
}

// SkinKeyMap defines the key bindings for the skin browser.
type SkinKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k SkinKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Delete, k.Clear, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k SkinKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Delete, k.Clear, k.Quit}}
}

// DefaultSkinKeyMap returns default key bindings.
func DefaultSkinKeyMap() SkinKeyMap {
	return SkinKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "forget skin"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// SkinBrowserModel lists the cached skins.
type SkinBrowserModel struct {
	store    SkinStore
	entries  []storage.Entry
	table    table.Model
	help     help.Model
	keys     SkinKeyMap
	err      error
	width    int
	height   int
	quitting bool
}

// NewSkinBrowserModel creates the browser and loads the cache contents.
func NewSkinBrowserModel(store SkinStore, width, height int) SkinBrowserModel {
	m := SkinBrowserModel{
		store:  store,
		help:   help.New(),
		keys:   DefaultSkinKeyMap(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.reload()
	return m
}

func (m *SkinBrowserModel) createTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Skin", Width: 6},
			{Title: "Category", Width: 10},
			{Title: "Bytes", Width: 8},
			{Title: "Updated", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m *SkinBrowserModel) reload() {
	entries, err := m.store.Entries(skins.BucketSkins)
	m.entries, m.err = entries, err
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		category := "?"
		if id, err := strconv.ParseUint(e.Key, 10, 8); err == nil {
			category = skins.CategoryOf(uint8(id)).String()
		}
		rows = append(rows, table.Row{
			e.Key,
			category,
			strconv.Itoa(e.Size),
			e.UpdatedAt.Format("Jan 02 15:04"),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.GotoBottom()
	}
}

// Init initializes the browser.
func (m SkinBrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m SkinBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Delete):
			if i := m.table.Cursor(); i >= 0 && i < len(m.entries) {
				m.err = m.store.Delete(skins.BucketSkins, m.entries[i].Key)
				m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			_, m.err = m.store.Clear(skins.BucketSkins)
			m.reload()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.reload()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m SkinBrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("SKIN CACHE - %d cached", len(m.entries))))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 2)
		b.WriteString(panelStyle.Render(empty.Render("No custom skins cached yet.")))
	} else {
		b.WriteString(panelStyle.Render(m.table.View()))
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(warnStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// RunSkinBrowser runs the skin browser until the user quits.
func RunSkinBrowser(store SkinStore, width, height int) error {
	p := tea.NewProgram(NewSkinBrowserModel(store, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
