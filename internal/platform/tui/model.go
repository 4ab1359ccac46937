package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arena-sync/internal/core"
	"github.com/vovakirdan/arena-sync/internal/hooks"
	"github.com/vovakirdan/arena-sync/internal/network"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/state"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

// Layout constants
const (
	minWidthForSidebar = 80
	sidebarWidth       = 30
	chatLines          = 6
	noticeTTL          = 4 * time.Second
)

var (
	// ErrNothingHere is reported when a building command has no target under
	// the cursor.
	ErrNothingHere = errors.New("no building of yours under the cursor")
	errStopped     = errors.New("client stopped")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Intents is the part of the network manager the screen drives.
// *network.Manager implements it.
type Intents interface {
	Do(fn func(*network.Manager)) bool
	Hub() *hooks.Hub
}

type notificationMsg struct{ n hooks.Notification }

type intentMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model for the arena screen.
type Model struct {
	intents  Intents
	view     *ArenaView
	sub      *hooks.Subscription
	keys     KeyMap
	help     help.Model
	chat     textinput.Model
	roster   table.Model
	tickRate int

	frame    Frame
	status   hooks.Status
	open     bool
	attempt  int
	kind     uint8
	chatting bool
	notice   string
	noticeAt time.Time
	width    int
	height   int
	quitting bool
}

// NewModel creates the arena screen. It subscribes to the manager's hub;
// the subscription is released when the model quits.
func NewModel(intents Intents, view *ArenaView, width, height, tickRate int) Model {
	if tickRate <= 0 {
		tickRate = 30
	}
	chat := textinput.New()
	chat.Placeholder = "say something"
	chat.CharLimit = wire.ChatSize
	chat.Prompt = "> "

	h := help.New()
	h.ShowAll = false

	m := Model{
		intents:  intents,
		view:     view,
		sub:      intents.Hub().Subscribe(hooks.DefaultBuffer),
		keys:     DefaultKeyMap(),
		help:     h,
		chat:     chat,
		tickRate: tickRate,
		kind:     registry.KindMine,
	}
	m.roster = m.createTable()
	m.resize(width, height)
	return m
}

func (m *Model) createTable() table.Model {
	columns := []table.Column{
		{Title: "Base", Width: 12},
		{Title: "HP", Width: 4},
		{Title: "Bld", Width: 3},
		{Title: "Units", Width: 5},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(6),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	mapW, mapH := width, height-4
	if width >= minWidthForSidebar {
		mapW = width - sidebarWidth - 1
	}
	m.view.Resize(max(mapW, 3), max(mapH, 3))
	m.help.Width = width
	m.chat.Width = max(width-4, 10)
}

// Init starts the refresh loop and the notification pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tickRate), waitNotification(m.sub))
}

func waitNotification(sub *hooks.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-sub.C():
			return notificationMsg{n: n}
		case <-sub.Done():
			return nil
		}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.chatting {
			return m.handleChatKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		m.frame = m.view.Frame()
		m.roster.SetRows(rosterRows(m.frame.Roster))
		if m.notice != "" && time.Since(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, tickCmd(m.tickRate)

	case notificationMsg:
		m.handleNotification(msg.n)
		return m, waitNotification(m.sub)

	case tea.FocusMsg:
		// The server may have moved on while the terminal was in the
		// background.
		return m, m.intent("resync", func(n *network.Manager) error {
			if err := n.Resync(); !errors.Is(err, network.ErrNotOpen) {
				return err
			}
			return nil
		})

	case intentMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("%s: %v", msg.name, msg.err))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sub.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.view.MoveCursor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.view.MoveCursor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.view.MoveCursor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.view.MoveCursor(1, 0)
	case key.Matches(msg, m.keys.Kind):
		m.kind = kindKeys[msg.String()]
	case key.Matches(msg, m.keys.Place):
		kind, pos := m.kind, m.view.CursorWorld()
		return m, m.intent("place", func(n *network.Manager) error {
			return n.PlaceBuilding(kind, pos)
		})
	case key.Matches(msg, m.keys.Mark):
		return m, m.onBuilding("mark", func(n *network.Manager, b *state.Building) error {
			n.SelectBuildings(b.Owner, append(n.Store().SelectedBuildings(b.Owner), b.ID))
			return nil
		})
	case key.Matches(msg, m.keys.Unmark):
		return m, m.intent("unmark", func(n *network.Manager) error {
			n.Store().ClearSelection()
			return nil
		})
	case key.Matches(msg, m.keys.Sell):
		return m, m.onMarked("sell", func(n *network.Manager, owner state.Owner, ids []uint8, _ uint8) error {
			return n.RemoveBuildings(owner, ids)
		})
	case key.Matches(msg, m.keys.Upgrade):
		return m, m.onMarked("upgrade", func(n *network.Manager, owner state.Owner, ids []uint8, variant uint8) error {
			return n.UpgradeBuildings(owner, variant+1, ids)
		})
	case key.Matches(msg, m.keys.Spawn):
		return m, m.onBuilding("spawn", func(n *network.Manager, b *state.Building) error {
			if b.Kind != registry.KindBarracks {
				return fmt.Errorf("%w: not a barracks", ErrNothingHere)
			}
			return n.SetUnitSpawning(b.ID, !b.Spawning)
		})
	case key.Matches(msg, m.keys.Select):
		return m, m.intent("select", func(n *network.Manager) error {
			base, ok := n.Store().LocalBase()
			if !ok {
				return state.ErrNotJoined
			}
			n.SelectUnits(base.Units.IDs())
			return nil
		})
	case key.Matches(msg, m.keys.Move):
		pos := m.view.CursorWorld()
		return m, m.intent("move", func(n *network.Manager) error {
			return n.MoveUnits(pos, nil)
		})
	case key.Matches(msg, m.keys.Resync):
		return m, m.intent("resync", func(n *network.Manager) error {
			return n.Resync()
		})
	case key.Matches(msg, m.keys.Chat):
		m.chatting = true
		cmd := m.chat.Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.chatting = false
		m.chat.Blur()
		m.chat.Reset()
		return m, nil
	case tea.KeyEnter:
		text := m.chat.Value()
		m.chatting = false
		m.chat.Blur()
		m.chat.Reset()
		return m, m.intent("chat", func(n *network.Manager) error {
			return n.SendChat(text)
		})
	case tea.KeyCtrlC:
		m.quitting = true
		m.sub.Close()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

// intent runs fn on the manager goroutine and reports its error back.
func (m Model) intent(name string, fn func(*network.Manager) error) tea.Cmd {
	intents := m.intents
	return func() tea.Msg {
		res := make(chan error, 1)
		if !intents.Do(func(n *network.Manager) { res <- fn(n) }) {
			return intentMsg{name: name, err: errStopped}
		}
		return intentMsg{name: name, err: <-res}
	}
}

// onBuilding runs fn on the local building under the cursor.
func (m Model) onBuilding(name string, fn func(*network.Manager, *state.Building) error) tea.Cmd {
	pos, reach := m.view.CursorWorld(), m.view.CellSize()
	return m.intent(name, func(n *network.Manager) error {
		b, ok := buildingNear(n.Store(), pos, reach)
		if !ok {
			return ErrNothingHere
		}
		return fn(n, b)
	})
}

// onMarked runs fn on the marked buildings, or on the building under the
// cursor when nothing is marked. variant is the lowest tier among the targets.
func (m Model) onMarked(name string, fn func(n *network.Manager, owner state.Owner, ids []uint8, variant uint8) error) tea.Cmd {
	pos, reach := m.view.CursorWorld(), m.view.CellSize()
	return m.intent(name, func(n *network.Manager) error {
		store := n.Store()
		for _, owner := range commandable(store) {
			ids := store.SelectedBuildings(owner)
			if len(ids) == 0 {
				continue
			}
			base, _ := store.Base(owner)
			variant := uint8(255)
			for _, id := range ids {
				if b, ok := base.Buildings.Get(id); ok && b.Variant < variant {
					variant = b.Variant
				}
			}
			return fn(n, owner, ids, variant)
		}
		b, ok := buildingNear(store, pos, reach)
		if !ok {
			return ErrNothingHere
		}
		return fn(n, b.Owner, []uint8{b.ID}, b.Variant)
	})
}

// commandable lists the local player and the neutral bases it controls.
func commandable(store *state.Store) []state.Owner {
	if !store.HasLocal {
		return nil
	}
	owners := []state.Owner{state.PlayerOwner(store.LocalID)}
	for _, id := range store.ControlledNeutral() {
		owners = append(owners, state.NeutralOwner(id))
	}
	return owners
}

// buildingNear returns the local player's building closest to pos within
// reach, including those of neutral bases the player controls.
func buildingNear(store *state.Store, pos core.Vec, reach float64) (*state.Building, bool) {
	var best *state.Building
	bestDist := reach
	consider := func(_ uint8, b *state.Building) {
		if d := b.Pos.Dist(pos); d <= bestDist {
			best, bestDist = b, d
		}
	}
	for _, owner := range commandable(store) {
		if b, ok := store.Base(owner); ok {
			b.Buildings.Each(consider)
		}
	}
	return best, best != nil
}

func (m *Model) handleNotification(n hooks.Notification) {
	switch n := n.(type) {
	case hooks.Status:
		m.status = n
		m.open = n.Open
	case hooks.ConnectionChanged:
		m.open = n.Open
		m.attempt = n.Attempt
		if n.Open {
			m.setNotice("connected to " + n.URL)
		} else {
			m.setNotice("connection lost, reconnecting")
		}
	case hooks.Joined:
		m.setNotice(fmt.Sprintf("joined as player %d", n.LocalID))
	case hooks.PlacementRejected:
		name := fmt.Sprintf("kind %d", n.Kind)
		if b, ok := registry.BuildingKind(n.Kind); ok {
			name = b.Title
		}
		m.setNotice(fmt.Sprintf("%s rejected: %s", name, n.Reason))
	case hooks.ChatReceived:
		// chat lines arrive with the next status
	case hooks.SkinReady:
	}
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeAt = time.Now()
}

func rosterRows(roster []RosterRow) []table.Row {
	rows := make([]table.Row, 0, len(roster))
	for _, r := range roster {
		name := r.Name
		switch {
		case r.Neutral:
			name = "neutral"
		case r.Local:
			name = "*" + name
		}
		rows = append(rows, table.Row{
			wire.TruncateUTF8(name, 12),
			fmt.Sprintf("%d", r.Health),
			fmt.Sprintf("%d", r.Buildings),
			fmt.Sprintf("%d", r.Units),
		})
	}
	return rows
}

// View renders the arena screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	body := m.frame.Map
	if m.width >= minWidthForSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.sidebar())
	}
	b.WriteString(body)
	b.WriteString("\n")

	switch {
	case m.chatting:
		b.WriteString(m.chat.View())
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) header() string {
	conn := okStyle.Render("● online")
	if !m.open {
		conn = warnStyle.Render(fmt.Sprintf("○ connecting (attempt %d)", m.attempt))
	}
	name := m.status.LocalName
	if name == "" {
		name = "spectating"
	}
	building := "?"
	if bh, ok := registry.BuildingKind(m.kind); ok {
		building = fmt.Sprintf("%s %dg", bh.Title, bh.Cost)
	}
	pending := ""
	if m.status.Pending {
		pending = dimStyle.Render("  placing…")
	}
	return fmt.Sprintf("%s  %s  gold %d  tick %d  [%s]  %s%s",
		titleStyle.Render("ARENA"), name, m.status.Gold, m.status.Tick, building, conn, pending)
}

func (m Model) sidebar() string {
	var b strings.Builder
	b.WriteString(m.roster.View())
	b.WriteString("\n\n")

	lines := m.status.Chat
	if len(lines) > chatLines {
		lines = lines[len(lines)-chatLines:]
	}
	if len(lines) == 0 {
		b.WriteString(dimStyle.Render("no chat yet"))
	}
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		who := lipgloss.NewStyle().Bold(true)
		if l.Color != "" {
			who = who.Foreground(lipgloss.Color(l.Color))
		}
		b.WriteString(who.Render(wire.TruncateUTF8(l.Name, 10)))
		b.WriteString(": ")
		b.WriteString(wire.TruncateUTF8(l.Text, sidebarWidth-16))
	}
	return panelStyle.Width(sidebarWidth - 4).Render(b.String())
}

// Run drives the arena screen until the user quits or ctx ends. run is the
// client loop; it is cancelled when the screen exits.
func Run(ctx context.Context, intents Intents, view *ArenaView, run func(context.Context) error, width, height, tickRate int, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- run(ctx) }()

	model := NewModel(intents, view, width, height, tickRate)
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx)}, opts...)...)

	_, err := p.Run()
	cancel()
	model.sub.Close()
	runErr := <-errc
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	return errors.Join(err, runErr)
}
