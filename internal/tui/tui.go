// Package tui is the terminal front end: name entry, the room lobby and
// the live table view, driven by session snapshots.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/pokerroom/pokerroom/internal/api"
	"github.com/pokerroom/pokerroom/internal/channel"
	"github.com/pokerroom/pokerroom/internal/config"
	"github.com/pokerroom/pokerroom/internal/game"
	"github.com/pokerroom/pokerroom/internal/session"
)

const requestTimeout = 10 * time.Second

type screen int

const (
	screenName screen = iota
	screenLobby
	screenRoom
	screenTable
)

// Model is the Bubble Tea model for the poker client
type Model struct {
	logger  *log.Logger
	api     *api.Client
	channel *channel.Client
	cfg     *config.Config

	screen screen
	input  textinput.Model
	width  int
	height int

	player *api.Player
	rooms  []api.Room
	room   *api.Room

	sess    *session.Session
	snap    game.Snapshot
	updates chan game.Snapshot

	errText  string
	quitting bool
}

// Messages produced by network commands and session updates
type (
	errMsg           struct{ err error }
	playerCreatedMsg struct{ player *api.Player }
	roomsListedMsg   struct{ rooms []api.Room }
	roomJoinedMsg    struct{ room *api.Room }
	gameStartedMsg   struct{ start *api.GameStart }
	sessionReadyMsg  struct{}
	snapshotMsg      struct{ snap game.Snapshot }
)

// New creates the client model starting at the name-entry screen
func New(cfg *config.Config, apiClient *api.Client, ch *channel.Client, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter your name"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)

	m := &Model{
		logger:  logger.WithPrefix("tui"),
		api:     apiClient,
		channel: ch,
		cfg:     cfg,
		screen:  screenName,
		input:   ti,
		updates: make(chan game.Snapshot, 64),
	}
	if cfg.Player.Name != "" {
		m.input.SetValue(cfg.Player.Name)
	}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			if m.sess != nil {
				m.sess.Close()
			} else {
				m.channel.Cleanup()
			}
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			return m.handleSubmit()
		}

	case errMsg:
		m.errText = msg.err.Error()
		return m, nil

	case playerCreatedMsg:
		m.player = msg.player
		m.errText = ""
		m.screen = screenLobby
		m.input.SetValue("")
		m.input.Placeholder = "join <n> | new <name> | refresh | quit"
		return m, m.listRooms()

	case roomsListedMsg:
		m.rooms = msg.rooms
		m.errText = ""
		return m, nil

	case roomJoinedMsg:
		return m.enterRoom(msg.room)

	case gameStartedMsg:
		return m.enterTable(msg.start)

	case sessionReadyMsg:
		return m, nil

	case snapshotMsg:
		return m.applySnapshot(msg.snap)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit dispatches the entered command for the active screen
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if value == "" {
		return m, nil
	}

	switch m.screen {
	case screenName:
		return m, m.createPlayer(value)
	case screenLobby:
		return m.handleLobbyCommand(value)
	case screenRoom:
		return m.handleRoomCommand(value)
	case screenTable:
		return m.handleTableCommand(value)
	}
	return m, nil
}

func (m *Model) handleLobbyCommand(value string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(strings.ToLower(value))

	switch parts[0] {
	case "refresh", "r":
		return m, m.listRooms()
	case "new":
		if len(parts) < 2 {
			m.errText = "usage: new <room name>"
			return m, nil
		}
		return m, m.createRoom(strings.Join(strings.Fields(value)[1:], " "))
	case "quit", "q":
		m.quitting = true
		m.channel.Cleanup()
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)
	}

	// A bare number or "join <n>" joins by list position.
	target := parts[0]
	if target == "join" || target == "j" {
		if len(parts) < 2 {
			m.errText = "usage: join <room number>"
			return m, nil
		}
		target = parts[1]
	}
	n, err := strconv.Atoi(target)
	if err != nil || n < 1 || n > len(m.rooms) {
		m.errText = fmt.Sprintf("no such room: %s", target)
		return m, nil
	}
	return m, m.joinRoom(m.rooms[n-1].ID)
}

func (m *Model) handleRoomCommand(value string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(value) {
	case "start", "s":
		return m, m.startGame()
	case "leave", "l":
		if m.sess != nil {
			m.sess.Close()
			m.sess = nil
		}
		roomID := m.room.ID
		m.room = nil
		m.screen = screenLobby
		m.input.Placeholder = "join <n> | new <name> | refresh | quit"
		return m, tea.Batch(m.leaveRoom(roomID), m.listRooms())
	default:
		m.errText = "commands: start, leave"
		return m, nil
	}
}

func (m *Model) handleTableCommand(value string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(strings.ToLower(value))

	var (
		action game.Action
		amount float64
	)
	switch parts[0] {
	case "check":
		action = game.ActionCheck
	case "call":
		action = game.ActionCall
	case "fold":
		action = game.ActionFold
	case "allin", "all-in", "all_in":
		action = game.ActionAllIn
	case "raise":
		if len(parts) < 2 {
			m.errText = "usage: raise <amount>"
			return m, nil
		}
		n, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			m.errText = fmt.Sprintf("bad amount: %s", parts[1])
			return m, nil
		}
		action = game.ActionRaise
		amount = n
	default:
		m.errText = "commands: check, call, raise <amount>, fold, allin"
		return m, nil
	}

	m.errText = ""
	// Rejections surface through the next snapshot's message.
	_ = m.sess.SendAction(action, amount)
	return m, nil
}

// enterRoom builds a session for the joined room and starts it
func (m *Model) enterRoom(room *api.Room) (tea.Model, tea.Cmd) {
	m.room = room
	m.errText = ""
	m.screen = screenRoom
	m.input.Placeholder = "start | leave"

	m.sess = m.newSession(session.RoomInfo{
		ID:      room.ID,
		Name:    room.Name,
		Players: room.Players,
		Phase:   room.Phase,
	}, session.LocalPlayer{
		ID:    m.player.ID,
		Name:  m.player.Name,
		Chips: m.player.Chips,
	})
	m.snap = m.sess.Snapshot()

	return m, tea.Batch(m.startSession(), m.waitForUpdate())
}

// enterTable reopens the session with the dealt game data. The transition
// flag keeps the old teardown from killing the connection mid-handoff.
func (m *Model) enterTable(start *api.GameStart) (tea.Model, tea.Cmd) {
	local := session.LocalPlayer{ID: m.player.ID, Name: m.player.Name, Chips: m.player.Chips}
	for _, p := range start.Players {
		if p.ID == m.player.ID {
			local.Chips = p.Chips
			local.Cards = p.Cards
			break
		}
	}

	if m.sess != nil {
		m.sess.MarkTransition()
		m.sess.Close()
	}
	m.sess = m.newSession(session.RoomInfo{
		ID:      m.room.ID,
		Name:    m.room.Name,
		Players: start.Players,
		Phase:   start.Phase,
	}, local)

	m.snap = m.sess.Snapshot()
	m.errText = ""
	m.screen = screenTable
	m.input.Placeholder = "check | call | raise <amount> | fold | allin"

	return m, tea.Batch(m.startSession(), m.waitForUpdate())
}

func (m *Model) newSession(room session.RoomInfo, local session.LocalPlayer) *session.Session {
	return session.New(m.channel, room, local,
		session.WithLogger(m.logger),
		session.WithAdvancer(m.api),
		session.WithOnUpdate(m.pushUpdate),
	)
}

// pushUpdate feeds a session snapshot into the Bubble Tea loop. Updates
// beyond the buffer are dropped; a newer one always follows.
func (m *Model) pushUpdate(snap game.Snapshot) {
	select {
	case m.updates <- snap:
	default:
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: <-m.updates}
	}
}

// applySnapshot refreshes the view state and flips a waiting room over to
// the table once a hand is visibly underway.
func (m *Model) applySnapshot(snap game.Snapshot) (tea.Model, tea.Cmd) {
	m.snap = snap

	if m.screen == screenRoom && handUnderway(snap) {
		m.screen = screenTable
		m.input.Placeholder = "check | call | raise <amount> | fold | allin"
	}
	return m, m.waitForUpdate()
}

func handUnderway(snap game.Snapshot) bool {
	return snap.CurrentPlayer != "" || snap.Pot > 0 || len(snap.CommunityCards) > 0
}

// Network commands

func (m *Model) createPlayer(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		player, err := m.api.CreatePlayer(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return playerCreatedMsg{player}
	}
}

func (m *Model) listRooms() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rooms, err := m.api.ListRooms(ctx)
		if err != nil {
			return errMsg{err}
		}
		return roomsListedMsg{rooms}
	}
}

func (m *Model) createRoom(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		room, err := m.api.CreateRoom(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return roomJoinedMsg{room}
	}
}

func (m *Model) joinRoom(roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		room, err := m.api.JoinRoom(ctx, roomID, m.player.ID)
		if err != nil {
			return errMsg{err}
		}
		return roomJoinedMsg{room}
	}
}

func (m *Model) leaveRoom(roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.api.LeaveRoom(ctx, roomID, m.player.ID); err != nil {
			m.logger.Warn("failed to leave room", "room", roomID, "error", err)
		}
		return nil
	}
}

func (m *Model) startGame() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		start, err := m.api.StartGame(ctx, m.room.ID)
		if err != nil {
			return errMsg{err}
		}
		return gameStartedMsg{start}
	}
}

func (m *Model) startSession() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout())
		defer cancel()
		if err := sess.Start(ctx); err != nil {
			return errMsg{fmt.Errorf("connection failed, commands queued: %w", err)}
		}
		return sessionReadyMsg{}
	}
}

// View renders the active screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.screen {
	case screenName:
		content = m.viewName()
	case screenLobby:
		content = m.viewLobby()
	case screenRoom:
		content = m.viewRoom()
	case screenTable:
		content = m.viewTable()
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" pokerroom "))
	b.WriteString("\n\n")
	b.WriteString(content)
	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("Error: " + m.errText))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Enter to submit • Ctrl+C to quit"))
	return b.String()
}

func (m *Model) viewName() string {
	return TitleStyle.Render("Welcome! What should we call you?")
}

func (m *Model) viewLobby() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Lobby — playing as %s ($%.0f)", m.player.Name, m.player.Chips)))
	b.WriteString("\n\n")

	if len(m.rooms) == 0 {
		b.WriteString(InfoStyle.Render("No rooms yet. Create one with: new <name>"))
		return b.String()
	}

	for i, room := range m.rooms {
		b.WriteString(fmt.Sprintf("  %d. %s (%d players, %s)\n", i+1, room.Name, len(room.Players), room.Phase))
	}
	return b.String()
}

func (m *Model) viewRoom() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Room: " + m.room.Name))
	b.WriteString("\n\n")

	for _, p := range m.snap.Players {
		marker := "  "
		if p.ID == m.player.ID {
			marker = SuccessStyle.Render("* ")
		}
		b.WriteString(fmt.Sprintf("%s%s ($%.0f)\n", marker, p.Name, p.Chips))
	}

	b.WriteString("\n")
	b.WriteString(MessageStyle.Render(m.snap.Message))
	return b.String()
}

func (m *Model) viewTable() string {
	var b strings.Builder
	snap := m.snap

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s — %s", m.room.Name, snap.Phase)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Board: %s   Pot: %s", formatCards(snap.CommunityCards),
		MessageStyle.Render(fmt.Sprintf("$%.2f", snap.Pot))))
	if snap.CurrentBet > 0 {
		b.WriteString(fmt.Sprintf("   Bet: $%.2f", snap.CurrentBet))
	}
	b.WriteString("\n\n")

	for _, p := range snap.Players {
		line := fmt.Sprintf("%s ($%.2f)", p.Name, p.Chips)
		switch {
		case p.ID == snap.CurrentPlayer:
			line = TurnStyle.Render("→ " + line)
		case p.Status == game.StatusFolded:
			line = InfoStyle.Render("  " + line + " folded")
		case p.Status == game.StatusAllIn:
			line = MessageStyle.Render("  " + line + " all-in")
		default:
			line = "  " + line
		}
		if p.ID == m.player.ID {
			line += "  " + formatCards(p.Cards)
		}
		if p.LastAction != nil {
			line += InfoStyle.Render(fmt.Sprintf("  (%s)", p.LastAction.Action))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if snap.Message != "" {
		if strings.HasPrefix(snap.Message, "Error:") {
			b.WriteString(ErrorStyle.Render(snap.Message))
		} else {
			b.WriteString(MessageStyle.Render(snap.Message))
		}
		b.WriteString("\n")
	}

	if m.sess != nil && m.sess.IsMyTurn() {
		b.WriteString(TurnStyle.Render("Your turn."))
	} else {
		b.WriteString(InfoStyle.Render("Waiting..."))
	}
	return b.String()
}
