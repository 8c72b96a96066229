package tui

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/pokerroom/internal/api"
	"github.com/pokerroom/pokerroom/internal/channel"
	"github.com/pokerroom/pokerroom/internal/config"
	"github.com/pokerroom/pokerroom/internal/game"
	"github.com/pokerroom/pokerroom/internal/session"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	ch := channel.New("ws://test",
		channel.WithLogger(log.New(io.Discard)),
		channel.WithDialer(func(ctx context.Context, rawURL string) (channel.Transport, error) {
			return nil, errors.New("offline")
		}),
	)
	return New(config.Default(), api.New("http://test"), ch, log.New(io.Discard))
}

func TestIsRedCard(t *testing.T) {
	assert.True(t, isRedCard("AH"))
	assert.True(t, isRedCard("10D"))
	assert.True(t, isRedCard("K♦"))
	assert.False(t, isRedCard("AS"))
	assert.False(t, isRedCard("QC"))
	assert.False(t, isRedCard(""))
}

func TestPlayerCreatedMovesToLobby(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(playerCreatedMsg{player: &api.Player{ID: "p1", Name: "ana", Chips: 1000}})

	assert.Equal(t, screenLobby, m.screen)
	assert.NotNil(t, cmd, "entering the lobby triggers a room list fetch")
}

func TestLobbyRejectsUnknownRoomNumber(t *testing.T) {
	m := newTestModel(t)
	m.player = &api.Player{ID: "p1", Name: "ana"}
	m.screen = screenLobby

	m.input.SetValue("join 3")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Contains(t, m.errText, "no such room")
}

func TestJoinRoomEntersRoomScreen(t *testing.T) {
	m := newTestModel(t)
	m.player = &api.Player{ID: "p1", Name: "ana", Chips: 1000}
	m.screen = screenLobby

	_, cmd := m.Update(roomJoinedMsg{room: &api.Room{
		ID:      "r1",
		Name:    "high stakes",
		Players: []game.Player{{ID: "p1", Name: "ana", Chips: 1000, Status: game.StatusActive}},
		Phase:   game.PreFlop,
	}})

	assert.Equal(t, screenRoom, m.screen)
	require.NotNil(t, m.sess)
	assert.NotNil(t, cmd, "joining starts the session and the update listener")
}

func TestSnapshotFlipsRoomToTable(t *testing.T) {
	m := newTestModel(t)
	m.player = &api.Player{ID: "p1", Name: "ana"}
	m.room = &api.Room{ID: "r1", Name: "high stakes"}
	m.screen = screenRoom

	_, _ = m.Update(snapshotMsg{snap: game.Snapshot{RoomID: "r1", Pot: 30, Phase: game.PreFlop}})

	assert.Equal(t, screenTable, m.screen)
	assert.Equal(t, 30.0, m.snap.Pot)
}

func TestSnapshotWithoutHandKeepsRoomScreen(t *testing.T) {
	m := newTestModel(t)
	m.player = &api.Player{ID: "p1", Name: "ana"}
	m.room = &api.Room{ID: "r1", Name: "high stakes"}
	m.screen = screenRoom

	_, _ = m.Update(snapshotMsg{snap: game.Snapshot{RoomID: "r1", Message: "Waiting for players..."}})

	assert.Equal(t, screenRoom, m.screen)
}

func TestTableCommandParsing(t *testing.T) {
	m := newTestModel(t)
	m.player = &api.Player{ID: "p1", Name: "ana", Chips: 1000}
	m.room = &api.Room{ID: "r1", Name: "high stakes"}
	m.screen = screenTable
	m.sess = session.New(m.channel,
		session.RoomInfo{ID: "r1", Phase: game.PreFlop, Players: []game.Player{
			{ID: "p1", Name: "ana", Chips: 1000, Status: game.StatusActive},
		}},
		session.LocalPlayer{ID: "p1", Name: "ana", Chips: 1000},
		session.WithLogger(log.New(io.Discard)),
	)

	m.input.SetValue("raise")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.errText, "usage: raise")

	m.input.SetValue("raise ten")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.errText, "bad amount")

	m.input.SetValue("shove")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.errText, "commands:")

	m.input.SetValue("check")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.errText)
}

func TestErrMsgIsDisplayed(t *testing.T) {
	m := newTestModel(t)

	_, _ = m.Update(errMsg{errors.New("name already taken")})
	assert.Equal(t, "name already taken", m.errText)
}
