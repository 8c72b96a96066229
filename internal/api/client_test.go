package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/pokerroom/internal/game"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithLogger(log.New(io.Discard)))
}

func TestCreatePlayer(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/players", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana", body["name"])

		_, _ = w.Write([]byte(`{"id": 42, "name": "ana", "chips": 1000}`))
	})

	player, err := c.CreatePlayer(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "42", player.ID) // numeric ids normalize to strings
	assert.Equal(t, "ana", player.Name)
	assert.Equal(t, 1000.0, player.Chips)
}

func TestErrorMessageFromBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message": "name already taken"}`))
	})

	_, err := c.CreatePlayer(context.Background(), "ana")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "name already taken", apiErr.Message)
}

func TestErrorFallbackMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	})

	_, err := c.ListRooms(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed to list rooms", apiErr.Message)
}

func TestListRooms(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "r1", "name": "high stakes", "players": [{"id": 1, "name": "ana", "chips": 500, "status": "active"}], "game_phase": "flop"},
			{"id": "r2", "name": "casual", "players": []}
		]`))
	})

	rooms, err := c.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, "high stakes", rooms[0].Name)
	assert.Equal(t, game.Flop, rooms[0].Phase)
	require.Len(t, rooms[0].Players, 1)
	assert.Equal(t, "1", rooms[0].Players[0].ID)

	// Missing phase defaults to pre-flop.
	assert.Equal(t, game.PreFlop, rooms[1].Phase)
}

func TestJoinRoom(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/r1/join", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["player_id"])

		_, _ = w.Write([]byte(`{"id": "r1", "name": "high stakes", "players": [{"id": "p1", "name": "ana"}]}`))
	})

	room, err := c.JoinRoom(context.Background(), "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)
	require.Len(t, room.Players, 1)
}

func TestStartGame(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/r1/start", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"game": {"pot": 30},
			"initial_state": {
				"current_player": "p1",
				"players": [{"id": "p1", "name": "ana", "chips": 985, "cards": ["AS", "KD"]}]
			},
			"current_phase": {"phase": "pre-flop", "community_cards": []}
		}`))
	})

	start, err := c.StartGame(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, start.Pot)
	assert.Equal(t, "p1", start.CurrentPlayer)
	assert.Equal(t, game.PreFlop, start.Phase)
	require.Len(t, start.Players, 1)
	assert.Equal(t, []string{"AS", "KD"}, start.Players[0].Cards)
}

func TestNextPhase(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/r1/next-phase", r.URL.Path)
		_, _ = w.Write([]byte(`{"phase": "turn", "pot": 120, "community_cards": ["AS", "KD", "7H", "2C"]}`))
	})

	patch, err := c.NextPhase(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, patch.Phase)
	assert.Equal(t, game.Turn, *patch.Phase)
	assert.Equal(t, 120.0, *patch.Pot)
	assert.Len(t, patch.CommunityCards, 4)
}

func TestEndGame(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/r1/end", r.URL.Path)
		_, _ = w.Write([]byte(`{"community_cards": ["AS", "KD", "7H", "2C", "9S"]}`))
	})

	patch, err := c.EndGame(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, patch.Phase)
	assert.Equal(t, game.Showdown, *patch.Phase)
	assert.Len(t, patch.CommunityCards, 5)
}

func TestLeaveRoomAndDeletePlayer(t *testing.T) {
	var paths []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.LeaveRoom(context.Background(), "r1", "p1"))
	require.NoError(t, c.DeletePlayer(context.Background(), "p1"))

	assert.Equal(t, []string{"POST /rooms/r1/leave", "DELETE /players/p1"}, paths)
}
