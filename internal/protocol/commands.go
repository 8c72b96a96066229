// Package protocol defines the wire format spoken over the realtime channel:
// outbound commands the client performs on its room subscription, and the
// tagged set of inbound events the server pushes back.
package protocol

import "github.com/pokerroom/pokerroom/internal/game"

// Command is an outbound message performed on the current subscription. The
// command name travels in the dedicated "action" field while the poker move
// rides in "action_type", so a payload can never collide with the name.
type Command struct {
	Action     string  `json:"action"`
	RoomID     string  `json:"room_id,omitempty"`
	PlayerID   string  `json:"player_id,omitempty"`
	ActionType string  `json:"action_type,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

// JoinRoom subscribes the player to a room's event stream.
func JoinRoom(roomID string) Command {
	return Command{Action: "join_room", RoomID: roomID}
}

// StartGame asks the server to deal a new hand in the room.
func StartGame(roomID string) Command {
	return Command{Action: "start_game", RoomID: roomID}
}

// PlayerAction submits a poker move for the player.
func PlayerAction(roomID, playerID string, action game.Action, amount float64) Command {
	return Command{
		Action:     "player_action",
		RoomID:     roomID,
		PlayerID:   playerID,
		ActionType: action.String(),
		Amount:     amount,
	}
}

// GetGameState requests a full state refresh for the player.
func GetGameState(roomID, playerID string) Command {
	return Command{Action: "get_game_state", RoomID: roomID, PlayerID: playerID}
}

// Authenticate identifies the player on a freshly opened connection.
func Authenticate(playerID string) Command {
	return Command{Action: "authenticate", PlayerID: playerID}
}
