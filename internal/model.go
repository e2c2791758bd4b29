package internal

import (
	"time"
)

const (
	DefaultGameDuration    = 1800 * time.Second
	DefaultTickInterval    = 1 * time.Second
	DefaultJailbreakDelay  = 3 * time.Second
	DefaultArrestTimeLimit = 5
)

type GamePhase string

const (
	PhaseWaiting GamePhase = "waiting"
	PhasePlaying GamePhase = "playing"
	PhaseEnded   GamePhase = "ended"
)

type Team string

const (
	TeamUnassigned Team = "unassigned"
	TeamPolice     Team = "police"
	TeamThief      Team = "thief"
)

// Valid reports whether t is one of the teams a host may assign.
func (t Team) Valid() bool {
	switch t {
	case TeamUnassigned, TeamPolice, TeamThief:
		return true
	}
	return false
}

type PlayerStatus string

const (
	StatusAlive     PlayerStatus = "alive"
	StatusDead      PlayerStatus = "dead"
	StatusSpectator PlayerStatus = "spectator"
)

type Winner string

const (
	WinnerNone   Winner = ""
	WinnerPolice Winner = "police"
	WinnerThief  Winner = "thief"
)

// End reasons understood by the room state machine.
const (
	ReasonTimeUp    = "time_up"
	ReasonPoliceWin = "police_win"
)

type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type GameState struct {
	Status        GamePhase  `json:"status"`
	StartTime     *time.Time `json:"startTime"`
	RemainingTime int        `json:"remainingTime"`
	Winner        Winner     `json:"winner"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}

// RoomSummary is the lobby listing entry for a room.
type RoomSummary struct {
	RoomID      string    `json:"roomId"`
	HostID      string    `json:"hostId"`
	Status      GamePhase `json:"status"`
	PlayerCount int       `json:"playerCount"`
}

// RoomSnapshot is a read-only copy of a room taken under its lock.
type RoomSnapshot struct {
	RoomID    string       `json:"roomId"`
	HostID    string       `json:"hostId"`
	GameState GameState    `json:"gameState"`
	Players   []PlayerView `json:"players"`
}

// LifecycleEvent is handed to out-of-process sinks (result archive, event
// stream) whenever a room crosses a game boundary.
type LifecycleEvent struct {
	Type      string       `json:"type"`
	RoomID    string       `json:"roomId"`
	At        time.Time    `json:"at"`
	Reason    string       `json:"reason,omitempty"`
	Winner    Winner       `json:"winner,omitempty"`
	StartTime *time.Time   `json:"startTime,omitempty"`
	Remaining int          `json:"remainingTime"`
	ThiefID   string       `json:"thiefId,omitempty"`
	PoliceID  string       `json:"policeId,omitempty"`
	Players   []PlayerView `json:"players,omitempty"`
}

const (
	LifecycleGameStarted    = "game.started"
	LifecyclePlayerArrested = "player.arrested"
	LifecycleGameEnded      = "game.ended"
)
