package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound event names.
const (
	EventRoomJoin         = "room:join"
	EventRoleAssign       = "role:assign"
	EventGameStart        = "game:start"
	EventLocationUpdate   = "location:update"
	EventArrestRequest    = "arrest:request"
	EventArrestRespond    = "arrest:respond"
	EventJailbreakTrigger = "jailbreak:trigger"
	EventRegionRegister   = "region:register"
	EventRegionRemove     = "region:remove"
)

// Outbound event names.
const (
	EventRoomJoined         = "room:joined"
	EventPlayersUpdated     = "players:updated"
	EventRoleAssigned       = "role:assigned"
	EventGameStarted        = "game:started"
	EventTimerUpdate        = "timer:update"
	EventArrestRequested    = "arrest:requested"
	EventPlayerArrested     = "player:arrested"
	EventJailbreakTriggered = "jailbreak:triggered"
	EventPlayerFreed        = "player:freed"
	EventGameEnded          = "game:ended"
	EventRegion             = "region:event"
	EventError              = "error"
)

type JoinRequest struct {
	RoomID    string `json:"roomId"`
	SessionID string `json:"sessionId"`
	Nickname  string `json:"nickname"`
}

type AssignRoleRequest struct {
	TargetSessionID string `json:"targetSessionId"`
	Team            Team   `json:"team"`
}

type LocationUpdate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type ArrestRequest struct {
	ThiefID string `json:"thiefId"`
}

type ArrestResponse struct {
	PoliceID string `json:"policeId"`
	Accept   bool   `json:"accept"`
}

type RegionRequest struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
}

type RoomJoinedData struct {
	RoomID string `json:"roomId"`
	MyTeam Team   `json:"myTeam"`
	IsHost bool   `json:"isHost"`
}

type RoleAssignedData struct {
	Team Team `json:"team"`
}

type GameStartedData struct {
	GameState GameState    `json:"gameState"`
	Players   []PlayerView `json:"players"`
}

type TimerUpdateData struct {
	RemainingTime int       `json:"remainingTime"`
	Status        GamePhase `json:"status"`
}

type ArrestRequestedData struct {
	PoliceID  string `json:"policeId"`
	TimeLimit int    `json:"timeLimit"`
}

type PlayerArrestedData struct {
	ThiefID  string `json:"thiefId"`
	PoliceID string `json:"policeId"`
}

type JailbreakTriggeredData struct {
	ThiefID  string `json:"thiefId"`
	Duration int    `json:"duration"`
}

type PlayerFreedData struct {
	FreedThieves []string `json:"freedThieves"`
}

type GameEndedData struct {
	FinalState GameState `json:"finalState"`
	Winner     Winner    `json:"winner"`
}

type RegionEventData struct {
	ID         string `json:"id"`
	Transition string `json:"transition"`
}

type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Event   string `json:"event,omitempty"`
}
