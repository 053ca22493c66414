package live

import (
	"encoding/json"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypeWelcome       = "welcome"
	TypeFrame         = "frame"
	TypeNotification  = "notification"
	TypeSessionClosed = "session.closed"
	TypeError         = "error"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Inbound commands
	TypeModeSetStart   = "mode.setStart"
	TypeModeSetGoal    = "mode.setGoal"
	TypeModeCancel     = "mode.cancel"
	TypePointerClick   = "pointer.click"
	TypePointerMove    = "pointer.move"
	TypeObstacleAdd    = "obstacle.add"
	TypeObstacleRemove = "obstacle.remove"
	TypeObstacleClear  = "obstacle.clear"
	TypeResultClear    = "result.clear"
	TypeSceneReset     = "scene.reset"

	// Replies to commands
	TypeCommandAck = "command.ack"
	TypeReadout    = "pointer.readout"
)

type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// PresencePayload is what other viewers see of a client: its name and the
// last pointer readout it produced.
type PresencePayload struct {
	DisplayName string          `json:"displayName,omitempty"`
	Readout     *engine.Readout `json:"readout,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

// PointerPayload carries raw coordinates; values that are not finite numbers
// make the command a no-op.
type PointerPayload struct {
	X any `json:"x"`
	Y any `json:"y"`
}

type ObstacleRemovePayload struct {
	Index int `json:"index"`
}

type CommandAckPayload struct {
	Command  string              `json:"command"`
	Accepted bool                `json:"accepted"`
	State    document.SceneState `json:"state"`
}

type ErrorPayload struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}
