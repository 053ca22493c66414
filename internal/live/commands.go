package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
)

// command applies one inbound message to the engine and reports whether the
// scene accepted it.
type command func(e *engine.Engine, payload json.RawMessage) (bool, error)

var commands = map[string]command{
	TypeModeSetStart: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.EnterSetStartMode()
		return true, nil
	},
	TypeModeSetGoal: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.EnterSetGoalMode()
		return true, nil
	},
	TypeModeCancel: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.CancelMode()
		return true, nil
	},
	TypePointerClick: func(e *engine.Engine, payload json.RawMessage) (bool, error) {
		x, y, ok, err := pointer(payload)
		if err != nil || !ok {
			return false, err
		}
		return e.Click(x, y), nil
	},
	TypeObstacleAdd: func(e *engine.Engine, payload json.RawMessage) (bool, error) {
		var o document.Obstacle
		if err := json.Unmarshal(payload, &o); err != nil {
			return false, fmt.Errorf("invalid obstacle: %w", err)
		}
		if err := o.Validate(); err != nil {
			return false, err
		}
		return e.AddObstacle(o), nil
	},
	TypeObstacleRemove: func(e *engine.Engine, payload json.RawMessage) (bool, error) {
		var p ObstacleRemovePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return false, fmt.Errorf("invalid obstacle index: %w", err)
		}
		return e.RemoveObstacle(p.Index), nil
	},
	TypeObstacleClear: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.ClearObstacles()
		return true, nil
	},
	TypeResultClear: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.ClearResult()
		return true, nil
	},
	TypeSceneReset: func(e *engine.Engine, _ json.RawMessage) (bool, error) {
		e.Reset()
		return true, nil
	},
}

// pointer decodes a pointer payload. ok is false when a coordinate is not a
// finite number.
func pointer(payload json.RawMessage) (x, y float64, ok bool, err error) {
	var p PointerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, 0, false, fmt.Errorf("invalid pointer payload: %w", err)
	}
	x, okX := document.Coordinate(p.X)
	y, okY := document.Coordinate(p.Y)
	return x, y, okX && okY, nil
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	if msg.Type == TypePointerMove {
		h.handlePointerMove(ctx, sender, msg)
		return
	}

	cmd, ok := commands[msg.Type]
	if !ok {
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.sendError(msg.Type, "unknown message type")
		return
	}

	var (
		ack    CommandAckPayload
		cmdErr error
	)
	err := sender.session.Do(ctx, func(e *engine.Engine) {
		ack.Accepted, cmdErr = cmd(e, msg.Payload)
		ack.State = e.State()
	})
	if err == nil {
		err = cmdErr
	}
	if err != nil {
		slog.Debug("command rejected", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.sendError(msg.Type, err.Error())
		return
	}

	ack.Command = msg.Type
	payload, _ := json.Marshal(ack)
	sender.Send(&Message{Type: TypeCommandAck, SessionID: sender.SessionID, Seq: msg.Seq, Payload: payload})
}

// handlePointerMove answers the sender with its readout and shares it with
// the other viewers as presence.
func (h *Hub) handlePointerMove(ctx context.Context, sender *Client, msg *Message) {
	x, y, ok, err := pointer(msg.Payload)
	if err != nil {
		sender.sendError(msg.Type, err.Error())
		return
	}
	if !ok {
		return
	}

	var readout engine.Readout
	if err := sender.session.Do(ctx, func(e *engine.Engine) { readout = e.Move(x, y) }); err != nil {
		sender.sendError(msg.Type, err.Error())
		return
	}

	payload, _ := json.Marshal(readout)
	sender.Send(&Message{Type: TypeReadout, SessionID: sender.SessionID, Seq: msg.Seq, Payload: payload})

	room := h.room(sender.SessionID)
	if room == nil {
		return
	}
	presence := &PresencePayload{DisplayName: sender.DisplayName, Readout: &readout}
	room.presence.Update(sender.ClientID, presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.SessionID, &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}, sender.ClientID)
}

func (c *Client) sendError(command, message string) {
	payload, _ := json.Marshal(ErrorPayload{Command: command, Message: message})
	c.Send(&Message{Type: TypeError, SessionID: c.SessionID, Payload: payload})
}
