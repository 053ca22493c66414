package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

func testSessionOptions() session.Options {
	opts := session.DefaultOptions()
	opts.Width = 200
	opts.Height = 150
	opts.FrameInterval = time.Millisecond
	return opts
}

func newTestSession(t *testing.T, hub *Hub) *session.Session {
	t.Helper()
	s, err := session.New("sess_live", testSessionOptions(), hub)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s
}

func newFakeClient(hub *Hub, s *session.Session, id string) *Client {
	return &Client{
		hub:         hub,
		send:        make(chan []byte, sendBuffer),
		session:     s,
		SessionID:   s.ID,
		ClientID:    id,
		DisplayName: "Viewer " + id,
	}
}

// drain returns every message queued for c.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func ofType(msgs []Message, typ string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func TestJoinSendsWelcomeAndPresence(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	b := newFakeClient(hub, s, "b")

	hub.addClient(a)
	hub.addClient(b)
	assert.Equal(t, 2, hub.Viewers(s.ID))

	msgsA := drain(t, a)
	require.NotEmpty(t, msgsA)
	assert.Equal(t, TypeWelcome, msgsA[0].Type)
	joins := ofType(msgsA, TypePresenceJoin)
	require.Len(t, joins, 1)
	assert.Equal(t, "b", joins[0].ClientID)

	msgsB := drain(t, b)
	states := ofType(msgsB, TypePresenceState)
	require.Len(t, states, 1)
	var st PresenceStatePayload
	require.NoError(t, json.Unmarshal(states[0].Payload, &st))
	assert.Len(t, st.Presences, 2)

	hub.removeClient(b)
	hub.removeClient(b)
	leaves := ofType(drain(t, a), TypePresenceLeave)
	assert.Len(t, leaves, 1)
	assert.Equal(t, 1, hub.Viewers(s.ID))
}

func TestFramesAndNotificationsReachViewers(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	hub.addClient(a)
	drain(t, a)

	require.NoError(t, s.Do(context.Background(), func(e *engine.Engine) { e.SetGoal(120, 90) }))
	s.Notify(session.LevelWarning, "heads up")

	msgs := drain(t, a)
	frames := ofType(msgs, TypeFrame)
	require.Len(t, frames, 1)
	var f session.Frame
	require.NoError(t, json.Unmarshal(frames[0].Payload, &f))
	assert.Equal(t, frames[0].Seq, f.Seq)
	assert.Contains(t, string(f.Commands), `"op":"clear"`)

	notes := ofType(msgs, TypeNotification)
	require.Len(t, notes, 1)
	var n session.Notification
	require.NoError(t, json.Unmarshal(notes[0].Payload, &n))
	assert.Equal(t, session.Notification{Level: session.LevelWarning, Message: "heads up"}, n)
}

func TestCommandsMutateSession(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	hub.addClient(a)
	drain(t, a)
	ctx := context.Background()

	send := func(typ, payload string) CommandAckPayload {
		t.Helper()
		if payload == "" {
			payload = "{}"
		}
		hub.handleMessage(ctx, a, &Message{Type: typ, Payload: json.RawMessage(payload)})
		acks := ofType(drain(t, a), TypeCommandAck)
		require.Len(t, acks, 1, typ)
		var ack CommandAckPayload
		require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
		assert.Equal(t, typ, ack.Command)
		return ack
	}

	ack := send(TypeModeSetStart, "")
	assert.Equal(t, "setStart", ack.State.Mode)

	ack = send(TypePointerClick, `{"x": 70, "y": 80}`)
	assert.True(t, ack.Accepted)
	assert.Equal(t, document.Point{X: 70, Y: 80}, ack.State.Start)

	ack = send(TypePointerClick, `{"x": 20, "y": 20}`)
	assert.False(t, ack.Accepted, "mode was spent")

	ack = send(TypeObstacleAdd, `{"type":"circle","centerX":100,"centerY":75,"radius":10}`)
	assert.True(t, ack.Accepted)
	require.Len(t, ack.State.Obstacles, 1)

	ack = send(TypeObstacleRemove, `{"index": 3}`)
	assert.False(t, ack.Accepted)

	ack = send(TypeObstacleClear, "")
	assert.Empty(t, ack.State.Obstacles)

	ack = send(TypeSceneReset, "")
	assert.Equal(t, document.Point{X: 20, Y: 15}, ack.State.Start)
}

func TestCommandErrors(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	hub.addClient(a)
	drain(t, a)
	ctx := context.Background()

	hub.handleMessage(ctx, a, &Message{Type: "object.transform", Payload: json.RawMessage("{}")})
	hub.handleMessage(ctx, a, &Message{Type: TypeObstacleAdd, Payload: json.RawMessage(`{"type":"rectangle","x":1,"y":1,"width":-4,"height":2}`)})

	errs := ofType(drain(t, a), TypeError)
	require.Len(t, errs, 2)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(errs[1].Payload, &p))
	assert.Equal(t, TypeObstacleAdd, p.Command)
	assert.Contains(t, p.Message, "invalid obstacle")
}

func TestPointerMoveSharesReadout(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	b := newFakeClient(hub, s, "b")
	hub.addClient(a)
	hub.addClient(b)
	drain(t, a)
	drain(t, b)
	ctx := context.Background()

	hub.handleMessage(ctx, a, &Message{Type: TypeModeSetGoal, Payload: json.RawMessage("{}")})
	drain(t, a)
	hub.handleMessage(ctx, a, &Message{Type: TypePointerMove, Payload: json.RawMessage(`{"x": 40, "y": 30}`)})

	readouts := ofType(drain(t, a), TypeReadout)
	require.Len(t, readouts, 1)
	var r engine.Readout
	require.NoError(t, json.Unmarshal(readouts[0].Payload, &r))
	assert.Equal(t, engine.CursorCrosshair, r.Cursor)
	assert.True(t, r.Inside)

	updates := ofType(drain(t, b), TypePresenceUpdate)
	require.Len(t, updates, 1)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(updates[0].Payload, &p))
	require.NotNil(t, p.Readout)
	assert.Equal(t, 40.0, p.Readout.X)

	// Non-numeric coordinates are ignored.
	hub.handleMessage(ctx, a, &Message{Type: TypePointerMove, Payload: json.RawMessage(`{"x": "left", "y": 30}`)})
	assert.Empty(t, drain(t, a))
}

func TestSessionClosedBroadcast(t *testing.T) {
	hub := NewHub()
	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	hub.addClient(a)
	drain(t, a)

	hub.SessionClosed(s.ID)
	assert.Len(t, ofType(drain(t, a), TypeSessionClosed), 1)
}

type staticSessions map[string]*session.Session

func (m staticSessions) Get(id string) (*session.Session, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, session.ErrNotFound
}

func TestJoinAndLeaveAfterHubStops(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	s := newTestSession(t, hub)
	a := newFakeClient(hub, s, "a")
	require.True(t, hub.Register(a))
	require.Eventually(t, func() bool { return hub.Viewers(s.ID) == 1 }, time.Second, time.Millisecond)

	cancel()
	<-stopped

	returned := make(chan bool)
	go func() {
		hub.leave(a)
		returned <- hub.Register(newFakeClient(hub, s, "b"))
	}()
	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("join after stop blocked")
	}
}

func TestServeWS(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)
	s := newTestSession(t, hub)

	r := mux.NewRouter()
	r.HandleFunc("/ws/sessions/{sessionId}", NewHandler(hub, staticSessions{s.ID: s}, nil).ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + s.ID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	readUntil := func(typ string) Message {
		t.Helper()
		for {
			_, data, err := conn.Read(ctx)
			require.NoError(t, err)
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return msg
			}
		}
	}

	welcome := readUntil(TypeWelcome)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, s.ID, wp.SessionID)

	cmd, _ := json.Marshal(Message{Type: TypeObstacleAdd, Payload: json.RawMessage(`{"type":"circle","centerX":50,"centerY":50,"radius":5}`)})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, cmd))

	ack := readUntil(TypeCommandAck)
	var ap CommandAckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ap))
	assert.True(t, ap.Accepted)
	assert.Len(t, ap.State.Obstacles, 1)

	_, _, err = websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/sessions/sess_nope", nil)
	assert.Error(t, err)
}
