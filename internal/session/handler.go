package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
)

const maxBodySize = 8 << 20

type Handler struct {
	sessions *Manager
	planner  Planner
}

func NewHandler(sessions *Manager, p Planner) *Handler {
	return &Handler{sessions: sessions, planner: p}
}

// Register mounts the session API on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/algorithms", h.Algorithms).Methods("GET")
	r.HandleFunc("/sessions", h.List).Methods("GET")
	r.HandleFunc("/sessions", h.Create).Methods("POST")
	r.HandleFunc("/sessions/{sessionId}", h.Get).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/sessions/{sessionId}/start", h.SetStart).Methods("PUT")
	r.HandleFunc("/sessions/{sessionId}/goal", h.SetGoal).Methods("PUT")
	r.HandleFunc("/sessions/{sessionId}/mode", h.SetMode).Methods("PUT")
	r.HandleFunc("/sessions/{sessionId}/click", h.Click).Methods("POST")
	r.HandleFunc("/sessions/{sessionId}/obstacles", h.AddObstacle).Methods("POST")
	r.HandleFunc("/sessions/{sessionId}/obstacles", h.ClearObstacles).Methods("DELETE")
	r.HandleFunc("/sessions/{sessionId}/obstacles/{index}", h.RemoveObstacle).Methods("DELETE")
	r.HandleFunc("/sessions/{sessionId}/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}/settings", h.UpdateSettings).Methods("PATCH")
	r.HandleFunc("/sessions/{sessionId}/plan", h.Plan).Methods("POST")
	r.HandleFunc("/sessions/{sessionId}/result", h.IngestResult).Methods("PUT")
	r.HandleFunc("/sessions/{sessionId}/result", h.ClearResult).Methods("DELETE")
	r.HandleFunc("/sessions/{sessionId}/animation", h.CancelAnimation).Methods("DELETE")
	r.HandleFunc("/sessions/{sessionId}/reset", h.Reset).Methods("POST")
}

type pointRequest struct {
	X any `json:"x"`
	Y any `json:"y"`
}

type modeRequest struct {
	Mode engine.Mode `json:"mode"`
}

type mutationResponse struct {
	Accepted bool                `json:"accepted"`
	State    document.SceneState `json:"state"`
}

type sessionResponse struct {
	ID       string              `json:"id"`
	State    document.SceneState `json:"state"`
	Settings Settings            `json:"settings"`
	Details  document.Details    `json:"details"`
}

type planResult struct {
	Success bool                 `json:"success"`
	Details document.Details     `json:"details"`
	Rows    []document.DetailRow `json:"rows"`
	Nodes   int                  `json:"nodes"`
	Edges   int                  `json:"edges"`
	Path    int                  `json:"path"`
}

func (h *Handler) Algorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, document.Algorithms)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.List())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		slog.Error("create session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	h.writeSession(w, r.Context(), s, http.StatusCreated)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSession(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["sessionId"]); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetStart(w http.ResponseWriter, r *http.Request) {
	h.setPoint(w, r, (*engine.Engine).SetStart)
}

func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	h.setPoint(w, r, (*engine.Engine).SetGoal)
}

func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	h.setPoint(w, r, (*engine.Engine).Click)
}

// setPoint applies a coordinate mutation. Coordinates that are not finite
// numbers are ignored rather than rejected.
func (h *Handler) setPoint(w http.ResponseWriter, r *http.Request, apply func(*engine.Engine, float64, float64) bool) {
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	x, okX := document.Coordinate(req.X)
	y, okY := document.Coordinate(req.Y)
	h.mutate(w, r, func(e *engine.Engine) bool {
		return okX && okY && apply(e, x, y)
	})
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decode(w, r, &req) {
		return
	}
	var enter func(*engine.Engine)
	switch req.Mode {
	case engine.ModeSetStart:
		enter = (*engine.Engine).EnterSetStartMode
	case engine.ModeSetGoal:
		enter = (*engine.Engine).EnterSetGoalMode
	case engine.ModeNone:
		enter = (*engine.Engine).CancelMode
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be none, setStart or setGoal"})
		return
	}
	h.mutate(w, r, func(e *engine.Engine) bool {
		enter(e)
		return true
	})
}

func (h *Handler) AddObstacle(w http.ResponseWriter, r *http.Request) {
	var o document.Obstacle
	if !decode(w, r, &o) {
		return
	}
	if err := o.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	h.mutate(w, r, func(e *engine.Engine) bool { return e.AddObstacle(o) })
}

func (h *Handler) RemoveObstacle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid obstacle index"})
		return
	}
	h.mutate(w, r, func(e *engine.Engine) bool { return e.RemoveObstacle(index) })
}

func (h *Handler) ClearObstacles(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) bool {
		e.ClearObstacles()
		return true
	})
}

func (h *Handler) ClearResult(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) bool {
		e.ClearResult()
		return true
	})
}

func (h *Handler) CancelAnimation(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) bool {
		active := e.Animating()
		e.CancelAnimation()
		return active
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) bool {
		e.Reset()
		return true
	})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	settings, err := s.Settings(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch SettingsPatch
	if !decode(w, r, &patch) {
		return
	}
	settings, err := s.UpdateSettings(r.Context(), patch)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	resp, err := s.Plan(r.Context(), h.planner)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(resp))
}

// IngestResult displays a planner response supplied by the caller.
func (h *Handler) IngestResult(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var resp document.PlanResponse
	if !decode(w, r, &resp) {
		return
	}
	if err := s.Ingest(r.Context(), &resp); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(&resp))
}

func summarize(resp *document.PlanResponse) planResult {
	return planResult{
		Success: resp.Success,
		Details: resp.Details,
		Rows:    resp.Details.Rows(),
		Nodes:   len(resp.Vertices),
		Edges:   len(resp.Edges),
		Path:    len(resp.Path),
	}
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(e *engine.Engine) bool) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var out mutationResponse
	err := s.Do(r.Context(), func(e *engine.Engine) {
		out.Accepted = fn(e)
		out.State = e.State()
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeSession(w http.ResponseWriter, ctx context.Context, s *Session, status int) {
	resp := sessionResponse{ID: s.ID}
	err := s.Do(ctx, func(e *engine.Engine) {
		resp.State = e.State()
		resp.Settings = s.currentSettings(e)
		resp.Details = e.Details()
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, ErrClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	case errors.Is(err, ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, document.ErrUnknownAlgorithm),
		errors.Is(err, document.ErrInvalidParameter),
		errors.Is(err, document.ErrInvalidObstacle):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, planner.ErrPlanningFailed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, planner.ErrRemote), errors.Is(err, document.ErrMalformedResult):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
	default:
		slog.Error("session error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
