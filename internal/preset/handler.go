package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

const maxSceneSize = 1 << 20

type Handler struct {
	service  *Service
	sessions *session.Manager
}

func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Register mounts the preset API on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/presets", h.List).Methods("GET")
	r.HandleFunc("/presets", h.Save).Methods("POST")
	r.HandleFunc("/presets/import", h.Import).Methods("POST")
	r.HandleFunc("/presets/{presetId}", h.Get).Methods("GET")
	r.HandleFunc("/presets/{presetId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/presets/{presetId}/scene.yaml", h.ExportYAML).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}/presets", h.Capture).Methods("POST")
	r.HandleFunc("/sessions/{sessionId}/presets/{presetId}", h.Apply).Methods("POST")
}

type saveRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Scene       json.RawMessage `json:"scene"`
}

type captureRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["presetId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneSize)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Scene) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	scene, err := document.LoadSceneJSON(bytes.NewReader(req.Scene))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	p, err := h.service.Save(r.Context(), req.Name, req.Description, *scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Import saves a YAML scene file. The preset name comes from the name query
// parameter.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneSize)

	scene, err := document.LoadSceneYAML(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	q := r.URL.Query()
	p, err := h.service.Save(r.Context(), q.Get("name"), q.Get("description"), *scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["presetId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	data, err := yaml.Marshal(p.Scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["presetId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Capture saves the current scene of a session as a preset.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	scene, err := s.SceneFile(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	p, err := h.service.Save(r.Context(), req.Name, req.Description, *scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	s.Notify(session.LevelSuccess, "Configuration saved as "+p.Name)
	writeJSON(w, http.StatusCreated, p)
}

// Apply loads a preset into a session.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, err := h.sessions.Get(vars["sessionId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), vars["presetId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	st, err := s.ApplyScene(r.Context(), &p.Scene)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	s.Notify(session.LevelInfo, "Loaded preset "+p.Name)
	writeJSON(w, http.StatusOK, st)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "preset not found"})
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, ErrReadOnly):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	default:
		slog.Error("preset error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
