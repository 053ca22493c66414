package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/session"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

type Handler struct {
	sessions *session.Manager
	encoder  *Encoder
	theme    engine.Theme
}

func NewHandler(sessions *session.Manager, ffmpegPath string, theme engine.Theme) *Handler {
	return &Handler{sessions: sessions, encoder: NewEncoder(ffmpegPath), theme: theme}
}

// Register mounts the export endpoints on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sessions/{sessionId}/image.png", h.Image).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}/result.json", h.Result).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}/result.csv", h.CSV).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}/export/video", h.Video).Methods("POST", "OPTIONS")
}

type videoRequest struct {
	Format string `json:"format"`
	FPS    int    `json:"fps"`
	Name   string `json:"name"`
}

// Image serves the current canvas as PNG.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := s.PNG(r.Context())
	if err != nil {
		slog.Error("encode session image", "session", s.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.URL.Query().Has("download") {
		w.Header().Set("Content-Disposition", `attachment; filename="rrt-visualization.png"`)
	}
	w.Write(data)
}

// Result serves the summary of the displayed result. ?full adds the tree.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.State(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	details, err := s.Details(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}

	summary := Summarize(state, details, r.URL.Query().Has("full"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="rrt-result.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(summary)
}

// CSV serves the result details and path points as CSV.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.State(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	details, err := s.Details(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, details, state.Result.Path); err != nil {
		slog.Error("write result csv", "session", s.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rrt-result.csv"`)
	w.Write(buf.Bytes())
}

// Video replays the session's result offscreen and encodes it with ffmpeg.
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		req.Format = "mp4"
	}
	contentType, err := ContentType(req.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.FPS <= 0 || req.FPS > 120 {
		req.FPS = 30
	}
	name := sanitizeName(req.Name)

	state, err := s.State(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	settings, err := s.Settings(r.Context())
	if err != nil {
		http.Error(w, "session closed", http.StatusGone)
		return
	}

	tempDir, err := os.MkdirTemp("", "rrtviz-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	frames, err := Replay(state, settings.Speed, h.theme, func(i int, c *surface.Canvas) error {
		return writeFrame(FramePath(tempDir, i), c)
	})
	if errors.Is(err, ErrNothingToReplay) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("replay frames", "session", s.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("export started", "session", s.ID, "format", req.Format, "frames", frames, "fps", req.FPS)

	outputFile, err := h.encoder.Encode(r.Context(), tempDir, req.Format, req.FPS)
	if err != nil {
		slog.Error("ffmpeg failed", "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	outFile, err := os.Open(outputFile)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, req.Format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)

	slog.Info("export complete", "session", s.ID, "format", req.Format, "size", stat.Size())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func writeFrame(path string, c *surface.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sanitizeName(name string) string {
	if name == "" {
		return "rrt-animation"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
