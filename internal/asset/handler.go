package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rrtviz/rrtviz/backend-go/internal/session"
	"github.com/rrtviz/rrtviz/backend-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

var ErrNotFound = errors.New("snapshot not found")

// Snapshots produces the PNG of a session's canvas.
type Snapshots interface {
	SessionPNG(ctx context.Context, sessionID string) ([]byte, error)
}

// SnapshotResponse describes a stored snapshot.
type SnapshotResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SessionID string `json:"sessionId,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Handler stores canvas snapshots as immutable PNG files.
type Handler struct {
	dir       string
	snapshots Snapshots
}

// NewHandler creates a handler that stores files in dir.
func NewHandler(dir string, snapshots Snapshots) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, snapshots: snapshots}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sessions/{sessionId}/snapshots", h.Capture).Methods("POST")
	r.HandleFunc("/snapshots", h.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/snapshots/{assetId}", h.Remove).Methods("DELETE")
}

// Capture handles POST /sessions/{sessionId}/snapshots.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	data, err := h.snapshots.SessionPNG(r.Context(), sessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, session.ErrClosed):
		http.Error(w, "session closed", http.StatusGone)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		return
	case err != nil:
		slog.Error("capture session png", "session", sessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Error("decode session png", "session", sessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp, err := h.write(cfg.Width, cfg.Height, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
	if err != nil {
		slog.Error("store snapshot", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	resp.SessionID = sessionID
	writeJSON(w, http.StatusCreated, resp)
}

// Upload handles POST /snapshots (multipart form with a "file" field) for
// frames rendered on the client.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	b := img.Bounds()
	resp, err := h.write(b.Dx(), b.Dy(), func(f *os.File) error {
		return png.Encode(f, img)
	})
	if err != nil {
		slog.Error("store snapshot", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	resp.Name = header.Filename
	writeJSON(w, http.StatusCreated, resp)
}

// Remove handles DELETE /snapshots/{assetId}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.Delete(mux.Vars(r)["assetId"])
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Serve returns an http.Handler that serves stored files under /assets/.
func (h *Handler) Serve() http.Handler {
	files := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	}))
}

// Delete removes a stored snapshot.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(h.dir, assetID+".png"))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	return err
}

// write stores a new PNG file produced by fill.
func (h *Handler) write(width, height int, fill func(*os.File) error) (SnapshotResponse, error) {
	id := typeid.NewAssetID()
	filename := id + ".png"
	path := filepath.Join(h.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return SnapshotResponse{}, err
	}
	if err := fill(out); err != nil {
		out.Close()
		os.Remove(path)
		return SnapshotResponse{}, err
	}
	if err := out.Close(); err != nil {
		return SnapshotResponse{}, err
	}

	return SnapshotResponse{
		ID:     id,
		URL:    "/assets/" + filename,
		Width:  width,
		Height: height,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
