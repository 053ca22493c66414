package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/session"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

func sceneWithResult() document.SceneState {
	return document.SceneState{
		Width:     200,
		Height:    150,
		Start:     document.Point{X: 20, Y: 20},
		Goal:      document.Point{X: 180, Y: 130},
		Obstacles: []document.Obstacle{document.NewCircle(100, 75, 20)},
		Result: document.Result{
			Nodes: []document.Point{{X: 20, Y: 20}, {X: 60, Y: 40}},
			Edges: []document.Edge{{From: 0, To: 1}},
			Path:  []document.Point{{X: 20, Y: 20}, {X: 60, Y: 40}},
		},
	}
}

func staticPNG(t *testing.T, state document.SceneState) []byte {
	t.Helper()
	c, err := surface.NewCanvas(int(state.Width), int(state.Height))
	require.NoError(t, err)
	opts := engine.DefaultOptions()
	opts.Animate = false
	e := engine.New(c, nil, opts)
	Restore(e, state)
	e.IngestResult(state.Result, document.Details{})

	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	return buf.Bytes()
}

func TestReplayProducesEveryStep(t *testing.T) {
	state := sceneWithResult()

	var last []byte
	var indices []int
	n, err := Replay(state, 1, engine.DefaultTheme(), func(i int, c *surface.Canvas) error {
		indices = append(indices, i)
		var buf bytes.Buffer
		if err := c.EncodePNG(&buf); err != nil {
			return err
		}
		last = buf.Bytes()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.Equal(t, staticPNG(t, state), last, "last frame is the finished scene")
}

func TestReplayRequiresResult(t *testing.T) {
	state := sceneWithResult()
	state.Result = document.Result{}
	_, err := Replay(state, 1, engine.DefaultTheme(), func(int, *surface.Canvas) error { return nil })
	assert.ErrorIs(t, err, ErrNothingToReplay)
}

func TestReplayStopsOnFrameError(t *testing.T) {
	boom := errors.New("disk full")
	n, err := Replay(sceneWithResult(), 1, engine.DefaultTheme(), func(i int, _ *surface.Canvas) error {
		if i == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)
}

func TestFitSpeed(t *testing.T) {
	assert.Equal(t, 1.0, fitSpeed(10, 0))
	assert.Equal(t, 2.5, fitSpeed(10, 2.5))
	assert.Equal(t, 3.0, fitSpeed(MaxFrames*2+1, 1))
	assert.Equal(t, 5.0, fitSpeed(MaxFrames*2+1, 5))
}

func TestSummarize(t *testing.T) {
	state := sceneWithResult()
	details := document.Details{Name: "RRT*"}

	s := Summarize(state, details, false)
	assert.True(t, strings.HasPrefix(s.ID, "exp_"))
	assert.Equal(t, "RRT*", s.Algorithm)
	assert.Equal(t, 1, s.Obstacles)
	assert.Equal(t, 2, s.Nodes)
	assert.Equal(t, 1, s.Edges)
	assert.Equal(t, 2, s.PathPoints)
	assert.Nil(t, s.Result)

	full := Summarize(state, details, true)
	require.NotNil(t, full.Result)
	assert.Equal(t, state.Result, *full.Result)
}

func TestSmoothness(t *testing.T) {
	pts := func(xy ...float64) []document.Point {
		out := make([]document.Point, 0, len(xy)/2)
		for i := 0; i < len(xy); i += 2 {
			out = append(out, document.Point{X: xy[i], Y: xy[i+1]})
		}
		return out
	}

	assert.Zero(t, Smoothness(nil))
	assert.Zero(t, Smoothness(pts(0, 0, 10, 10)))
	assert.InDelta(t, 0, Smoothness(pts(0, 0, 5, 0, 10, 0, 20, 0)), 1e-9)
	assert.InDelta(t, 0, Smoothness(pts(0, 0, 1, 0, 1, 1, 2, 1)), 1e-9, "equal turns")
	assert.InDelta(t, math.Pi/4, Smoothness(pts(0, 0, 1, 0, 2, 0, 2, 1)), 1e-9)

	s := Summarize(document.SceneState{Result: document.Result{Path: pts(0, 0, 1, 0, 2, 0, 2, 1)}}, document.Details{}, false)
	assert.InDelta(t, math.Pi/4, s.Smoothness, 1e-9)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	details := document.Details{Name: "RRT", PathLength: 44.72, Iterations: 9}
	require.NoError(t, WriteCSV(&buf, details, sceneWithResult().Result.Path))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Algorithm Information\n"))
	assert.Contains(t, out, "name,RRT\n")
	assert.Contains(t, out, "path_length,44.72\n")
	assert.Contains(t, out, "iterations,9\n")
	assert.Contains(t, out, "smoothness,0.0000\n")
	assert.True(t, strings.HasSuffix(out, "\n\"# Path Points (x, y)\"\nx,y\n20,20\n60,40\n"), out)
}

func TestContentTypeAndNames(t *testing.T) {
	ct, err := ContentType("gif")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", ct)

	_, err = ContentType("avi")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, "rrt-animation", sanitizeName(""))
	assert.Equal(t, "my-run--1-", sanitizeName("my run/#1!"))
	assert.Equal(t, "/tmp/x/frame_00007.png", FramePath("/tmp/x", 7))
}

type nopPublisher struct{}

func (nopPublisher) PublishFrame(string, session.Frame)               {}
func (nopPublisher) PublishNotification(string, session.Notification) {}
func (nopPublisher) SessionClosed(string)                             {}

func newTestRouter(t *testing.T) (*mux.Router, *session.Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	opts := session.DefaultOptions()
	opts.Width, opts.Height = 200, 150
	opts.FrameInterval = time.Millisecond
	opts.Animate = false
	m := session.NewManager(ctx, opts, nopPublisher{})
	t.Cleanup(func() {
		m.Shutdown()
		cancel()
	})
	s, err := m.Create()
	require.NoError(t, err)

	r := mux.NewRouter()
	NewHandler(m, "ffmpeg-not-installed", engine.DefaultTheme()).Register(r.PathPrefix("/api").Subrouter())
	return r, s
}

func TestHandlerImage(t *testing.T) {
	r, s := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/"+s.ID+"/image.png?download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rrt-visualization.png")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/sess_missing/image.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerResult(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, s.Do(ctx, func(e *engine.Engine) {
		e.IngestResult(sceneWithResult().Result, document.Details{Name: "RRT"})
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/"+s.ID+"/result.json?full=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "RRT", got.Algorithm)
	assert.Equal(t, 2, got.Nodes)
	require.NotNil(t, got.Result)
	assert.Len(t, got.Result.Edges, 1)
}

func TestHandlerCSV(t *testing.T) {
	r, s := newTestRouter(t)
	require.NoError(t, s.Do(context.Background(), func(e *engine.Engine) {
		e.IngestResult(sceneWithResult().Result, document.Details{Name: "RRT-Connect"})
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/"+s.ID+"/result.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rrt-result.csv")
	assert.Contains(t, rec.Body.String(), "name,RRT-Connect\n")
	assert.Contains(t, rec.Body.String(), "x,y\n20,20\n60,40\n")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sessions/sess_missing/result.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerVideoValidation(t *testing.T) {
	r, s := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sessions/"+s.ID+"/export/video", strings.NewReader(`{"format":"avi"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sessions/"+s.ID+"/export/video", strings.NewReader(`{"format":"gif"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code, "no result yet")

	require.NoError(t, s.Do(context.Background(), func(e *engine.Engine) {
		e.IngestResult(sceneWithResult().Result, document.Details{})
	}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sessions/"+s.ID+"/export/video", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "ffmpeg binary is missing")
	assert.Contains(t, rec.Body.String(), "encoding failed")
}
