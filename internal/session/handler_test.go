package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
)

type apiFixture struct {
	router   *mux.Router
	sessions *Manager
	planner  *stubPlanner
	id       string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx, testOptions(), &recordingPublisher{})
	t.Cleanup(func() {
		m.Shutdown()
		cancel()
	})

	p := &stubPlanner{resp: successResponse()}
	r := mux.NewRouter()
	NewHandler(m, p).Register(r.PathPrefix("/api").Subrouter())

	f := &apiFixture{router: r, sessions: m, planner: p}
	var created sessionResponse
	f.do(t, "POST", "/api/sessions", "", http.StatusCreated, &created)
	f.id = created.ID
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string, wantStatus int, out any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func (f *apiFixture) path(suffix string) string {
	return fmt.Sprintf("/api/sessions/%s%s", f.id, suffix)
}

func TestCreateAndGetSession(t *testing.T) {
	f := newAPIFixture(t)
	assert.True(t, strings.HasPrefix(f.id, "sess_"))

	var got sessionResponse
	f.do(t, "GET", f.path(""), "", http.StatusOK, &got)
	assert.Equal(t, f.id, got.ID)
	assert.Equal(t, 200.0, got.State.Width)
	assert.Equal(t, document.AlgorithmRRTStar, got.Settings.Algorithm)

	var list []Info
	f.do(t, "GET", "/api/sessions", "", http.StatusOK, &list)
	assert.Len(t, list, 1)
}

func TestUnknownSession(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, "GET", "/api/sessions/sess_missing", "", http.StatusNotFound, nil)
	f.do(t, "DELETE", "/api/sessions/sess_missing", "", http.StatusNotFound, nil)
}

func TestSetStartClampsAndIgnoresBadTypes(t *testing.T) {
	f := newAPIFixture(t)

	var out mutationResponse
	f.do(t, "PUT", f.path("/start"), `{"x": -40, "y": 75}`, http.StatusOK, &out)
	assert.True(t, out.Accepted)
	assert.Equal(t, document.Point{X: 10, Y: 75}, out.State.Start)

	f.do(t, "PUT", f.path("/start"), `{"x": "12", "y": 75}`, http.StatusOK, &out)
	assert.False(t, out.Accepted)
	assert.Equal(t, document.Point{X: 10, Y: 75}, out.State.Start)

	f.do(t, "PUT", f.path("/goal"), `not json`, http.StatusBadRequest, nil)
}

func TestModeAndClick(t *testing.T) {
	f := newAPIFixture(t)

	var out mutationResponse
	f.do(t, "POST", f.path("/click"), `{"x": 30, "y": 30}`, http.StatusOK, &out)
	assert.False(t, out.Accepted, "click without a mode")

	f.do(t, "PUT", f.path("/mode"), `{"mode": "setGoal"}`, http.StatusOK, &out)
	assert.Equal(t, "setGoal", out.State.Mode)

	f.do(t, "POST", f.path("/click"), `{"x": 30, "y": 40}`, http.StatusOK, &out)
	assert.True(t, out.Accepted)
	assert.Equal(t, document.Point{X: 30, Y: 40}, out.State.Goal)
	assert.Equal(t, "none", out.State.Mode)

	f.do(t, "PUT", f.path("/mode"), `{"mode": "drag"}`, http.StatusBadRequest, nil)
}

func TestObstacleEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	var out mutationResponse
	f.do(t, "POST", f.path("/obstacles"), `{"type":"rectangle","x":10,"y":10,"width":0,"height":5}`, http.StatusUnprocessableEntity, nil)
	f.do(t, "POST", f.path("/obstacles"), `{"type":"rectangle","x":10,"y":10,"width":20,"height":5}`, http.StatusOK, &out)
	f.do(t, "POST", f.path("/obstacles"), `{"type":"circle","centerX":80,"centerY":60,"radius":15}`, http.StatusOK, &out)
	require.Len(t, out.State.Obstacles, 2)

	f.do(t, "DELETE", f.path("/obstacles/0"), "", http.StatusOK, &out)
	require.Len(t, out.State.Obstacles, 1)
	assert.Equal(t, document.ObstacleCircle, out.State.Obstacles[0].Type)

	f.do(t, "DELETE", f.path("/obstacles/7"), "", http.StatusOK, &out)
	assert.False(t, out.Accepted)

	f.do(t, "DELETE", f.path("/obstacles"), "", http.StatusOK, &out)
	assert.Empty(t, out.State.Obstacles)
}

func TestPlanEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	var res planResult
	f.do(t, "POST", f.path("/plan"), "", http.StatusOK, &res)
	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, "Algorithm", res.Rows[0].Label)
	assert.Equal(t, "RRT*", res.Rows[0].Value)

	f.planner.resp = &document.PlanResponse{Success: false, Error: "no path"}
	f.planner.err = fmt.Errorf("%w: no path", planner.ErrPlanningFailed)
	f.do(t, "POST", f.path("/plan"), "", http.StatusUnprocessableEntity, nil)

	f.planner.resp = &document.PlanResponse{Success: false, Vertices: [][]float64{{5, 5}, {9, 9}, {12, 4}}}
	f.planner.err = fmt.Errorf("%w: no path found", planner.ErrPlanningFailed)
	res = planResult{}
	f.do(t, "POST", f.path("/plan"), "", http.StatusOK, &res)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Nodes)

	f.planner.err = fmt.Errorf("%w: dial tcp", planner.ErrRemote)
	f.do(t, "POST", f.path("/plan"), "", http.StatusBadGateway, nil)
}

func TestIngestAndClearResult(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"success":true,"details":{"name":"RRT","iterations":12},"vertices":[[5,5],[9,9]],"edges":[[0,1]],"path":[]}`

	var res planResult
	f.do(t, "PUT", f.path("/result"), body, http.StatusOK, &res)
	assert.Equal(t, 12, res.Details.Iterations)

	f.do(t, "PUT", f.path("/result"), `{"success":true,"vertices":[[1]]}`, http.StatusBadGateway, nil)

	var out mutationResponse
	f.do(t, "DELETE", f.path("/result"), "", http.StatusOK, &out)
	assert.Empty(t, out.State.Result.Nodes)
	assert.False(t, out.State.Animating)
}

func TestSettingsEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	var s Settings
	f.do(t, "PATCH", f.path("/settings"), `{"algorithm":"RRTConnect","speed":3}`, http.StatusOK, &s)
	assert.Equal(t, document.AlgorithmRRTConnect, s.Algorithm)
	assert.Equal(t, 3.0, s.Speed)

	f.do(t, "PATCH", f.path("/settings"), `{"parameters":{"stepSize":20,"maxIter":10.5,"goalSampleRate":0.1,"searchRadius":50}}`, http.StatusBadRequest, nil)

	f.do(t, "GET", f.path("/settings"), "", http.StatusOK, &s)
	assert.Equal(t, document.AlgorithmRRTConnect, s.Algorithm)
}

func TestResetAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, "PUT", f.path("/start"), `{"x": 100, "y": 100}`, http.StatusOK, nil)

	var out mutationResponse
	f.do(t, "POST", f.path("/reset"), "", http.StatusOK, &out)
	assert.Equal(t, document.Point{X: 20, Y: 15}, out.State.Start)

	f.do(t, "DELETE", f.path(""), "", http.StatusNoContent, nil)
	f.do(t, "GET", f.path(""), "", http.StatusNotFound, nil)
}

func TestAlgorithms(t *testing.T) {
	f := newAPIFixture(t)
	var algs []string
	f.do(t, "GET", "/api/algorithms", "", http.StatusOK, &algs)
	assert.Equal(t, []string{"BaseRRT", "RRTStar", "RRTConnect", "InformedRRT"}, algs)
}
