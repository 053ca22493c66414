package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
)

type recordingPublisher struct {
	mu            sync.Mutex
	frames        []Frame
	notifications []Notification
	closed        []string
}

func (p *recordingPublisher) PublishFrame(_ string, f Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
}

func (p *recordingPublisher) PublishNotification(_ string, n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
}

func (p *recordingPublisher) SessionClosed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
}

func (p *recordingPublisher) frameCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *recordingPublisher) lastFrame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames[len(p.frames)-1]
}

func (p *recordingPublisher) levels() []Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Level, len(p.notifications))
	for i, n := range p.notifications {
		out[i] = n.Level
	}
	return out
}

type stubPlanner struct {
	resp *document.PlanResponse
	err  error
	got  document.PlanRequest
}

func (s *stubPlanner) Plan(_ context.Context, req document.PlanRequest) (*document.PlanResponse, error) {
	s.got = req
	return s.resp, s.err
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Width = 200
	opts.Height = 150
	opts.FrameInterval = time.Millisecond
	return opts
}

func startSession(t *testing.T, pub *recordingPublisher) *Session {
	t.Helper()
	s, err := New("sess_test", testOptions(), pub)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s
}

func successResponse() *document.PlanResponse {
	return &document.PlanResponse{
		Success:  true,
		Details:  document.Details{Name: "RRT*", PathLength: 14.14},
		Vertices: [][]float64{{50, 50}, {60, 60}},
		Edges:    [][]float64{{0, 1}},
		Path:     [][]float64{{50, 50}, {60, 60}},
	}
}

func TestNewRejectsInvalidSize(t *testing.T) {
	opts := testOptions()
	opts.Width = 0
	_, err := New("sess_bad", opts, nil)
	assert.Error(t, err)
}

func TestNewPublishesInitialFrame(t *testing.T) {
	pub := &recordingPublisher{}
	_, err := New("sess_test", testOptions(), pub)
	require.NoError(t, err)
	require.Equal(t, 1, pub.frameCount())
	assert.Equal(t, int64(1), pub.lastFrame().Seq)
	assert.Contains(t, string(pub.lastFrame().Commands), `"op":"clear"`)
}

func TestDoSerializesMutations(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Do(ctx, func(e *engine.Engine) {
				e.AddObstacle(document.NewCircle(float64(10+i), 20, 5))
			})
		}(i)
	}
	wg.Wait()

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Obstacles, 20)
}

func TestUnchangedFramesAreNotRepublished(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	before := pub.frameCount()

	require.NoError(t, s.Do(context.Background(), func(e *engine.Engine) { e.Render() }))
	assert.Equal(t, before, pub.frameCount())

	require.NoError(t, s.Do(context.Background(), func(e *engine.Engine) { e.SetStart(100, 100) }))
	assert.Equal(t, before+1, pub.frameCount())
}

func TestPlanIngestsAndAnimates(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	ctx := context.Background()
	p := &stubPlanner{resp: successResponse()}

	_, err := s.UpdateSettings(ctx, SettingsPatch{Algorithm: ptr(document.AlgorithmInformedRRT)})
	require.NoError(t, err)

	resp, err := s.Plan(ctx, p)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, document.AlgorithmInformedRRT, p.got.Algorithm)
	assert.Equal(t, []float64{20, 15}, p.got.Start)

	require.Eventually(t, func() bool {
		f, err := s.CurrentFrame(ctx)
		return err == nil && !f.Animating
	}, time.Second, 5*time.Millisecond)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Result.Nodes, 2)
	assert.False(t, st.Animating)
	assert.Equal(t, []Level{LevelInfo, LevelSuccess}, pub.levels())

	d, err := s.Details(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RRT*", d.Name)
}

func TestPlanFailureLeavesSceneUntouched(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	ctx := context.Background()
	require.NoError(t, s.Ingest(ctx, successResponse()))

	p := &stubPlanner{err: fmt.Errorf("%w: connection refused", planner.ErrRemote)}
	_, err := s.Plan(ctx, p)
	require.ErrorIs(t, err, planner.ErrRemote)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Result.Nodes, 2)
	levels := pub.levels()
	assert.Equal(t, LevelError, levels[len(levels)-1])
}

func TestPlanUnsuccessfulShowsExploredTree(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	ctx := context.Background()

	p := &stubPlanner{
		resp: &document.PlanResponse{
			Success:  false,
			Details:  document.Details{Name: "RRT", Iterations: 500},
			Vertices: [][]float64{{50, 50}, {60, 60}},
			Edges:    [][]float64{{0, 1}},
			Path:     [][]float64{},
		},
		err: fmt.Errorf("%w: no path found", planner.ErrPlanningFailed),
	}
	resp, err := s.Plan(ctx, p)
	require.NoError(t, err)
	assert.False(t, resp.Success)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Result.Nodes, 2)
	assert.Len(t, st.Result.Edges, 1)
	assert.Empty(t, st.Result.Path)
	assert.Equal(t, []Level{LevelInfo, LevelWarning}, pub.levels())
}

func TestIngestRejectsPlannerError(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)
	ctx := context.Background()

	err := s.Ingest(ctx, &document.PlanResponse{
		Error:    "Unknown algorithm: Foo",
		Vertices: [][]float64{{1, 1}},
	})
	require.ErrorIs(t, err, planner.ErrPlanningFailed)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Result.Nodes)
	assert.Equal(t, []Level{LevelError}, pub.levels())
}

func TestIngestMalformedResponse(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)

	err := s.Ingest(context.Background(), &document.PlanResponse{
		Success:  true,
		Vertices: [][]float64{{1}},
	})
	assert.ErrorIs(t, err, document.ErrMalformedResult)
	assert.Equal(t, []Level{LevelError}, pub.levels())
}

func TestIngestWithoutPathWarns(t *testing.T) {
	pub := &recordingPublisher{}
	s := startSession(t, pub)

	require.NoError(t, s.Ingest(context.Background(), &document.PlanResponse{
		Success:  true,
		Vertices: [][]float64{{1, 1}},
	}))
	assert.Equal(t, []Level{LevelWarning}, pub.levels())
}

func TestUpdateSettingsValidates(t *testing.T) {
	s := startSession(t, &recordingPublisher{})
	ctx := context.Background()

	_, err := s.UpdateSettings(ctx, SettingsPatch{Speed: ptr(-1.0)})
	assert.ErrorIs(t, err, document.ErrInvalidParameter)

	_, err = s.UpdateSettings(ctx, SettingsPatch{Algorithm: ptr(document.Algorithm("A*"))})
	assert.ErrorIs(t, err, document.ErrUnknownAlgorithm)

	got, err := s.UpdateSettings(ctx, SettingsPatch{Speed: ptr(5.0), Animate: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Speed)
	assert.False(t, got.Animate)
	assert.Equal(t, document.AlgorithmRRTStar, got.Algorithm)
}

func TestStoppedSessionRejectsWork(t *testing.T) {
	s := startSession(t, &recordingPublisher{})
	s.Stop()
	s.Stop()

	err := s.Do(context.Background(), func(*engine.Engine) {})
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestPNG(t *testing.T) {
	s := startSession(t, &recordingPublisher{})
	data, err := s.PNG(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestManagerLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(context.Background(), testOptions(), pub)

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, m.List(), 2)

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, m.Delete(a.ID))
	assert.ErrorIs(t, m.Delete(a.ID), ErrNotFound)
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	m.Shutdown()
	assert.Empty(t, m.List())
	select {
	case <-b.Done():
	default:
		t.Fatal("session still running after shutdown")
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, pub.closed)
}

func ptr[T any](v T) *T { return &v }
