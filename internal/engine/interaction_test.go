package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

func mathNaN() float64 { return math.NaN() }

func TestClickWithoutModeDoesNothing(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)

	assert.False(t, c.Click(200, 200))
	assert.Equal(t, document.Point{X: 50, Y: 50}, sc.Start())
	assert.Equal(t, CursorDefault, c.Move(200, 200).Cursor)
}

func TestSetStartModePlacesMarkerAndReturnsToNone(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)
	c.EnterSetStartMode()

	r := c.Move(200, 150)
	assert.Equal(t, CursorCrosshair, r.Cursor)
	assert.Equal(t, ModeSetStart, r.Mode)
	assert.True(t, r.Inside)

	assert.True(t, c.Click(200, 150))
	assert.Equal(t, document.Point{X: 200, Y: 150}, sc.Start())
	assert.Equal(t, ModeNone, sc.Mode())

	assert.False(t, c.Click(300, 300), "mode is spent after one placement")
	assert.Equal(t, document.Point{X: 200, Y: 150}, sc.Start())
}

func TestSetGoalModeClampsNearEdge(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)
	c.EnterSetGoalMode()

	assert.True(t, c.Click(799, 2))
	assert.Equal(t, document.Point{X: 788, Y: 12}, sc.Goal())
}

func TestMoveReportsObstacleUnderPointer(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)
	sc.AddObstacle(document.NewRectangle(100, 100, 60, 60))
	sc.AddObstacle(document.NewCircle(150, 150, 20))

	assert.Equal(t, 1, c.Move(150, 150).Obstacle, "topmost wins")
	assert.Equal(t, 0, c.Move(105, 105).Obstacle)
	assert.Equal(t, -1, c.Move(400, 400).Obstacle)
}

func TestClickOutsideSurfaceKeepsMode(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)
	c.EnterSetGoalMode()

	assert.False(t, c.Click(-10, 40))
	assert.Equal(t, ModeSetGoal, sc.Mode())

	r := c.Move(900, 40)
	assert.False(t, r.Inside)
	assert.Equal(t, CursorDefault, r.Cursor)
}

func TestCancelModeAndSwitching(t *testing.T) {
	sc := newTestScene()
	c := NewController(sc)

	c.EnterSetStartMode()
	c.EnterSetGoalMode()
	assert.Equal(t, ModeSetGoal, sc.Mode())

	c.CancelMode()
	assert.Equal(t, ModeNone, sc.Mode())
	assert.False(t, c.Click(100, 100))
}

func TestEngineClickRepaints(t *testing.T) {
	e, rec, _ := newRecordingEngine(t, 1)
	e.EnterSetStartMode()
	rec.Clear("#000000")

	assert.True(t, e.Click(120, 130))
	assert.NotEmpty(t, rec.Commands())
	assert.Equal(t, document.Point{X: 120, Y: 130}, e.Scene().Start())
	assert.Equal(t, ModeNone, e.Move(120, 130).Mode)
}
