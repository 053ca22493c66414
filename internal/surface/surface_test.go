package surface

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanvasRejectsEmptySize(t *testing.T) {
	_, err := NewCanvas(0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecorderClearStartsFrame(t *testing.T) {
	r := NewRecorder(100, 50)
	r.Clear("#000000")
	r.FillCircle(10, 10, 5, Solid("#ff0000"))
	r.Clear("#ffffff")
	r.Line(0, 0, 10, 10, Stroke{Color: "#00ff00", Width: 2})

	cmds := r.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "clear", cmds[0].Op)
	assert.Equal(t, "#ffffff", cmds[0].Color)
	assert.Equal(t, "line", cmds[1].Op)
	assert.Equal(t, 2.0, cmds[1].Stroke.Width)
}

func TestRecorderJSON(t *testing.T) {
	r := NewRecorder(100, 50)
	data, err := r.JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	r.Clear("#000000")
	r.FillRoundedRect(1, 2, 3, 4, 1, LinearGradient(0, 0, 1, 1, "#111111", "#222222"))
	data, err = r.JSON()
	require.NoError(t, err)

	var cmds []map[string]any
	require.NoError(t, json.Unmarshal(data, &cmds))
	require.Len(t, cmds, 2)
	assert.Equal(t, "fillRoundRect", cmds[1]["op"])
	fill := cmds[1]["fill"].(map[string]any)
	assert.Equal(t, "linear", fill["gradient"].(map[string]any)["kind"])
}

func TestMultiFansOut(t *testing.T) {
	a := NewRecorder(10, 10)
	b := NewRecorder(20, 20)
	m := Multi{a, b}

	m.Clear("#000000")
	m.PushClipRect(0, 0, 5, 5)
	m.StrokeCircle(1, 1, 1, Stroke{Color: "#fff", Width: 1})
	m.PopClip()

	assert.Equal(t, 10.0, m.Width())
	assert.Equal(t, a.Commands(), b.Commands())
	assert.Len(t, a.Commands(), 5)
}

func TestRecorderKeepsZeroCoordinates(t *testing.T) {
	r := NewRecorder(100, 100)
	r.Clear("#000000")
	r.Line(0, 0, 0, 100, Stroke{Color: "#fff", Width: 1})
	r.PushClipRect(0, 0, 100, 100)
	r.PopClip()

	data, err := r.JSON()
	require.NoError(t, err)
	var cmds []map[string]any
	require.NoError(t, json.Unmarshal(data, &cmds))
	require.Len(t, cmds, 5)

	line := cmds[1]
	for _, k := range []string{"x", "y", "x2", "y2"} {
		assert.Contains(t, line, k)
	}
	assert.Equal(t, 0.0, line["x"])
	assert.Equal(t, 100.0, line["y2"])

	ops := []any{cmds[2]["op"], cmds[3]["op"], cmds[4]["op"]}
	assert.Equal(t, []any{"save", "clip", "restore"}, ops)
	assert.Contains(t, cmds[3], "x")
}

func TestCanvasPaintsAndEncodes(t *testing.T) {
	c, err := NewCanvas(40, 30)
	require.NoError(t, err)
	assert.Equal(t, 40.0, c.Width())

	c.Clear("#000000")
	c.FillCircle(20, 15, 8, RadialGradient(20, 15, 0, 8, "#ffffff", "#ff0000"))
	c.PushClipRect(0, 0, 10, 10)
	c.Line(0, 0, 40, 30, Stroke{Color: "#00ff00", Width: 2})
	c.PopClip()

	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	r, _, _, _ := img.At(20, 15).RGBA()
	assert.NotZero(t, r, "circle center should be painted")
}
