//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

var (
	eng      *engine.Engine
	recorder *surface.Recorder
	frames   *engine.ManualScheduler
	dirty    bool
)

func main() {
	width, height := float64(document.DefaultWidth), float64(document.DefaultHeight)
	if w := js.Global().Get("rrtvizCanvasWidth"); w.Type() == js.TypeNumber {
		width = w.Float()
	}
	if h := js.Global().Get("rrtvizCanvasHeight"); h.Type() == js.TypeNumber {
		height = h.Float()
	}

	recorder = surface.NewRecorder(width, height)
	frames = engine.NewManualScheduler()
	eng = engine.New(recorder, frames, engine.DefaultOptions())
	eng.OnPaint(func() { dirty = true })
	eng.Render()

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("setStart", js.FuncOf(setStart))
	api.Set("setGoal", js.FuncOf(setGoal))
	api.Set("addObstacle", js.FuncOf(addObstacle))
	api.Set("removeObstacle", js.FuncOf(removeObstacle))
	api.Set("clearObstacles", js.FuncOf(clearObstacles))
	api.Set("ingestResult", js.FuncOf(ingestResult))
	api.Set("clearResult", js.FuncOf(clearResult))
	api.Set("cancelAnimation", js.FuncOf(cancelAnimation))
	api.Set("reset", js.FuncOf(reset))
	api.Set("loadScene", js.FuncOf(loadScene))
	api.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	api.Set("enterSetStartMode", js.FuncOf(enterSetStartMode))
	api.Set("enterSetGoalMode", js.FuncOf(enterSetGoalMode))
	api.Set("cancelMode", js.FuncOf(cancelMode))
	api.Set("click", js.FuncOf(click))
	api.Set("setSpeed", js.FuncOf(setSpeed))
	api.Set("setAnimate", js.FuncOf(setAnimate))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("move", js.FuncOf(move))
	api.Set("getState", js.FuncOf(getState))
	api.Set("isAnimating", js.FuncOf(isAnimating))

	js.Global().Set("rrtvizEngine", api)
	js.Global().Set("rrtvizWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func okResult(ok bool) interface{} {
	return js.ValueOf(map[string]interface{}{"ok": ok})
}

func errResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// point reads two numeric arguments. Anything that is not a finite number is rejected.
func point(args []js.Value) (x, y float64, ok bool) {
	if len(args) < 2 || args[0].Type() != js.TypeNumber || args[1].Type() != js.TypeNumber {
		return 0, 0, false
	}
	x, okX := document.Coordinate(args[0].Float())
	y, okY := document.Coordinate(args[1].Float())
	return x, y, okX && okY
}

// --- Command Handlers ---

func setStart(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	return okResult(ok && eng.SetStart(x, y))
}

func setGoal(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	return okResult(ok && eng.SetGoal(x, y))
}

func addObstacle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing obstacle JSON")
	}
	var o document.Obstacle
	if err := json.Unmarshal([]byte(args[0].String()), &o); err != nil {
		return errResult(err.Error())
	}
	return okResult(eng.AddObstacle(o))
}

func removeObstacle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return okResult(false)
	}
	return okResult(eng.RemoveObstacle(args[0].Int()))
}

func clearObstacles(this js.Value, args []js.Value) interface{} {
	eng.ClearObstacles()
	return nil
}

func ingestResult(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing planner response JSON")
	}
	var resp document.PlanResponse
	if err := json.Unmarshal([]byte(args[0].String()), &resp); err != nil {
		return errResult(err.Error())
	}
	if resp.Error != "" {
		return errResult(resp.Error)
	}
	res, err := resp.Result()
	if err != nil {
		return errResult(err.Error())
	}
	eng.IngestResult(res, resp.Details)
	return okResult(true)
}

func clearResult(this js.Value, args []js.Value) interface{} {
	eng.ClearResult()
	return nil
}

func cancelAnimation(this js.Value, args []js.Value) interface{} {
	eng.CancelAnimation()
	return nil
}

func reset(this js.Value, args []js.Value) interface{} {
	eng.Reset()
	return nil
}

// loadScene accepts a scene file as JSON or YAML.
func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errResult("missing scene")
	}
	text := args[0].String()

	var f *document.SceneFile
	var err error
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		f, err = document.LoadSceneJSON(strings.NewReader(text))
	} else {
		f, err = document.LoadSceneYAML(strings.NewReader(text))
	}
	if err != nil {
		return errResult(err.Error())
	}

	skipped := eng.LoadScene(f)
	return js.ValueOf(map[string]interface{}{"ok": true, "skipped": len(skipped)})
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	eng.LoadScene(document.NewSampleScene())
	return okResult(true)
}

func enterSetStartMode(this js.Value, args []js.Value) interface{} {
	eng.EnterSetStartMode()
	return nil
}

func enterSetGoalMode(this js.Value, args []js.Value) interface{} {
	eng.EnterSetGoalMode()
	return nil
}

func cancelMode(this js.Value, args []js.Value) interface{} {
	eng.CancelMode()
	return nil
}

func click(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	return okResult(ok && eng.Click(x, y))
}

func setSpeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return okResult(false)
	}
	return okResult(eng.SetSpeed(args[0].Float()))
}

func setAnimate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetAnimate(args[0].Truthy())
	return nil
}

// tick runs one animation frame. It returns the draw commands when the
// canvas changed since the last call, null otherwise. Call it from
// requestAnimationFrame.
func tick(this js.Value, args []js.Value) interface{} {
	if frames.Pending() > 0 {
		frames.Advance()
	}
	if !dirty {
		return nil
	}
	dirty = false
	return commandsJSON()
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	dirty = false
	return commandsJSON()
}

func move(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return nil
	}
	data, err := json.Marshal(eng.Move(x, y))
	if err != nil {
		return nil
	}
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.StateJSON())
}

func isAnimating(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Animating())
}

func commandsJSON() interface{} {
	data, err := recorder.JSON()
	if err != nil {
		return nil
	}
	return js.ValueOf(string(data))
}
