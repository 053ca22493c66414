package engine

// Cursor affordances reported to the host.
const (
	CursorDefault   = "default"
	CursorCrosshair = "crosshair"
)

// Readout is the live pointer coordinate display.
type Readout struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Inside bool    `json:"inside"`
	Cursor string  `json:"cursor"`
	Mode   Mode    `json:"mode"`
	// Obstacle is the index of the topmost obstacle under the pointer, or -1.
	Obstacle int `json:"obstacle"`
}

// Controller maps pointer input onto the scene. A click while a set mode is
// active places the marker and returns to ModeNone.
type Controller struct {
	scene *Scene
}

func NewController(scene *Scene) *Controller {
	return &Controller{scene: scene}
}

func (c *Controller) EnterSetStartMode() { c.scene.setMode(ModeSetStart) }
func (c *Controller) EnterSetGoalMode()  { c.scene.setMode(ModeSetGoal) }
func (c *Controller) CancelMode()        { c.scene.setMode(ModeNone) }

// Click consumes a pointer click in surface-local coordinates. It reports
// whether the click placed a marker.
func (c *Controller) Click(x, y float64) bool {
	mode := c.scene.Mode()
	if mode == ModeNone || !c.scene.Bounds().Contains(x, y) {
		return false
	}

	var placed bool
	switch mode {
	case ModeSetStart:
		placed = c.scene.SetStart(x, y)
	case ModeSetGoal:
		placed = c.scene.SetGoal(x, y)
	}
	if placed {
		c.scene.setMode(ModeNone)
	}
	return placed
}

// Move reports the pointer position and the cursor to show for it.
func (c *Controller) Move(x, y float64) Readout {
	mode := c.scene.Mode()
	cursor := CursorDefault
	inside := c.scene.Bounds().Contains(x, y)
	if mode != ModeNone && inside {
		cursor = CursorCrosshair
	}
	return Readout{X: x, Y: y, Inside: inside, Cursor: cursor, Mode: mode, Obstacle: c.scene.ObstacleAt(x, y)}
}
