package surface

import "encoding/json"

// Command is one recorded drawing operation. The browser replays them on a
// Canvas2D context in order.
type Command struct {
	Op     string  `json:"op"` // "clear", "fillCircle", "strokeCircle", "line", "fillRoundRect", "strokeRoundRect", "save", "clip", "restore"
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	R      float64 `json:"r"`
	Color  string  `json:"color,omitempty"`
	Fill   *Paint  `json:"fill,omitempty"`
	Stroke *Stroke `json:"stroke,omitempty"`
}

// Recorder is a Surface that keeps the commands of the current frame.
type Recorder struct {
	width, height float64
	commands      []Command
}

// NewRecorder creates a recorder for a surface of the given size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Width() float64  { return r.width }
func (r *Recorder) Height() float64 { return r.height }

func (r *Recorder) Clear(color string) {
	r.commands = r.commands[:0]
	r.add(Command{Op: "clear", Color: color})
}

func (r *Recorder) FillCircle(x, y, rad float64, fill Paint) {
	r.add(Command{Op: "fillCircle", X: x, Y: y, R: rad, Fill: &fill})
}

func (r *Recorder) StrokeCircle(x, y, rad float64, stroke Stroke) {
	r.add(Command{Op: "strokeCircle", X: x, Y: y, R: rad, Stroke: &stroke})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, stroke Stroke) {
	r.add(Command{Op: "line", X: x1, Y: y1, X2: x2, Y2: y2, Stroke: &stroke})
}

func (r *Recorder) FillRoundedRect(x, y, w, h, rad float64, fill Paint) {
	r.add(Command{Op: "fillRoundRect", X: x, Y: y, W: w, H: h, R: rad, Fill: &fill})
}

func (r *Recorder) StrokeRoundedRect(x, y, w, h, rad float64, stroke Stroke) {
	r.add(Command{Op: "strokeRoundRect", X: x, Y: y, W: w, H: h, R: rad, Stroke: &stroke})
}

func (r *Recorder) PushClipRect(x, y, w, h float64) {
	r.add(Command{Op: "save"})
	r.add(Command{Op: "clip", X: x, Y: y, W: w, H: h})
}

func (r *Recorder) PopClip() {
	r.add(Command{Op: "restore"})
}

// Commands returns a copy of the commands recorded since the last Clear.
func (r *Recorder) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// JSON serializes the current frame.
func (r *Recorder) JSON() ([]byte, error) {
	if len(r.commands) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(r.commands)
}

func (r *Recorder) add(c Command) {
	r.commands = append(r.commands, c)
}

// Multi paints every call on each of its surfaces. The first surface
// defines the dimensions.
type Multi []Surface

func (m Multi) Width() float64  { return m[0].Width() }
func (m Multi) Height() float64 { return m[0].Height() }

func (m Multi) Clear(color string) {
	for _, s := range m {
		s.Clear(color)
	}
}

func (m Multi) FillCircle(x, y, r float64, fill Paint) {
	for _, s := range m {
		s.FillCircle(x, y, r, fill)
	}
}

func (m Multi) StrokeCircle(x, y, r float64, stroke Stroke) {
	for _, s := range m {
		s.StrokeCircle(x, y, r, stroke)
	}
}

func (m Multi) Line(x1, y1, x2, y2 float64, stroke Stroke) {
	for _, s := range m {
		s.Line(x1, y1, x2, y2, stroke)
	}
}

func (m Multi) FillRoundedRect(x, y, w, h, r float64, fill Paint) {
	for _, s := range m {
		s.FillRoundedRect(x, y, w, h, r, fill)
	}
}

func (m Multi) StrokeRoundedRect(x, y, w, h, r float64, stroke Stroke) {
	for _, s := range m {
		s.StrokeRoundedRect(x, y, w, h, r, stroke)
	}
}

func (m Multi) PushClipRect(x, y, w, h float64) {
	for _, s := range m {
		s.PushClipRect(x, y, w, h)
	}
}

func (m Multi) PopClip() {
	for _, s := range m {
		s.PopClip()
	}
}
