package document

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// NewSampleScene returns a small maze-like scene used by demos and the CLI.
func NewSampleScene() *SceneFile {
	return &SceneFile{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Start:  &Point{X: 50, Y: 50},
		Goal:   &Point{X: DefaultWidth - 50, Y: DefaultHeight - 50},
		Obstacles: []Obstacle{
			NewRectangle(150, 0, 40, 380),
			NewRectangle(350, 220, 40, 380),
			NewRectangle(550, 0, 40, 380),
			NewCircle(470, 120, 60),
			NewCircle(270, 480, 50),
		},
		Algorithm:  AlgorithmRRTStar,
		Parameters: DefaultParameters(),
		Speed:      4,
	}
}
