package preset

import (
	"math"
	"math/rand/v2"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

const wallThickness = 20

// Builtins returns the read-only scenes every server offers, keyed by a
// stable ID.
func Builtins() []Preset {
	return []Preset{
		builtin("empty", "Empty", "A scene without obstacles for basic algorithm checks.", emptyScene()),
		builtin("narrow_passage", "Narrow Passage", "Two walls leave a single narrow gap in the middle.", narrowPassage()),
		builtin("maze", "Maze", "A walled maze that tests exploration.", maze()),
		builtin("obstacle_field", "Obstacle Field", "Circular obstacles scattered across the scene.", obstacleField(20)),
		builtin("spiral", "Spiral", "Nested walls with alternating openings.", spiral()),
		builtin("bugtrap", "Bug Trap", "A U-shaped trap around the start that punishes greedy search.", bugtrap()),
	}
}

func builtin(id, name, desc string, scene document.SceneFile) Preset {
	return Preset{ID: id, Name: name, Description: desc, Builtin: true, Scene: scene}
}

func baseScene(start, goal document.Point) document.SceneFile {
	return document.SceneFile{
		Width:      document.DefaultWidth,
		Height:     document.DefaultHeight,
		Start:      &start,
		Goal:       &goal,
		Obstacles:  []document.Obstacle{},
		Algorithm:  document.AlgorithmRRTStar,
		Parameters: document.DefaultParameters(),
		Speed:      1,
	}
}

func emptyScene() document.SceneFile {
	return baseScene(document.Point{X: 50, Y: 50}, document.Point{X: 750, Y: 550})
}

func narrowPassage() document.SceneFile {
	const w, h, gap = document.DefaultWidth, document.DefaultHeight, 50.0
	s := baseScene(document.Point{X: 50, Y: h / 2}, document.Point{X: w - 50, Y: h / 2})
	wallY := float64(h)/2 - 10
	wallW := float64(w)/2 - gap/2
	s.Obstacles = append(s.Obstacles,
		document.NewRectangle(0, wallY, wallW, 20),
		document.NewRectangle(float64(w)/2+gap/2, wallY, wallW, 20),
	)
	return s
}

func maze() document.SceneFile {
	const w, h = document.DefaultWidth, document.DefaultHeight
	s := baseScene(document.Point{X: 50, Y: 50}, document.Point{X: w - 50, Y: h - 50})
	walls := [][4]float64{
		{0, 0, w, wallThickness},
		{0, h - wallThickness, w, wallThickness},
		{0, 0, wallThickness, h},
		{w - wallThickness, 0, wallThickness, h},

		{100, 100, 400, wallThickness},
		{300, 200, 400, wallThickness},
		{100, 300, 300, wallThickness},
		{500, 300, 200, wallThickness},
		{200, 400, 500, wallThickness},
		{100, 500, 300, wallThickness},

		{200, 100, wallThickness, 100},
		{400, 100, wallThickness, 100},
		{200, 200, wallThickness, 100},
		{600, 200, wallThickness, 200},
		{300, 400, wallThickness, 100},
		{500, 400, wallThickness, 100},
	}
	for _, r := range walls {
		s.Obstacles = append(s.Obstacles, document.NewRectangle(r[0], r[1], r[2], r[3]))
	}
	return s
}

// obstacleField scatters circles with a fixed seed so the scene is the same
// on every server. Circles too close to the start or goal are skipped.
func obstacleField(n int) document.SceneFile {
	const w, h = document.DefaultWidth, document.DefaultHeight
	s := emptyScene()
	rng := rand.New(rand.NewPCG(42, 0))

	for i := 0; i < n; i++ {
		r := 20 + rng.Float64()*30
		x := r + rng.Float64()*(w-2*r)
		y := r + rng.Float64()*(h-2*r)
		if dist(x, y, *s.Start) > r+50 && dist(x, y, *s.Goal) > r+50 {
			s.Obstacles = append(s.Obstacles, document.NewCircle(x, y, r))
		}
	}
	return s
}

func spiral() document.SceneFile {
	const cx, cy = document.DefaultWidth / 2, document.DefaultHeight / 2
	const spacing = 60
	s := baseScene(document.Point{X: cx, Y: cy}, document.Point{X: cx - 300, Y: cy - 300})

	for i := 0; i < 6; i++ {
		r := float64(100 + i*spacing)
		x, y := float64(cx)-r, float64(cy)-r
		if i%2 == 0 {
			s.Obstacles = append(s.Obstacles,
				document.NewRectangle(x, y, 2*r-wallThickness, wallThickness),
				document.NewRectangle(float64(cx)+r-wallThickness, y, wallThickness, 2*r),
				document.NewRectangle(x, float64(cy)+r-wallThickness, 2*r, wallThickness),
			)
		} else {
			s.Obstacles = append(s.Obstacles,
				document.NewRectangle(x, y, 2*r, wallThickness),
				document.NewRectangle(x, float64(cy)+r-wallThickness, 2*r-wallThickness, wallThickness),
				document.NewRectangle(x, y, wallThickness, 2*r),
			)
		}
	}
	return s
}

func bugtrap() document.SceneFile {
	const cx, cy = document.DefaultWidth / 2, document.DefaultHeight / 2
	const size = 200
	s := baseScene(document.Point{X: cx, Y: cy}, document.Point{X: cx, Y: cy - size})
	left, top := float64(cx-size/2), float64(cy-size/2)
	s.Obstacles = append(s.Obstacles,
		document.NewRectangle(left, top, wallThickness, size),
		document.NewRectangle(left, float64(cy+size/2-wallThickness), size, wallThickness),
		document.NewRectangle(float64(cx+size/2-wallThickness), top, wallThickness, size),
	)
	return s
}

func dist(x, y float64, p document.Point) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}
