package export

import (
	"math"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

// minSegment is the length below which a path segment has no direction.
const minSegment = 1e-6

// Smoothness returns the population standard deviation of the turning angles
// along path, in radians. Lower is smoother; paths with fewer than three
// points score 0.
func Smoothness(path []document.Point) float64 {
	if len(path) < 3 {
		return 0
	}

	type vec struct{ x, y float64 }
	dirs := make([]vec, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		d := vec{path[i].X - path[i-1].X, path[i].Y - path[i-1].Y}
		if n := math.Hypot(d.x, d.y); n > minSegment {
			d = vec{d.x / n, d.y / n}
		}
		dirs = append(dirs, d)
	}

	angles := make([]float64, 0, len(dirs)-1)
	var sum float64
	for i := 1; i < len(dirs); i++ {
		cos := dirs[i-1].x*dirs[i].x + dirs[i-1].y*dirs[i].y
		a := math.Acos(math.Max(-1, math.Min(1, cos)))
		angles = append(angles, a)
		sum += a
	}

	mean := sum / float64(len(angles))
	var variance float64
	for _, a := range angles {
		variance += (a - mean) * (a - mean)
	}
	return math.Sqrt(variance / float64(len(angles)))
}
