package heatmap

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/grasp/depthmap"
)

// ErrNoValidPixel means the selection grid and hole mask together exclude
// every pixel, or no pixel scored above zero.
var ErrNoValidPixel = errors.New("no valid pixel to grasp")

// SelectBest finds the best grasp pixel. The effective score of a pixel is
// its quality weighted by the selection grid, with repaired hole pixels
// always excluded since their depth readings are synthetic. Ties go to the
// earliest row major index so selection is deterministic. A nil sel means
// the whole grid is eligible.
func SelectBest(m *Maps, sel *mat.Dense, holes *depthmap.Mask) (int, float64, error) {
	if sel != nil {
		r, c := sel.Dims()
		if r != m.rows || c != m.cols {
			return 0, 0, errors.Errorf("selection grid is %dx%d, heat maps are %dx%d", r, c, m.rows, m.cols)
		}
	}
	if holes != nil && (holes.Height() != m.rows || holes.Width() != m.cols) {
		return 0, 0, errors.Errorf("hole mask is %dx%d, heat maps are %dx%d",
			holes.Height(), holes.Width(), m.rows, m.cols)
	}
	bestIdx := -1
	bestScore := 0.0
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			if holes != nil && holes.On(x, y) {
				continue
			}
			score := m.quality[y*m.cols+x]
			if sel != nil {
				score *= sel.At(y, x)
			}
			if score > bestScore {
				bestScore = score
				bestIdx = y*m.cols + x
			}
		}
	}
	if bestIdx < 0 {
		return 0, 0, errors.Wrap(ErrNoValidPixel, "every pixel is masked out or scored zero")
	}
	return bestIdx, bestScore, nil
}
