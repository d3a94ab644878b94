package depthmap

import (
	"math"

	"go.viam.com/grasp/utils"
)

const (
	fillTolerance = 1e-6
	fillMaxSweeps = 256
)

var neighborOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// repairHoles fills every missing reading of the map. The grid is padded by
// one replicated border pixel so edge holes always have a neighbor, valid
// depths are normalized to [0, 1], and hole values then diffuse in from their
// radius-1 neighborhoods until the fill converges. Non-hole readings pass
// through untouched. The returned mask marks the repaired pixels.
func repairHoles(dm *DepthMap) (*DepthMap, *Mask) {
	w, h := dm.width, dm.height
	holes := NewMask(w, h)
	holeCount := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if dm.IsHole(x, y) {
				holes.Set(x, y, true)
				holeCount++
			}
		}
	}
	if holeCount == 0 {
		return dm, holes
	}

	min, max := dm.MinMax()
	if math.IsNaN(min) {
		// no valid reading anywhere to diffuse from
		return &DepthMap{width: w, height: h, data: make([]float64, w*h)}, holes
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	// pad by one replicated pixel; padded copies of holes are holes too
	pw, ph := w+2, h+2
	grid := make([]float64, pw*ph)
	known := make([]bool, pw*ph)
	for py := 0; py < ph; py++ {
		sy := utils.ClampInt(py-1, 0, h-1)
		for px := 0; px < pw; px++ {
			sx := utils.ClampInt(px-1, 0, w-1)
			if v := dm.At(sx, sy); !math.IsNaN(v) {
				grid[py*pw+px] = (v - min) / span
				known[py*pw+px] = true
			}
		}
	}

	fillByDiffusion(grid, known, pw, ph)

	out := dm.Clone()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if holes.On(x, y) {
				out.data[y*w+x] = grid[(y+1)*pw+(x+1)]*span + min
			}
		}
	}
	return out, holes
}

// fillByDiffusion grows values into the unknown cells front by front, each
// cell taking the mean of its known 4-neighbors, and then relaxes the filled
// region until the largest update falls below a small tolerance.
func fillByDiffusion(grid []float64, known []bool, w, h int) {
	var holes []int
	for i, k := range known {
		if !k {
			holes = append(holes, i)
		}
	}

	pending := append([]int(nil), holes...)
	filled := make([]int, 0, len(pending))
	values := make([]float64, 0, len(pending))
	for len(pending) > 0 {
		remaining := pending[:0]
		filled, values = filled[:0], values[:0]
		for _, idx := range pending {
			x, y := idx%w, idx/w
			sum, n := 0.0, 0
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if nIdx := ny*w + nx; known[nIdx] {
					sum += grid[nIdx]
					n++
				}
			}
			if n > 0 {
				filled = append(filled, idx)
				values = append(values, sum/float64(n))
			} else {
				remaining = append(remaining, idx)
			}
		}
		if len(filled) == 0 {
			break
		}
		for i, idx := range filled {
			grid[idx] = values[i]
			known[idx] = true
		}
		pending = remaining
	}

	for sweep := 0; sweep < fillMaxSweeps; sweep++ {
		maxDelta := 0.0
		for _, idx := range holes {
			x, y := idx%w, idx/w
			sum, n := 0.0, 0
			for _, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				sum += grid[ny*w+nx]
				n++
			}
			v := sum / float64(n)
			if d := math.Abs(v - grid[idx]); d > maxDelta {
				maxDelta = d
			}
			grid[idx] = v
		}
		if maxDelta < fillTolerance {
			break
		}
	}
}
