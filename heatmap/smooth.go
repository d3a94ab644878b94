package heatmap

import (
	"math"

	"go.viam.com/grasp/utils"
)

// gaussianFunction1D takes in a sigma and returns a gaussian function useful
// for weighing averages or blurring.
func gaussianFunction1D(sigma float64) func(p float64) float64 {
	if sigma <= 0. {
		return func(p float64) float64 {
			return 1.
		}
	}
	return func(p float64) float64 {
		return math.Exp(-0.5*math.Pow(p, 2)/math.Pow(sigma, 2)) / (sigma * math.Sqrt(2.*math.Pi))
	}
}

// Smooth blurs the quality map with a separable gaussian kernel so that the
// selected pixel sits on a stable local maximum rather than a single noisy
// spike. The angle and width maps are left alone. A sigma of zero or less is
// a no-op.
func (m *Maps) Smooth(sigma float64) {
	if sigma <= 0 {
		return
	}
	gaus := gaussianFunction1D(sigma)
	// 3 sigma of support on each side
	radius := utils.MaxInt(1, int(math.Ceil(3.*sigma)))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		kernel[i] = gaus(float64(i - radius))
	}
	blurred := convolve1D(m.quality, m.rows, m.cols, kernel, radius, false)
	m.quality = convolve1D(blurred, m.rows, m.cols, kernel, radius, true)
}

// convolve1D runs the kernel along rows, or down columns when vertical is
// set, renormalizing by the in-range weight at the borders.
func convolve1D(src []float64, rows, cols int, kernel []float64, radius int, vertical bool) []float64 {
	out := make([]float64, len(src))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			val := 0.0
			weight := 0.0
			for i, k := range kernel {
				d := i - radius
				sx, sy := x, y
				if vertical {
					sy += d
				} else {
					sx += d
				}
				if sx < 0 || sx >= cols || sy < 0 || sy >= rows {
					continue
				}
				val += k * src[sy*cols+sx]
				weight += k
			}
			out[y*cols+x] = val / weight
		}
	}
	return out
}
