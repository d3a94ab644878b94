package depthmap

import "math"

// ResizeArea resamples the depth map to the given size, averaging the source
// box that falls under each destination pixel. Holes contribute nothing to
// the average; a destination pixel covered only by holes stays NaN. With
// equal dimensions the result is a plain copy.
func (dm *DepthMap) ResizeArea(width, height int) *DepthMap {
	if width == dm.width && height == dm.height {
		return dm.Clone()
	}
	data := areaResize(dm.data, dm.width, dm.height, width, height)
	return &DepthMap{width: width, height: height, data: data}
}

// areaResize box-averages a row-major float grid from sw x sh to dw x dh.
// Source pixels are weighted by how much of them each destination box covers,
// so integer-factor downscales are exact averages. NaN entries are skipped;
// a destination box with no finite coverage comes out NaN.
func areaResize(src []float64, sw, sh, dw, dh int) []float64 {
	dst := make([]float64, dw*dh)
	xRatio := float64(sw) / float64(dw)
	yRatio := float64(sh) / float64(dh)

	for dy := 0; dy < dh; dy++ {
		sy0 := float64(dy) * yRatio
		sy1 := float64(dy+1) * yRatio
		yStart, yEnd := int(sy0), int(math.Ceil(sy1))
		if yEnd > sh {
			yEnd = sh
		}
		for dx := 0; dx < dw; dx++ {
			sx0 := float64(dx) * xRatio
			sx1 := float64(dx+1) * xRatio
			xStart, xEnd := int(sx0), int(math.Ceil(sx1))
			if xEnd > sw {
				xEnd = sw
			}

			var sum, weight float64
			for y := yStart; y < yEnd; y++ {
				wy := overlap(float64(y), float64(y+1), sy0, sy1)
				for x := xStart; x < xEnd; x++ {
					v := src[y*sw+x]
					if math.IsNaN(v) {
						continue
					}
					w := wy * overlap(float64(x), float64(x+1), sx0, sx1)
					sum += w * v
					weight += w
				}
			}
			if weight > 0 {
				dst[dy*dw+dx] = sum / weight
			} else {
				dst[dy*dw+dx] = math.NaN()
			}
		}
	}
	return dst
}

// overlap returns the length of the intersection of [a0, a1] and [b0, b1].
func overlap(a0, a1, b0, b1 float64) float64 {
	lo, hi := math.Max(a0, b0), math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
