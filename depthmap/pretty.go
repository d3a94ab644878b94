package depthmap

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ToPrettyPicture renders the depth map as a false-color image for debugging.
// Depths are clamped to [hardMin, hardMax] when that range is non-empty and
// mapped onto a hue ramp; holes come out black.
func (dm *DepthMap) ToPrettyPicture(hardMin, hardMax float64) image.Image {
	min, max := dm.MinMax()
	if !math.IsNaN(hardMin) && min < hardMin {
		min = hardMin
	}
	if !math.IsNaN(hardMax) && max > hardMax {
		max = hardMax
	}

	img := image.NewRGBA(image.Rect(0, 0, dm.width, dm.height))
	span := max - min
	if span <= 0 || math.IsNaN(span) {
		return img
	}

	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			z := dm.At(x, y)
			if math.IsNaN(z) {
				continue
			}
			if z < min {
				z = min
			}
			if z > max {
				z = max
			}
			ratio := (z - min) / span
			hue := 30 + 200.0*ratio
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}
