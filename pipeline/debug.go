package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"go.viam.com/grasp/heatmap"
)

var debugFont *truetype.Font

// init sets up the font used for debug labels.
func init() {
	var err error
	debugFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// writeDebugArt saves a false-color picture of the quality map with every
// chosen grasp drawn on top: a center dot, the jaw line at the predicted
// angle and width, and a quality label. Files are named by request time so
// successive requests do not clobber each other.
func (p *Pipeline) writeDebugArt(maps *heatmap.Maps, chosen []int) error {
	dc := gg.NewContextForImage(qualityPicture(maps))
	dc.SetFontFace(truetype.NewFace(debugFont, &truetype.Options{Size: 12}))
	for i, idx := range chosen {
		px := maps.Pixel(idx)
		x, y := float64(px.X), float64(px.Y)
		half := maps.WidthAt(idx) / 2
		dx := math.Cos(maps.AngleAt(idx)) * half
		dy := math.Sin(maps.AngleAt(idx)) * half

		dc.SetRGBA(1, 1, 1, 0.9)
		dc.SetLineWidth(2)
		dc.DrawLine(x-dx, y-dy, x+dx, y+dy)
		dc.Stroke()

		dc.SetRGB(0, 0, 0)
		dc.DrawCircle(x, y, 3)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawString(fmt.Sprintf("%d: q=%.2f", i, maps.QualityAt(idx)), x+6, y-6)
	}

	if err := os.MkdirAll(p.cfg.DebugDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("grasp-%d.png", time.Now().UnixNano())
	return dc.SavePNG(filepath.Join(p.cfg.DebugDir, name))
}

// qualityPicture renders the quality map as a hue ramp, low values warm and
// high values cool, like the depth pretty pictures.
func qualityPicture(maps *heatmap.Maps) image.Image {
	rows, cols := maps.Dims()
	min, max := math.Inf(1), math.Inf(-1)
	for idx := 0; idx < rows*cols; idx++ {
		q := maps.QualityAt(idx)
		min = math.Min(min, q)
		max = math.Max(max, q)
	}
	span := max - min
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	if span <= 0 {
		return img
	}
	for idx := 0; idx < rows*cols; idx++ {
		ratio := (maps.QualityAt(idx) - min) / span
		hue := 30 + (200 * ratio)
		r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
		img.Set(idx%cols, idx/cols, color.NRGBA{r, g, b, 255})
	}
	return img
}
