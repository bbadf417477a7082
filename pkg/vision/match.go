// Package vision provides the default recognition engines behind the locator
// interfaces: a pure-Go template matcher and a Tesseract-backed OCR.
package vision

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// TemplateMatcher performs grayscale zero-mean normalized cross-correlation
// between a reference image and a screenshot, returning the best match
// location and its [0,1] confidence.
type TemplateMatcher struct{}

// Match implements locator.Matcher.
func (TemplateMatcher) Match(ref, screen image.Image) (core.Bounds, float64, error) {
	tpl := toGray(ref)
	scr := toGray(screen)

	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	sw, sh := scr.Rect.Dx(), scr.Rect.Dy()
	if tw == 0 || th == 0 {
		return core.Bounds{}, 0, fmt.Errorf("empty reference image")
	}
	if tw > sw || th > sh {
		return core.Bounds{}, 0, fmt.Errorf("reference image %dx%d larger than screenshot %dx%d", tw, th, sw, sh)
	}

	tplVals, tplMean := pixelValues(tpl)
	var tplVar float64
	for _, v := range tplVals {
		d := v - tplMean
		tplVar += d * d
	}

	best := -1.0
	bestX, bestY := 0, 0

	for y := 0; y <= sh-th; y++ {
		for x := 0; x <= sw-tw; x++ {
			score := correlationAt(scr, tplVals, tplMean, tplVar, x, y, tw, th)
			if score > best {
				best = score
				bestX, bestY = x, y
			}
		}
	}

	if best < 0 {
		best = 0
	}

	return core.Bounds{X: bestX, Y: bestY, Width: tw, Height: th}, best, nil
}

// correlationAt computes the zero-mean normalized cross-correlation of the
// template against the screen window at (x,y).
func correlationAt(scr *image.Gray, tplVals []float64, tplMean, tplVar float64, x, y, tw, th int) float64 {
	n := float64(tw * th)

	var winSum float64
	for dy := 0; dy < th; dy++ {
		row := (y+dy)*scr.Stride + x
		for dx := 0; dx < tw; dx++ {
			winSum += float64(scr.Pix[row+dx])
		}
	}
	winMean := winSum / n

	var cross, winVar float64
	i := 0
	for dy := 0; dy < th; dy++ {
		row := (y+dy)*scr.Stride + x
		for dx := 0; dx < tw; dx++ {
			wv := float64(scr.Pix[row+dx]) - winMean
			cross += wv * (tplVals[i] - tplMean)
			winVar += wv * wv
			i++
		}
	}

	denom := tplVar * winVar
	if denom <= 0 {
		// Flat template or flat window carries no signal to correlate.
		return 0
	}
	return cross / math.Sqrt(denom)
}

func pixelValues(img *image.Gray) ([]float64, float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	vals := make([]float64, 0, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			v := float64(img.Pix[row+x])
			vals = append(vals, v)
			sum += v
		}
	}
	return vals, sum / float64(len(vals))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}
