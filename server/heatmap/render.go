package heatmap

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Render rasterizes the heat grid onto a transparent RGBA surface of the
// current width and height.
//
// Every non-empty cell contributes a smooth radial falloff centered on the
// cell, blended additively into a single-channel intensity buffer so that
// overlapping hotspots intensify. The accumulated intensity is clamped to
// [0,1], remapped per-pixel through the active color ramp, and written out
// with alpha scaled by the configured opacity. An optional blur pass smooths
// the result.
func (a *Accumulator) Render() *image.NRGBA {
	a.lock.Lock()
	defer a.lock.Unlock()

	img := image.NewNRGBA(image.Rect(0, 0, a.width, a.height))
	if a.maxCount == 0 || a.width <= 0 || a.height <= 0 {
		return img
	}

	accum := make([]float32, a.width*a.height)
	radius := float32(a.gridSize) * 1.5 * a.intensity
	for key, count := range a.cells {
		cx := float32(key.X*a.gridSize) + float32(a.gridSize)/2
		cy := float32(key.Y*a.gridSize) + float32(a.gridSize)/2
		norm := float32(count) / float32(a.maxCount)
		splat(accum, a.width, a.height, cx, cy, radius, norm)
	}

	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			v := min(accum[y*a.width+x], 1)
			if v <= 0 {
				continue
			}
			col := rampColor(a.scheme, v)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(col.R*255 + 0.5)
			img.Pix[i+1] = uint8(col.G*255 + 0.5)
			img.Pix[i+2] = uint8(col.B*255 + 0.5)
			img.Pix[i+3] = uint8(v*a.opacity*255 + 0.5)
		}
	}

	if a.blurSigma > 0 {
		return imaging.Blur(img, a.blurSigma)
	}
	return img
}

// splat adds a quadratic radial falloff into the intensity buffer
func splat(accum []float32, width, height int, cx, cy, radius, weight float32) {
	x1 := max(int(cx-radius), 0)
	y1 := max(int(cy-radius), 0)
	x2 := min(int(cx+radius)+1, width)
	y2 := min(int(cy+radius)+1, height)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			dx := float32(x) - cx
			dy := float32(y) - cy
			d := math32.Sqrt(dx*dx + dy*dy)
			if d >= radius {
				continue
			}
			f := 1 - d/radius
			accum[y*width+x] += weight * f * f
		}
	}
}

// rampColor maps a normalized intensity in [0,1] to a color
func rampColor(scheme ColorScheme, t float32) colorful.Color {
	t = clamp(t, 0, 1)
	switch scheme {
	case SchemeCool:
		blue := colorful.Color{R: 0, G: 0, B: 1}
		white := colorful.Color{R: 1, G: 1, B: 1}
		return blue.BlendRgb(white, float64(t))
	case SchemeRainbow:
		// Full hue sweep, cold blue at the bottom to red at the top
		return colorful.Hsl(float64(1-t)*240, 1, 0.5)
	default:
		return hotRamp(t)
	}
}

var hotStops = []colorful.Color{
	{R: 0, G: 0, B: 1}, // blue
	{R: 0, G: 1, B: 1}, // cyan
	{R: 0, G: 1, B: 0}, // green
	{R: 1, G: 1, B: 0}, // yellow
	{R: 1, G: 0, B: 0}, // red
}

// hotRamp interpolates piecewise-linearly between the classic thermal stops
func hotRamp(t float32) colorful.Color {
	if t >= 1 {
		return hotStops[len(hotStops)-1]
	}
	scaled := float64(t) * float64(len(hotStops)-1)
	i := int(scaled)
	frac := scaled - float64(i)
	return hotStops[i].BlendRgb(hotStops[i+1], frac)
}
