package zones

import (
	"image"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const overlayFillAlpha = 0.25

// RenderOverlay draws the enabled zones onto a transparent raster of the
// given size, for export or for compositing over the video surface by the
// UI layer. Zone colors are "#RRGGBB" strings; unparseable colors fall back
// to white.
func (e *Engine) RenderOverlay(width, height int) image.Image {
	dc := gg.NewContext(width, height)
	for _, zone := range e.Zones() {
		if !zone.Enabled || len(zone.Points) == 0 {
			continue
		}
		col, err := colorful.Hex(zone.Color)
		if err != nil {
			col = colorful.Color{R: 1, G: 1, B: 1}
		}

		switch zone.Kind {
		case KindRectangle:
			b := zone.Bounds()
			dc.DrawRectangle(float64(b.X), float64(b.Y), float64(b.Width), float64(b.Height))
		case KindPolygon:
			dc.MoveTo(float64(zone.Points[0].X), float64(zone.Points[0].Y))
			for _, p := range zone.Points[1:] {
				dc.LineTo(float64(p.X), float64(p.Y))
			}
			dc.ClosePath()
		}

		dc.SetRGBA(col.R, col.G, col.B, overlayFillAlpha)
		dc.FillPreserve()
		dc.SetRGBA(col.R, col.G, col.B, 1)
		dc.SetLineWidth(2)
		dc.Stroke()
	}
	return dc.Image()
}
