// Package heatmap accumulates detection density on a fixed spatial grid and
// renders it through a selectable color ramp.
package heatmap

import (
	"errors"
	"sync"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/cyclopcam/logs"
)

var ErrUnknownScheme = errors.New("unknown heatmap color scheme")

type ColorScheme string

const (
	SchemeHot     ColorScheme = "hot"     // blue -> cyan -> green -> yellow -> red
	SchemeCool    ColorScheme = "cool"    // blue -> white
	SchemeRainbow ColorScheme = "rainbow" // full hue sweep via HSL
)

const (
	DefaultGridSize  = 20
	DefaultIntensity = 1.0
	DefaultOpacity   = 0.6
)

// Key of one grid cell: (floor(x/gridSize), floor(y/gridSize))
type cellKey struct {
	X int
	Y int
}

// Accumulator maintains the heat grid. Cell counters only ever go up;
// the only way down is an explicit Clear. The running maximum is tracked so
// that rendering can normalize intensities into [0,1].
type Accumulator struct {
	log logs.Log

	lock     sync.Mutex
	gridSize int
	width    int
	height   int
	cells    map[cellKey]uint32
	maxCount uint32

	scheme    ColorScheme
	intensity float32 // falloff radius multiplier
	opacity   float32 // alpha of the rendered raster
	blurSigma float64 // 0 = no blur pass
}

func NewAccumulator(logger logs.Log, width, height, gridSize int) *Accumulator {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	return &Accumulator{
		log:       logs.NewPrefixLogger(logger, "Heatmap"),
		gridSize:  gridSize,
		width:     width,
		height:    height,
		cells:     map[cellKey]uint32{},
		scheme:    SchemeHot,
		intensity: DefaultIntensity,
		opacity:   DefaultOpacity,
	}
}

// Ingest bumps the counter of the cell under each detection's bbox center
func (a *Accumulator) Ingest(dets []nn.Detection) {
	a.lock.Lock()
	defer a.lock.Unlock()
	for _, det := range dets {
		center := det.Box.Center()
		key := cellKey{X: floorDiv(center.X, a.gridSize), Y: floorDiv(center.Y, a.gridSize)}
		a.cells[key]++
		if a.cells[key] > a.maxCount {
			a.maxCount = a.cells[key]
		}
	}
}

// Clear resets the grid and the running maximum
func (a *Accumulator) Clear() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.cells = map[cellKey]uint32{}
	a.maxCount = 0
}

// Resize changes the render surface dimensions. Existing cell coordinates
// are intentionally NOT remapped: cells accumulated at the old resolution
// keep their grid coordinates, so heat recorded before a resize will be
// misaligned relative to the new surface. This is a documented limitation;
// callers that care should Clear() after resizing.
func (a *Accumulator) Resize(width, height int) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.width = width
	a.height = height
}

// MaxCount returns the running maximum cell value (0 after Clear)
func (a *Accumulator) MaxCount() uint32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.maxCount
}

// CellCount returns the number of non-empty cells
func (a *Accumulator) CellCount() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.cells)
}

func (a *Accumulator) SetColorScheme(scheme ColorScheme) error {
	switch scheme {
	case SchemeHot, SchemeCool, SchemeRainbow:
	default:
		return ErrUnknownScheme
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	a.scheme = scheme
	return nil
}

// SetIntensity scales the radial falloff radius. Values are clamped to [0.1, 10].
func (a *Accumulator) SetIntensity(intensity float32) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.intensity = clamp(intensity, 0.1, 10)
}

// SetOpacity sets the alpha of the rendered raster, clamped to [0, 1]
func (a *Accumulator) SetOpacity(opacity float32) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.opacity = clamp(opacity, 0, 1)
}

// SetBlur enables a final blur pass with the given sigma (0 disables)
func (a *Accumulator) SetBlur(sigma float64) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.blurSigma = max(sigma, 0)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
