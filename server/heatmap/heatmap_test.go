package heatmap

import (
	"testing"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func detAt(cx, cy int) nn.Detection {
	return nn.Detection{
		Class:      nn.COCOPerson,
		Confidence: 0.9,
		Box:        nn.Rect{X: cx - 5, Y: cy - 5, Width: 10, Height: 10},
	}
}

func TestIngestAndClear(t *testing.T) {
	a := NewAccumulator(logs.NewTestingLog(t), 200, 200, 20)
	require.Equal(t, uint32(0), a.MaxCount())

	// Two detections in the same cell, one in another
	a.Ingest([]nn.Detection{detAt(30, 30), detAt(35, 35), detAt(150, 150)})
	require.Equal(t, uint32(2), a.MaxCount())
	require.Equal(t, 2, a.CellCount())

	// Empty ingest is fine and changes nothing
	a.Ingest(nil)
	require.Equal(t, uint32(2), a.MaxCount())

	a.Clear()
	require.Equal(t, uint32(0), a.MaxCount())
	require.Equal(t, 0, a.CellCount())
}

// The running maximum only ever grows between clears
func TestMaxCountMonotone(t *testing.T) {
	a := NewAccumulator(logs.NewTestingLog(t), 200, 200, 20)
	previous := uint32(0)
	for i := 0; i < 50; i++ {
		a.Ingest([]nn.Detection{detAt(10+(i%7)*25, 10)})
		current := a.MaxCount()
		require.GreaterOrEqual(t, current, previous)
		previous = current
	}
	a.Clear()
	require.Equal(t, uint32(0), a.MaxCount())
}

// Resize changes the raster size but deliberately keeps cell coordinates
// as they are (see the Resize doc comment)
func TestResizeKeepsCells(t *testing.T) {
	a := NewAccumulator(logs.NewTestingLog(t), 200, 200, 20)
	a.Ingest([]nn.Detection{detAt(30, 30)})
	a.Resize(400, 300)
	require.Equal(t, uint32(1), a.MaxCount())
	require.Equal(t, 1, a.CellCount())
	img := a.Render()
	require.Equal(t, 400, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())
}

func TestRender(t *testing.T) {
	a := NewAccumulator(logs.NewTestingLog(t), 200, 200, 20)

	// Empty accumulator renders a fully transparent raster
	img := a.Render()
	require.Equal(t, uint8(0), img.NRGBAAt(100, 100).A)

	a.Ingest([]nn.Detection{detAt(110, 110), detAt(110, 110), detAt(110, 110)})
	img = a.Render()

	// The hotspot cell center is opaque-ish, far corners are untouched
	hot := img.NRGBAAt(110, 110)
	require.Greater(t, hot.A, uint8(0))
	require.Equal(t, uint8(0), img.NRGBAAt(5, 5).A)
	require.Equal(t, uint8(0), img.NRGBAAt(195, 195).A)

	// Full intensity on the hot ramp is red
	require.Greater(t, hot.R, hot.B)
}

func TestRenderSchemes(t *testing.T) {
	a := NewAccumulator(logs.NewTestingLog(t), 100, 100, 20)
	a.Ingest([]nn.Detection{detAt(50, 50)})

	require.ErrorIs(t, a.SetColorScheme("plasma"), ErrUnknownScheme)

	for _, scheme := range []ColorScheme{SchemeHot, SchemeCool, SchemeRainbow} {
		require.NoError(t, a.SetColorScheme(scheme))
		img := a.Render()
		require.Greater(t, img.NRGBAAt(50, 50).A, uint8(0), "scheme %v", scheme)
	}

	// Blur smears heat into neighboring pixels but keeps the raster size
	a.SetBlur(3)
	img := a.Render()
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 100, img.Bounds().Dy())
}

func TestRampColor(t *testing.T) {
	// Hot ramp endpoints: blue at 0, red at 1
	low := rampColor(SchemeHot, 0)
	require.InDelta(t, 0, low.R, 0.01)
	require.InDelta(t, 1, low.B, 0.01)
	high := rampColor(SchemeHot, 1)
	require.InDelta(t, 1, high.R, 0.01)
	require.InDelta(t, 0, high.B, 0.01)

	// Cool ramp ends at white
	white := rampColor(SchemeCool, 1)
	require.InDelta(t, 1, white.R, 0.01)
	require.InDelta(t, 1, white.G, 0.01)
	require.InDelta(t, 1, white.B, 0.01)

	// Rainbow stays in gamut across the sweep
	for t10 := 0; t10 <= 10; t10++ {
		c := rampColor(SchemeRainbow, float32(t10)/10)
		require.True(t, c.IsValid())
	}
}
