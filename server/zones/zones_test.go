package zones

import (
	"encoding/json"
	"testing"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(logs.NewTestingLog(t))
}

func TestIntersectingZones(t *testing.T) {
	e := newTestEngine(t)

	// With no zones defined at all, queries are unrestricted
	ids, unrestricted := e.IntersectingZones(nn.Rect{X: 40, Y: 40, Width: 20, Height: 20})
	require.True(t, unrestricted)
	require.Empty(t, ids)

	zone, err := e.AddZone("entrance", KindRectangle, []nn.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "#ff0000")
	require.NoError(t, err)

	// bbox center (50,50) is inside
	ids, unrestricted = e.IntersectingZones(nn.Rect{X: 40, Y: 40, Width: 20, Height: 20})
	require.False(t, unrestricted)
	require.Equal(t, []int64{zone.ID}, ids)

	// Center (150,150): zones exist, none matched -> empty, not unrestricted
	ids, unrestricted = e.IntersectingZones(nn.Rect{X: 140, Y: 140, Width: 20, Height: 20})
	require.False(t, unrestricted)
	require.Empty(t, ids)

	// Only the center counts: a box that overlaps the zone but whose center
	// is outside does not match
	ids, _ = e.IntersectingZones(nn.Rect{X: 90, Y: 90, Width: 100, Height: 100})
	require.Empty(t, ids)

	// Disabled zones never match
	_, err = e.Toggle(zone.ID)
	require.NoError(t, err)
	ids, unrestricted = e.IntersectingZones(nn.Rect{X: 40, Y: 40, Width: 20, Height: 20})
	require.False(t, unrestricted)
	require.Empty(t, ids)
}

func TestZonesContaining(t *testing.T) {
	e := newTestEngine(t)
	rect, err := e.AddZone("till", KindRectangle, []nn.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, "#00ff00")
	require.NoError(t, err)
	poly, err := e.AddZone("aisle", KindPolygon, []nn.Point{{X: 50, Y: 50}, {X: 200, Y: 50}, {X: 200, Y: 200}, {X: 50, Y: 200}}, "#0000ff")
	require.NoError(t, err)

	require.ElementsMatch(t, []int64{rect.ID, poly.ID}, e.ZonesContaining(nn.Point{X: 60, Y: 60}))
	require.Equal(t, []int64{rect.ID}, e.ZonesContaining(nn.Point{X: 10, Y: 10}))
	require.Equal(t, []int64{poly.ID}, e.ZonesContaining(nn.Point{X: 150, Y: 150}))
	require.Empty(t, e.ZonesContaining(nn.Point{X: 500, Y: 500}))
}

// A hit anywhere in the enabled-zone list must be found, not just hits among
// the first zones
func TestZonesContainingLastOfMany(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 5; i++ {
		x := i * 200
		_, err := e.AddZone("cell", KindRectangle, []nn.Point{{X: x, Y: 0}, {X: x + 100, Y: 100}}, "#808080")
		require.NoError(t, err)
	}
	last, err := e.AddZone("far corner", KindRectangle, []nn.Point{{X: 2000, Y: 2000}, {X: 2100, Y: 2100}}, "#123456")
	require.NoError(t, err)

	require.Equal(t, []int64{last.ID}, e.ZonesContaining(nn.Point{X: 2050, Y: 2050}))
	ids, unrestricted := e.IntersectingZones(nn.Rect{X: 2040, Y: 2040, Width: 20, Height: 20})
	require.False(t, unrestricted)
	require.Equal(t, []int64{last.ID}, ids)
}

func TestZoneMutations(t *testing.T) {
	e := newTestEngine(t)
	zone, err := e.AddZone("old name", KindRectangle, []nn.Point{{X: 0, Y: 0}, {X: 50, Y: 50}}, "#ffffff")
	require.NoError(t, err)
	require.True(t, zone.Enabled)

	require.NoError(t, e.Rename(zone.ID, "new name"))
	require.Equal(t, "new name", e.Zones()[0].Name)

	enabled, err := e.Toggle(zone.ID)
	require.NoError(t, err)
	require.False(t, enabled)

	require.NoError(t, e.RemoveZone(zone.ID))
	require.Empty(t, e.Zones())
	require.ErrorIs(t, e.RemoveZone(zone.ID), ErrZoneNotFound)
	require.ErrorIs(t, e.Rename(zone.ID, "x"), ErrZoneNotFound)
}

func TestRectangleDrawing(t *testing.T) {
	e := newTestEngine(t)

	// A micro-drag is an accidental click: rejected, state back to idle
	require.NoError(t, e.BeginRectangle(nn.Point{X: 10, Y: 10}))
	require.True(t, e.Drawing())
	zone, err := e.CommitRectangle(nn.Point{X: 12, Y: 13}, "tiny", "#ff0000")
	require.ErrorIs(t, err, ErrZoneTooSmall)
	require.Nil(t, zone)
	require.False(t, e.Drawing())
	require.Empty(t, e.Zones())

	// A real drag commits, regardless of drag direction
	require.NoError(t, e.BeginRectangle(nn.Point{X: 200, Y: 200}))
	require.NoError(t, e.DragRectangle(nn.Point{X: 150, Y: 170}))
	zone, err = e.CommitRectangle(nn.Point{X: 100, Y: 120}, "desk", "#ff0000")
	require.NoError(t, err)
	require.Equal(t, KindRectangle, zone.Kind)
	require.Equal(t, nn.Rect{X: 100, Y: 120, Width: 100, Height: 80}, zone.Bounds())
	require.False(t, e.Drawing())

	// Cannot start a second drawing mid-flight
	require.NoError(t, e.BeginRectangle(nn.Point{X: 0, Y: 0}))
	require.ErrorIs(t, e.BeginPolygon(nn.Point{X: 0, Y: 0}), ErrAlreadyDrawing)
	e.CancelDrawing()
	require.False(t, e.Drawing())
}

func TestPolygonDrawing(t *testing.T) {
	e := newTestEngine(t)

	// Two vertices are not enough
	require.NoError(t, e.BeginPolygon(nn.Point{X: 0, Y: 0}))
	require.NoError(t, e.AddVertex(nn.Point{X: 100, Y: 0}))
	zone, err := e.CompletePolygon("incomplete", "#00ff00")
	require.ErrorIs(t, err, ErrTooFewVertices)
	require.Nil(t, zone)
	require.False(t, e.Drawing())

	require.NoError(t, e.BeginPolygon(nn.Point{X: 0, Y: 0}))
	require.NoError(t, e.AddVertex(nn.Point{X: 100, Y: 0}))
	require.NoError(t, e.AddVertex(nn.Point{X: 50, Y: 100}))
	zone, err = e.CompletePolygon("triangle", "#00ff00")
	require.NoError(t, err)
	require.Equal(t, KindPolygon, zone.Kind)
	require.Len(t, zone.Points, 3)

	// Vertex operations require an active polygon
	require.ErrorIs(t, e.AddVertex(nn.Point{X: 0, Y: 0}), ErrNotDrawing)
	_, err = e.CompletePolygon("x", "#00ff00")
	require.ErrorIs(t, err, ErrNotDrawing)
}

func TestZoneRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddZone("door", KindRectangle, []nn.Point{{X: 0, Y: 0}, {X: 50, Y: 60}}, "#aabbcc")
	require.NoError(t, err)
	_, err = e.AddZone("corner", KindPolygon, []nn.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}, "#ddeeff")
	require.NoError(t, err)

	// The zone list round-trips through its serialized form without loss
	snapshot := e.Zones()
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	restored := []*Zone{}
	require.NoError(t, json.Unmarshal(raw, &restored))
	require.Equal(t, snapshot, restored)

	// Loading restored zones seeds the ID counter past existing IDs
	e2 := newTestEngine(t)
	e2.Load(restored)
	added, err := e2.AddZone("fresh", KindRectangle, []nn.Point{{X: 0, Y: 0}, {X: 20, Y: 20}}, "#112233")
	require.NoError(t, err)
	for _, z := range restored {
		require.NotEqual(t, z.ID, added.ID)
	}
}
