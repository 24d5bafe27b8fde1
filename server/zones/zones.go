// Package zones owns the user-defined 2D regions (rectangles and polygons)
// that detections are tested against.
package zones

import (
	"errors"
	"sync"

	"github.com/arguscam/argus/pkg/idgen"
	"github.com/arguscam/argus/pkg/nn"
	flatbush "github.com/bmharper/flatbush-go"
	"github.com/cyclopcam/logs"
)

var (
	ErrZoneNotFound    = errors.New("zone not found")
	ErrTooFewVertices  = errors.New("a polygon zone needs at least 3 vertices")
	ErrZoneTooSmall    = errors.New("rectangle zone is below the minimum size")
	ErrAlreadyDrawing  = errors.New("a zone is already being drawn")
	ErrNotDrawing      = errors.New("no zone drawing in progress")
	ErrInvalidZoneKind = errors.New("invalid zone kind")
)

type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindPolygon   Kind = "polygon"
)

// Zone is a user-defined region of the analysis surface.
// A rectangle is stored as two opposing corner points; a polygon as an
// ordered vertex list of at least 3 points. This record is also the persisted
// wire shape, so it must round-trip through JSON without loss.
type Zone struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Kind    Kind       `json:"kind"`
	Points  []nn.Point `json:"points"`
	Color   string     `json:"color"`
	Enabled bool       `json:"enabled"`
}

// Bounds returns the axis-aligned bounding box of the zone
func (z *Zone) Bounds() nn.Rect {
	return BoundsOf(z.Points)
}

// ContainsPoint is a pure function of the zone's geometry and p
func (z *Zone) ContainsPoint(p nn.Point) bool {
	switch z.Kind {
	case KindRectangle:
		if len(z.Points) != 2 {
			return false
		}
		return PointInRect(p, z.Points[0], z.Points[1])
	case KindPolygon:
		return PointInPolygon(p, z.Points)
	}
	return false
}

// Engine owns the zone list. All mutation goes through the engine, which
// keeps a spatial index over the enabled zones' bounding boxes so that
// per-frame center-point queries stay cheap even with many zones.
type Engine struct {
	log    logs.Log
	nextID idgen.Int64

	lock        sync.Mutex
	zones       []*Zone
	index       *flatbush.Flatbush[int32]
	indexZones  []*Zone // parallel to index entries
	draw        drawState
	minRectSize int
}

func NewEngine(logger logs.Log) *Engine {
	return &Engine{
		log:         logs.NewPrefixLogger(logger, "Zones"),
		minRectSize: MinRectSizePx,
	}
}

// Load replaces the zone list with zones restored from the config DB,
// and seeds the ID counter past the highest persisted ID.
func (e *Engine) Load(zones []*Zone) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.zones = zones
	for _, z := range zones {
		e.nextID.EnsureAtLeast(z.ID)
	}
	e.rebuildIndex()
	e.log.Infof("Loaded %v zones", len(zones))
}

// Zones returns a snapshot of the zone list
func (e *Engine) Zones() []*Zone {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]*Zone, len(e.zones))
	for i, z := range e.zones {
		clone := *z
		clone.Points = append([]nn.Point(nil), z.Points...)
		out[i] = &clone
	}
	return out
}

// AddZone validates and adds a fully-formed zone (as opposed to the
// interactive drawing flow in draw.go, which ends up here on commit).
func (e *Engine) AddZone(name string, kind Kind, points []nn.Point, color string) (*Zone, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.addZoneLocked(name, kind, points, color)
}

func (e *Engine) addZoneLocked(name string, kind Kind, points []nn.Point, color string) (*Zone, error) {
	switch kind {
	case KindRectangle:
		if len(points) != 2 {
			return nil, ErrInvalidZoneKind
		}
		bounds := BoundsOf(points)
		if bounds.Width < e.minRectSize || bounds.Height < e.minRectSize {
			return nil, ErrZoneTooSmall
		}
	case KindPolygon:
		if len(points) < 3 {
			return nil, ErrTooFewVertices
		}
	default:
		return nil, ErrInvalidZoneKind
	}
	zone := &Zone{
		ID:      e.nextID.Next(),
		Name:    name,
		Kind:    kind,
		Points:  append([]nn.Point(nil), points...),
		Color:   color,
		Enabled: true,
	}
	e.zones = append(e.zones, zone)
	e.rebuildIndex()
	e.log.Infof("Added %v zone %v '%v'", kind, zone.ID, name)
	return zone, nil
}

func (e *Engine) RemoveZone(id int64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for i, z := range e.zones {
		if z.ID == id {
			e.zones = append(e.zones[:i], e.zones[i+1:]...)
			e.rebuildIndex()
			return nil
		}
	}
	return ErrZoneNotFound
}

// Toggle flips a zone's enabled flag and returns the new state
func (e *Engine) Toggle(id int64) (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, z := range e.zones {
		if z.ID == id {
			z.Enabled = !z.Enabled
			e.rebuildIndex()
			return z.Enabled, nil
		}
	}
	return false, ErrZoneNotFound
}

func (e *Engine) Rename(id int64, name string) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, z := range e.zones {
		if z.ID == id {
			z.Name = name
			return nil
		}
	}
	return ErrZoneNotFound
}

// Count returns the number of zones, enabled or not
func (e *Engine) Count() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.zones)
}

// ZonesContaining returns the IDs of every enabled zone containing p
func (e *Engine) ZonesContaining(p nn.Point) []int64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.zonesContainingLocked(p)
}

func (e *Engine) zonesContainingLocked(p nn.Point) []int64 {
	ids := []int64{}
	if e.index == nil {
		return ids
	}
	for _, i := range e.index.Search(int32(p.X), int32(p.Y), int32(p.X), int32(p.Y)) {
		zone := e.indexZones[i]
		if zone.ContainsPoint(p) {
			ids = append(ids, zone.ID)
		}
	}
	return ids
}

// IntersectingZones tests the center point of box against every enabled zone.
// If no zones are defined at all, it returns unrestricted=true, which callers
// must treat as "all zones". That is distinct from "zones exist but none
// matched", which is an empty list with unrestricted=false.
func (e *Engine) IntersectingZones(box nn.Rect) (ids []int64, unrestricted bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.zones) == 0 {
		return nil, true
	}
	return e.zonesContainingLocked(box.Center()), false
}

// rebuildIndex recreates the flatbush index over enabled zones.
// Must be called with the lock held, after any mutation of zone geometry or
// enabled state.
func (e *Engine) rebuildIndex() {
	enabled := make([]*Zone, 0, len(e.zones))
	for _, z := range e.zones {
		if z.Enabled {
			enabled = append(enabled, z)
		}
	}
	if len(enabled) == 0 {
		e.index = nil
		e.indexZones = nil
		return
	}
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(enabled))
	for _, z := range enabled {
		b := z.Bounds()
		fb.Add(int32(b.X), int32(b.Y), int32(b.X2()), int32(b.Y2()))
	}
	fb.Finish()
	e.index = fb
	e.indexZones = enabled
}
