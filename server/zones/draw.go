package zones

import (
	"github.com/arguscam/argus/pkg/nn"
)

// Interactive zone creation.
//
// The engine is idle until a Begin* call starts a drawing, and returns to
// idle on commit or cancel. The input layer (mouse/touch, outside this
// system) just forwards positions; all validation happens here at commit
// time, so a rejected commit leaves the engine idle with nothing created.

// Rectangle drags smaller than this, in either dimension, are treated as
// accidental clicks and rejected at commit time.
const MinRectSizePx = 8

type drawPhase int

const (
	drawIdle drawPhase = iota
	drawRectangle
	drawPolygon
)

type drawState struct {
	phase    drawPhase
	anchor   nn.Point   // rectangle: corner where the drag started
	cursor   nn.Point   // rectangle: latest drag position
	vertices []nn.Point // polygon: committed vertices so far
}

// Drawing reports whether a zone drawing is in progress
func (e *Engine) Drawing() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.draw.phase != drawIdle
}

// BeginRectangle starts a rectangle drag at p
func (e *Engine) BeginRectangle(p nn.Point) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawIdle {
		return ErrAlreadyDrawing
	}
	e.draw = drawState{phase: drawRectangle, anchor: p, cursor: p}
	return nil
}

// DragRectangle updates the moving corner of the rectangle being drawn
func (e *Engine) DragRectangle(p nn.Point) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawRectangle {
		return ErrNotDrawing
	}
	e.draw.cursor = p
	return nil
}

// CommitRectangle finishes the drag at p. If the absolute width and height
// both exceed the minimum size, the zone is created; otherwise the drag is
// discarded as an accidental click. Either way the engine returns to idle.
func (e *Engine) CommitRectangle(p nn.Point, name, color string) (*Zone, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawRectangle {
		return nil, ErrNotDrawing
	}
	anchor := e.draw.anchor
	e.draw = drawState{}
	return e.addZoneLocked(name, KindRectangle, []nn.Point{anchor, p}, color)
}

// BeginPolygon starts a polygon with its first vertex at p
func (e *Engine) BeginPolygon(p nn.Point) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawIdle {
		return ErrAlreadyDrawing
	}
	e.draw = drawState{phase: drawPolygon, vertices: []nn.Point{p}}
	return nil
}

// AddVertex appends a vertex to the polygon being drawn
func (e *Engine) AddVertex(p nn.Point) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawPolygon {
		return ErrNotDrawing
	}
	e.draw.vertices = append(e.draw.vertices, p)
	return nil
}

// CompletePolygon commits the polygon being drawn. Unlike rectangles, a
// polygon only commits on this explicit action, and needs at least 3
// vertices. The engine returns to idle whether or not the commit succeeds.
func (e *Engine) CompletePolygon(name, color string) (*Zone, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.draw.phase != drawPolygon {
		return nil, ErrNotDrawing
	}
	vertices := e.draw.vertices
	e.draw = drawState{}
	return e.addZoneLocked(name, KindPolygon, vertices, color)
}

// CancelDrawing abandons any drawing in progress
func (e *Engine) CancelDrawing() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.draw = drawState{}
}
