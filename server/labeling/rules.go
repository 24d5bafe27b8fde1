// Package labeling re-labels raw detections via spatial relationship rules,
// and manages the resulting annotations for training-data export.
package labeling

import (
	"errors"
	"sync"

	"github.com/arguscam/argus/pkg/idgen"
	"github.com/arguscam/argus/pkg/nn"
	"github.com/cyclopcam/logs"
)

var (
	ErrRuleNotFound       = errors.New("labeling rule not found")
	ErrAnnotationNotFound = errors.New("annotation not found")
)

// Two boxes whose centers are within this many pixels count as "touching"
const TouchingEpsilon = 5.0

type Condition string

const (
	ConditionAlways   Condition = "always"
	ConditionNear     Condition = "near"
	ConditionInside   Condition = "inside"
	ConditionTouching Condition = "touching"
)

// ClassDef is a user-defined annotation class.
// This record is the persisted wire shape.
type ClassDef struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Rule re-labels a detection of class Source as Target when the spatial
// condition holds against a Reference detection in the same frame.
// Rules are evaluated in insertion order; the first enabled match wins.
// This record is the persisted wire shape.
type Rule struct {
	ID            int64     `json:"id"`
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	Condition     Condition `json:"condition"`
	Reference     string    `json:"reference"`
	Distance      float32   `json:"distance"`
	MinConfidence float32   `json:"minConfidence"`
	Enabled       bool      `json:"enabled"`
}

type Provenance string

const (
	ProvenanceAuto   Provenance = "auto"
	ProvenanceManual Provenance = "manual"
)

// Annotation is a labeled box on a frame, produced by rule application or by
// manual editing
type Annotation struct {
	ID         int64      `json:"id"`
	FrameID    int64      `json:"frameID"`
	Class      string     `json:"class"`
	Box        nn.Rect    `json:"box"`
	Confidence float32    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

// Engine owns the custom class list, the ordered rule list, and the
// annotation collection (keyed by frame, append-only but editable).
type Engine struct {
	log logs.Log

	lock             sync.Mutex
	classes          []ClassDef
	classSet         map[string]bool
	rules            []Rule
	annotations      map[int64][]Annotation
	frameOrder       []int64 // frames in first-annotation order, for stable export
	nextRuleID       idgen.Int64
	nextAnnotationID idgen.Int64
}

func NewEngine(logger logs.Log) *Engine {
	return &Engine{
		log:         logs.NewPrefixLogger(logger, "Labeling"),
		classSet:    map[string]bool{},
		annotations: map[int64][]Annotation{},
	}
}

// DefineClasses replaces the custom class list
func (e *Engine) DefineClasses(classes []ClassDef) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.classes = append([]ClassDef(nil), classes...)
	e.classSet = map[string]bool{}
	for _, c := range classes {
		e.classSet[c.Name] = true
	}
}

// Classes returns a snapshot of the custom class list
func (e *Engine) Classes() []ClassDef {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]ClassDef(nil), e.classes...)
}

// AddRule appends a rule to the end of the evaluation order and assigns its ID
func (e *Engine) AddRule(rule Rule) Rule {
	e.lock.Lock()
	defer e.lock.Unlock()
	rule.ID = e.nextRuleID.Next()
	e.rules = append(e.rules, rule)
	return rule
}

// LoadRules restores a persisted rule list, preserving order and IDs
func (e *Engine) LoadRules(rules []Rule) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.rules = append([]Rule(nil), rules...)
	for _, r := range rules {
		e.nextRuleID.EnsureAtLeast(r.ID)
	}
	e.log.Infof("Loaded %v rules", len(rules))
}

func (e *Engine) RemoveRule(id int64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for i, r := range e.rules {
		if r.ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

// Rules returns a snapshot of the rule list in evaluation order
func (e *Engine) Rules() []Rule {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]Rule(nil), e.rules...)
}

// Apply evaluates the rule list against one detection.
//
// 'frame' is the full detection list of the same frame, and 'classes' maps
// class indices to raw class names. The reference object for a rule is the
// first detection in the frame whose class equals the rule's Reference; if
// there is none, near/inside/touching evaluate to false (never an error).
//
// The first matching enabled rule produces an annotation carrying the rule's
// target class. With no match, a detection whose raw class is one of the
// defined custom classes passes through unchanged; anything else produces
// nil. The returned annotation has no ID assigned; recording happens in
// ApplyFrame.
func (e *Engine) Apply(det nn.Detection, frame []nn.Detection, classes []string, frameID int64) *Annotation {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.applyLocked(det, frame, classes, frameID)
}

func (e *Engine) applyLocked(det nn.Detection, frame []nn.Detection, classes []string, frameID int64) *Annotation {
	className := ""
	if det.Class >= 0 && det.Class < len(classes) {
		className = classes[det.Class]
	}
	for _, rule := range e.rules {
		if !rule.Enabled || rule.Source != className || det.Confidence < rule.MinConfidence {
			continue
		}
		if !conditionHolds(rule, det, frame, classes) {
			continue
		}
		return &Annotation{
			FrameID:    frameID,
			Class:      rule.Target,
			Box:        det.Box,
			Confidence: det.Confidence,
			Provenance: ProvenanceAuto,
		}
	}
	if e.classSet[className] {
		return &Annotation{
			FrameID:    frameID,
			Class:      className,
			Box:        det.Box,
			Confidence: det.Confidence,
			Provenance: ProvenanceAuto,
		}
	}
	return nil
}

func conditionHolds(rule Rule, det nn.Detection, frame []nn.Detection, classes []string) bool {
	if rule.Condition == ConditionAlways {
		return true
	}
	ref, ok := findReference(rule.Reference, frame, classes)
	if !ok {
		return false
	}
	switch rule.Condition {
	case ConditionNear:
		return det.Box.Center().Distance(ref.Box.Center()) <= rule.Distance
	case ConditionInside:
		return ref.Box.ContainsRect(det.Box)
	case ConditionTouching:
		return det.Box.Center().Distance(ref.Box.Center()) <= TouchingEpsilon
	}
	return false
}

// findReference returns the first detection in the frame with the given raw class name
func findReference(class string, frame []nn.Detection, classes []string) (nn.Detection, bool) {
	for _, det := range frame {
		if det.Class >= 0 && det.Class < len(classes) && classes[det.Class] == class {
			return det, true
		}
	}
	return nn.Detection{}, false
}

// ApplyFrame runs Apply over every detection of a frame, assigns IDs to the
// resulting annotations, and records them in the collection
func (e *Engine) ApplyFrame(dets []nn.Detection, classes []string, frameID int64) []Annotation {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := []Annotation{}
	for _, det := range dets {
		if ann := e.applyLocked(det, dets, classes, frameID); ann != nil {
			ann.ID = e.nextAnnotationID.Next()
			e.recordLocked(*ann)
			out = append(out, *ann)
		}
	}
	return out
}

// AddManual records a hand-drawn annotation
func (e *Engine) AddManual(frameID int64, class string, box nn.Rect, confidence float32) Annotation {
	e.lock.Lock()
	defer e.lock.Unlock()
	ann := Annotation{
		ID:         e.nextAnnotationID.Next(),
		FrameID:    frameID,
		Class:      class,
		Box:        box,
		Confidence: confidence,
		Provenance: ProvenanceManual,
	}
	e.recordLocked(ann)
	return ann
}

func (e *Engine) recordLocked(ann Annotation) {
	if _, seen := e.annotations[ann.FrameID]; !seen {
		e.frameOrder = append(e.frameOrder, ann.FrameID)
	}
	e.annotations[ann.FrameID] = append(e.annotations[ann.FrameID], ann)
}

// UpdateAnnotation replaces the class and box of an existing annotation,
// marking it as manually edited
func (e *Engine) UpdateAnnotation(id int64, class string, box nn.Rect) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for frameID, anns := range e.annotations {
		for i := range anns {
			if anns[i].ID == id {
				anns[i].Class = class
				anns[i].Box = box
				anns[i].Provenance = ProvenanceManual
				e.annotations[frameID] = anns
				return nil
			}
		}
	}
	return ErrAnnotationNotFound
}

func (e *Engine) RemoveAnnotation(id int64) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for frameID, anns := range e.annotations {
		for i := range anns {
			if anns[i].ID == id {
				e.annotations[frameID] = append(anns[:i], anns[i+1:]...)
				return nil
			}
		}
	}
	return ErrAnnotationNotFound
}

// Annotations returns the annotations of one frame
func (e *Engine) Annotations(frameID int64) []Annotation {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]Annotation(nil), e.annotations[frameID]...)
}

// LoadAnnotations restores a persisted annotation collection
func (e *Engine) LoadAnnotations(anns []Annotation) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.annotations = map[int64][]Annotation{}
	e.frameOrder = nil
	for _, ann := range anns {
		e.recordLocked(ann)
		e.nextAnnotationID.EnsureAtLeast(ann.ID)
	}
	e.log.Infof("Loaded %v annotations across %v frames", len(anns), len(e.frameOrder))
}
