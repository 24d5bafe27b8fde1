// Package category maps raw detection class names onto a small closed set of
// semantic categories, and applies per-category enable/confidence filters.
package category

import (
	"sort"

	"github.com/arguscam/argus/pkg/nn"
)

// Category is the semantic group of a raw detection class
type Category string

const (
	Person        Category = "person"
	Vehicle       Category = "vehicle"
	Animal        Category = "animal"
	Sports        Category = "sports-equipment"
	Furniture     Category = "furniture"
	PaymentSystem Category = "payment-system"
	GenericObject Category = "generic-object"
)

// AllCategories, in default priority order
var AllCategories = []Category{Person, Vehicle, Animal, Sports, Furniture, PaymentSystem, GenericObject}

// Table is one category's membership list.
// A raw class name may legitimately appear in more than one table (eg "laptop"
// is both furniture and part of a payment setup in this domain). Priority is
// the tie-break: the matching table with the lowest Priority value wins.
// Making the priority an explicit number, rather than relying on declaration
// order, is deliberate: the default ranking below preserves the historical
// behavior, and deployments that want "laptop" to mean payment-system can say
// so in configuration instead of editing code.
type Table struct {
	Category Category
	Priority int
	Classes  []string
}

// The default tables. Membership follows the COCO vocabulary plus the custom
// classes of the banking model (atm-machine, card-reader).
func DefaultTables() []Table {
	return []Table{
		{Category: Person, Priority: 0, Classes: []string{"person"}},
		{Category: Vehicle, Priority: 1, Classes: []string{
			"bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat"}},
		{Category: Animal, Priority: 2, Classes: []string{
			"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe"}},
		{Category: Sports, Priority: 3, Classes: []string{
			"frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat",
			"baseball glove", "skateboard", "surfboard", "tennis racket"}},
		{Category: Furniture, Priority: 4, Classes: []string{
			"chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop"}},
		{Category: PaymentSystem, Priority: 5, Classes: []string{
			"laptop", "mouse", "remote", "keyboard", "cell phone", "atm-machine", "card-reader"}},
	}
}

// Classifier resolves raw class names to categories
type Classifier struct {
	tables  []Table
	byClass map[string]Category // first match after priority sort
}

// NewClassifier builds a classifier from the given tables.
// Tables are sorted by ascending Priority (stable, so equal priorities keep
// their given order).
func NewClassifier(tables []Table) *Classifier {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Priority < sorted[b].Priority
	})
	byClass := map[string]Category{}
	for _, table := range sorted {
		for _, class := range table.Classes {
			if _, seen := byClass[class]; !seen {
				byClass[class] = table.Category
			}
		}
	}
	return &Classifier{
		tables:  sorted,
		byClass: byClass,
	}
}

// NewDefaultClassifier builds a classifier with the default tables and priorities
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultTables())
}

// Classify returns the category of a raw class name.
// Unknown classes are generic-object; this never fails.
func (c *Classifier) Classify(class string) Category {
	if cat, ok := c.byClass[class]; ok {
		return cat
	}
	return GenericObject
}

// FilterConfig controls which detections survive filtering
type FilterConfig struct {
	MinConfidence float32           `json:"minConfidence"`
	Enabled       map[Category]bool `json:"enabled"` // categories absent from the map are disabled
}

// DefaultFilterConfig enables every category at the default confidence threshold
func DefaultFilterConfig() FilterConfig {
	enabled := map[Category]bool{}
	for _, cat := range AllCategories {
		enabled[cat] = true
	}
	return FilterConfig{
		MinConfidence: nn.DefaultConfidenceThreshold,
		Enabled:       enabled,
	}
}

// Filter drops detections below the confidence threshold, and detections
// whose category is disabled. A detection that matches no table is kept only
// if generic-object is enabled. 'classes' maps detection class indices to raw
// class names (ie the model's class list).
func (c *Classifier) Filter(dets []nn.Detection, classes []string, config FilterConfig) []nn.Detection {
	keep := []nn.Detection{}
	for _, det := range dets {
		if det.Confidence < config.MinConfidence {
			continue
		}
		name := ""
		if det.Class >= 0 && det.Class < len(classes) {
			name = classes[det.Class]
		}
		if !config.Enabled[c.Classify(name)] {
			continue
		}
		keep = append(keep, det)
	}
	return keep
}
