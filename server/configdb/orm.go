package configdb

import (
	"time"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

type Zone struct {
	BaseModel
	Name    string                     `json:"name"`
	Kind    string                     `json:"kind"`
	Points  *dbh.JSONField[[]nn.Point] `json:"points"`
	Color   string                     `json:"color"`
	Enabled bool                       `json:"enabled"`
}

type LabelClass struct {
	BaseModel
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon" gorm:"default:null"`
}

// LabelRule rows carry an explicit ordinal because rule evaluation order is
// part of the configuration
type LabelRule struct {
	BaseModel
	Ordinal       int     `json:"ordinal"`
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	Condition     string  `json:"condition"`
	Reference     string  `json:"reference" gorm:"default:null"`
	Distance      float32 `json:"distance" gorm:"default:null"`
	MinConfidence float32 `json:"minConfidence" gorm:"default:null"`
	Enabled       bool    `json:"enabled"`
}

type Annotation struct {
	BaseModel
	FrameID    int64       `json:"frameID"`
	Class      string      `json:"class"`
	X          int         `json:"x"`
	Y          int         `json:"y"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Confidence float32     `json:"confidence"`
	Provenance string      `json:"provenance"`
	CreatedAt  dbh.IntTime `json:"createdAt"`
}

func zoneToRecord(z *zones.Zone) *Zone {
	return &Zone{
		BaseModel: BaseModel{ID: z.ID},
		Name:      z.Name,
		Kind:      string(z.Kind),
		Points:    dbh.MakeJSONField(z.Points),
		Color:     z.Color,
		Enabled:   z.Enabled,
	}
}

func (z *Zone) toZone() *zones.Zone {
	points := []nn.Point{}
	if z.Points != nil {
		points = z.Points.Data
	}
	return &zones.Zone{
		ID:      z.ID,
		Name:    z.Name,
		Kind:    zones.Kind(z.Kind),
		Points:  points,
		Color:   z.Color,
		Enabled: z.Enabled,
	}
}

func classToRecord(c labeling.ClassDef) *LabelClass {
	return &LabelClass{
		Name:  c.Name,
		Color: c.Color,
		Icon:  c.Icon,
	}
}

func (c *LabelClass) toClassDef() labeling.ClassDef {
	return labeling.ClassDef{
		Name:  c.Name,
		Color: c.Color,
		Icon:  c.Icon,
	}
}

func ruleToRecord(r labeling.Rule, ordinal int) *LabelRule {
	return &LabelRule{
		BaseModel:     BaseModel{ID: r.ID},
		Ordinal:       ordinal,
		Source:        r.Source,
		Target:        r.Target,
		Condition:     string(r.Condition),
		Reference:     r.Reference,
		Distance:      r.Distance,
		MinConfidence: r.MinConfidence,
		Enabled:       r.Enabled,
	}
}

func (r *LabelRule) toRule() labeling.Rule {
	return labeling.Rule{
		ID:            r.ID,
		Source:        r.Source,
		Target:        r.Target,
		Condition:     labeling.Condition(r.Condition),
		Reference:     r.Reference,
		Distance:      r.Distance,
		MinConfidence: r.MinConfidence,
		Enabled:       r.Enabled,
	}
}

func annotationToRecord(a labeling.Annotation) *Annotation {
	return &Annotation{
		BaseModel:  BaseModel{ID: a.ID},
		FrameID:    a.FrameID,
		Class:      a.Class,
		X:          a.Box.X,
		Y:          a.Box.Y,
		Width:      a.Box.Width,
		Height:     a.Box.Height,
		Confidence: a.Confidence,
		Provenance: string(a.Provenance),
		CreatedAt:  dbh.MakeIntTime(time.Now()),
	}
}

func (a *Annotation) toAnnotation() labeling.Annotation {
	return labeling.Annotation{
		ID:         a.ID,
		FrameID:    a.FrameID,
		Class:      a.Class,
		Box:        nn.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height},
		Confidence: a.Confidence,
		Provenance: labeling.Provenance(a.Provenance),
	}
}
