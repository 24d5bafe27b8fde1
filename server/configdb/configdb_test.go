package configdb

import (
	"path/filepath"
	"testing"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func createTestDB(t *testing.T) *ConfigDB {
	db, err := NewConfigDB(logs.NewTestingLog(t), filepath.Join(t.TempDir(), "test-configdb.sqlite"))
	require.NoError(t, err)
	return db
}

func TestNextID(t *testing.T) {
	db := createTestDB(t)
	for i := 0; i < 3; i++ {
		tx := db.DB.Begin()
		id, err := db.GenerateNewID(tx, "frame")
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
		tx.Commit()
	}
}

func TestZoneRoundTrip(t *testing.T) {
	db := createTestDB(t)
	zone := &zones.Zone{
		ID:      3,
		Name:    "entrance",
		Kind:    zones.KindPolygon,
		Points:  []nn.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 100}},
		Color:   "#ff0000",
		Enabled: true,
	}
	require.NoError(t, db.SaveZone(zone))

	loaded, err := db.LoadZones()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, zone, loaded[0])

	// Save again with changes: upsert, not duplicate
	zone.Name = "lobby"
	zone.Enabled = false
	require.NoError(t, db.SaveZone(zone))
	loaded, err = db.LoadZones()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "lobby", loaded[0].Name)
	require.False(t, loaded[0].Enabled)

	require.NoError(t, db.DeleteZone(zone.ID))
	loaded, err = db.LoadZones()
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestLabelConfigRoundTrip(t *testing.T) {
	db := createTestDB(t)

	classes := []labeling.ClassDef{
		{Name: "customer-at-atm", Color: "#ff0000", Icon: "atm"},
		{Name: "atm-machine", Color: "#00ff00", Icon: "machine"},
	}
	require.NoError(t, db.ReplaceLabelClasses(classes))
	loadedClasses, err := db.LoadLabelClasses()
	require.NoError(t, err)
	require.Equal(t, classes, loadedClasses)

	rules := []labeling.Rule{
		{ID: 1, Source: "person", Target: "customer-at-atm", Condition: labeling.ConditionNear,
			Reference: "atm-machine", Distance: 50, MinConfidence: 0.5, Enabled: true},
		{ID: 2, Source: "atm-machine", Target: "atm-machine", Condition: labeling.ConditionAlways, Enabled: true},
	}
	require.NoError(t, db.ReplaceLabelRules(rules))
	loadedRules, err := db.LoadLabelRules()
	require.NoError(t, err)
	require.Equal(t, rules, loadedRules)

	// Replacing preserves the new order
	reversed := []labeling.Rule{rules[1], rules[0]}
	require.NoError(t, db.ReplaceLabelRules(reversed))
	loadedRules, err = db.LoadLabelRules()
	require.NoError(t, err)
	require.Equal(t, reversed, loadedRules)
}

func TestAnnotationRoundTrip(t *testing.T) {
	db := createTestDB(t)
	anns := []labeling.Annotation{
		{ID: 1, FrameID: 10, Class: "customer-at-atm", Box: nn.Rect{X: 5, Y: 6, Width: 30, Height: 60},
			Confidence: 0.8, Provenance: labeling.ProvenanceAuto},
		{ID: 2, FrameID: 10, Class: "atm-machine", Box: nn.Rect{X: 100, Y: 100, Width: 40, Height: 60},
			Confidence: 0.9, Provenance: labeling.ProvenanceManual},
	}
	require.NoError(t, db.SaveAnnotations(anns))
	require.NoError(t, db.SaveAnnotations(nil))

	loaded, err := db.LoadAnnotations()
	require.NoError(t, err)
	require.Equal(t, anns, loaded)

	// Upsert on edit
	anns[0].Class = "atm-machine"
	anns[0].Provenance = labeling.ProvenanceManual
	require.NoError(t, db.SaveAnnotations(anns[:1]))
	loaded, err = db.LoadAnnotations()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "atm-machine", loaded[0].Class)

	require.NoError(t, db.DeleteAnnotation(2))
	loaded, err = db.LoadAnnotations()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}
