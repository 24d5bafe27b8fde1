package configdb

import (
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Zones

func (c *ConfigDB) LoadZones() ([]*zones.Zone, error) {
	records := []Zone{}
	if err := c.DB.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*zones.Zone, len(records))
	for i := range records {
		out[i] = records[i].toZone()
	}
	return out, nil
}

// SaveZone inserts or updates a zone record (the zone engine owns the ID)
func (c *ConfigDB) SaveZone(z *zones.Zone) error {
	return c.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(zoneToRecord(z)).Error
}

func (c *ConfigDB) DeleteZone(id int64) error {
	return c.DB.Delete(&Zone{}, id).Error
}

// Labeling classes

func (c *ConfigDB) LoadLabelClasses() ([]labeling.ClassDef, error) {
	records := []LabelClass{}
	if err := c.DB.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]labeling.ClassDef, len(records))
	for i := range records {
		out[i] = records[i].toClassDef()
	}
	return out, nil
}

// ReplaceLabelClasses swaps the whole class list in one transaction.
// The class list is small and always edited as a unit.
func (c *ConfigDB) ReplaceLabelClasses(classes []labeling.ClassDef) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM label_class").Error; err != nil {
			return err
		}
		for _, class := range classes {
			if err := tx.Create(classToRecord(class)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Labeling rules

func (c *ConfigDB) LoadLabelRules() ([]labeling.Rule, error) {
	records := []LabelRule{}
	if err := c.DB.Order("ordinal").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]labeling.Rule, len(records))
	for i := range records {
		out[i] = records[i].toRule()
	}
	return out, nil
}

// ReplaceLabelRules persists the rule list. Ordinals are assigned from the
// slice order, which is the evaluation order.
func (c *ConfigDB) ReplaceLabelRules(rules []labeling.Rule) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM label_rule").Error; err != nil {
			return err
		}
		for i, rule := range rules {
			if err := tx.Create(ruleToRecord(rule, i)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Annotations

func (c *ConfigDB) LoadAnnotations() ([]labeling.Annotation, error) {
	records := []Annotation{}
	if err := c.DB.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]labeling.Annotation, len(records))
	for i := range records {
		out[i] = records[i].toAnnotation()
	}
	return out, nil
}

// SaveAnnotations inserts or updates a batch of annotations (typically one
// frame's worth)
func (c *ConfigDB) SaveAnnotations(anns []labeling.Annotation) error {
	if len(anns) == 0 {
		return nil
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		for _, ann := range anns {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(annotationToRecord(ann)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *ConfigDB) DeleteAnnotation(id int64) error {
	return c.DB.Delete(&Annotation{}, id).Error
}
