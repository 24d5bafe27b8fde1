// Package configdb persists zones, labeling classes and rules, and the
// annotation collection in a local sqlite database.
package configdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

type ConfigDB struct {
	Log logs.Log
	DB  *gorm.DB
}

func NewConfigDB(logger logs.Log, dbFilename string) (*ConfigDB, error) {
	os.MkdirAll(filepath.Dir(dbFilename), 0777)
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &ConfigDB{
		Log: logger,
		DB:  db,
	}, nil
}

// GenerateNewID returns the next ID from the named counter in the next_id
// table. Must be called inside a transaction.
func (c *ConfigDB) GenerateNewID(tx *gorm.DB, key string) (int64, error) {
	id := int64(0)
	if err := tx.Raw("UPDATE next_id SET value = value + 1 WHERE key = ? RETURNING value", key).Row().Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
