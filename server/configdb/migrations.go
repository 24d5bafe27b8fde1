package configdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE zone(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			points TEXT NOT NULL,
			color TEXT NOT NULL,
			enabled INT NOT NULL
		);

		CREATE TABLE label_class(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			icon TEXT
		);
		CREATE UNIQUE INDEX idx_label_class_name ON label_class (name);

		CREATE TABLE label_rule(
			id INTEGER PRIMARY KEY,
			ordinal INT NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			condition TEXT NOT NULL,
			reference TEXT,
			distance REAL,
			min_confidence REAL,
			enabled INT NOT NULL
		);

		CREATE TABLE annotation(
			id INTEGER PRIMARY KEY,
			frame_id INT NOT NULL,
			class TEXT NOT NULL,
			x INT NOT NULL,
			y INT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			confidence REAL NOT NULL,
			provenance TEXT NOT NULL,
			created_at INT NOT NULL
		);
		CREATE INDEX idx_annotation_frame_id ON annotation (frame_id);

		CREATE TABLE next_id (key TEXT PRIMARY KEY, value INT NOT NULL);
		INSERT INTO next_id (key, value) VALUES ('frame', 0);

	`))

	return migs
}
