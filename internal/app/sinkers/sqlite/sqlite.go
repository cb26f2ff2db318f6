package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

const schema = `CREATE TABLE IF NOT EXISTS track (
	icao24 TEXT PRIMARY KEY,
	callsign TEXT,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	timestamp INTEGER NOT NULL,
	on_ground INTEGER NOT NULL,
	geo_altitude REAL,
	velocity REAL,
	observed_distance REAL NOT NULL,
	observed_time INTEGER NOT NULL,
	observed_emissions REAL,
	base_emissions REAL,
	color TEXT,
	updated_at TIMESTAMP NOT NULL
);`

const insertSQL = `INSERT INTO track (icao24, callsign, lat, lon, timestamp, on_ground, geo_altitude, velocity,
	observed_distance, observed_time, observed_emissions, base_emissions, color, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSinker keeps a local table holding exactly the current live set.
type SQLiteSinker struct {
	Log *logrus.Logger
	db  *sql.DB
}

func New(log *logrus.Logger) app.Sinker {
	return &SQLiteSinker{Log: log}
}

func (s *SQLiteSinker) Init(ctx context.Context, params interface{}) error {
	parameters, ok := params.(Configuration)
	if !ok {
		return errors.New("SQLite sinker needs a sqlite.Configuration")
	}
	path, err := homedir.Expand(parameters.Path)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"file": path,
	}).Info("SQLite sinker ready")
	s.db = db
	return nil
}

func (s *SQLiteSinker) Sink(ctx context.Context, t time.Time, tracks []app.TrackRecord, stats app.Stats) error {
	if s.db == nil {
		return errors.New("SQLite sinker not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM track"); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, track := range tracks {
		if _, err := stmt.ExecContext(ctx,
			track.Identity,
			track.Callsign,
			track.Position.Latitude,
			track.Position.Longitude,
			track.Timestamp,
			track.OnGround,
			track.GeoAltitude,
			track.Velocity,
			track.Distance,
			track.ObservedTime,
			track.Emissions,
			track.BaselineEmissions,
			track.Color,
			t.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"tracks":    len(tracks),
		"in air":    stats.InAir,
		"on ground": stats.OnGround,
	}).Debug("Mirror live tracks in SQLite")
	return nil
}

func (s *SQLiteSinker) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
