package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/tools"
	"github.com/sirupsen/logrus"
)

const (
	schemaname = "flighttracker"
	tablename  = "track"
)

const (
	createTableSQL = "CREATE TABLE IF NOT EXISTS " + schemaname + "." + tablename + " (Icao24 varchar(40) PRIMARY KEY, Callsign varchar(40), Lat decimal, Lon decimal, TimeStamp timestamp, OnGround boolean, GeoAltitude decimal, Velocity decimal, ObservedDistance decimal, ObservedTime integer, ObservedEmissions decimal, BaseEmissions decimal, Color varchar(7), geom geometry(Geometry,4326))"

	upsertSQL = "INSERT INTO " + schemaname + "." + tablename + " VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, ST_GeomFromText($14, 4326))" +
		" ON CONFLICT (Icao24) DO UPDATE SET Callsign = EXCLUDED.Callsign, Lat = EXCLUDED.Lat, Lon = EXCLUDED.Lon, TimeStamp = EXCLUDED.TimeStamp," +
		" OnGround = EXCLUDED.OnGround, GeoAltitude = EXCLUDED.GeoAltitude, Velocity = EXCLUDED.Velocity, ObservedDistance = EXCLUDED.ObservedDistance," +
		" ObservedTime = EXCLUDED.ObservedTime, ObservedEmissions = EXCLUDED.ObservedEmissions, BaseEmissions = EXCLUDED.BaseEmissions," +
		" Color = EXCLUDED.Color, geom = EXCLUDED.geom"

	deleteSQL = "DELETE FROM " + schemaname + "." + tablename + " WHERE NOT (Icao24 = ANY($1))"
)

// PostGreSinker mirrors the live set into flighttracker.track.
// Rows of evicted aircraft are deleted every cycle.
type PostGreSinker struct {
	Log *logrus.Logger
	db  *sql.DB
}

func New(log *logrus.Logger) app.Sinker {
	//init the logger here
	return &PostGreSinker{Log: log}
}

func dataSourceName(parameters Configuration) string {
	return fmt.Sprintf("host=%s port=%d user=%s "+
		"password=%s dbname=%s sslmode=%s",
		parameters.Host, parameters.Port, parameters.User, parameters.Password, parameters.Dbname, parameters.Sslmode)
}

func (s *PostGreSinker) Init(ctx context.Context, params interface{}) error {
	parameters, ok := params.(Configuration)
	if !ok {
		return errors.New("DB sinker needs a db.Configuration")
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"host":   parameters.Host,
		"port":   parameters.Port,
		"dbname": parameters.Dbname,
	}).Info("Init DB ...")

	db, err := sql.Open("postgres", dataSourceName(parameters))
	if err != nil {
		return err
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return err
	}

	s.Log.WithContext(ctx).Info("Successfully connected : " + parameters.Host)

	if err := s.createTable(ctx, db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *PostGreSinker) createTable(ctx context.Context, db *sql.DB) error {
	createSchemaSQL := "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schemaname)
	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"SQL": createSchemaSQL,
	}).Info("create shema")
	if _, err := db.ExecContext(ctx, createSchemaSQL); err != nil {
		return err
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"SQL": createTableSQL,
	}).Info("create table")
	_, err := db.ExecContext(ctx, createTableSQL)
	return err
}

func (s *PostGreSinker) Sink(ctx context.Context, t time.Time, tracks []app.TrackRecord, stats app.Stats) error {
	if s.db == nil {
		return errors.New("DB sinker not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		// no-op once committed
		tx.Rollback()
	}()

	nbRow := int64(0)
	ids := make([]string, 0, len(tracks))
	for _, track := range tracks {
		result, err := tx.ExecContext(ctx, upsertSQL,
			track.Identity,
			track.Callsign,
			track.Position.Latitude,
			track.Position.Longitude,
			time.Unix(track.Timestamp, 0).UTC(),
			track.OnGround,
			track.GeoAltitude,
			track.Velocity,
			track.Distance,
			track.ObservedTime,
			track.Emissions,
			track.BaselineEmissions,
			track.Color,
			tools.PointToWKT(track.Position),
		)
		if err != nil {
			return err
		}
		nb, _ := result.RowsAffected()
		nbRow = nbRow + nb
		ids = append(ids, track.Identity)
	}

	deleted, err := tx.ExecContext(ctx, deleteSQL, pq.Array(ids))
	if err != nil {
		return err
	}
	nbDeleted, _ := deleted.RowsAffected()

	if err := tx.Commit(); err != nil {
		return err
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"Rows Affected": nbRow,
		"Rows Deleted":  nbDeleted,
		"in air":        stats.InAir,
		"on ground":     stats.OnGround,
	}).Info("Mirror live tracks in DB ...")

	return nil
}

func (s *PostGreSinker) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
