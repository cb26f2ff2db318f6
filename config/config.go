package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/db"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/file"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/sqlite"
)

// sinker types
const (
	STDOUT = "STDOUT"
	FILE   = "FILE"
	DB     = "DB"
	SQLITE = "SQLITE"
)

// Configuration contains conectivity settings
type Configuration struct {
	Log struct {
		Level string `toml:"level" default:"info" comment:"Log level: trace, debug, info, warn, error, fatal and panic"`
	} `toml:"Log" comment:"###############################\n Logs Settings \n##############################"`

	Flighttracker struct {
		Latitude   float64              `toml:"latitude" default:"53.3588" comment:"region of interest center latitude"`
		Longitude  float64              `toml:"longitude" default:"-2.2727" comment:"region of interest center longitude"`
		Radius     float64              `toml:"radius" default:"100" comment:"region of interest radius (km)"`
		Refresh    int                  `toml:"refresh" default:"20" comment:"refresh timing (sec)"`
		Stale      int                  `toml:"stale" default:"0" comment:"seconds after which a track is dropped, 0 for 3 x refresh"`
		Feedurl    string               `toml:"feedurl" default:"https://opensky-network.org/api/states/all" comment:"OpenSky states endpoint"`
		Profiles   string               `toml:"profiles" default:"static_data/aircraft.json" comment:"aircraft performance table (JSON)"`
		Sinkertype string               `toml:"sinkertype" default:"STDOUT" comment:"the sinker Type use (STDOUT|FILE|DB|SQLITE)"`
		File       file.Configuration   `toml:"file" comment:"###############################\n file sinker configuration \n##############################"`
		Postgres   db.Configuration     `toml:"postgres" comment:"###############################\n db sinker configuration \n##############################"`
		Sqlite     sqlite.Configuration `toml:"sqlite" comment:"###############################\n sqlite sinker configuration \n##############################"`
	} `toml:"Flighttracker" comment:"###############################\n Flighttracker Settings \n##############################"`

	Http struct {
		Listen string `toml:"listen" default:":8080" comment:"REST API listen address"`
	} `toml:"Http" comment:"###############################\n REST API Settings \n##############################"`
}

// Region of interest
func (c Configuration) Region() app.Region {
	return app.Region{
		Center: app.Coordinate{
			Latitude:  c.Flighttracker.Latitude,
			Longitude: c.Flighttracker.Longitude,
		},
		RadiusKm: c.Flighttracker.Radius,
	}
}

// StaleAfter in seconds, three refresh periods unless set
func (c Configuration) StaleAfter() int64 {
	if c.Flighttracker.Stale > 0 {
		return int64(c.Flighttracker.Stale)
	}
	return 3 * int64(c.Flighttracker.Refresh)
}

func (c Configuration) Validate() error {
	ft := c.Flighttracker
	if ft.Latitude < -90 || ft.Latitude > 90 || ft.Longitude < -180 || ft.Longitude > 180 {
		return fmt.Errorf("region center out of range: %f,%f", ft.Latitude, ft.Longitude)
	}
	if ft.Radius <= 0 {
		return errors.New("radius must be greater than 0")
	}
	// the fetch timeout is refresh - 1 sec
	if ft.Refresh < 2 {
		return errors.New("refresh must be at least 2 seconds")
	}
	if ft.Stale < 0 {
		return errors.New("stale must not be negative")
	}
	if ft.Feedurl == "" {
		return errors.New("feedurl is required")
	}
	switch strings.ToUpper(ft.Sinkertype) {
	case STDOUT, FILE, DB, SQLITE:
	default:
		return fmt.Errorf("Wrong sinker specified: %s", ft.Sinkertype)
	}
	return nil
}
