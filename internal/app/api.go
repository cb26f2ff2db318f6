package app

import (
	"context"
	"time"
)

//Coordinate - a WGS84 position in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

//Region - admission circle for new tracks
type Region struct {
	Center   Coordinate `json:"center"`
	RadiusKm float64    `json:"radiusKm"`
}

//RawStateVector - one aircraft state as reported by the feed. Nil pointers are unknown values.
type RawStateVector struct {
	Identity      string      `json:"icao24"`
	Callsign      string      `json:"callsign"`
	OriginCountry string      `json:"originCountry"`
	Timestamp     int64       `json:"timestamp"`
	Position      *Coordinate `json:"position"`
	BaroAltitude  *float64    `json:"baroAltitude"` //meters
	OnGround      bool        `json:"onGround"`
	Velocity      *float64    `json:"velocity"` //m/s
	TrueTrack     *float64    `json:"trueTrack"`
	VerticalRate  *float64    `json:"verticalRate"` //m/s
	GeoAltitude   *float64    `json:"geoAltitude"`  //meters
	Squawk        string      `json:"squawk"`
}

//Snapshot - a full poll of the feed
type Snapshot struct {
	Time   int64
	States []RawStateVector
}

//Profile - fuel burn constants for an aircraft type
type Profile struct {
	FuelBase         float64 `json:"fuelBase"`
	FuelMarginalRate float64 `json:"fuelMarginalRate"`
	CorrectionFactor float64 `json:"correctionFactor"`
	CO2Coeff         float64 `json:"co2Coeff"`
}

//ProfileTable - profiles keyed by icao24
type ProfileTable map[string]Profile

//TrackRecord - running track of a live aircraft
type TrackRecord struct {
	Identity          string     `json:"icao24"`
	Callsign          string     `json:"callsign"`
	Position          Coordinate `json:"position"`
	Timestamp         int64      `json:"timestamp"`
	OnGround          bool       `json:"onGround"`
	GeoAltitude       *float64   `json:"geoAltitude"`
	Velocity          *float64   `json:"velocity"`
	Distance          float64    `json:"observedDistance"` //km
	ObservedTime      int64      `json:"observedTime"`     //seconds
	Emissions         *float64   `json:"observedEmissions"`
	BaselineEmissions *float64   `json:"baseEmissions"`
	Profile           *Profile   `json:"profile"`
	Color             string     `json:"color"`
	Radius            int        `json:"radius"`
}

// DisplayColor is the marker color: grey while on ground.
func (t TrackRecord) DisplayColor() string {
	if t.OnGround {
		return ONGROUNDCOLOR
	}
	return t.Color
}

//Stats - aggregate over visible tracks
type Stats struct {
	OnGround         int     `json:"onGround"`
	InAir            int     `json:"inAir"`
	TotalDistanceKm  float64 `json:"totalDistance"`
	TotalEmissionsKg float64 `json:"totalEmissions"`
	MaxObservedTime  int64   `json:"observedTime"`
}

// ObservedMinutes returns the whole minutes of MaxObservedTime.
func (s Stats) ObservedMinutes() int64 {
	return s.MaxObservedTime / 60
}

// ObservedSeconds returns the seconds left after ObservedMinutes.
func (s Stats) ObservedSeconds() int64 {
	return s.MaxObservedTime - s.ObservedMinutes()*60
}

const (
	KTSKMH        = 1.852
	ONGROUNDCOLOR = "#909090"
)

type Sinker interface {
	Init(ctx context.Context, params interface{}) error
	Sink(ctx context.Context, t time.Time, tracks []TrackRecord, stats Stats) error
	Close() error
}

type Feed interface {
	Fetch(ctx context.Context, region Region) (Snapshot, error)
}
