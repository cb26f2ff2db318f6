package tools

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
)

// Bbox - a bounding box structure
type Bbox struct {
	LatSW float64 `json:"latSW"`
	LonSW float64 `json:"lonSW"`
	LatNE float64 `json:"latNE"`
	LonNE float64 `json:"lonNE"`
}

// GetBbox parses 'lat,lon^lat,lon' (SW^NE)
func GetBbox(data string) (Bbox, error) {
	sWnE := strings.Split(data, "^")
	result := Bbox{}
	if len(sWnE) != 2 {
		return result, errors.New("Bounding Box malformed - need ^ for separating SW and NE coordinate")
	}

	for idx, latlonRec := range sWnE {
		latlon := strings.Split(latlonRec, ",")
		if len(latlon) != 2 {
			return result, errors.New("Bounding Box malformed - need , for separating lat and lon coordinate")
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latlon[0]), 64)
		if errLat != nil {
			return result, errLat
		}
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(latlon[1]), 64)
		if errLon != nil {
			return result, errLon
		}
		if idx == 0 {
			result.LatSW = lat
			result.LonSW = lon
		} else {
			result.LatNE = lat
			result.LonNE = lon
		}
	}
	if result.LatSW > result.LatNE || result.LonSW > result.LonNE {
		return result, errors.New("Bounding Box malformed - SW corner must be south west of NE corner")
	}
	return result, nil
}

// Contains is inclusive on every edge.
func (b Bbox) Contains(c app.Coordinate) bool {
	return c.Latitude >= b.LatSW && c.Latitude <= b.LatNE &&
		c.Longitude >= b.LonSW && c.Longitude <= b.LonNE
}

// Visible is the viewport predicate of a track.
func (b Bbox) Visible(t app.TrackRecord) bool {
	return b.Contains(t.Position)
}

func PointToWKT(c app.Coordinate) string {
	return fmt.Sprintf("POINT(%f %f)", c.Longitude, c.Latitude)
}

// FormatObservedTime renders the stats observed time as "M minutes S seconds"
func FormatObservedTime(stats app.Stats) string {
	return fmt.Sprintf("%d minutes %d seconds", stats.ObservedMinutes(), stats.ObservedSeconds())
}
