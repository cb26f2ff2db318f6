package geo

import (
	"math"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
)

const (
	// EARTHDIAMETER in km
	EARTHDIAMETER = 12742
	kmPerDegree   = EARTHDIAMETER * math.Pi / 360
)

func toRad(x float64) float64 {
	return x * math.Pi / 180
}

//Distance - great-circle distance in km (haversine)
func Distance(a, b app.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair above 1
	h = math.Min(1, math.Max(0, h))
	return EARTHDIAMETER * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

//BoundingBox - SW and NE corners of the box enclosing a circle of radiusKm around center
func BoundingBox(center app.Coordinate, radiusKm float64) (app.Coordinate, app.Coordinate) {
	dLat := radiusKm / kmPerDegree
	sw := app.Coordinate{
		Latitude:  math.Max(-90, center.Latitude-dLat),
		Longitude: -180,
	}
	ne := app.Coordinate{
		Latitude:  math.Min(90, center.Latitude+dLat),
		Longitude: 180,
	}
	// the box wraps every meridian near the poles
	if c := math.Cos(toRad(center.Latitude)); c > 1e-9 {
		if dLon := radiusKm / (kmPerDegree * c); dLon < 180 {
			sw.Longitude = math.Max(-180, center.Longitude-dLon)
			ne.Longitude = math.Min(180, center.Longitude+dLon)
		}
	}
	return sw, ne
}
