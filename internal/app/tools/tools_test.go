package tools

import (
	"testing"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBbox(t *testing.T) {
	bbox, err := GetBbox("43.52,1.32^43.70,1.69")
	require.NoError(t, err)
	assert.Equal(t, Bbox{LatSW: 43.52, LonSW: 1.32, LatNE: 43.70, LonNE: 1.69}, bbox)
}

func TestGetBboxMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"43.52,1.32",
		"43.52,1.32^43.70",
		"43.52,abc^43.70,1.69",
		"43.70,1.69^43.52,1.32",
	} {
		_, err := GetBbox(in)
		assert.Error(t, err, in)
	}
}

func TestContains(t *testing.T) {
	bbox := Bbox{LatSW: 53, LonSW: -3, LatNE: 54, LonNE: -2}

	assert.True(t, bbox.Contains(app.Coordinate{Latitude: 53.5, Longitude: -2.5}))
	assert.True(t, bbox.Contains(app.Coordinate{Latitude: 53, Longitude: -2}))
	assert.False(t, bbox.Contains(app.Coordinate{Latitude: 54.01, Longitude: -2.5}))
	assert.False(t, bbox.Contains(app.Coordinate{Latitude: 53.5, Longitude: -1.9}))

	assert.True(t, bbox.Visible(app.TrackRecord{Position: app.Coordinate{Latitude: 53.2, Longitude: -2.9}}))
}

func TestWKT(t *testing.T) {
	assert.Equal(t, "POINT(-2.272700 53.358800)", PointToWKT(app.Coordinate{Latitude: 53.3588, Longitude: -2.2727}))
}

func TestFormatObservedTime(t *testing.T) {
	assert.Equal(t, "0 minutes 0 seconds", FormatObservedTime(app.Stats{}))
	assert.Equal(t, "3 minutes 20 seconds", FormatObservedTime(app.Stats{MaxObservedTime: 200}))
}
