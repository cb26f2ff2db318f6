package ledger

import (
	"testing"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/stretchr/testify/assert"
)

func float(f float64) *float64 {
	return &f
}

func sampleTracks() []app.TrackRecord {
	return []app.TrackRecord{
		{Identity: "aaaaaa", OnGround: true, Distance: 1.5, ObservedTime: 40, Emissions: float(0.25)},
		{Identity: "bbbbbb", OnGround: true, Distance: 0, ObservedTime: 300},
		{Identity: "cccccc", OnGround: false, Distance: 42.25, ObservedTime: 120, Emissions: float(1.5)},
	}
}

func TestAggregateAllVisible(t *testing.T) {
	stats := Aggregate(sampleTracks(), All)

	assert.Equal(t, 2, stats.OnGround)
	assert.Equal(t, 1, stats.InAir)
	assert.InDelta(t, 43.75, stats.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 1.75, stats.TotalEmissionsKg, 1e-9)
	assert.Equal(t, int64(300), stats.MaxObservedTime)
	assert.Equal(t, int64(5), stats.ObservedMinutes())
	assert.Equal(t, int64(0), stats.ObservedSeconds())
}

func TestAggregateVisibilityFilter(t *testing.T) {
	tracks := sampleTracks()

	stats := Aggregate(tracks, func(tr app.TrackRecord) bool {
		return tr.Identity != "bbbbbb"
	})

	assert.Equal(t, 1, stats.OnGround)
	assert.Equal(t, 1, stats.InAir)
	assert.InDelta(t, 43.75, stats.TotalDistanceKm, 1e-9)
	assert.Equal(t, int64(120), stats.MaxObservedTime)
	assert.Equal(t, int64(2), stats.ObservedMinutes())
	assert.Len(t, tracks, 3)
}

func TestAggregateNothingVisible(t *testing.T) {
	stats := Aggregate(sampleTracks(), func(app.TrackRecord) bool { return false })

	assert.Equal(t, app.Stats{}, stats)
	assert.Equal(t, app.Stats{}, Aggregate(nil, All))
}

func TestAggregateNilPredicate(t *testing.T) {
	assert.Equal(t, Aggregate(sampleTracks(), All), Aggregate(sampleTracks(), nil))
}

func TestObservedMinutesSeconds(t *testing.T) {
	stats := app.Stats{MaxObservedTime: 125}

	assert.Equal(t, int64(2), stats.ObservedMinutes())
	assert.Equal(t, int64(5), stats.ObservedSeconds())
}
