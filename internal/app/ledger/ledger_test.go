package ledger

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/geo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staleAfter = 60

var (
	center = app.Coordinate{Latitude: 53.3588, Longitude: -2.2727}
	region = app.Region{Center: center, RadiusKm: 100}
	// km per degree of latitude on the haversine sphere
	kmPerDegree = geo.EARTHDIAMETER * math.Pi / 360

	testProfiles = app.ProfileTable{
		"4ca7b5": {FuelBase: 2, FuelMarginalRate: 0.01, CorrectionFactor: 1, CO2Coeff: 3.15},
	}
)

func newTestLedger() (*Ledger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.Level = logrus.TraceLevel
	n := 0
	l := New(log, WithColors(func() string {
		n++
		return fmt.Sprintf("#%06d", n)
	}))
	return l, hook
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var result []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			result = append(result, e)
		}
	}
	return result
}

func north(c app.Coordinate, km float64) app.Coordinate {
	return app.Coordinate{Latitude: c.Latitude + km/kmPerDegree, Longitude: c.Longitude}
}

func vector(id string, ts int64, pos app.Coordinate) app.RawStateVector {
	return app.RawStateVector{Identity: id, Callsign: "EZY12  ", Timestamp: ts, Position: &pos}
}

func apply(l *Ledger, now int64, vectors ...app.RawStateVector) []app.TrackRecord {
	return l.ApplySnapshot(context.Background(), vectors, now, region, testProfiles, staleAfter)
}

func find(t *testing.T, tracks []app.TrackRecord, id string) app.TrackRecord {
	t.Helper()
	for _, tr := range tracks {
		if tr.Identity == id {
			return tr
		}
	}
	require.Failf(t, "track not found", "icao24 %s", id)
	return app.TrackRecord{}
}

func TestFirstSighting(t *testing.T) {
	l, _ := newTestLedger()

	tracks := apply(l, 1000, vector("4CA7B5", 1000, center))

	require.Len(t, tracks, 1)
	tr := tracks[0]
	assert.Equal(t, "4ca7b5", tr.Identity)
	assert.Equal(t, "EZY12", tr.Callsign)
	assert.Equal(t, 0.0, tr.Distance)
	assert.Equal(t, int64(0), tr.ObservedTime)
	assert.Nil(t, tr.Emissions)
	require.NotNil(t, tr.BaselineEmissions)
	assert.InDelta(t, 0.0063, *tr.BaselineEmissions, 1e-9)
	require.NotNil(t, tr.Profile)
	assert.Equal(t, testProfiles["4ca7b5"], *tr.Profile)
	assert.Equal(t, "#000001", tr.Color)
}

func TestFirstSightingWithoutProfile(t *testing.T) {
	l, _ := newTestLedger()

	apply(l, 1000, vector("abc123", 1000, center))
	tracks := apply(l, 1010, vector("abc123", 1010, north(center, 10)))

	tr := find(t, tracks, "abc123")
	assert.Nil(t, tr.Profile)
	assert.Nil(t, tr.BaselineEmissions)
	assert.Nil(t, tr.Emissions)
	assert.InDelta(t, 10, tr.Distance, 1e-6)
}

func TestBaselineSubtraction(t *testing.T) {
	l, _ := newTestLedger()
	start := app.Coordinate{Latitude: 53, Longitude: -2.2727}

	apply(l, 1000, vector("4ca7b5", 1000, start))
	tracks := apply(l, 1020, vector("4ca7b5", 1020, north(start, 100)))

	tr := find(t, tracks, "4ca7b5")
	assert.InDelta(t, 100, tr.Distance, 1e-6)
	require.NotNil(t, tr.Emissions)
	expected := ((2+(100/1.852)*0.01)*1*3.15)/1000 - 0.0063
	assert.InDelta(t, expected, *tr.Emissions, 1e-9)
	assert.InDelta(t, 0.0017, *tr.Emissions, 1e-4)
	assert.InDelta(t, 0.0063, *tr.BaselineEmissions, 1e-9)
}

func TestStationaryAircraftKeepsNoEmissions(t *testing.T) {
	l, _ := newTestLedger()

	apply(l, 1000, vector("4ca7b5", 1000, center))
	tracks := apply(l, 1020, vector("4ca7b5", 1020, center))

	tr := find(t, tracks, "4ca7b5")
	assert.Equal(t, 0.0, tr.Distance)
	assert.Equal(t, int64(20), tr.ObservedTime)
	assert.Nil(t, tr.Emissions)
}

func TestMonotonicAccumulation(t *testing.T) {
	l, _ := newTestLedger()
	pos := app.Coordinate{Latitude: 53, Longitude: -2.5}

	var lastDistance float64
	var lastTime int64
	for i := int64(0); i < 10; i++ {
		ts := 1000 + i*20
		if i%3 == 0 {
			pos = north(pos, 2.5)
		}
		tracks := apply(l, ts, vector("4ca7b5", ts, pos))
		tr := find(t, tracks, "4ca7b5")

		assert.GreaterOrEqual(t, tr.Distance, lastDistance)
		assert.GreaterOrEqual(t, tr.ObservedTime, lastTime)
		lastDistance, lastTime = tr.Distance, tr.ObservedTime
	}
	assert.InDelta(t, 7.5, lastDistance, 1e-6)
	assert.Equal(t, int64(180), lastTime)
}

func TestEvictionThreshold(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("aaaaaa", 1000, center))

	tracks := apply(l, 1000+staleAfter-1)
	require.Len(t, tracks, 1)

	tracks = apply(l, 1000+staleAfter)
	assert.Empty(t, tracks)
	assert.Equal(t, 0, l.Len())
}

func TestStaleVectorNotAdmitted(t *testing.T) {
	l, hook := newTestLedger()

	for _, now := range []int64{1000 + staleAfter, 1000 + staleAfter + 20, 1000 + staleAfter + 40} {
		tracks := apply(l, now, vector("aaaaaa", 1000, center))
		assert.Empty(t, tracks)
		assert.Equal(t, 0, l.Len())
	}
	assert.Empty(t, warnings(hook))

	// a fresh contact is admitted with the first color
	tracks := apply(l, 1100, vector("aaaaaa", 1100-staleAfter+1, center))
	tr := find(t, tracks, "aaaaaa")
	assert.Equal(t, "#000001", tr.Color)
}

func TestStaleVectorDoesNotUpdateTrack(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("4ca7b5", 1000, center))
	apply(l, 1020, vector("4ca7b5", 1020, north(center, 5)))

	// a replayed old contact for another aircraft sits beside the live one
	tracks := apply(l, 1040, vector("4ca7b5", 1040, north(center, 10)), vector("bbbbbb", 950, center))

	require.Len(t, tracks, 1)
	tr := find(t, tracks, "4ca7b5")
	assert.Equal(t, "#000001", tr.Color)
	assert.Equal(t, int64(40), tr.ObservedTime)
}

func TestStaleTrackEvictedEvenIfReported(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("4ca7b5", 1000, center))
	apply(l, 1020, vector("4ca7b5", 1020, north(center, 5)))

	// the feed reports it again after the staleness window: a fresh track starts
	tracks := apply(l, 1100, vector("4ca7b5", 1100, north(center, 20)))

	tr := find(t, tracks, "4ca7b5")
	assert.Equal(t, 0.0, tr.Distance)
	assert.Equal(t, int64(0), tr.ObservedTime)
	assert.Equal(t, "#000002", tr.Color)
}

func TestRegionFilterAtFirstSighting(t *testing.T) {
	l, _ := newTestLedger()
	edge := north(center, 100)
	outside := north(center, 100.5)
	exact := app.Region{Center: center, RadiusKm: geo.Distance(center, edge)}

	tracks := l.ApplySnapshot(context.Background(), []app.RawStateVector{
		vector("aaaaaa", 1000, edge),
		vector("bbbbbb", 1000, outside),
	}, 1000, exact, nil, staleAfter)

	require.Len(t, tracks, 1)
	assert.Equal(t, "aaaaaa", tracks[0].Identity)
}

func TestExistingTrackIsNotRefiltered(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("aaaaaa", 1000, north(center, 95)))

	tracks := apply(l, 1020, vector("aaaaaa", 1020, north(center, 105)))

	tr := find(t, tracks, "aaaaaa")
	assert.InDelta(t, 10, tr.Distance, 1e-6)
	assert.Equal(t, int64(20), tr.ObservedTime)
}

func TestMalformedVectorsSkipped(t *testing.T) {
	l, hook := newTestLedger()

	tracks := apply(l, 1000,
		vector("", 1000, center),
		vector("   ", 1000, center),
		vector("cccccc", 0, center),
		vector("dddddd", 1000, center),
	)

	require.Len(t, tracks, 1)
	assert.Equal(t, "dddddd", tracks[0].Identity)

	assert.Len(t, warnings(hook), 3)
}

func TestVectorWithoutPosition(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("aaaaaa", 1000, center))

	tracks := apply(l, 1020,
		app.RawStateVector{Identity: "aaaaaa", Timestamp: 1020},
		app.RawStateVector{Identity: "bbbbbb", Timestamp: 1020},
	)

	require.Len(t, tracks, 1)
	tr := tracks[0]
	assert.Equal(t, int64(1000), tr.Timestamp)
	assert.Equal(t, int64(0), tr.ObservedTime)
	assert.Equal(t, center, tr.Position)
}

func TestRegressedTimestamp(t *testing.T) {
	l, hook := newTestLedger()
	apply(l, 1000, vector("4ca7b5", 1000, center))
	apply(l, 1020, vector("4ca7b5", 1020, north(center, 10)))

	moved := north(center, 30)
	late := vector("4ca7b5", 1010, moved)
	late.OnGround = true
	tracks := apply(l, 1030, late)

	tr := find(t, tracks, "4ca7b5")
	assert.InDelta(t, 10, tr.Distance, 1e-6)
	assert.Equal(t, int64(20), tr.ObservedTime)
	assert.Equal(t, int64(1020), tr.Timestamp)
	assert.Equal(t, moved, tr.Position)
	assert.True(t, tr.OnGround)

	warned := warnings(hook)
	require.Len(t, warned, 1)
	assert.Equal(t, "4ca7b5", warned[0].Data["icao24"])
	assert.Equal(t, int64(1010), warned[0].Data["received"])
}

func TestKeptTrackRetainedAndRadiusDecays(t *testing.T) {
	l, _ := newTestLedger()
	alt := 3000.0
	v := vector("aaaaaa", 1000, center)
	v.GeoAltitude = &alt

	tracks := apply(l, 1000, v)
	assert.Equal(t, 11, tracks[0].Radius)

	tracks = apply(l, 1020, vector("bbbbbb", 1020, center))
	require.Len(t, tracks, 2)
	kept := find(t, tracks, "aaaaaa")
	assert.Equal(t, 8, kept.Radius)
	assert.Equal(t, int64(1000), kept.Timestamp)

	tracks = apply(l, 1040, vector("bbbbbb", 1040, center))
	assert.Equal(t, minRadius, find(t, tracks, "aaaaaa").Radius)
}

func TestMarkerRadius(t *testing.T) {
	low, high, negative := 240.0, 12000.0, -800.0

	assert.Equal(t, 5, markerRadius(nil))
	assert.Equal(t, 5, markerRadius(&low))
	assert.Equal(t, 15, markerRadius(&high))
	assert.Equal(t, 5, markerRadius(&negative))
}

func TestColorAndProfileStable(t *testing.T) {
	l, _ := newTestLedger()
	apply(l, 1000, vector("4ca7b5", 1000, center), vector("aaaaaa", 1000, center))

	changed := app.ProfileTable{
		"4ca7b5": {FuelBase: 50, FuelMarginalRate: 1, CorrectionFactor: 2, CO2Coeff: 3},
		"aaaaaa": {FuelBase: 50, FuelMarginalRate: 1, CorrectionFactor: 2, CO2Coeff: 3},
	}
	tracks := l.ApplySnapshot(context.Background(), []app.RawStateVector{
		vector("4ca7b5", 1020, north(center, 1)),
		vector("aaaaaa", 1020, north(center, 1)),
	}, 1020, region, changed, staleAfter)

	tr := find(t, tracks, "4ca7b5")
	assert.Equal(t, "#000001", tr.Color)
	assert.Equal(t, testProfiles["4ca7b5"], *tr.Profile)
	assert.InDelta(t, 0.0063, *tr.BaselineEmissions, 1e-9)

	other := find(t, tracks, "aaaaaa")
	assert.Equal(t, "#000002", other.Color)
	assert.Nil(t, other.Profile)
	assert.Nil(t, other.Emissions)
}

func TestTracksAreCopies(t *testing.T) {
	l, _ := newTestLedger()
	tracks := apply(l, 1000, vector("4ca7b5", 1000, center))

	tracks[0].Distance = 1e6
	*tracks[0].BaselineEmissions = 42
	tracks[0].Profile.FuelBase = 42

	again := l.Tracks()
	assert.Equal(t, 0.0, again[0].Distance)
	assert.InDelta(t, 0.0063, *again[0].BaselineEmissions, 1e-9)
	assert.Equal(t, 2.0, again[0].Profile.FuelBase)
}

func TestTracksSortedByIdentity(t *testing.T) {
	l, _ := newTestLedger()
	tracks := apply(l, 1000,
		vector("cccccc", 1000, center),
		vector("aaaaaa", 1000, center),
		vector("bbbbbb", 1000, center),
	)

	require.Len(t, tracks, 3)
	assert.Equal(t, "aaaaaa", tracks[0].Identity)
	assert.Equal(t, "bbbbbb", tracks[1].Identity)
	assert.Equal(t, "cccccc", tracks[2].Identity)
}

func TestRandomColor(t *testing.T) {
	assert.Regexp(t, `^#[0-9a-f]{6}$`, randomColor())
}
