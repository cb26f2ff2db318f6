package stdout

import (
	"context"
	"testing"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.Level = logrus.DebugLevel
	emissions := 1.234
	tracks := []app.TrackRecord{
		{Identity: "4ca7b5", Callsign: "EZY12", Distance: 12.346, Emissions: &emissions, Color: "#123456"},
		{Identity: "400a0b", OnGround: true, Color: "#abcdef"},
	}
	stats := app.Stats{OnGround: 1, InAir: 1, TotalDistanceKm: 12.346, TotalEmissionsKg: 1.234, MaxObservedTime: 61}

	sinker := New(log)
	require.NoError(t, sinker.Init(context.Background(), nil))
	require.NoError(t, sinker.Sink(context.Background(), time.Unix(1700000000, 0), tracks, stats))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "12.35 km", entries[0].Data["total distance"])
	assert.Equal(t, "1.23 kg", entries[0].Data["total emissions"])
	assert.Equal(t, "1 minutes 1 seconds", entries[0].Data["observed time"])
	assert.Equal(t, "1.23 kg", entries[1].Data["observed emissions"])
	assert.Equal(t, "#123456", entries[1].Data["color"])
	assert.Equal(t, app.ONGROUNDCOLOR, entries[2].Data["color"])
	assert.NotContains(t, entries[2].Data, "observed emissions")
	assert.NoError(t, sinker.Close())
}
