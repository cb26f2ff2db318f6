package stdout

import (
	"context"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/tools"
	"github.com/sirupsen/logrus"
)

type StdOutSinker struct {
	Log *logrus.Logger
}

func New(log *logrus.Logger) app.Sinker {
	//init the logger here
	return &StdOutSinker{Log: log}
}

func (s *StdOutSinker) Init(ctx context.Context, params interface{}) error {
	//Nothing to do here
	return nil
}

func (s *StdOutSinker) Sink(ctx context.Context, t time.Time, tracks []app.TrackRecord, stats app.Stats) error {
	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"time":            t.Format(time.RFC3339),
		"tracks":          len(tracks),
		"on ground":       stats.OnGround,
		"in air":          stats.InAir,
		"total distance":  formatKm(stats.TotalDistanceKm),
		"total emissions": formatKg(stats.TotalEmissionsKg),
		"observed time":   tools.FormatObservedTime(stats),
	}).Info("========Tracked flights=============")

	for _, track := range tracks {
		fields := logrus.Fields{
			"icao24":            track.Identity,
			"callsign":          track.Callsign,
			"lat":               track.Position.Latitude,
			"lon":               track.Position.Longitude,
			"on ground":         track.OnGround,
			"observed distance": formatKm(track.Distance),
			"observed time":     track.ObservedTime,
			"color":             track.DisplayColor(),
		}
		if track.GeoAltitude != nil {
			fields["geometric altitude"] = *track.GeoAltitude
		}
		if track.Velocity != nil {
			fields["velocity"] = *track.Velocity
		}
		if track.Emissions != nil {
			fields["observed emissions"] = formatKg(*track.Emissions)
		}
		s.Log.WithContext(ctx).WithFields(fields).Debug("Track")
	}
	return nil
}

func (s *StdOutSinker) Close() error {
	return nil
}
