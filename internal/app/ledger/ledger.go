package ledger

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/geo"
	"github.com/sirupsen/logrus"
)

const (
	minRadius         = 5
	maxAltitudeRadius = 10
	radiusDecay       = 3
	metersPerRadius   = 500
)

// Ledger owns the live set: one TrackRecord per icao24.
// It is not safe for concurrent use; the poll loop is its only writer.
type Ledger struct {
	Log    *logrus.Logger
	tracks map[string]*app.TrackRecord
	color  func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithColors replaces the random color generator used at first sighting.
func WithColors(fn func() string) Option {
	return func(l *Ledger) {
		l.color = fn
	}
}

func New(log *logrus.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		Log:    log,
		tracks: make(map[string]*app.TrackRecord),
		color:  randomColor,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func randomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0x1000000))
}

// Emissions is the kg of CO2 burnt by an aircraft with profile p over distance km.
func Emissions(p app.Profile, distance float64) float64 {
	return ((p.FuelBase + (distance/app.KTSKMH)*p.FuelMarginalRate) * p.CorrectionFactor * p.CO2Coeff) / 1000
}

// ApplySnapshot evicts stale tracks, then creates or updates one track per reported
// aircraft and returns the new live set sorted by icao24.
// A track is stale once now - Timestamp >= staleAfter; vectors already that old are ignored.
func (l *Ledger) ApplySnapshot(ctx context.Context,
	vectors []app.RawStateVector,
	now int64,
	region app.Region,
	profiles app.ProfileTable,
	staleAfter int64) []app.TrackRecord {

	logger := l.Log.WithContext(ctx)

	evicted := 0
	for id, rec := range l.tracks {
		if now-rec.Timestamp >= staleAfter {
			logger.WithFields(logrus.Fields{
				"icao24": id,
				"age":    now - rec.Timestamp,
			}).Debug("Evict stale track")
			delete(l.tracks, id)
			evicted++
		}
	}

	created, updated := 0, 0
	reported := make(map[string]bool, len(vectors))
	for _, v := range vectors {
		id := normalizeIdentity(v.Identity)
		if id == "" || v.Timestamp <= 0 {
			logger.WithFields(logrus.Fields{
				"icao24":    v.Identity,
				"timestamp": v.Timestamp,
			}).Warn("Skip state vector without identity or timestamp")
			continue
		}
		if now-v.Timestamp >= staleAfter {
			logger.WithFields(logrus.Fields{
				"icao24": id,
				"age":    now - v.Timestamp,
			}).Debug("Skip stale state vector")
			continue
		}
		if v.Position == nil {
			continue
		}

		rec, ok := l.tracks[id]
		if !ok {
			// only new tracks are filtered by region
			if geo.Distance(region.Center, *v.Position) > region.RadiusKm {
				continue
			}
			rec = l.create(id, v, profiles)
			l.tracks[id] = rec
			created++
		} else {
			l.update(logger, rec, v)
			updated++
		}
		reported[id] = true
	}

	for id, rec := range l.tracks {
		if !reported[id] {
			rec.Radius -= radiusDecay
			if rec.Radius < minRadius {
				rec.Radius = minRadius
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"vectors": len(vectors),
		"created": created,
		"updated": updated,
		"evicted": evicted,
		"live":    len(l.tracks),
	}).Debug("Snapshot applied")

	return l.Tracks()
}

func (l *Ledger) create(id string, v app.RawStateVector, profiles app.ProfileTable) *app.TrackRecord {
	rec := &app.TrackRecord{
		Identity:  id,
		Timestamp: v.Timestamp,
		Color:     l.color(),
	}
	refresh(rec, v)

	if p, ok := profiles[id]; ok {
		base := Emissions(p, 0)
		rec.Profile = &p
		rec.BaselineEmissions = &base
	}
	return rec
}

func (l *Ledger) update(logger *logrus.Entry, rec *app.TrackRecord, v app.RawStateVector) {
	if v.Timestamp < rec.Timestamp {
		logger.WithFields(logrus.Fields{
			"icao24":   rec.Identity,
			"previous": rec.Timestamp,
			"received": v.Timestamp,
		}).Warn("Timestamp regressed, only position and flags updated")
		refresh(rec, v)
		return
	}

	rec.Distance += geo.Distance(rec.Position, *v.Position)
	rec.ObservedTime += v.Timestamp - rec.Timestamp
	rec.Timestamp = v.Timestamp
	refresh(rec, v)

	if rec.Profile != nil && rec.BaselineEmissions != nil && rec.Distance > 0 {
		e := Emissions(*rec.Profile, rec.Distance) - *rec.BaselineEmissions
		rec.Emissions = &e
	}
}

// refresh copies the latest reported position and flags.
func refresh(rec *app.TrackRecord, v app.RawStateVector) {
	rec.Callsign = strings.TrimSpace(v.Callsign)
	rec.Position = *v.Position
	rec.OnGround = v.OnGround
	rec.GeoAltitude = copyFloat(v.GeoAltitude)
	rec.Velocity = copyFloat(v.Velocity)
	rec.Radius = markerRadius(v.GeoAltitude)
}

func markerRadius(altitude *float64) int {
	r := minRadius
	if altitude != nil {
		inc := int(math.Round(*altitude / metersPerRadius))
		if inc > maxAltitudeRadius {
			inc = maxAltitudeRadius
		}
		if inc > 0 {
			r += inc
		}
	}
	return r
}

// Tracks returns a copy of the live set sorted by icao24.
func (l *Ledger) Tracks() []app.TrackRecord {
	result := make([]app.TrackRecord, 0, len(l.tracks))
	for _, rec := range l.tracks {
		result = append(result, clone(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Identity < result[j].Identity
	})
	return result
}

// Len is the size of the live set.
func (l *Ledger) Len() int {
	return len(l.tracks)
}

func clone(rec *app.TrackRecord) app.TrackRecord {
	c := *rec
	c.GeoAltitude = copyFloat(rec.GeoAltitude)
	c.Velocity = copyFloat(rec.Velocity)
	c.Emissions = copyFloat(rec.Emissions)
	c.BaselineEmissions = copyFloat(rec.BaselineEmissions)
	if rec.Profile != nil {
		p := *rec.Profile
		c.Profile = &p
	}
	return c
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func normalizeIdentity(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
