package ledger

import "github.com/francois-poidevin/flighttracker-co2/internal/app"

// All is the predicate of an unbounded viewport.
func All(app.TrackRecord) bool {
	return true
}

// Aggregate sums the tracks accepted by visible. A nil visible accepts everything.
func Aggregate(tracks []app.TrackRecord, visible func(app.TrackRecord) bool) app.Stats {
	if visible == nil {
		visible = All
	}

	var stats app.Stats
	for _, t := range tracks {
		if !visible(t) {
			continue
		}
		if t.OnGround {
			stats.OnGround++
		} else {
			stats.InAir++
		}
		stats.TotalDistanceKm += t.Distance
		if t.Emissions != nil {
			stats.TotalEmissionsKg += *t.Emissions
		}
		if t.ObservedTime > stats.MaxObservedTime {
			stats.MaxObservedTime = t.ObservedTime
		}
	}
	return stats
}
