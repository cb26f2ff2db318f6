package service

import (
	"context"
	"sync"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/ledger"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/tools"
	"github.com/sirupsen/logrus"
)

// Service holds the live set published by the last cycle and answers viewport
// searches. It is the only piece shared between the poll loop and HTTP handlers.
type Service struct {
	Log *logrus.Logger

	mu      sync.RWMutex
	updated time.Time
	tracks  []app.TrackRecord
}

//Result - tracks and statistics of a viewport
type Result struct {
	Updated time.Time         `json:"updated"`
	Tracks  []app.TrackRecord `json:"tracks"`
	Stats   app.Stats         `json:"stats"`
}

func New(log *logrus.Logger) *Service {
	//init the logger here
	return &Service{Log: log}
}

func (s *Service) Init(ctx context.Context, params interface{}) error {
	//Nothing to do here
	return nil
}

// Sink publishes a cycle; tracks must not be modified afterwards.
func (s *Service) Sink(ctx context.Context, t time.Time, tracks []app.TrackRecord, stats app.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = t
	s.tracks = tracks
	return nil
}

func (s *Service) Close() error {
	return nil
}

// Search returns the tracks inside bbox and their statistics. A nil bbox is the whole live set.
func (s *Service) Search(ctx context.Context, bbox *tools.Bbox) Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := ledger.All
	if bbox != nil {
		visible = bbox.Visible
	}

	result := Result{
		Updated: s.updated,
		Tracks:  make([]app.TrackRecord, 0, len(s.tracks)),
		Stats:   ledger.Aggregate(s.tracks, visible),
	}
	for _, track := range s.tracks {
		if visible(track) {
			result.Tracks = append(result.Tracks, track)
		}
	}

	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"bbox":    bbox,
		"visible": len(result.Tracks),
		"live":    len(s.tracks),
	}).Debug("Search service called")

	return result
}
