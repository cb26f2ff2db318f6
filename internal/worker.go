package internal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/config"
	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/feed"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/ledger"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/profiles"
	pgSinker "github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/db"
	fileSinker "github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/file"
	sqliteSinker "github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/sqlite"
	stdoutSinker "github.com/francois-poidevin/flighttracker-co2/internal/app/sinkers/stdout"
	"github.com/sirupsen/logrus"
)

// Worker runs the poll cycles. Cycles run one at a time on the calling goroutine.
type Worker struct {
	Log        *logrus.Logger
	Feed       app.Feed
	Ledger     *ledger.Ledger
	Profiles   app.ProfileTable
	Sinkers    []app.Sinker
	Region     app.Region
	Refresh    time.Duration
	StaleAfter int64
	// Clock is the fallback snapshot time when the feed omits it
	Clock func() time.Time
}

//Execute - start the worker
func Execute(ctx context.Context,
	log *logrus.Logger,
	conf config.Configuration,
	extra ...app.Sinker) error {

	log.WithContext(ctx).WithFields(logrus.Fields{
		"latitude":          conf.Flighttracker.Latitude,
		"longitude":         conf.Flighttracker.Longitude,
		"radius (km)":       conf.Flighttracker.Radius,
		"refreshTime (sec)": conf.Flighttracker.Refresh,
		"stale (sec)":       conf.StaleAfter(),
		"feedUrl":           conf.Flighttracker.Feedurl,
		"profiles":          conf.Flighttracker.Profiles,
		"sinkerType":        conf.Flighttracker.Sinkertype,
	}).Info("START with Configuration params: ")

	if err := conf.Validate(); err != nil {
		log.WithContext(ctx).WithFields(logrus.Fields{
			"Error": err,
		}).Error("Invalid configuration")
		return err
	}

	table, err := profiles.Load(ctx, conf.Flighttracker.Profiles, log)
	if err != nil {
		log.WithContext(ctx).WithFields(logrus.Fields{
			"Error": err,
		}).Error("Unable to load aircraft profiles")
		return err
	}

	sinker, params, err := newSinker(conf, log)
	if err != nil {
		return err
	}
	log.WithContext(ctx).Info("Initiate " + conf.Flighttracker.Sinkertype + " Sinker")
	if errInit := sinker.Init(ctx, params); errInit != nil {
		log.WithContext(ctx).Error(errInit)
		return errInit
	}
	sinkers := []app.Sinker{sinker}
	for _, s := range extra {
		if errInit := s.Init(ctx, nil); errInit != nil {
			log.WithContext(ctx).Error(errInit)
			closeSinkers(ctx, log, sinkers)
			return errInit
		}
		sinkers = append(sinkers, s)
	}

	w := &Worker{
		Log:        log,
		Feed:       feed.New(log, conf.Flighttracker.Feedurl),
		Ledger:     ledger.New(log),
		Profiles:   table,
		Sinkers:    sinkers,
		Region:     conf.Region(),
		Refresh:    time.Duration(conf.Flighttracker.Refresh) * time.Second,
		StaleAfter: conf.StaleAfter(),
		Clock:      time.Now,
	}
	defer w.close(ctx)

	return w.ticking(ctx)
}

func newSinker(conf config.Configuration, log *logrus.Logger) (app.Sinker, interface{}, error) {
	switch strings.ToUpper(conf.Flighttracker.Sinkertype) {
	case config.STDOUT:
		return stdoutSinker.New(log), nil, nil
	case config.FILE:
		return fileSinker.New(log), conf.Flighttracker.File, nil
	case config.DB:
		return pgSinker.New(log), conf.Flighttracker.Postgres, nil
	case config.SQLITE:
		return sqliteSinker.New(log), conf.Flighttracker.Sqlite, nil
	}
	return nil, nil, errors.New("Wrong sinker specified")
}

func (w *Worker) ticking(ctx context.Context) error {
	//Loop each <refresh parameter> secondes for working
	ticker := time.NewTicker(w.Refresh)
	defer func() {
		ticker.Stop()
	}()

	w.Cycle(ctx, w.Clock())
	for {
		select {
		case <-ctx.Done():
			w.Log.WithContext(ctx).Info("Worker stopped")
			return nil
		case x := <-ticker.C:
			w.Cycle(ctx, x)
		}
	}
}

// Timeout of a feed request: one second less than the refresh period.
func (w *Worker) Timeout() time.Duration {
	timeout := w.Refresh - time.Second
	if timeout < time.Second {
		timeout = time.Second
	}
	return timeout
}

// Cycle fetches one snapshot, applies it and hands the result to every sinker.
// A failed fetch leaves the live set untouched; staleness catches up on the next cycle.
func (w *Worker) Cycle(ctx context.Context, t time.Time) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.Timeout())
	snapshot, errRaw := w.Feed.Fetch(fetchCtx, w.Region)
	cancel()
	if errRaw != nil {
		w.Log.WithContext(ctx).WithFields(logrus.Fields{
			"Error": errRaw,
		}).Error("Unable to get Raw data")
		return
	}

	now := snapshot.Time
	if now <= 0 {
		now = t.Unix()
	}

	tracks := w.Ledger.ApplySnapshot(ctx, snapshot.States, now, w.Region, w.Profiles, w.StaleAfter)
	stats := ledger.Aggregate(tracks, ledger.All)

	for _, sinker := range w.Sinkers {
		if errSink := sinker.Sink(ctx, t, tracks, stats); errSink != nil {
			w.Log.WithContext(ctx).Error(errSink)
		}
	}
}

func (w *Worker) close(ctx context.Context) {
	closeSinkers(ctx, w.Log, w.Sinkers)
}

func closeSinkers(ctx context.Context, log *logrus.Logger, sinkers []app.Sinker) {
	for _, sinker := range sinkers {
		if err := sinker.Close(); err != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": err,
			}).Error("Unable to close sinker")
		}
	}
}
