package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/tools"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

const separator = "\n====================================\n"

type FileSinker struct {
	Log     *logrus.Logger
	fReport *os.File
	fTracks *os.File
}

func New(log *logrus.Logger) app.Sinker {
	//init the logger here
	return &FileSinker{Log: log}
}

func (s *FileSinker) Init(ctx context.Context, params interface{}) error {
	parameters, ok := params.(Configuration)
	if !ok {
		return errors.New("File sinker needs a file.Configuration")
	}
	folder, err := homedir.Expand(parameters.Folder)
	if err != nil {
		return err
	}

	if _, err := os.Stat(folder); os.IsNotExist(err) {
		err := os.MkdirAll(folder, os.ModePerm)
		if err != nil {
			s.Log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": err,
			}).Error("Unable to create folder '" + folder + "'")
			return err
		}
	}

	fReport, err := os.OpenFile(filepath.Join(folder, parameters.Outputreport),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.Log.WithContext(ctx).WithFields(logrus.Fields{
			"Error": err,
		}).Error("Unable to Open file")
		return err
	}
	s.fReport = fReport

	fTracks, err := os.OpenFile(filepath.Join(folder, parameters.Outputraw),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.Log.WithContext(ctx).WithFields(logrus.Fields{
			"Error": err,
		}).Error("Unable to Open file")
		return err
	}
	s.fTracks = fTracks

	return nil
}

func (s *FileSinker) Sink(ctx context.Context, t time.Time, tracks []app.TrackRecord, stats app.Stats) error {
	errTracks := s.storeTracksOnFile(ctx, t, tracks)
	if errTracks != nil {
		return errTracks
	}

	errReport := s.storeReportOnFile(ctx, t, stats)
	if errReport != nil {
		return errReport
	}

	return nil
}

func (s *FileSinker) Close() error {
	var result error
	for _, f := range []*os.File{s.fTracks, s.fReport} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && result == nil {
			result = err
		}
	}
	s.fTracks, s.fReport = nil, nil
	return result
}

func (s *FileSinker) storeTracksOnFile(ctx context.Context, t time.Time, tracks []app.TrackRecord) error {
	if s.fTracks == nil {
		return errors.New("No tracks file for storing data")
	}

	w := bufio.NewWriter(s.fTracks)

	content := "No tracked flight"
	if len(tracks) > 0 {
		marshal, err := json.Marshal(tracks)
		if err != nil {
			return err
		}
		content = string(marshal)
	}
	n4, errWS := w.WriteString(t.Format(time.RFC3339) + " Tracks\n" + content + separator)
	if errWS != nil {
		return errWS
	}
	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"number of Flights": len(tracks),
		"length":            fmt.Sprintf("wrote %d bytes", n4),
	}).Debug("Wrote tracks")

	return w.Flush()
}

func (s *FileSinker) storeReportOnFile(ctx context.Context, t time.Time, stats app.Stats) error {
	if s.fReport == nil {
		return errors.New("No report file for storing data")
	}

	w := bufio.NewWriter(s.fReport)

	report := fmt.Sprintf("%s Statistics\n"+
		"Observed time : %s\n"+
		"On ground : %d\n"+
		"In air : %d\n"+
		"Total distance : %.2f km\n"+
		"Total CO2 emissions : %.2f kg",
		t.Format(time.RFC3339),
		tools.FormatObservedTime(stats),
		stats.OnGround,
		stats.InAir,
		stats.TotalDistanceKm,
		stats.TotalEmissionsKg)

	n4, errWS := w.WriteString(report + separator)
	if errWS != nil {
		return errWS
	}
	s.Log.WithContext(ctx).WithFields(logrus.Fields{
		"length": fmt.Sprintf("wrote %d bytes", n4),
	}).Debug("Wrote report")

	return w.Flush()
}
