package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/geo"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

// DATEFORMAT of the human readable times, always UTC
const DATEFORMAT = "2006-01-02 15:04:05"

//Flight - one aircraft of the region in a one-shot export
type Flight struct {
	Timestamp       int64    `json:"timestamp"`
	Time            string   `json:"time"`
	Distance        float64  `json:"distance"` //km from the region center
	Icao24          string   `json:"icao24"`
	Callsign        string   `json:"callsign"`
	OriginCountry   string   `json:"origin_country"`
	LastContact     int64    `json:"last_contact"`
	LastContactTime string   `json:"last_contact_time"`
	Longitude       float64  `json:"longitude"`
	Latitude        float64  `json:"latitude"`
	BaroAltitude    *float64 `json:"baro_altitude"`
	OnGround        bool     `json:"on_ground"`
	Velocity        *float64 `json:"velocity"`
	TrueTrack       *float64 `json:"true_track"`
	VerticalRate    *float64 `json:"vertical_rate"`
	GeoAltitude     *float64 `json:"geo_altitude"`
	Squawk          string   `json:"squawk"`
}

//Report - the flights of the region at snapshot time
type Report struct {
	Timestamp int64    `json:"timestamp"`
	Time      string   `json:"time"`
	Flights   []Flight `json:"flights"`
}

var csvHeader = []string{
	"timestamp", "time", "distance", "icao24", "callsign", "origin_country",
	"last_contact", "last_contact_time", "longitude", "latitude", "baro_altitude",
	"on_ground", "velocity", "true_track", "vertical_rate", "geo_altitude", "squawk",
}

func formatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(DATEFORMAT)
}

// Select keeps the positioned vectors within region.RadiusKm of the center, in feed order.
func Select(snapshot app.Snapshot, region app.Region) Report {
	report := Report{
		Timestamp: snapshot.Time,
		Time:      formatTime(snapshot.Time),
		Flights:   []Flight{},
	}
	for _, v := range snapshot.States {
		if v.Position == nil {
			continue
		}
		distance := geo.Distance(region.Center, *v.Position)
		if distance > region.RadiusKm {
			continue
		}
		report.Flights = append(report.Flights, Flight{
			Timestamp:       snapshot.Time,
			Time:            report.Time,
			Distance:        distance,
			Icao24:          v.Identity,
			Callsign:        strings.TrimSpace(v.Callsign),
			OriginCountry:   v.OriginCountry,
			LastContact:     v.Timestamp,
			LastContactTime: formatTime(v.Timestamp),
			Longitude:       v.Position.Longitude,
			Latitude:        v.Position.Latitude,
			BaroAltitude:    v.BaroAltitude,
			OnGround:        v.OnGround,
			Velocity:        v.Velocity,
			TrueTrack:       v.TrueTrack,
			VerticalRate:    v.VerticalRate,
			GeoAltitude:     v.GeoAltitude,
			Squawk:          v.Squawk,
		})
	}
	return report
}

func WriteJSON(w io.Writer, report Report) error {
	return json.NewEncoder(w).Encode(report)
}

// WriteCSV writes a header line then one line per flight. Unknown values are empty cells.
func WriteCSV(w io.Writer, flights []Flight) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range flights {
		record := []string{
			strconv.FormatInt(f.Timestamp, 10),
			f.Time,
			formatFloat(&f.Distance),
			f.Icao24,
			f.Callsign,
			f.OriginCountry,
			strconv.FormatInt(f.LastContact, 10),
			f.LastContactTime,
			formatFloat(&f.Longitude),
			formatFloat(&f.Latitude),
			formatFloat(f.BaroAltitude),
			strconv.FormatBool(f.OnGround),
			formatFloat(f.Velocity),
			formatFloat(f.TrueTrack),
			formatFloat(f.VerticalRate),
			formatFloat(f.GeoAltitude),
			f.Squawk,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Exporter takes one snapshot of the region and writes it as JSON and CSV.
type Exporter struct {
	Log    *logrus.Logger
	Feed   app.Feed
	Folder string
	JSON   string
	CSV    string
	Clock  func() time.Time
}

// Run fetches, selects and writes. Nothing is written when the region is empty.
func (e *Exporter) Run(ctx context.Context, region app.Region) (Report, error) {
	snapshot, err := e.Feed.Fetch(ctx, region)
	if err != nil {
		return Report{}, err
	}
	if snapshot.Time <= 0 {
		snapshot.Time = e.Clock().Unix()
	}

	report := Select(snapshot, region)
	logger := e.Log.WithContext(ctx).WithFields(logrus.Fields{
		"time":    report.Time,
		"states":  len(snapshot.States),
		"flights": len(report.Flights),
	})
	if len(report.Flights) == 0 {
		logger.Warn("No flight in the region, nothing exported")
		return report, nil
	}

	folder, err := homedir.Expand(e.Folder)
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return report, fmt.Errorf("create export folder: %w", err)
	}

	if err := writeFile(filepath.Join(folder, e.JSON), func(w io.Writer) error {
		return WriteJSON(w, report)
	}); err != nil {
		return report, err
	}
	if err := writeFile(filepath.Join(folder, e.CSV), func(w io.Writer) error {
		return WriteCSV(w, report.Flights)
	}); err != nil {
		return report, err
	}

	logger.WithFields(logrus.Fields{
		"json": filepath.Join(folder, e.JSON),
		"csv":  filepath.Join(folder, e.CSV),
	}).Info("Snapshot exported")
	return report, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
