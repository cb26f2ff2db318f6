package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

// keys of an aircraft entry in the static table
const (
	FUELTOT         = "FUEL_TOT"
	FUELTOTMARGRATE = "FUEL_TOT_MARG_RATE"
	CORRFACTOR      = "CORR_FACTOR"
	CO2COEFF        = "CO2_COEFF"
)

// Load reads the aircraft performance table from a JSON file.
// An empty path gives an empty table.
func Load(ctx context.Context, path string, log *logrus.Logger) (app.ProfileTable, error) {
	if path == "" {
		log.WithContext(ctx).Warn("No aircraft profile table configured, emissions will be unknown")
		return app.ProfileTable{}, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("profile table path: %w", err)
	}
	byt, err := ioutil.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}

	table, err := Parse(ctx, byt, log)
	if err != nil {
		return nil, err
	}
	log.WithContext(ctx).WithFields(logrus.Fields{
		"file":     expanded,
		"profiles": len(table),
	}).Info("Aircraft profile table loaded")
	return table, nil
}

// Parse decodes a table keyed by icao24. Entries with a missing or non numeric
// constant are dropped.
func Parse(ctx context.Context, byt []byte, log *logrus.Logger) (app.ProfileTable, error) {
	var data map[string]map[string]interface{}
	if err := json.Unmarshal(byt, &data); err != nil {
		return nil, fmt.Errorf("decode profile table: %w", err)
	}

	result := make(app.ProfileTable, len(data))
	for icao24, entry := range data {
		profile, err := parseEntry(entry)
		if err != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"icao24": icao24,
				"Error":  err,
			}).Warn("Skip aircraft profile")
			continue
		}
		result[strings.ToLower(strings.TrimSpace(icao24))] = profile
	}
	return result, nil
}

func parseEntry(entry map[string]interface{}) (app.Profile, error) {
	var p app.Profile
	var err error
	if p.FuelBase, err = number(entry, FUELTOT); err != nil {
		return p, err
	}
	if p.FuelMarginalRate, err = number(entry, FUELTOTMARGRATE); err != nil {
		return p, err
	}
	if p.CorrectionFactor, err = number(entry, CORRFACTOR); err != nil {
		return p, err
	}
	if p.CO2Coeff, err = number(entry, CO2COEFF); err != nil {
		return p, err
	}
	return p, nil
}

// number accepts both JSON numbers and numeric strings.
func number(entry map[string]interface{}, key string) (float64, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return 0, errors.New("missing " + key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprintf("%v", v)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: not a finite number", key)
	}
	return f, nil
}
