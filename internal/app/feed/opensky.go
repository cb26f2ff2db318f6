package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/geo"
	"github.com/sirupsen/logrus"
)

// positions in an OpenSky state vector row
const (
	idxIcao24        = 0
	idxCallsign      = 1
	idxOriginCountry = 2
	idxLastContact   = 4
	idxLongitude     = 5
	idxLatitude      = 6
	idxBaroAltitude  = 7
	idxOnGround      = 8
	idxVelocity      = 9
	idxTrueTrack     = 10
	idxVerticalRate  = 11
	idxGeoAltitude   = 13
	idxSquawk        = 14
	minRowLength     = idxGeoAltitude + 1
)

//OpenSky - client of the OpenSky Network states/all endpoint
type OpenSky struct {
	Log    *logrus.Logger
	URL    string
	client *http.Client
}

type statesResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

func New(log *logrus.Logger, feedURL string) *OpenSky {
	return &OpenSky{Log: log, URL: feedURL, client: &http.Client{}}
}

// Fetch requests the states inside the bounding box of region.
// The request is bound to ctx; the caller owns the timeout.
func (o *OpenSky) Fetch(ctx context.Context, region app.Region) (app.Snapshot, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("feed url: %w", err)
	}
	sw, ne := geo.BoundingBox(region.Center, region.RadiusKm)
	q := u.Query()
	q.Set("lamin", fmt.Sprintf("%.4f", sw.Latitude))
	q.Set("lomin", fmt.Sprintf("%.4f", sw.Longitude))
	q.Set("lamax", fmt.Sprintf("%.4f", ne.Latitude))
	q.Set("lomax", fmt.Sprintf("%.4f", ne.Longitude))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return app.Snapshot{}, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("fetch states: %w", err)
	}
	defer func() {
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return app.Snapshot{}, fmt.Errorf("fetch states: unexpected status %d", resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("read states: %w", err)
	}

	return Decode(ctx, body, o.Log)
}

// Decode parses an OpenSky states payload. Rows too short to hold the fields we
// need are skipped; unknown values become nil.
func Decode(ctx context.Context, byt []byte, log *logrus.Logger) (app.Snapshot, error) {
	var data statesResponse
	if err := json.Unmarshal(byt, &data); err != nil {
		return app.Snapshot{}, fmt.Errorf("decode states: %w", err)
	}

	result := app.Snapshot{
		Time:   data.Time,
		States: make([]app.RawStateVector, 0, len(data.States)),
	}
	for i, row := range data.States {
		if len(row) < minRowLength {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"row":    i,
				"length": len(row),
			}).Warn("Skip short state vector")
			continue
		}

		fields := logrus.Fields{"icao24": row[idxIcao24]}
		vector := app.RawStateVector{
			Identity:      asString(row[idxIcao24]),
			Callsign:      asString(row[idxCallsign]),
			OriginCountry: asString(row[idxOriginCountry]),
		}
		if ts := asFloat(row[idxLastContact]); ts != nil {
			vector.Timestamp = int64(*ts)
		}
		lon, lat := asFloat(row[idxLongitude]), asFloat(row[idxLatitude])
		if lon != nil && lat != nil {
			vector.Position = &app.Coordinate{Latitude: *lat, Longitude: *lon}
		}
		if onGround, ok := row[idxOnGround].(bool); ok {
			vector.OnGround = onGround
		} else if row[idxOnGround] != nil {
			log.WithContext(ctx).WithFields(fields).Warn("Unexpected on_ground value")
		}
		vector.BaroAltitude = asFloat(row[idxBaroAltitude])
		vector.Velocity = asFloat(row[idxVelocity])
		vector.TrueTrack = asFloat(row[idxTrueTrack])
		vector.VerticalRate = asFloat(row[idxVerticalRate])
		vector.GeoAltitude = asFloat(row[idxGeoAltitude])
		// squawk is optional: older payloads stop at geo_altitude
		if len(row) > idxSquawk {
			vector.Squawk = asString(row[idxSquawk])
		}

		result.States = append(result.States, vector)
	}

	return result, nil
}

func asString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func asFloat(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
