// Package forecast produces the synthetic typhoon forecasts the ship plans
// against. Forecast error is a statistical perturbation of the ground truth,
// not a predictive model: the error radius grows linearly with lead time and
// each coordinate is drawn from a normal distribution around the true point.
package forecast

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tpgship/tpgsim/core/geo"
	"github.com/tpgship/tpgsim/core/model"
	"github.com/tpgship/tpgsim/core/track"
)

// Config defines the forecast horizon and error growth.
type Config struct {
	// ForecastHours is the length of the rolling forecast window.
	ForecastHours int `json:"forecast_hours"`
	// ErrorSlopeKmPerHour is the growth rate of the error radius. The
	// radius is zero one time step ahead and grows linearly beyond that.
	ErrorSlopeKmPerHour float64 `json:"error_slope_km_per_hour"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ForecastHours == 0 {
		c.ForecastHours = 120
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ForecastHours <= 0 {
		return fmt.Errorf("forecast_hours must be positive")
	}
	if c.ErrorSlopeKmPerHour < 0 {
		return fmt.Errorf("error_slope_km_per_hour must not be negative")
	}
	return nil
}

// Forecaster turns ground-truth track data into a perturbed forecast window.
type Forecaster struct {
	cfg   Config
	track *track.Table
	src   rand.Source
}

// New creates a Forecaster drawing from the given track table. The seed makes
// the perturbation reproducible across runs.
func New(cfg Config, tbl *track.Table, seed uint64) *Forecaster {
	return &Forecaster{cfg: cfg, track: tbl, src: rand.NewSource(seed)}
}

// ForecastHours returns the configured horizon.
func (f *Forecaster) ForecastHours() int { return f.cfg.ForecastHours }

// ErrorRadiusKm returns the mean positional error for a point advanceHours
// ahead of the current time. It is exactly zero one time step ahead.
func (f *Forecaster) ErrorRadiusKm(timeStepHours int, advanceHours float64) float64 {
	return f.cfg.ErrorSlopeKmPerHour * (advanceHours - float64(timeStepHours))
}

// axisSD converts a km error radius into a degree standard deviation along a
// single axis by stepping outward in small degree increments and measuring
// the true great-circle distance. Latitude and longitude must be handled
// separately: a degree of longitude shrinks toward the poles while a degree
// of latitude does not.
func axisSD(origin model.Position, errorRadiusKm float64, alongLat bool) float64 {
	if errorRadiusKm <= 0 {
		return 0
	}
	// One degree of latitude is roughly 112 km; probe in 1/30ths of the
	// error radius expressed in that approximation.
	step := (1.0 / 112.0) * (errorRadiusKm / 30.0)
	offset := 0.0
	for dist := 0.0; dist < errorRadiusKm; {
		offset += step
		probe := origin
		if alongLat {
			probe.Lat += offset
		} else {
			probe.Lon += offset
		}
		dist = geo.DistanceKm(origin, probe)
	}
	return offset
}

// CreateForecast builds the forecast set for all track points with unixtime
// in [currentTime+timeStep, currentTime+forecastHours]. An empty window
// yields an empty set, not an error.
func (f *Forecaster) CreateForecast(timeStepHours int, currentTime int64) []model.ForecastPoint {
	start := currentTime + int64(timeStepHours)*3600
	end := currentTime + int64(f.cfg.ForecastHours)*3600

	window := f.track.Window(start, end)
	if len(window) == 0 {
		return nil
	}

	out := make([]model.ForecastPoint, 0, len(window))
	for _, p := range window {
		truePos := model.Position{Lat: p.Lat, Lon: p.Lon}
		advance := float64(p.Unixtime-currentTime) / 3600
		radius := f.ErrorRadiusKm(timeStepHours, advance)

		latSD := axisSD(truePos, radius, true)
		lonSD := axisSD(truePos, radius, false)

		out = append(out, model.ForecastPoint{
			TyphoonID:   p.TyphoonID,
			Unixtime:    p.Unixtime,
			TrueLat:     p.Lat,
			TrueLon:     p.Lon,
			ForecastLat: f.gauss(p.Lat, latSD),
			ForecastLon: f.gauss(p.Lon, lonSD),
		})
	}
	return out
}

func (f *Forecaster) gauss(mu, sigma float64) float64 {
	if sigma == 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: f.src}.Rand()
}
