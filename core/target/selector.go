// Package target implements the multi-criteria selection of the storm the
// ship chases: land exclusion, expected generation time, catch-time
// feasibility and the weighted time-effect score.
package target

import (
	"fmt"
	"math"
	"sort"

	"github.com/tpgship/tpgsim/core/geo"
	"github.com/tpgship/tpgsim/core/model"
)

// Config defines the scoring parameters.
type Config struct {
	// ForecastWeight weights expected generation time against catch time.
	// The catch-time term uses (100 - ForecastWeight).
	ForecastWeight float64 `json:"forecast_weight"`
	// JudgeTimeTimes is the maximum ratio of ship travel time to storm
	// arrival time for a candidate to remain eligible.
	JudgeTimeTimes float64 `json:"judge_time_times"`
	// MeanTyphoonLifeHours is the lifetime assumed for storms still alive
	// at the forecast horizon. Defaults to five days.
	MeanTyphoonLifeHours float64 `json:"mean_typhoon_life_hours"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MeanTyphoonLifeHours == 0 {
		c.MeanTyphoonLifeHours = 24 * 5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ForecastWeight < 0 || c.ForecastWeight > 100 {
		return fmt.Errorf("forecast_weight must be in [0,100]")
	}
	if c.JudgeTimeTimes <= 0 {
		return fmt.Errorf("judge_time_times must be positive")
	}
	return nil
}

// landBand is one latitude band of the coastal exclusion region. Forecast
// points west of MinLon inside the band count as land and are never
// targeted.
type landBand struct {
	minLat, maxLat float64
	minLon         float64
}

// japanCoast approximates the coastline from the Philippine Sea up to the
// Kurils as a chain of latitude bands with open-ocean longitude thresholds.
var japanCoast = []landBand{
	{0, 13, 127.5},
	{13, 15, 125},
	{15, 24, 123},
	{24, 26, 126},
	{26, 28, 130.1},
	{28, 32.2, 132.4},
	{32.2, 34, 137.2},
	{34, 41.2, 143},
	{41.2, 44, 149},
	{44, 50, 156},
}

// OpenSea reports whether a point lies in the targetable open-ocean region.
func OpenSea(p model.Position) bool {
	if p.Lat >= 50 {
		return true
	}
	for _, b := range japanCoast {
		if p.Lat >= b.minLat && p.Lat <= b.maxLat && p.Lon >= b.minLon {
			return true
		}
	}
	return false
}

// Kinematics is the ship state the selector needs.
type Kinematics struct {
	Position   model.Position
	SpeedKt    float64
	MaxSpeedKt float64
}

// Candidate is the selected forecast row with its derived planning numbers.
type Candidate struct {
	Point model.ForecastPoint
	// DistanceKm from the ship to the forecast position.
	DistanceKm float64
	// CatchTimeHours is max(travel time, storm arrival time).
	CatchTimeHours float64
	// GenerationHours the ship could harvest arriving exactly on time.
	GenerationHours float64
	// Score is the weighted time-effect value used for ranking.
	Score float64
}

// Selector scores forecast points and picks at most one storm to chase.
// Selection is a pure function of its inputs: identical forecasts and ship
// kinematics always produce the same candidate.
type Selector struct {
	cfg Config
}

// NewSelector creates a Selector.
func NewSelector(cfg Config) (*Selector, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg}, nil
}

// OccurrenceFunc resolves the first observation time of a typhoon.
type OccurrenceFunc func(typhoonID int) (int64, bool)

// Select picks the best storm from the forecast set, or reports none.
func (s *Selector) Select(
	points []model.ForecastPoint,
	ship Kinematics,
	occurrence OccurrenceFunc,
	currentTime int64,
	forecastHours int,
) (Candidate, bool) {
	sea := points[:0:0]
	for _, p := range points {
		if OpenSea(p.Forecast()) {
			sea = append(sea, p)
		}
	}
	if len(sea) == 0 {
		return Candidate{}, false
	}

	// Last forecast-visible observation per typhoon. Typhoon ids missing
	// from this slice simply have no entry; lookups by id stay aligned
	// regardless of gaps in the numbering.
	lastSeen := make(map[int]int64)
	for _, p := range sea {
		if p.Unixtime > lastSeen[p.TyphoonID] {
			lastSeen[p.TyphoonID] = p.Unixtime
		}
	}

	horizonEnd := currentTime + int64(forecastHours)*3600
	meanLifeUnix := int64(s.cfg.MeanTyphoonLifeHours * 3600)

	speedKmh := geo.KtToKmh(ship.SpeedKt)
	if speedKmh == 0 {
		speedKmh = geo.KtToKmh(ship.MaxSpeedKt)
	}

	sort.SliceStable(sea, func(i, j int) bool { return sea[i].TyphoonID < sea[j].TyphoonID })

	var best Candidate
	found := false
	for _, p := range sea {
		end := lastSeen[p.TyphoonID]
		occ, ok := occurrence(p.TyphoonID)

		// Storms still alive at the closing time of the horizon, and
		// younger than the mean lifetime, are assumed to die five days
		// after occurrence; everything else dies at its last forecast
		// observation.
		var geneHours float64
		if ok && end == horizonEnd && end-occ < meanLifeUnix {
			geneHours = float64(occ+meanLifeUnix-p.Unixtime) / 3600
		} else {
			geneHours = float64(end-p.Unixtime) / 3600
		}

		dist := geo.DistanceKm(ship.Position, p.Forecast())
		catch := math.Ceil(dist / speedKmh)
		arrival := float64(p.Unixtime-currentTime) / 3600
		if arrival <= 0 {
			// Zero lead time cannot be scored; skip rather than divide.
			continue
		}
		if catch/arrival > s.cfg.JudgeTimeTimes {
			continue
		}
		eff := math.Max(catch, arrival)
		score := geneHours*s.cfg.ForecastWeight - eff*(100-s.cfg.ForecastWeight)

		cand := Candidate{
			Point:           p,
			DistanceKm:      dist,
			CatchTimeHours:  eff,
			GenerationHours: geneHours,
			Score:           score,
		}
		if !found || better(cand, best) {
			best = cand
			found = true
		}
	}
	return best, found
}

// better ranks by score, then longest generation time, then shortest catch
// time.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.GenerationHours != b.GenerationHours {
		return a.GenerationHours > b.GenerationHours
	}
	return a.CatchTimeHours < b.CatchTimeHours
}

// NextPosition returns the forecast position of the given typhoon one time
// step ahead, if present in the forecast set.
func NextPosition(points []model.ForecastPoint, typhoonID int, currentTime int64, timeStepHours int) (model.Position, bool) {
	next := currentTime + int64(timeStepHours)*3600
	for _, p := range points {
		if p.TyphoonID == typhoonID && p.Unixtime == next {
			return p.Forecast(), true
		}
	}
	return model.Position{}, false
}
