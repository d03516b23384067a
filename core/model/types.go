package model

import "time"

// Position is a geographic coordinate in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// TrackPoint is one observation of a typhoon's ground-truth track.
// Track data is immutable and sourced from an external table.
type TrackPoint struct {
	TyphoonID int
	Unixtime  int64
	Lat       float64
	Lon       float64
}

// ForecastPoint is a perturbed track observation produced by the forecaster
// for the open forecast horizon. Forecast points are regenerated every tick
// and never persisted.
type ForecastPoint struct {
	TyphoonID   int
	Unixtime    int64
	TrueLat     float64
	TrueLon     float64
	ForecastLat float64
	ForecastLon float64
}

// Forecast returns the perturbed coordinate.
func (p ForecastPoint) Forecast() Position {
	return Position{Lat: p.ForecastLat, Lon: p.ForecastLon}
}

// Mode is the discrete operating state of the generation ship.
type Mode int

const (
	ModeStandby Mode = iota
	ModeGenerating
	ModeChasing
	ModeReturningToBase
	ModeReturningToStandby
)

func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeGenerating:
		return "generating"
	case ModeChasing:
		return "chasing"
	case ModeReturningToBase:
		return "returning_to_base"
	case ModeReturningToStandby:
		return "returning_to_standby"
	default:
		return "unknown"
	}
}

// ShipSnapshot is the public per-tick record of the generation ship. It is
// the contract consumed by the reporting layer.
type ShipSnapshot struct {
	Unixtime         int64
	Time             time.Time
	TargetName       string
	TargetLat        float64
	TargetLon        float64
	TargetDistanceKm float64
	TargetTyphoonID  int
	TyphoonLat       float64
	TyphoonLon       float64
	ShipLat          float64
	ShipLon          float64
	ShipTyphoonKm    float64
	Branch           string
	Mode             Mode
	SpeedKt          float64
	GeneWh           float64
	TotalGeneHours   float64
	TotalGeneWh      float64
	LossWh           float64
	TotalLossHours   float64
	TotalLossWh      float64
	StoragePer       float64
	MainStorageWh    float64
	PropulsionWh     float64
	BalanceWh        float64
}

// BaseSnapshot is the per-tick record of the storage base.
type BaseSnapshot struct {
	Unixtime   int64
	Time       time.Time
	StorageWh  float64
	StoragePer float64
	Branch     string
}

// SupportSnapshot is the per-tick record of a support ship.
type SupportSnapshot struct {
	Unixtime   int64
	Time       time.Time
	TargetLat  float64
	TargetLon  float64
	Lat        float64
	Lon        float64
	StorageWh  float64
	StoragePer float64
	Branch     string
}
