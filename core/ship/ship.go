// Package ship implements the generation ship's per-tick decision logic:
// the priority-ordered chase/return/standby policy, the via-base detour and
// the energy accounting that follows every movement decision.
package ship

import (
	"fmt"
	"math"

	"github.com/tpgship/tpgsim/core/energy"
	"github.com/tpgship/tpgsim/core/geo"
	"github.com/tpgship/tpgsim/core/logger"
	"github.com/tpgship/tpgsim/core/model"
	"github.com/tpgship/tpgsim/core/target"
)

// Branch labels recorded for every decision outcome.
const (
	BranchStart          = "start forecast"
	BranchCapacityExceed = "battery capacity exceeded specified ratio"
	BranchArrivalBase    = "arrival at base station"
	BranchReturnStandby  = "returning to standby position as no typhoon"
	BranchArrivalStandby = "arrival at standby position"
	BranchTracking       = "tracking typhoon"
	BranchArrivedTyphoon = "arrived at typhoon"
	BranchTrackingVia    = "tracking typhoon via base"
	BranchStandbyVia     = "return standby via base"
	BranchInRange        = "within effective range of typhoon"
)

// Config carries the behavioural parameters of the ship.
type Config struct {
	InitialLat float64 `json:"initial_lat"`
	InitialLon float64 `json:"initial_lon"`

	ReturnSpeedKt float64 `json:"ship_return_speed_kt"`

	// DepartStoragePer is the storage percentage at which the ship breaks
	// off and heads for the base unconditionally.
	DepartStoragePer float64 `json:"depart_storage_per"`
	// ViaBaseStoragePer is the lower percentage at which a detour through
	// the base becomes worthwhile.
	ViaBaseStoragePer float64 `json:"govia_base_judge_energy_storage_per"`
	// JudgeDirectionDeg is the maximum bearing difference for the base to
	// count as "roughly on the way" to the storm.
	JudgeDirectionDeg float64 `json:"judge_direction_deg"`
	// EffectiveRangeKm is the distance to the storm centre within which
	// the ship rides the storm and generates.
	EffectiveRangeKm float64 `json:"typhoon_effective_range"`
	// StorageFloorPer is the reserve kept onboard after unloading.
	StorageFloorPer float64 `json:"storage_floor_per"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.DepartStoragePer == 0 {
		c.DepartStoragePer = 100
	}
	if c.JudgeDirectionDeg == 0 {
		c.JudgeDirectionDeg = 10
	}
	if c.StorageFloorPer == 0 {
		c.StorageFloorPer = 10
	}
	if c.EffectiveRangeKm == 0 {
		c.EffectiveRangeKm = 50
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ReturnSpeedKt <= 0 {
		return fmt.Errorf("ship_return_speed_kt must be positive")
	}
	if c.ViaBaseStoragePer < 0 || c.ViaBaseStoragePer > 100 {
		return fmt.Errorf("govia_base_judge_energy_storage_per must be in [0,100]")
	}
	return nil
}

// WindFunc looks up the wind components at a position.
type WindFunc func(p model.Position) (u, v float64)

// TickInput is everything a single decision step consumes.
type TickInput struct {
	CurrentTime   int64
	TimeStepHours int
	ForecastHours int
	Forecast      []model.ForecastPoint
	Occurrence    target.OccurrenceFunc
	Wind          WindFunc
}

// State is the mutable ship state, owned exclusively by the Ship and
// mutated once per tick.
type State struct {
	Position model.Position
	SpeedKt  float64
	Mode     model.Mode

	MainStorageWh float64
	PropulsionWh  float64

	TargetName       string
	Target           model.Position
	TargetDistanceKm float64
	TargetTyphoonID  int

	// Sticky flags, cleared on base arrival.
	GoBase         bool
	ViaBase        bool
	StandbyViaBase bool

	NextTyphoon      model.Position
	NextTyphoonKnown bool
	ShipTyphoonKm    float64

	// SupplyWh is the payload unloaded at the base, collected by the
	// driver after the arrival tick.
	SupplyWh float64

	Branch string

	GeneWh         float64
	LossWh         float64
	TotalGeneWh    float64
	TotalLossWh    float64
	TotalGeneHours float64
	TotalLossHours float64
}

// StoragePer is the main-storage fill level in percent.
func (s *State) StoragePer(maxWh float64) float64 {
	if maxWh == 0 {
		return 0
	}
	return s.MainStorageWh / maxWh * 100
}

// Ship composes the target selector and the energy model into the per-tick
// state machine.
type Ship struct {
	cfg      Config
	energy   *energy.Model
	selector *target.Selector
	base     model.Position
	standby  model.Position
	log      logger.Logger

	state State
}

// New creates a ship at its initial position with the reserve floor charged.
func New(cfg Config, em *energy.Model, sel *target.Selector, basePos, standbyPos model.Position, log logger.Logger) (*Ship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sh := &Ship{
		cfg:      cfg,
		energy:   em,
		selector: sel,
		base:     basePos,
		standby:  standbyPos,
		log:      log,
	}
	ecfg := em.Config()
	sh.state = State{
		Position:      model.Position{Lat: cfg.InitialLat, Lon: cfg.InitialLon},
		Mode:          model.ModeStandby,
		MainStorageWh: ecfg.MaxStorageWh * cfg.StorageFloorPer / 100,
		PropulsionWh:  ecfg.MaxPropulsionWh,
		TargetName:    "base station",
		Target:        basePos,
		Branch:        BranchStart,
	}
	return sh, nil
}

// State returns a copy of the current ship state.
func (s *Ship) State() State { return s.state }

// TakeSupply hands over the payload unloaded at the base and clears it.
func (s *Ship) TakeSupply() float64 {
	w := s.state.SupplyWh
	s.state.SupplyWh = 0
	return w
}

// MaxStorageWh is the bulk storage capacity.
func (s *Ship) MaxStorageWh() float64 { return s.energy.Config().MaxStorageWh }

// tickFlags collects the per-tick decision outputs feeding the energy model.
type tickFlags struct {
	generating    bool
	consuming     bool
	distanceCheck bool
}

// Tick advances the ship by one time step: decide, move, account energy.
func (s *Ship) Tick(in TickInput) error {
	st := &s.state
	flags := tickFlags{}
	ecfg := s.energy.Config()

	st.NextTyphoonKnown = false
	st.ShipTyphoonKm = math.NaN()

	storagePer := st.StoragePer(ecfg.MaxStorageWh)

	if storagePer >= s.cfg.DepartStoragePer || st.GoBase || st.ViaBase {
		s.returnBaseAction(in, &flags)
	} else {
		cand, ok := s.selectTarget(in)
		switch {
		case !ok && s.cfg.ViaBaseStoragePer > 0 &&
			storagePer >= s.cfg.ViaBaseStoragePer && storagePer > s.cfg.StorageFloorPer:
			// Nothing to chase but a worthwhile load: drop it off on the
			// way to the standby position.
			st.TargetTyphoonID = 0
			st.StandbyViaBase = true
			s.returnBaseAction(in, &flags)
		case !ok:
			st.TargetTyphoonID = 0
			s.returnStandbyAction(in, &flags)
		default:
			s.chaseAction(in, cand, &flags, storagePer)
		}
	}

	prev := st.Position
	st.Position = geo.Advance(st.Position, st.Target, geo.KtToKmh(st.SpeedKt)*float64(in.TimeStepHours))

	// Proximity override: a storm intercepted between ticks flips the
	// ship straight into generation.
	if flags.distanceCheck && st.NextTyphoonKnown {
		st.ShipTyphoonKm = geo.DistanceKm(st.Position, st.NextTyphoon)
		if st.ShipTyphoonKm <= s.cfg.EffectiveRangeKm {
			st.Branch = BranchInRange
			st.Mode = model.ModeGenerating
			flags.generating = true
			flags.consuming = false
		} else {
			st.Mode = model.ModeChasing
			flags.generating = false
			flags.consuming = true
		}
	}

	return s.account(in, prev, flags)
}

// selectTarget runs the selector over the current forecast.
func (s *Ship) selectTarget(in TickInput) (target.Candidate, bool) {
	return s.selector.Select(
		in.Forecast,
		target.Kinematics{Position: s.state.Position, SpeedKt: s.state.SpeedKt, MaxSpeedKt: s.energy.Config().MaxSpeedKt},
		in.Occurrence,
		in.CurrentTime,
		in.ForecastHours,
	)
}

// returnBaseAction steers for the storage base and unloads on arrival.
func (s *Ship) returnBaseAction(in TickInput, flags *tickFlags) {
	st := &s.state
	ecfg := s.energy.Config()

	st.Target = s.base
	st.TargetName = "base station"
	st.SpeedKt = s.cfg.ReturnSpeedKt
	switch {
	case st.ViaBase:
		st.Branch = BranchTrackingVia
		st.SpeedKt = ecfg.MaxSpeedKt
	case st.StandbyViaBase:
		st.Branch = BranchStandbyVia
	default:
		st.Branch = BranchCapacityExceed
	}
	st.GoBase = true

	hours := geo.DistanceKm(st.Position, s.base) / geo.KtToKmh(st.SpeedKt)
	if hours <= float64(in.TimeStepHours) {
		st.Branch = BranchArrivalBase
		st.GoBase = false
		st.ViaBase = false
		st.StandbyViaBase = false
		st.SpeedKt = 0
		st.Mode = model.ModeStandby
		st.Position = s.base

		floor := ecfg.MaxStorageWh * s.cfg.StorageFloorPer / 100
		if st.MainStorageWh > floor {
			st.SupplyWh = st.MainStorageWh - floor
			st.MainStorageWh = floor
			s.log.Debugf("unloaded %.0f Wh at base", st.SupplyWh)
		}
	} else {
		st.Mode = model.ModeReturningToBase
		flags.consuming = true
	}
}

// returnStandbyAction steers for the standby position.
func (s *Ship) returnStandbyAction(in TickInput, flags *tickFlags) {
	st := &s.state
	st.Branch = BranchReturnStandby
	st.Target = s.standby
	st.TargetName = "standby position"
	st.SpeedKt = s.cfg.ReturnSpeedKt

	hours := geo.DistanceKm(st.Position, s.standby) / geo.KtToKmh(st.SpeedKt)
	if hours <= float64(in.TimeStepHours) {
		st.Branch = BranchArrivalStandby
		st.SpeedKt = 0
		st.Mode = model.ModeStandby
		st.Position = s.standby
	} else {
		st.Mode = model.ModeReturningToStandby
		flags.consuming = true
	}
}

// chaseAction pursues the selected storm, possibly via the base.
func (s *Ship) chaseAction(in TickInput, cand target.Candidate, flags *tickFlags, storagePer float64) {
	st := &s.state
	ecfg := s.energy.Config()

	st.TargetTyphoonID = cand.Point.TyphoonID
	st.TargetName = fmt.Sprintf("%d", cand.Point.TyphoonID)
	st.Target = cand.Point.Forecast()

	if next, ok := target.NextPosition(in.Forecast, cand.Point.TyphoonID, in.CurrentTime, in.TimeStepHours); ok {
		st.NextTyphoon = next
		st.NextTyphoonKnown = true
	}

	// Arrive exactly on time, capped at max speed.
	trackingKmh := cand.DistanceKm / cand.CatchTimeHours
	if trackingKmh > geo.KtToKmh(ecfg.MaxSpeedKt) {
		st.SpeedKt = ecfg.MaxSpeedKt
	} else {
		st.SpeedKt = geo.KmhToKt(trackingKmh)
	}

	if cand.CatchTimeHours <= float64(in.TimeStepHours) {
		st.Branch = BranchArrivedTyphoon
		st.SpeedKt = ecfg.MaxSpeedKt
		st.Mode = model.ModeGenerating
		flags.generating = true
		flags.consuming = false
	} else {
		st.Branch = BranchTracking
		st.Mode = model.ModeChasing
		flags.generating = false
		flags.consuming = true
		flags.distanceCheck = true
	}

	// Via-base detour: with a worthwhile load onboard, pass through the
	// base when the round trip still makes the storm, or when the base is
	// roughly on the way and closer than the storm.
	if storagePer >= s.cfg.ViaBaseStoragePer && s.cfg.ViaBaseStoragePer > 0 {
		baseDist := geo.DistanceKm(st.Position, s.base)
		viaDist := baseDist + geo.DistanceKm(s.base, st.Target)
		viaHours := viaDist / geo.KtToKmh(ecfg.MaxSpeedKt)

		dirTyphoon := geo.BearingDeg(st.Position, st.Target)
		dirBase := geo.BearingDeg(st.Position, s.base)
		onTheWay := geo.AngleDiffDeg(dirTyphoon, dirBase) < s.cfg.JudgeDirectionDeg &&
			cand.DistanceKm-baseDist > 0

		if viaHours <= cand.CatchTimeHours || onTheWay {
			st.ViaBase = true
			st.SpeedKt = ecfg.MaxSpeedKt
			st.Target = s.base
			st.TargetName = "base station"
			st.Branch = BranchTrackingVia
			st.Mode = model.ModeReturningToBase
			flags.generating = false
			flags.consuming = true
			flags.distanceCheck = false
			s.log.Debugf("via-base detour toward typhoon %d", cand.Point.TyphoonID)
		}
	}
}

// account runs the energy model for the tick and updates the reservoirs and
// cumulative counters.
func (s *Ship) account(in TickInput, prev model.Position, flags tickFlags) error {
	st := &s.state

	heading := geo.BearingDeg(prev, st.Position)
	var u, v float64
	if in.Wind != nil {
		u, v = in.Wind(st.Position)
	}

	var consWh float64
	if flags.consuming || flags.generating {
		consWh = s.energy.ConsumptionWh(st.SpeedKt, heading, u, v, flags.generating, in.TimeStepHours)
	}
	geneWh := s.energy.GenerationWh(flags.generating, in.TimeStepHours)

	res, overflow := s.energy.Apply(
		energy.Reservoirs{MainWh: st.MainStorageWh, PropulsionWh: st.PropulsionWh},
		geneWh, consWh,
	)
	if res.MainWh < 0 {
		return fmt.Errorf("ship: main storage went negative (%.1f Wh) at unixtime %d", res.MainWh, in.CurrentTime)
	}
	if overflow > 0 {
		s.log.Debugf("storage full, discarded %.0f Wh", overflow)
	}

	st.MainStorageWh = res.MainWh
	st.PropulsionWh = res.PropulsionWh
	st.GeneWh = geneWh
	st.LossWh = consWh
	st.TotalGeneWh += geneWh
	st.TotalLossWh += consWh
	if flags.generating {
		st.TotalGeneHours += float64(in.TimeStepHours)
	}
	if consWh > 0 && !flags.generating {
		st.TotalLossHours += float64(in.TimeStepHours)
	}

	st.TargetDistanceKm = geo.DistanceKm(st.Position, st.Target)
	return nil
}

// Snapshot renders the public per-tick record.
func (s *Ship) Snapshot(unixtime int64) model.ShipSnapshot {
	st := s.state
	ecfg := s.energy.Config()
	snap := model.ShipSnapshot{
		Unixtime:         unixtime,
		TargetName:       st.TargetName,
		TargetLat:        st.Target.Lat,
		TargetLon:        st.Target.Lon,
		TargetDistanceKm: st.TargetDistanceKm,
		TargetTyphoonID:  st.TargetTyphoonID,
		ShipLat:          st.Position.Lat,
		ShipLon:          st.Position.Lon,
		Branch:           st.Branch,
		Mode:             st.Mode,
		SpeedKt:          st.SpeedKt,
		GeneWh:           st.GeneWh,
		TotalGeneHours:   st.TotalGeneHours,
		TotalGeneWh:      st.TotalGeneWh,
		LossWh:           st.LossWh,
		TotalLossHours:   st.TotalLossHours,
		TotalLossWh:      st.TotalLossWh,
		StoragePer:       st.StoragePer(ecfg.MaxStorageWh),
		MainStorageWh:    st.MainStorageWh,
		PropulsionWh:     st.PropulsionWh,
		BalanceWh:        st.TotalGeneWh - st.TotalLossWh,
	}
	if st.NextTyphoonKnown {
		snap.TyphoonLat = st.NextTyphoon.Lat
		snap.TyphoonLon = st.NextTyphoon.Lon
		snap.ShipTyphoonKm = st.ShipTyphoonKm
	}
	return snap
}
