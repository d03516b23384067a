// Package base implements the land-side storage chain: the storage base that
// accumulates the generation ship's deliveries and the shuttle support ships
// that haul the energy onward to the supply base.
package base

import (
	"fmt"

	"github.com/tpgship/tpgsim/core/geo"
	"github.com/tpgship/tpgsim/core/logger"
	"github.com/tpgship/tpgsim/core/model"
)

// Branch labels for the storage base.
const (
	BranchStoring     = "while in storage"
	BranchCallShip1   = "call ship1"
	BranchCallShip2   = "call ship2"
	BranchCannotCall  = "can't call anyone"
	BranchReceiveShip = "receiving supply"
)

// Config defines the storage base.
type Config struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	MaxStorageWh float64 `json:"max_storage_wh"`
	// CallThresholdPer is the fill level, as a percentage of one support
	// ship's capacity, at which a pickup is requested.
	CallThresholdPer float64 `json:"call_per"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CallThresholdPer == 0 {
		c.CallThresholdPer = 60
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.MaxStorageWh <= 0 {
		return fmt.Errorf("max_storage_wh must be positive")
	}
	if c.CallThresholdPer <= 0 || c.CallThresholdPer > 100 {
		return fmt.Errorf("call_per must be in (0,100]")
	}
	return nil
}

// StorageBase buffers delivered energy and dispatches support ships.
type StorageBase struct {
	cfg   Config
	ships []*SupportShip
	log   logger.Logger

	storageWh float64
	branch    string
	callCount int
}

// NewStorageBase creates a base commanding the given support ships. Dispatch
// priority follows slice order.
func NewStorageBase(cfg Config, ships []*SupportShip, log logger.Logger) (*StorageBase, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &StorageBase{cfg: cfg, ships: ships, log: log, branch: BranchStoring}, nil
}

// Position returns the base coordinate.
func (b *StorageBase) Position() model.Position {
	return model.Position{Lat: b.cfg.Lat, Lon: b.cfg.Lon}
}

// StorageWh returns the buffered energy.
func (b *StorageBase) StorageWh() float64 { return b.storageWh }

// CallCount is the number of pickups completed so far.
func (b *StorageBase) CallCount() int { return b.callCount }

// Receive stores a delivery, truncating silently at capacity.
func (b *StorageBase) Receive(wh float64) {
	if wh <= 0 {
		return
	}
	b.branch = BranchReceiveShip
	b.storageWh += wh
	if b.storageWh > b.cfg.MaxStorageWh {
		b.log.Warnf("storage base full, discarded %.0f Wh", b.storageWh-b.cfg.MaxStorageWh)
		b.storageWh = b.cfg.MaxStorageWh
	}
}

// Operate runs one base tick: latch a pickup request if the threshold is
// crossed, tick every support ship exactly once, then take the transfer from
// any shuttle that arrived. The call branch stays up for the whole outbound
// leg.
func (b *StorageBase) Operate(timeStepHours int) {
	b.branch = BranchStoring

	inbound := -1
	for i, s := range b.ships {
		if s.Called() {
			inbound = i
			break
		}
	}

	if inbound >= 0 {
		b.branch = callBranch(inbound)
	} else {
		crossed, dispatched := false, false
		for i, s := range b.ships {
			if b.storageWh < s.MaxStorageWh()*b.cfg.CallThresholdPer/100 {
				continue
			}
			crossed = true
			if s.Available() {
				s.Call()
				b.branch = callBranch(i)
				dispatched = true
				break
			}
		}
		if crossed && !dispatched {
			b.branch = BranchCannotCall
			b.log.Warnf("pickup needed but no support ship is available")
		}
	}

	for _, s := range b.ships {
		s.Tick(timeStepHours)
		if s.Called() && s.AtStorageBase() {
			load := b.storageWh
			if max := s.MaxStorageWh(); load > max {
				load = max
			}
			b.storageWh -= load
			s.Load(load)
			b.callCount++
			b.log.Infof("support ship picked up %.0f Wh", load)
		}
	}
}

func callBranch(i int) string {
	if i == 0 {
		return BranchCallShip1
	}
	return BranchCallShip2
}

// Snapshot renders the public per-tick record.
func (b *StorageBase) Snapshot(unixtime int64) model.BaseSnapshot {
	return model.BaseSnapshot{
		Unixtime:   unixtime,
		StorageWh:  b.storageWh,
		StoragePer: b.storageWh / b.cfg.MaxStorageWh * 100,
		Branch:     b.branch,
	}
}

// Support ship branch labels.
const (
	BranchShipStandby  = "standby at supply base"
	BranchShipToPickup = "heading to storage base"
	BranchShipToSupply = "heading to supply base"
)

// SupportConfig defines one support ship.
type SupportConfig struct {
	SupplyLat    float64 `json:"supply_lat"`
	SupplyLon    float64 `json:"supply_lon"`
	MaxStorageWh float64 `json:"max_storage_wh"`
	SpeedKt      float64 `json:"ship_speed_kt"`
}

// Validate checks mandatory fields.
func (c SupportConfig) Validate() error {
	if c.MaxStorageWh <= 0 {
		return fmt.Errorf("max_storage_wh must be positive")
	}
	if c.SpeedKt <= 0 {
		return fmt.Errorf("ship_speed_kt must be positive")
	}
	return nil
}

// SupportShip is the two-state shuttle between the supply base and the
// storage base. It moves only when called and always completes a round trip.
type SupportShip struct {
	cfg     SupportConfig
	storage model.Position

	pos       model.Position
	storageWh float64
	called    bool
	branch    string

	deliveredWh float64
}

// NewSupportShip creates a shuttle parked at its supply base.
func NewSupportShip(cfg SupportConfig, storagePos model.Position) (*SupportShip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SupportShip{
		cfg:     cfg,
		storage: storagePos,
		pos:     model.Position{Lat: cfg.SupplyLat, Lon: cfg.SupplyLon},
		branch:  BranchShipStandby,
	}, nil
}

// MaxStorageWh is the shuttle capacity.
func (s *SupportShip) MaxStorageWh() float64 { return s.cfg.MaxStorageWh }

// Called reports whether the shuttle is on its outbound leg.
func (s *SupportShip) Called() bool { return s.called }

// Available reports whether the shuttle is parked and empty.
func (s *SupportShip) Available() bool {
	return !s.called && s.storageWh == 0 && s.AtSupplyBase()
}

// AtSupplyBase reports whether the shuttle is at its supply base.
func (s *SupportShip) AtSupplyBase() bool {
	return s.pos == (model.Position{Lat: s.cfg.SupplyLat, Lon: s.cfg.SupplyLon})
}

// AtStorageBase reports whether the shuttle is at the storage base.
func (s *SupportShip) AtStorageBase() bool { return s.pos == s.storage }

// Call latches the outbound leg. Calling a busy shuttle is a no-op.
func (s *SupportShip) Call() {
	if s.called || !s.Available() {
		return
	}
	s.called = true
}

// Load transfers the pickup onboard and turns the shuttle home.
func (s *SupportShip) Load(wh float64) {
	s.storageWh = wh
	s.called = false
}

// DeliveredWh is the cumulative energy landed at the supply base.
func (s *SupportShip) DeliveredWh() float64 { return s.deliveredWh }

// Tick advances the shuttle one time step.
func (s *SupportShip) Tick(timeStepHours int) {
	stepKm := geo.KtToKmh(s.cfg.SpeedKt) * float64(timeStepHours)
	supply := model.Position{Lat: s.cfg.SupplyLat, Lon: s.cfg.SupplyLon}

	switch {
	case s.called:
		s.branch = BranchShipToPickup
		s.pos = geo.Advance(s.pos, s.storage, stepKm)
	case s.storageWh > 0 || !s.AtSupplyBase():
		s.branch = BranchShipToSupply
		s.pos = geo.Advance(s.pos, supply, stepKm)
		if s.AtSupplyBase() && s.storageWh > 0 {
			s.deliveredWh += s.storageWh
			s.storageWh = 0
			s.branch = BranchShipStandby
		}
	default:
		s.branch = BranchShipStandby
	}
}

// Snapshot renders the public per-tick record.
func (s *SupportShip) Snapshot(unixtime int64) model.SupportSnapshot {
	target := model.Position{Lat: s.cfg.SupplyLat, Lon: s.cfg.SupplyLon}
	if s.called {
		target = s.storage
	}
	return model.SupportSnapshot{
		Unixtime:   unixtime,
		TargetLat:  target.Lat,
		TargetLon:  target.Lon,
		Lat:        s.pos.Lat,
		Lon:        s.pos.Lon,
		StorageWh:  s.storageWh,
		StoragePer: s.storageWh / s.cfg.MaxStorageWh * 100,
		Branch:     s.branch,
	}
}
