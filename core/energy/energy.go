// Package energy implements the propulsion and generation energy model of
// the typhoon generation ship: hull drag, sail thrust, generator drag and
// the two-reservoir accounting between the propulsion buffer and the bulk
// MCH main storage.
package energy

import (
	"fmt"
	"math"

	"github.com/tpgship/tpgsim/core/geo"
)

// Storage media for the bulk reservoir.
const (
	StorageBattery = 1
	StorageMCH     = 2
)

const (
	airDensity   = 1.225  // kg/m3
	waterDensity = 1025.0 // kg/m3, sea water
	waterViscKin = 1.19e-6
	msPerKt      = 1.852 / 3.6
)

// Config carries the ship geometry and efficiency parameters of the model.
type Config struct {
	HullNum       int     `json:"hull_num"`
	StorageMethod int     `json:"storage_method"`
	MaxStorageWh  float64 `json:"max_storage_wh"`
	// MaxPropulsionWh is the capacity of the dedicated propulsion buffer.
	MaxPropulsionWh float64 `json:"electric_propulsion_max_storage_wh"`

	ElectTrustEfficiency float64 `json:"elect_trust_efficiency"`
	MCHToElectEfficiency float64 `json:"mch_to_elect_efficiency"`
	ElectToMCHEfficiency float64 `json:"elect_to_mch_efficiency"`

	GeneratorOutputW          float64 `json:"generator_output_w"`
	GeneratorEfficiency       float64 `json:"generator_efficiency"`
	GeneratorDragCoefficient  float64 `json:"generator_drag_coefficient"`
	GeneratorPillarChordM     float64 `json:"generator_pillar_chord"`
	GeneratorPillarThicknessM float64 `json:"generator_pillar_max_thickness"`
	GeneratorPillarWidthM     float64 `json:"generator_pillar_width"`
	GeneratorNum              int     `json:"generator_num"`

	SailNum    int     `json:"sail_num"`
	SailAreaM2 float64 `json:"sail_area"`
	// Per-regime sail coefficients. Tail, cross and head wind regimes use
	// distinct empirical lift/drag pairs.
	SailLiftTail  float64 `json:"sail_lift_tail"`
	SailDragTail  float64 `json:"sail_drag_tail"`
	SailLiftCross float64 `json:"sail_lift_cross"`
	SailDragCross float64 `json:"sail_drag_cross"`
	SailLiftHead  float64 `json:"sail_lift_head"`
	SailDragHead  float64 `json:"sail_drag_head"`

	MaxSpeedKt      float64 `json:"ship_max_speed_kt"`
	GenerateSpeedKt float64 `json:"ship_generate_speed_kt"`
}

// SetDefaults applies sane defaults for optional coefficients.
func (c *Config) SetDefaults() {
	if c.HullNum == 0 {
		c.HullNum = 1
	}
	if c.StorageMethod == 0 {
		c.StorageMethod = StorageMCH
	}
	if c.ElectTrustEfficiency == 0 {
		c.ElectTrustEfficiency = 0.8
	}
	if c.MCHToElectEfficiency == 0 {
		c.MCHToElectEfficiency = 0.5
	}
	if c.ElectToMCHEfficiency == 0 {
		c.ElectToMCHEfficiency = 0.8
	}
	if c.GeneratorEfficiency == 0 {
		c.GeneratorEfficiency = 0.9
	}
	if c.GeneratorDragCoefficient == 0 {
		c.GeneratorDragCoefficient = 1.2
	}
	if c.SailLiftTail == 0 {
		c.SailLiftTail = 0.6
	}
	if c.SailDragTail == 0 {
		c.SailDragTail = 1.2
	}
	if c.SailLiftCross == 0 {
		c.SailLiftCross = 1.3
	}
	if c.SailDragCross == 0 {
		c.SailDragCross = 0.4
	}
	if c.SailLiftHead == 0 {
		c.SailLiftHead = 0.8
	}
	if c.SailDragHead == 0 {
		c.SailDragHead = 0.3
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.MaxStorageWh <= 0 {
		return fmt.Errorf("max_storage_wh must be positive")
	}
	if c.MaxPropulsionWh < 0 {
		return fmt.Errorf("electric_propulsion_max_storage_wh must not be negative")
	}
	if c.StorageMethod != StorageBattery && c.StorageMethod != StorageMCH {
		return fmt.Errorf("unknown storage_method %d", c.StorageMethod)
	}
	if c.MaxSpeedKt <= 0 {
		return fmt.Errorf("ship_max_speed_kt must be positive")
	}
	if c.GeneratorOutputW < 0 {
		return fmt.Errorf("generator_output_w must not be negative")
	}
	return nil
}

// Model evaluates per-tick energy flows for a fixed ship geometry.
type Model struct {
	cfg            Config
	maxSpeedPowerW float64
}

// NewModel derives the hull resistance curve from the configured geometry.
func NewModel(cfg Config) (*Model, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, maxSpeedPowerW: maxSpeedPower(cfg)}, nil
}

// Config returns the model configuration after defaulting.
func (m *Model) Config() Config { return m.cfg }

// MaxSpeedPowerW is the power needed to drive the bare hulls at max speed.
func (m *Model) MaxSpeedPowerW() float64 { return m.maxSpeedPowerW }

// deadweight tonnage of one hull, from the storage mass it must carry.
func dwt(storageWh float64, method int) float64 {
	if method == StorageBattery {
		// 1000 Wh/kg cells.
		return storageWh / 1000 / 1000
	}
	// Organic hydride carrier: 5 kWh per Nm3 H2, 0.0898 kg/Nm3, 47.4 wt%.
	return storageWh / 5000 * 0.0898 / 47.4
}

func maxSpeedPower(cfg Config) float64 {
	perHull := dwt(cfg.MaxStorageWh, cfg.StorageMethod) / float64(cfg.HullNum)
	k := 1.7 // bulker form
	if cfg.StorageMethod == StorageMCH {
		k = 2.2 // tanker form
	}
	return k * math.Pow(perHull, 2.0/3.0) * math.Pow(cfg.MaxSpeedKt, 3) * float64(cfg.HullNum)
}

// HullDragPowerW is the cubic-law hull resistance at the given speed.
func (m *Model) HullDragPowerW(speedKt float64) float64 {
	if speedKt <= 0 {
		return 0
	}
	ratio := speedKt / m.cfg.MaxSpeedKt
	return m.maxSpeedPowerW * ratio * ratio * ratio
}

// sail wind regimes by apparent angle off the bow.
const (
	tailWindMaxDeg  = 45.0
	crossWindMaxDeg = 135.0
)

// SailThrustPowerW resolves the wind (u eastward, v northward, m/s) against
// the ship heading (signed compass degrees) and returns the forward thrust
// power contributed by all sails.
func (m *Model) SailThrustPowerW(speedKt, headingDeg, u, v float64) float64 {
	windSpeed := math.Hypot(u, v)
	if windSpeed == 0 || m.cfg.SailNum == 0 || speedKt <= 0 {
		return 0
	}
	// Direction the wind blows toward, same signed compass convention as
	// the heading.
	windDir := math.Atan2(u, v) * 180 / math.Pi
	rel := geo.AngleDiffDeg(windDir, headingDeg)
	relRad := rel * math.Pi / 180

	q := 0.5 * airDensity * windSpeed * windSpeed * m.cfg.SailAreaM2

	var thrust float64
	switch {
	case rel <= tailWindMaxDeg:
		// Running: the sail works as a drag device.
		thrust = q*m.cfg.SailDragTail*math.Cos(relRad) + q*m.cfg.SailLiftTail*math.Sin(relRad)
	case rel <= crossWindMaxDeg:
		// Reaching: lift dominates, parasitic drag projects backward.
		thrust = q*m.cfg.SailLiftCross*math.Sin(relRad) - q*m.cfg.SailDragCross*math.Cos(relRad)
	default:
		// Beating: lift minus the strong backward drag component.
		thrust = q*m.cfg.SailLiftHead*math.Sin(relRad) + q*m.cfg.SailDragHead*math.Cos(relRad)
	}
	if thrust < 0 {
		return 0
	}
	return thrust * speedKt * msPerKt * float64(m.cfg.SailNum)
}

// GeneratorDragPowerW is the resistance of the turbine installation. Idle
// turbines cost only the streamlined support-pillar friction; generating
// turbines present actuator-disk drag sized to the rated output.
func (m *Model) GeneratorDragPowerW(speedKt float64, generating bool) float64 {
	if speedKt <= 0 || m.cfg.GeneratorNum == 0 {
		return 0
	}
	v := speedKt * msPerKt

	if generating {
		// Actuator disk sized to deliver rated output at generation speed.
		vGen := m.cfg.GenerateSpeedKt * msPerKt
		if vGen <= 0 {
			return 0
		}
		force := m.cfg.GeneratorOutputW / (m.cfg.GeneratorEfficiency * vGen)
		return force * v
	}

	chord := m.cfg.GeneratorPillarChordM
	if chord <= 0 {
		return 0
	}
	re := v * chord / waterViscKin
	if re <= 1 {
		return 0
	}
	// Prandtl-Schlichting flat-plate friction.
	cf := 0.455 / math.Pow(math.Log10(re), 2.58)
	// Form factor for the pillar section, inflated by the empirical
	// shape coefficient.
	tc := m.cfg.GeneratorPillarThicknessM / chord
	form := 1 + 2*tc + 60*math.Pow(tc, 4)
	wetted := 2 * chord * m.cfg.GeneratorPillarWidthM
	drag := 0.5 * waterDensity * v * v * wetted * cf * form * m.cfg.GeneratorDragCoefficient
	return drag * v * float64(m.cfg.GeneratorNum)
}

// ConsumptionWh is the net electrical energy drawn for propulsion over one
// tick. When generating, hull drag is evaluated at the rated generation
// speed. Sail thrust offsets the drag but never turns consumption negative.
func (m *Model) ConsumptionWh(speedKt, headingDeg, u, v float64, generating bool, timeStepHours int) float64 {
	if generating {
		speedKt = m.cfg.GenerateSpeedKt
	}
	if speedKt <= 0 {
		return 0
	}
	need := m.HullDragPowerW(speedKt) +
		m.GeneratorDragPowerW(speedKt, generating) -
		m.SailThrustPowerW(speedKt, headingDeg, u, v)
	if need < 0 {
		need = 0
	}
	return need / m.cfg.ElectTrustEfficiency * float64(timeStepHours)
}

// GenerationWh is the electrical energy produced over one tick.
func (m *Model) GenerationWh(generating bool, timeStepHours int) float64 {
	if !generating {
		return 0
	}
	return m.cfg.GeneratorOutputW * float64(timeStepHours)
}

// Reservoirs is the coupled pair of onboard energy stores.
type Reservoirs struct {
	MainWh       float64
	PropulsionWh float64
}

// Apply performs the two-reservoir accounting for one tick. Consumption
// drains the propulsion buffer first; any shortfall is reconverted from main
// storage through the MCH round-trip penalty. Surplus generation refills the
// propulsion buffer before the remainder is converted to MCH main storage.
// Both reservoirs are clamped to [0, capacity]; energy beyond main-storage
// capacity is returned as overflow and discarded by the caller.
func (m *Model) Apply(r Reservoirs, generationWh, consumptionWh float64) (Reservoirs, float64) {
	// Drain propulsion buffer.
	if consumptionWh > 0 {
		if consumptionWh <= r.PropulsionWh {
			r.PropulsionWh -= consumptionWh
		} else {
			shortfall := consumptionWh - r.PropulsionWh
			r.PropulsionWh = 0
			r.MainWh -= shortfall / m.cfg.MCHToElectEfficiency
		}
	}

	var overflow float64
	if generationWh > 0 {
		headroom := m.cfg.MaxPropulsionWh - r.PropulsionWh
		if headroom < 0 {
			headroom = 0
		}
		toBuffer := math.Min(generationWh, headroom)
		r.PropulsionWh += toBuffer
		surplus := (generationWh - toBuffer) * m.cfg.ElectToMCHEfficiency
		r.MainWh += surplus
		if r.MainWh > m.cfg.MaxStorageWh {
			overflow = r.MainWh - m.cfg.MaxStorageWh
			r.MainWh = m.cfg.MaxStorageWh
		}
	}

	if r.PropulsionWh > m.cfg.MaxPropulsionWh {
		r.PropulsionWh = m.cfg.MaxPropulsionWh
	}
	if r.PropulsionWh < 0 {
		r.PropulsionWh = 0
	}
	return r, overflow
}
