package energy

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		HullNum:         2,
		StorageMethod:   StorageMCH,
		MaxStorageWh:    100e6,
		MaxPropulsionWh: 1e6,

		MCHToElectEfficiency: 0.5,
		ElectToMCHEfficiency: 0.8,

		GeneratorOutputW:          2e6,
		GeneratorNum:              1,
		GeneratorPillarChordM:     2,
		GeneratorPillarThicknessM: 0.4,
		GeneratorPillarWidthM:     3,

		SailNum:    10,
		SailAreaM2: 800,

		MaxSpeedKt:      20,
		GenerateSpeedKt: 10,
	}
}

func newModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestHullDragCubicLaw(t *testing.T) {
	m := newModel(t, testConfig())
	full := m.HullDragPowerW(20)
	half := m.HullDragPowerW(10)
	if math.Abs(full/half-8) > 1e-9 {
		t.Fatalf("halving speed must divide power by 8, ratio = %v", full/half)
	}
	if full != m.MaxSpeedPowerW() {
		t.Fatalf("drag at max speed must equal the rated hull power")
	}
	if m.HullDragPowerW(0) != 0 {
		t.Fatalf("zero speed must cost nothing")
	}
}

func TestGeneratorDrag(t *testing.T) {
	m := newModel(t, testConfig())

	idle := m.GeneratorDragPowerW(10, false)
	if idle <= 0 {
		t.Fatalf("idle pillar drag must be positive, got %v", idle)
	}

	active := m.GeneratorDragPowerW(10, true)
	// Actuator disk at rated output: force = P/(eta*v_gen), power = force*v.
	vGen := 10 * msPerKt
	want := 2e6 / (0.9 * vGen) * vGen
	if math.Abs(active-want) > 1e-6 {
		t.Fatalf("active drag = %v, want %v", active, want)
	}
	if active <= idle {
		t.Fatalf("active drag must dominate idle drag")
	}
}

func TestSailThrust(t *testing.T) {
	m := newModel(t, testConfig())

	// Ship heading north, wind blowing north: pure tailwind.
	tail := m.SailThrustPowerW(10, 0, 0, 15)
	if tail <= 0 {
		t.Fatalf("tailwind thrust must be positive, got %v", tail)
	}

	// Crosswind from the east produces lift.
	cross := m.SailThrustPowerW(10, 0, -15, 0)
	if cross <= 0 {
		t.Fatalf("crosswind thrust must be positive, got %v", cross)
	}

	if m.SailThrustPowerW(10, 0, 0, 0) != 0 {
		t.Fatalf("calm must give zero thrust")
	}
	if m.SailThrustPowerW(0, 0, 0, 15) != 0 {
		t.Fatalf("stationary ship harvests no thrust power")
	}
}

func TestSailReducesConsumption(t *testing.T) {
	m := newModel(t, testConfig())
	calm := m.ConsumptionWh(15, 0, 0, 0, false, 6)
	tailwind := m.ConsumptionWh(15, 0, 0, 20, false, 6)
	if tailwind >= calm {
		t.Fatalf("tailwind consumption %v must undercut calm %v", tailwind, calm)
	}
	if tailwind < 0 {
		t.Fatalf("consumption must never go negative")
	}
}

func TestConsumptionGeneratingUsesRatedSpeed(t *testing.T) {
	m := newModel(t, testConfig())
	gen := m.ConsumptionWh(20, 0, 0, 0, true, 6)
	atRated := m.ConsumptionWh(10, 0, 0, 0, false, 6)
	// Generating adds turbine drag on top of hull drag at the rated speed.
	if gen <= atRated {
		t.Fatalf("generating consumption %v must exceed hull-only %v", gen, atRated)
	}
}

func TestGenerationWh(t *testing.T) {
	m := newModel(t, testConfig())
	if got := m.GenerationWh(true, 6); got != 2e6*6 {
		t.Fatalf("generation = %v, want %v", got, 2e6*6)
	}
	if m.GenerationWh(false, 6) != 0 {
		t.Fatalf("idle generation must be zero")
	}
}

func TestApplyBufferFirst(t *testing.T) {
	m := newModel(t, testConfig())
	r, overflow := m.Apply(Reservoirs{MainWh: 50e6, PropulsionWh: 1e6}, 0, 4e5)
	if overflow != 0 {
		t.Fatalf("unexpected overflow %v", overflow)
	}
	if r.PropulsionWh != 6e5 {
		t.Fatalf("buffer = %v, want 6e5", r.PropulsionWh)
	}
	if r.MainWh != 50e6 {
		t.Fatalf("main storage must be untouched while the buffer holds")
	}
}

func TestApplyShortfallConversion(t *testing.T) {
	m := newModel(t, testConfig())
	r, _ := m.Apply(Reservoirs{MainWh: 50e6, PropulsionWh: 1e5}, 0, 3e5)
	if r.PropulsionWh != 0 {
		t.Fatalf("buffer must drain fully, got %v", r.PropulsionWh)
	}
	// 2e5 shortfall through the 0.5 reconversion efficiency costs 4e5.
	if want := 50e6 - 4e5; r.MainWh != want {
		t.Fatalf("main = %v, want %v", r.MainWh, want)
	}
}

func TestApplySurplusConversion(t *testing.T) {
	m := newModel(t, testConfig())
	r, _ := m.Apply(Reservoirs{MainWh: 50e6, PropulsionWh: 1e6}, 2e6, 0)
	if r.PropulsionWh != 1e6 {
		t.Fatalf("full buffer must stay at capacity, got %v", r.PropulsionWh)
	}
	// All 2e6 Wh converts at 0.8.
	if want := 50e6 + 1.6e6; r.MainWh != want {
		t.Fatalf("main = %v, want %v", r.MainWh, want)
	}
}

func TestApplyOverflow(t *testing.T) {
	m := newModel(t, testConfig())
	r, overflow := m.Apply(Reservoirs{MainWh: 100e6, PropulsionWh: 1e6}, 10e6, 0)
	if r.MainWh != 100e6 {
		t.Fatalf("main must clamp at capacity, got %v", r.MainWh)
	}
	if overflow != 8e6 {
		t.Fatalf("overflow = %v, want 8e6", overflow)
	}
}

func TestApplyNegativeMainReported(t *testing.T) {
	m := newModel(t, testConfig())
	r, _ := m.Apply(Reservoirs{MainWh: 1e5, PropulsionWh: 0}, 0, 1e6)
	if r.MainWh >= 0 {
		t.Fatalf("exhausted main storage must go negative for the caller to report, got %v", r.MainWh)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStorageWh = 0
	if _, err := NewModel(cfg); err == nil {
		t.Fatalf("zero capacity must fail")
	}
	cfg = testConfig()
	cfg.StorageMethod = 9
	if _, err := NewModel(cfg); err == nil {
		t.Fatalf("unknown storage method must fail")
	}
	cfg = testConfig()
	cfg.MaxSpeedKt = 0
	if _, err := NewModel(cfg); err == nil {
		t.Fatalf("zero max speed must fail")
	}
}

func TestDWTByMethod(t *testing.T) {
	battery := dwt(1e9, StorageBattery)
	mch := dwt(1e9, StorageMCH)
	if battery <= 0 || mch <= 0 {
		t.Fatalf("tonnage must be positive")
	}
	if battery <= mch {
		t.Fatalf("battery carrier must outweigh MCH for the same energy: %v vs %v", battery, mch)
	}
}
