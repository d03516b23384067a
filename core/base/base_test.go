package base

import (
	"testing"

	"github.com/tpgship/tpgsim/core/model"
)

var storagePos = model.Position{Lat: 20, Lon: 135}

func testBaseConfig() Config {
	return Config{
		Lat:              storagePos.Lat,
		Lon:              storagePos.Lon,
		MaxStorageWh:     100e6,
		CallThresholdPer: 60,
	}
}

// newShuttle parks a support ship one tick away from the storage base.
func newShuttle(t *testing.T, capacityWh float64) *SupportShip {
	t.Helper()
	s, err := NewSupportShip(SupportConfig{
		SupplyLat:    20,
		SupplyLon:    134,
		MaxStorageWh: capacityWh,
		SpeedKt:      10,
	}, storagePos)
	if err != nil {
		t.Fatalf("NewSupportShip: %v", err)
	}
	return s
}

func newBase(t *testing.T, ships ...*SupportShip) *StorageBase {
	t.Helper()
	b, err := NewStorageBase(testBaseConfig(), ships, nil)
	if err != nil {
		t.Fatalf("NewStorageBase: %v", err)
	}
	return b
}

func TestReceiveTruncatesAtCapacity(t *testing.T) {
	b := newBase(t)
	b.Receive(60e6)
	b.Receive(60e6)
	if b.StorageWh() != 100e6 {
		t.Fatalf("storage = %v, want clamped at 100e6", b.StorageWh())
	}
}

func TestCallPriorityShipOne(t *testing.T) {
	s1 := newShuttle(t, 50e6)
	s2 := newShuttle(t, 50e6)
	b := newBase(t, s1, s2)

	// 60% of a 50e6 shuttle is 30e6.
	b.Receive(30e6)
	b.Operate(6)
	if !s1.Called() && !s1.AtStorageBase() {
		t.Fatalf("ship 1 must be dispatched first")
	}
	if s2.Called() {
		t.Fatalf("ship 2 must stay parked while ship 1 answers")
	}
	if b.CallCount() != 1 {
		t.Fatalf("call count = %d", b.CallCount())
	}
}

func TestCallShipTwoWhenFirstBusy(t *testing.T) {
	s1 := newShuttle(t, 50e6)
	s2 := newShuttle(t, 50e6)
	b := newBase(t, s1, s2)

	b.Receive(30e6)
	b.Operate(6) // dispatches and fills ship 1 (one tick covers the leg)

	// Ship 1 is now hauling; a fresh load must go to ship 2.
	b.Receive(30e6)
	b.Operate(6)
	if b.Snapshot(0).Branch != BranchCallShip2 {
		t.Fatalf("branch = %q, want call ship2", b.Snapshot(0).Branch)
	}
	if b.CallCount() != 2 {
		t.Fatalf("call count = %d", b.CallCount())
	}
}

func TestNoDoubleDispatchWhileInbound(t *testing.T) {
	// Park the shuttle several ticks out so the latch stays up.
	s1, err := NewSupportShip(SupportConfig{
		SupplyLat: 15, SupplyLon: 125,
		MaxStorageWh: 50e6, SpeedKt: 10,
	}, storagePos)
	if err != nil {
		t.Fatalf("NewSupportShip: %v", err)
	}
	b := newBase(t, s1)

	b.Receive(40e6)
	b.Operate(6)
	if !s1.Called() {
		t.Fatalf("shuttle must be dispatched")
	}
	calls := b.CallCount()

	b.Operate(6)
	if b.CallCount() != calls {
		t.Fatalf("inbound shuttle must not be re-called")
	}
}

func TestPickupTransfersStorage(t *testing.T) {
	s1 := newShuttle(t, 50e6)
	b := newBase(t, s1)

	b.Receive(30e6)
	b.Operate(6)
	if b.StorageWh() != 0 {
		t.Fatalf("base storage = %v, want emptied", b.StorageWh())
	}
	snap := s1.Snapshot(0)
	if snap.StorageWh != 30e6 {
		t.Fatalf("shuttle storage = %v, want 30e6", snap.StorageWh)
	}
	if s1.Called() {
		t.Fatalf("latch must clear after pickup")
	}
}

func TestPickupCappedAtShuttleCapacity(t *testing.T) {
	s1 := newShuttle(t, 20e6)
	b := newBase(t, s1)

	b.Receive(30e6)
	b.Operate(6)
	if b.StorageWh() != 10e6 {
		t.Fatalf("base storage = %v, want the 10e6 remainder", b.StorageWh())
	}
}

func TestCallBranchLatchedWhileInbound(t *testing.T) {
	// Park the shuttle several ticks out so the outbound leg spans ticks.
	s1, err := NewSupportShip(SupportConfig{
		SupplyLat: 15, SupplyLon: 125,
		MaxStorageWh: 50e6, SpeedKt: 10,
	}, storagePos)
	if err != nil {
		t.Fatalf("NewSupportShip: %v", err)
	}
	b := newBase(t, s1)

	b.Receive(40e6)
	b.Operate(6)
	if got := b.Snapshot(0).Branch; got != BranchCallShip1 {
		t.Fatalf("branch = %q, want call ship1", got)
	}
	if b.CallCount() != 0 {
		t.Fatalf("call count counts completed pickups, got %d", b.CallCount())
	}

	b.Operate(6)
	if got := b.Snapshot(0).Branch; got != BranchCallShip1 {
		t.Fatalf("call branch must stay up for the whole outbound leg, got %q", got)
	}

	// Run the leg to completion; the pickup counts exactly once.
	for i := 0; i < 12; i++ {
		b.Operate(6)
	}
	if b.CallCount() != 1 {
		t.Fatalf("call count = %d, want 1 after the pickup", b.CallCount())
	}
}

func TestCannotCallWhenShuttleUnavailable(t *testing.T) {
	// A lone shuttle that is hauling home and therefore unavailable.
	s1 := newShuttle(t, 50e6)
	s1.Call()
	s1.Tick(6)
	s1.Load(30e6)

	b := newBase(t, s1)
	b.Receive(40e6) // clears the 30e6 call threshold
	b.Operate(6)
	if got := b.Snapshot(0).Branch; got != BranchCannotCall {
		t.Fatalf("branch = %q, want can't call anyone", got)
	}
}

func TestShuttleRoundTrip(t *testing.T) {
	s := newShuttle(t, 50e6)
	if !s.Available() || !s.AtSupplyBase() {
		t.Fatalf("shuttle must start parked and empty")
	}

	s.Call()
	s.Tick(6) // one tick covers the ~105 km leg at 10 kt
	if !s.AtStorageBase() {
		t.Fatalf("shuttle must reach the storage base")
	}

	s.Load(30e6)
	s.Tick(6)
	if !s.AtSupplyBase() {
		t.Fatalf("shuttle must return to the supply base")
	}
	if s.DeliveredWh() != 30e6 {
		t.Fatalf("delivered = %v, want 30e6", s.DeliveredWh())
	}
	if !s.Available() {
		t.Fatalf("shuttle must be available after delivery")
	}
}

func TestCallBusyShuttleIgnored(t *testing.T) {
	s := newShuttle(t, 50e6)
	s.Call()
	s.Tick(6)
	s.Load(30e6)
	s.Call() // hauling home, must not re-latch
	if s.Called() {
		t.Fatalf("busy shuttle must ignore a call")
	}
}
