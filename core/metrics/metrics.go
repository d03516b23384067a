package metrics

import (
	"time"

	"github.com/tpgship/tpgsim/core/model"
)

// ShipStateEvent is a per-tick observation of the generation ship.
type ShipStateEvent struct {
	RunID    string
	Snapshot model.ShipSnapshot
	Time     time.Time
}

// ShipStateRecorder records generation ship state.
type ShipStateRecorder interface {
	RecordShipState(ev ShipStateEvent) error
}

// BaseStateEvent is a per-tick observation of the storage base.
type BaseStateEvent struct {
	RunID    string
	Snapshot model.BaseSnapshot
	Time     time.Time
}

// BaseStateRecorder records storage base state.
type BaseStateRecorder interface {
	RecordBaseState(ev BaseStateEvent) error
}

// SupportStateEvent is a per-tick observation of one support ship.
type SupportStateEvent struct {
	RunID    string
	ShipName string
	Snapshot model.SupportSnapshot
	Time     time.Time
}

// SupportStateRecorder records support ship state.
type SupportStateRecorder interface {
	RecordSupportState(ev SupportStateEvent) error
}

// Sink aggregates all recorders a simulation run emits to.
type Sink interface {
	ShipStateRecorder
	BaseStateRecorder
	SupportStateRecorder
	Close() error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordShipState(ShipStateEvent) error       { return nil }
func (NopSink) RecordBaseState(BaseStateEvent) error       { return nil }
func (NopSink) RecordSupportState(SupportStateEvent) error { return nil }
func (NopSink) Close() error                               { return nil }
