package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("NewPromSinkWithRegistry: %v", err)
	}

	err = sink.RecordShipState(coremetrics.ShipStateEvent{
		Snapshot: model.ShipSnapshot{
			Mode:          model.ModeGenerating,
			MainStorageWh: 5e6,
			PropulsionWh:  1e6,
			TotalGeneWh:   12e6,
		},
	})
	if err != nil {
		t.Fatalf("RecordShipState: %v", err)
	}
	if err := sink.RecordBaseState(coremetrics.BaseStateEvent{Snapshot: model.BaseSnapshot{StorageWh: 3e6}}); err != nil {
		t.Fatalf("RecordBaseState: %v", err)
	}
	if err := sink.RecordSupportState(coremetrics.SupportStateEvent{ShipName: "support_ship_1", Snapshot: model.SupportSnapshot{StorageWh: 2e6}}); err != nil {
		t.Fatalf("RecordSupportState: %v", err)
	}

	if got := testutil.ToFloat64(sink.(*PromSink).baseStorage); got != 3e6 {
		t.Fatalf("base gauge = %v, want 3e6", got)
	}
	ticks := sink.(*PromSink).ticks.WithLabelValues("generating")
	if got := testutil.ToFloat64(ticks); got != 1 {
		t.Fatalf("tick counter = %v, want 1", got)
	}
}

func TestPromSinkReregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}
