package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/tpgship/tpgsim/core/metrics"
)

// PromSink exposes the simulation state as Prometheus metrics.
type PromSink struct {
	ticks       *prometheus.CounterVec
	shipStorage *prometheus.GaugeVec
	baseStorage prometheus.Gauge
	supportWh   *prometheus.GaugeVec
	geneTotal   prometheus.Gauge
	lossTotal   prometheus.Gauge
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulation_ticks_total",
		Help: "Total simulation ticks by ship mode",
	}, []string{"mode"})
	shipStorage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ship_storage_wh",
		Help: "Generation ship reservoir levels in Wh",
	}, []string{"reservoir"})
	baseStorage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storage_base_wh",
		Help: "Storage base buffered energy in Wh",
	})
	supportWh := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "support_ship_storage_wh",
		Help: "Support ship onboard energy in Wh",
	}, []string{"ship"})
	geneTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ship_generation_wh_total",
		Help: "Cumulative generated energy in Wh",
	})
	lossTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ship_loss_wh_total",
		Help: "Cumulative propulsion loss in Wh",
	})

	s := &PromSink{
		ticks:       ticks,
		shipStorage: shipStorage,
		baseStorage: baseStorage,
		supportWh:   supportWh,
		geneTotal:   geneTotal,
		lossTotal:   lossTotal,
	}
	collectors := []prometheus.Collector{ticks, shipStorage, baseStorage, supportWh, geneTotal, lossTotal}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.ticks = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.shipStorage = are.ExistingCollector.(*prometheus.GaugeVec)
			case 2:
				s.baseStorage = are.ExistingCollector.(prometheus.Gauge)
			case 3:
				s.supportWh = are.ExistingCollector.(*prometheus.GaugeVec)
			case 4:
				s.geneTotal = are.ExistingCollector.(prometheus.Gauge)
			case 5:
				s.lossTotal = are.ExistingCollector.(prometheus.Gauge)
			}
		}
	}
	return s, nil
}

// RecordShipState updates the generation ship gauges.
func (s *PromSink) RecordShipState(ev coremetrics.ShipStateEvent) error {
	snap := ev.Snapshot
	s.ticks.WithLabelValues(snap.Mode.String()).Inc()
	s.shipStorage.WithLabelValues("main").Set(snap.MainStorageWh)
	s.shipStorage.WithLabelValues("propulsion").Set(snap.PropulsionWh)
	s.geneTotal.Set(snap.TotalGeneWh)
	s.lossTotal.Set(snap.TotalLossWh)
	return nil
}

// RecordBaseState updates the base gauge.
func (s *PromSink) RecordBaseState(ev coremetrics.BaseStateEvent) error {
	s.baseStorage.Set(ev.Snapshot.StorageWh)
	return nil
}

// RecordSupportState updates the support ship gauge.
func (s *PromSink) RecordSupportState(ev coremetrics.SupportStateEvent) error {
	s.supportWh.WithLabelValues(ev.ShipName).Set(ev.Snapshot.StorageWh)
	return nil
}

// Close is a no-op; the registry outlives the sink.
func (s *PromSink) Close() error { return nil }
