package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/infra/logger"
)

// NewSink composes the configured sinks. With nothing enabled the returned
// sink is a no-op. When Prometheus is enabled the scrape endpoint is served
// on the configured port.
func NewSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	cfg.SetDefaults()
	var sinks []coremetrics.Sink

	if cfg.PrometheusEnabled {
		prom, err := NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prometheus sink: %w", err)
		}
		sinks = append(sinks, prom)
		go servePrometheus(cfg.PrometheusPort)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}

	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}

func servePrometheus(port int) {
	log := logger.New("prometheus")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server: %v", err)
	}
}
