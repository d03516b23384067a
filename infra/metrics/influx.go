package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/infra/logger"
)

// InfluxSink writes simulation state to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordShipState writes the generation ship snapshot as a point.
func (s *InfluxSink) RecordShipState(ev coremetrics.ShipStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap := ev.Snapshot
	p := write.NewPointWithMeasurement("ship_state").
		AddTag("run_id", ev.RunID).
		AddTag("mode", snap.Mode.String()).
		AddTag("branch", snap.Branch).
		AddField("lat", round3(snap.ShipLat)).
		AddField("lon", round3(snap.ShipLon)).
		AddField("speed_kt", round3(snap.SpeedKt)).
		AddField("main_storage_wh", snap.MainStorageWh).
		AddField("propulsion_wh", snap.PropulsionWh).
		AddField("storage_per", round3(snap.StoragePer)).
		AddField("gene_wh", snap.GeneWh).
		AddField("loss_wh", snap.LossWh).
		AddField("total_gene_wh", snap.TotalGeneWh).
		AddField("total_loss_wh", snap.TotalLossWh).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBaseState writes the storage base snapshot as a point.
func (s *InfluxSink) RecordBaseState(ev coremetrics.BaseStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("base_state").
		AddTag("run_id", ev.RunID).
		AddTag("branch", ev.Snapshot.Branch).
		AddField("storage_wh", ev.Snapshot.StorageWh).
		AddField("storage_per", round3(ev.Snapshot.StoragePer)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSupportState writes a support ship snapshot as a point.
func (s *InfluxSink) RecordSupportState(ev coremetrics.SupportStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("support_state").
		AddTag("run_id", ev.RunID).
		AddTag("ship", ev.ShipName).
		AddTag("branch", ev.Snapshot.Branch).
		AddField("lat", round3(ev.Snapshot.Lat)).
		AddField("lon", round3(ev.Snapshot.Lon)).
		AddField("storage_wh", ev.Snapshot.StorageWh).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
