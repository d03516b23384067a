// Package sim drives the fixed-timestep simulation loop: forecast generation,
// ship decision, base operation and state recording, in that order, every
// tick.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tpgship/tpgsim/core/base"
	"github.com/tpgship/tpgsim/core/forecast"
	"github.com/tpgship/tpgsim/core/logger"
	"github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/core/model"
	"github.com/tpgship/tpgsim/core/ship"
	"github.com/tpgship/tpgsim/core/track"
	"github.com/tpgship/tpgsim/core/wind"
)

// Recorder persists the per-tick snapshots of every simulated entity.
type Recorder interface {
	RecordShip(model.ShipSnapshot) error
	RecordBase(model.BaseSnapshot) error
	RecordSupport(name string, snap model.SupportSnapshot) error
	Close() error
}

// MemoryRecorder buffers snapshots in memory. Used in tests and for
// post-run analysis.
type MemoryRecorder struct {
	Ships    []model.ShipSnapshot
	Bases    []model.BaseSnapshot
	Supports map[string][]model.SupportSnapshot
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{Supports: make(map[string][]model.SupportSnapshot)}
}

func (r *MemoryRecorder) RecordShip(s model.ShipSnapshot) error {
	r.Ships = append(r.Ships, s)
	return nil
}

func (r *MemoryRecorder) RecordBase(s model.BaseSnapshot) error {
	r.Bases = append(r.Bases, s)
	return nil
}

func (r *MemoryRecorder) RecordSupport(name string, s model.SupportSnapshot) error {
	r.Supports[name] = append(r.Supports[name], s)
	return nil
}

func (r *MemoryRecorder) Close() error { return nil }

// Config defines the simulated time window.
type Config struct {
	StartUnixtime int64  `json:"start_unixtime"`
	EndUnixtime   int64  `json:"end_unixtime"`
	TimeStepHours int    `json:"timestep_hours"`
	Seed          uint64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeStepHours == 0 {
		c.TimeStepHours = 6
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.StartUnixtime >= c.EndUnixtime {
		return fmt.Errorf("start_unixtime must precede end_unixtime")
	}
	if c.TimeStepHours <= 0 {
		return fmt.Errorf("timestep_hours must be positive")
	}
	return nil
}

// Driver owns the simulation clock and advances every entity in a fixed
// order each tick: generation ship, storage base (which ticks the support
// ships), then recording.
type Driver struct {
	cfg        Config
	runID      string
	forecaster *forecast.Forecaster
	track      *track.Table
	ship       *ship.Ship
	base       *base.StorageBase
	supports   []*base.SupportShip
	windProv   wind.Provider
	recorder   Recorder
	sink       metrics.Sink
	log        logger.Logger
}

// Option configures optional driver collaborators.
type Option func(*Driver)

// WithRecorder sets the snapshot recorder.
func WithRecorder(r Recorder) Option { return func(d *Driver) { d.recorder = r } }

// WithSink sets the metrics sink.
func WithSink(s metrics.Sink) Option { return func(d *Driver) { d.sink = s } }

// WithWindProvider sets the environmental wind source.
func WithWindProvider(p wind.Provider) Option { return func(d *Driver) { d.windProv = p } }

// WithLogger sets the driver logger.
func WithLogger(l logger.Logger) Option { return func(d *Driver) { d.log = l } }

// New assembles a Driver. Every run gets a fresh id for traceability.
func New(cfg Config, f *forecast.Forecaster, tbl *track.Table, sh *ship.Ship, b *base.StorageBase, supports []*base.SupportShip, opts ...Option) (*Driver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:        cfg,
		runID:      uuid.NewString(),
		forecaster: f,
		track:      tbl,
		ship:       sh,
		base:       b,
		supports:   supports,
		windProv:   wind.Calm{},
		recorder:   NewMemoryRecorder(),
		sink:       metrics.NopSink{},
		log:        logger.NopLogger{},
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// RunID returns the unique id of this simulation run.
func (d *Driver) RunID() string { return d.runID }

// Run executes the simulation loop until the end time or context
// cancellation.
func (d *Driver) Run(ctx context.Context) error {
	start := time.Now()
	d.log.Infof("run %s: simulating %d to %d, step %dh",
		d.runID, d.cfg.StartUnixtime, d.cfg.EndUnixtime, d.cfg.TimeStepHours)

	var grid *wind.Grid
	curYear, curMonth := 0, 0

	ticks := 0
	for now := d.cfg.StartUnixtime; now < d.cfg.EndUnixtime; now += int64(d.cfg.TimeStepHours) * 3600 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := time.Unix(now, 0).UTC()
		if y, m := t.Year(), int(t.Month()); y != curYear || m != curMonth {
			g, err := d.windProv.Grid(y, m)
			if err != nil {
				return fmt.Errorf("wind grid %d-%02d: %w", y, m, err)
			}
			grid = g
			curYear, curMonth = y, m
			d.log.Debugf("loaded wind grid for %d-%02d", y, m)
		}

		points := d.forecaster.CreateForecast(d.cfg.TimeStepHours, now)

		err := d.ship.Tick(ship.TickInput{
			CurrentTime:   now,
			TimeStepHours: d.cfg.TimeStepHours,
			ForecastHours: d.forecaster.ForecastHours(),
			Forecast:      points,
			Occurrence:    d.track.OccurrenceTime,
			Wind:          grid.At,
		})
		if err != nil {
			return fmt.Errorf("tick at %d: %w", now, err)
		}

		if supply := d.ship.TakeSupply(); supply > 0 {
			d.base.Receive(supply)
		}
		d.base.Operate(d.cfg.TimeStepHours)

		next := now + int64(d.cfg.TimeStepHours)*3600
		if err := d.record(next, t.Add(time.Duration(d.cfg.TimeStepHours)*time.Hour)); err != nil {
			return err
		}
		ticks++
	}

	d.log.Infof("run %s: %d ticks in %s", d.runID, ticks, time.Since(start))
	return d.recorder.Close()
}

func (d *Driver) record(unixtime int64, t time.Time) error {
	ss := d.ship.Snapshot(unixtime)
	ss.Time = t
	if err := d.recorder.RecordShip(ss); err != nil {
		return err
	}
	if err := d.sink.RecordShipState(metrics.ShipStateEvent{RunID: d.runID, Snapshot: ss, Time: t}); err != nil {
		d.log.Warnf("ship metrics: %v", err)
	}

	bs := d.base.Snapshot(unixtime)
	bs.Time = t
	if err := d.recorder.RecordBase(bs); err != nil {
		return err
	}
	if err := d.sink.RecordBaseState(metrics.BaseStateEvent{RunID: d.runID, Snapshot: bs, Time: t}); err != nil {
		d.log.Warnf("base metrics: %v", err)
	}

	for i, sup := range d.supports {
		name := fmt.Sprintf("support_ship_%d", i+1)
		snap := sup.Snapshot(unixtime)
		snap.Time = t
		if err := d.recorder.RecordSupport(name, snap); err != nil {
			return err
		}
		if err := d.sink.RecordSupportState(metrics.SupportStateEvent{RunID: d.runID, ShipName: name, Snapshot: snap, Time: t}); err != nil {
			d.log.Warnf("support metrics: %v", err)
		}
	}
	return nil
}
