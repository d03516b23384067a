// Package app assembles the simulation from configuration: data loading,
// model construction and the driver wiring.
package app

import (
	"context"
	"fmt"

	"github.com/tpgship/tpgsim/config"
	"github.com/tpgship/tpgsim/core/base"
	"github.com/tpgship/tpgsim/core/energy"
	"github.com/tpgship/tpgsim/core/forecast"
	coremetrics "github.com/tpgship/tpgsim/core/metrics"
	"github.com/tpgship/tpgsim/core/model"
	"github.com/tpgship/tpgsim/core/ship"
	"github.com/tpgship/tpgsim/core/sim"
	"github.com/tpgship/tpgsim/core/target"
	"github.com/tpgship/tpgsim/core/wind"
	"github.com/tpgship/tpgsim/infra/logger"
	"github.com/tpgship/tpgsim/infra/metrics"
	"github.com/tpgship/tpgsim/infra/recorder"
	"github.com/tpgship/tpgsim/infra/trackdata"
)

// Service owns one configured simulation run.
type Service struct {
	driver *sim.Driver
	sink   coremetrics.Sink
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	table, err := trackdata.LoadTrack(cfg.TrackFile)
	if err != nil {
		return nil, fmt.Errorf("track table: %w", err)
	}
	logg.Infof("loaded track table with %d typhoons", table.Typhoons())

	forecaster := forecast.New(cfg.Forecaster, table, cfg.Sim.Seed)

	selector, err := target.NewSelector(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("target selector: %w", err)
	}
	energyModel, err := energy.NewModel(cfg.Ship.Energy)
	if err != nil {
		return nil, fmt.Errorf("energy model: %w", err)
	}

	basePos := model.Position{Lat: cfg.StorageBase.Base.Lat, Lon: cfg.StorageBase.Base.Lon}
	standbyPos := model.Position{Lat: cfg.Ship.StandbyPosition.Lat(), Lon: cfg.Ship.StandbyPosition.Lon()}

	sh, err := ship.New(cfg.Ship.Policy, energyModel, selector, basePos, standbyPos, logger.New("ship"))
	if err != nil {
		return nil, fmt.Errorf("ship: %w", err)
	}

	sup1, err := base.NewSupportShip(cfg.SupportShip1.Ship, basePos)
	if err != nil {
		return nil, fmt.Errorf("support ship 1: %w", err)
	}
	sup2, err := base.NewSupportShip(cfg.SupportShip2.Ship, basePos)
	if err != nil {
		return nil, fmt.Errorf("support ship 2: %w", err)
	}
	supports := []*base.SupportShip{sup1, sup2}

	storageBase, err := base.NewStorageBase(cfg.StorageBase.Base, supports, logger.New("storage-base"))
	if err != nil {
		return nil, fmt.Errorf("storage base: %w", err)
	}

	rec, err := recorder.NewCSVRecorder(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var windProv wind.Provider = wind.Calm{}
	if cfg.Wind.Dir != "" {
		windProv = trackdata.DirProvider{Dir: cfg.Wind.Dir}
	}

	driver, err := sim.New(cfg.Sim, forecaster, table, sh, storageBase, supports,
		sim.WithRecorder(rec),
		sim.WithSink(sink),
		sim.WithWindProvider(windProv),
		sim.WithLogger(logger.New("driver")),
	)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	return &Service{driver: driver, sink: sink, log: logg}, nil
}

// Run executes the simulation and blocks until it completes or the context
// is cancelled.
func (s *Service) Run(ctx context.Context) error {
	return s.driver.Run(ctx)
}

// Close releases resources held by the service.
func (s *Service) Close() error { return s.sink.Close() }
