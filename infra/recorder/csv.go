// Package recorder persists per-tick simulation snapshots as CSV series, one
// file per simulated entity.
package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tpgship/tpgsim/core/model"
)

// CSVRecorder writes one CSV file per entity under a run directory. Files
// are created lazily on the first record and flushed on Close.
type CSVRecorder struct {
	dir     string
	ship    *series
	base    *series
	support map[string]*series
}

type series struct {
	f *os.File
	w *csv.Writer
}

// NewCSVRecorder creates the output directory if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	return &CSVRecorder{dir: dir, support: make(map[string]*series)}, nil
}

func (r *CSVRecorder) open(name string, header []string) (*series, error) {
	f, err := os.Create(filepath.Join(r.dir, name+".csv"))
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return &series{f: f, w: w}, nil
}

var shipHeader = []string{
	"unixtime", "datetime", "target_name", "target_lat", "target_lon",
	"target_distance_km", "target_typhoon_id", "typhoon_lat", "typhoon_lon",
	"ship_lat", "ship_lon", "ship_typhoon_km", "branch", "mode", "speed_kt",
	"gene_wh", "total_gene_hours", "total_gene_wh", "loss_wh",
	"total_loss_hours", "total_loss_wh", "storage_per", "main_storage_wh",
	"propulsion_wh", "balance_wh",
}

// RecordShip appends one generation ship row.
func (r *CSVRecorder) RecordShip(s model.ShipSnapshot) error {
	if r.ship == nil {
		sr, err := r.open("ship", shipHeader)
		if err != nil {
			return err
		}
		r.ship = sr
	}
	return r.ship.w.Write([]string{
		strconv.FormatInt(s.Unixtime, 10),
		s.Time.Format(time.RFC3339),
		s.TargetName,
		ftoa(s.TargetLat), ftoa(s.TargetLon),
		ftoa(s.TargetDistanceKm),
		strconv.Itoa(s.TargetTyphoonID),
		ftoa(s.TyphoonLat), ftoa(s.TyphoonLon),
		ftoa(s.ShipLat), ftoa(s.ShipLon),
		ftoa(s.ShipTyphoonKm),
		s.Branch,
		s.Mode.String(),
		ftoa(s.SpeedKt),
		ftoa(s.GeneWh), ftoa(s.TotalGeneHours), ftoa(s.TotalGeneWh),
		ftoa(s.LossWh), ftoa(s.TotalLossHours), ftoa(s.TotalLossWh),
		ftoa(s.StoragePer), ftoa(s.MainStorageWh), ftoa(s.PropulsionWh),
		ftoa(s.BalanceWh),
	})
}

var baseHeader = []string{
	"unixtime", "datetime", "storage_wh", "storage_per", "branch",
}

// RecordBase appends one storage base row.
func (r *CSVRecorder) RecordBase(s model.BaseSnapshot) error {
	if r.base == nil {
		sr, err := r.open("storage_base", baseHeader)
		if err != nil {
			return err
		}
		r.base = sr
	}
	return r.base.w.Write([]string{
		strconv.FormatInt(s.Unixtime, 10),
		s.Time.Format(time.RFC3339),
		ftoa(s.StorageWh), ftoa(s.StoragePer),
		s.Branch,
	})
}

var supportHeader = []string{
	"unixtime", "datetime", "target_lat", "target_lon", "lat", "lon",
	"storage_wh", "storage_per", "branch",
}

// RecordSupport appends one support ship row to the named series.
func (r *CSVRecorder) RecordSupport(name string, s model.SupportSnapshot) error {
	sr, ok := r.support[name]
	if !ok {
		var err error
		sr, err = r.open(name, supportHeader)
		if err != nil {
			return err
		}
		r.support[name] = sr
	}
	return sr.w.Write([]string{
		strconv.FormatInt(s.Unixtime, 10),
		s.Time.Format(time.RFC3339),
		ftoa(s.TargetLat), ftoa(s.TargetLon),
		ftoa(s.Lat), ftoa(s.Lon),
		ftoa(s.StorageWh), ftoa(s.StoragePer),
		s.Branch,
	})
}

// Close flushes and closes every open series, returning the first error.
func (r *CSVRecorder) Close() error {
	var first error
	all := []*series{r.ship, r.base}
	for _, sr := range r.support {
		all = append(all, sr)
	}
	for _, sr := range all {
		if sr == nil {
			continue
		}
		sr.w.Flush()
		if err := sr.w.Error(); err != nil && first == nil {
			first = err
		}
		if err := sr.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
