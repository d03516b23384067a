// Package trackdata loads ground-truth typhoon tracks and monthly wind grids
// from CSV files.
package trackdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tpgship/tpgsim/core/model"
	"github.com/tpgship/tpgsim/core/track"
	"github.com/tpgship/tpgsim/core/wind"
)

// LoadTrack reads a track table CSV with columns
// typhoon_id,unixtime,lat,lon. A header row is detected and skipped.
func LoadTrack(path string) (*track.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trackdata: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	var points []model.TrackPoint
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s: %w", path, err)
		}
		line++
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("trackdata: %s line %d: bad typhoon id %q", path, line, rec[0])
		}
		ts, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad unixtime %q", path, line, rec[1])
		}
		lat, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad lat %q", path, line, rec[2])
		}
		lon, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad lon %q", path, line, rec[3])
		}
		points = append(points, model.TrackPoint{TyphoonID: id, Unixtime: ts, Lat: lat, Lon: lon})
	}
	return track.NewTable(points)
}

// DirProvider serves monthly wind grids from a directory of CSV files named
// YYYY-MM.csv with columns lat,lon,u,v. A missing month reports calm
// conditions rather than failing the run.
type DirProvider struct {
	Dir string
}

// Grid loads the grid for the given month.
func (p DirProvider) Grid(year, month int) (*wind.Grid, error) {
	path := filepath.Join(p.Dir, fmt.Sprintf("%04d-%02d.csv", year, month))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return wind.NewGrid(nil), nil
		}
		return nil, fmt.Errorf("trackdata: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	var cells []wind.Cell
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s: %w", path, err)
		}
		line++
		lat, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("trackdata: %s line %d: bad lat %q", path, line, rec[0])
		}
		lon, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad lon %q", path, line, rec[1])
		}
		u, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad u %q", path, line, rec[2])
		}
		v, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("trackdata: %s line %d: bad v %q", path, line, rec[3])
		}
		cells = append(cells, wind.Cell{Lat: lat, Lon: lon, U: u, V: v})
	}
	return wind.NewGrid(cells), nil
}
