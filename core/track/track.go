// Package track holds the ground-truth typhoon track table the forecaster
// perturbs. The table is loaded once at simulation start and never mutated.
package track

import (
	"fmt"
	"sort"

	"github.com/tpgship/tpgsim/core/model"
)

// Table is an immutable, time-sorted typhoon track table.
type Table struct {
	points     []model.TrackPoint
	occurrence map[int]int64
}

// NewTable builds a table from raw track points. Points are sorted by
// unixtime and the first observation per typhoon is recorded as its
// occurrence time.
func NewTable(points []model.TrackPoint) (*Table, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("track: empty table")
	}
	ps := make([]model.TrackPoint, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Unixtime < ps[j].Unixtime })

	occ := make(map[int]int64)
	for _, p := range ps {
		if _, ok := occ[p.TyphoonID]; !ok {
			occ[p.TyphoonID] = p.Unixtime
		}
	}
	return &Table{points: ps, occurrence: occ}, nil
}

// Window returns all points with unixtime in [start, end].
func (t *Table) Window(start, end int64) []model.TrackPoint {
	var out []model.TrackPoint
	for _, p := range t.points {
		if p.Unixtime < start {
			continue
		}
		if p.Unixtime > end {
			break
		}
		out = append(out, p)
	}
	return out
}

// OccurrenceTime returns the first observation time of the given typhoon.
func (t *Table) OccurrenceTime(id int) (int64, bool) {
	ts, ok := t.occurrence[id]
	return ts, ok
}

// Typhoons returns the number of distinct typhoons in the table.
func (t *Table) Typhoons() int { return len(t.occurrence) }
