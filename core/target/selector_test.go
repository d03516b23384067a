package target

import (
	"testing"

	"github.com/tpgship/tpgsim/core/model"
)

func point(id int, unixtime int64, lat, lon float64) model.ForecastPoint {
	return model.ForecastPoint{
		TyphoonID: id, Unixtime: unixtime,
		TrueLat: lat, TrueLon: lon,
		ForecastLat: lat, ForecastLon: lon,
	}
}

func occAt(times map[int]int64) OccurrenceFunc {
	return func(id int) (int64, bool) {
		ts, ok := times[id]
		return ts, ok
	}
}

func newTestSelector(t *testing.T, cfg Config) *Selector {
	t.Helper()
	s, err := NewSelector(cfg)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	return s
}

func TestOpenSea(t *testing.T) {
	cases := []struct {
		p    model.Position
		want bool
	}{
		{model.Position{Lat: 25, Lon: 135}, true},   // Philippine Sea
		{model.Position{Lat: 35, Lon: 135}, false},  // over Honshu
		{model.Position{Lat: 35, Lon: 145}, true},   // east of Honshu
		{model.Position{Lat: 10, Lon: 120}, false},  // South China Sea
		{model.Position{Lat: 55, Lon: 100}, true},   // above the band table
		{model.Position{Lat: 45, Lon: 150}, false},  // Sea of Okhotsk side
	}
	for _, c := range cases {
		if got := OpenSea(c.p); got != c.want {
			t.Fatalf("OpenSea(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestSelectSkipsLand(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 50, JudgeTimeTimes: 3})
	ship := Kinematics{Position: model.Position{Lat: 25, Lon: 140}, MaxSpeedKt: 20}

	points := []model.ForecastPoint{point(1, 6 * 3600, 35, 135)}
	if _, ok := s.Select(points, ship, occAt(map[int]int64{1: 0}), 0, 120); ok {
		t.Fatalf("landfall forecast must yield no target")
	}
}

func TestSelectRejectsSlowCatch(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 50, JudgeTimeTimes: 1})
	// A distant storm arriving in 6 hours cannot be caught within 1x the
	// arrival time at 5 kt.
	ship := Kinematics{Position: model.Position{Lat: 20, Lon: 140}, MaxSpeedKt: 5}
	points := []model.ForecastPoint{point(1, 6 * 3600, 30, 150)}
	if _, ok := s.Select(points, ship, occAt(map[int]int64{1: 0}), 0, 120); ok {
		t.Fatalf("uncatchable storm must be rejected")
	}
}

func TestSelectPrefersLongerGeneration(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 90, JudgeTimeTimes: 10})
	ship := Kinematics{Position: model.Position{Lat: 25, Lon: 141}, MaxSpeedKt: 30}

	// Typhoon 1 dies early; typhoon 2 persists through the horizon.
	points := []model.ForecastPoint{
		point(1, 6*3600, 25, 142),
		point(1, 12*3600, 26, 142),
		point(2, 6*3600, 25, 140),
		point(2, 120*3600, 35, 150),
	}
	occ := occAt(map[int]int64{1: 0, 2: 0})
	cand, ok := s.Select(points, ship, occ, 0, 120)
	if !ok {
		t.Fatalf("expected a target")
	}
	if cand.Point.TyphoonID != 2 {
		t.Fatalf("selected typhoon %d, want the long-lived 2", cand.Point.TyphoonID)
	}
}

func TestSelectLifetimeExtrapolation(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 50, JudgeTimeTimes: 10})
	ship := Kinematics{Position: model.Position{Lat: 25, Lon: 141}, MaxSpeedKt: 30}

	// Last observation exactly at the horizon end and the storm is young:
	// assume the five-day lifetime instead of the visible window.
	points := []model.ForecastPoint{
		point(1, 6*3600, 25, 142),
		point(1, 120*3600, 30, 150),
	}
	occ := occAt(map[int]int64{1: 6 * 3600})
	cand, ok := s.Select(points, ship, occ, 0, 120)
	if !ok {
		t.Fatalf("expected a target")
	}
	// Born at 6h, mean life 120h, point at 6h: the full 120 hours remain.
	if cand.GenerationHours != 120 {
		t.Fatalf("generation hours = %v, want 120", cand.GenerationHours)
	}
}

func TestSelectDeterministic(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 70, JudgeTimeTimes: 5})
	ship := Kinematics{Position: model.Position{Lat: 22, Lon: 138}, MaxSpeedKt: 25}
	points := []model.ForecastPoint{
		point(3, 12*3600, 24, 140),
		point(1, 6*3600, 23, 139),
		point(2, 18*3600, 26, 142),
	}
	occ := occAt(map[int]int64{1: 0, 2: 0, 3: 0})

	first, ok1 := s.Select(points, ship, occ, 0, 120)
	second, ok2 := s.Select(points, ship, occ, 0, 120)
	if ok1 != ok2 || first != second {
		t.Fatalf("selection must be deterministic: %+v vs %+v", first, second)
	}
}

func TestSelectZeroArrivalSkipped(t *testing.T) {
	s := newTestSelector(t, Config{ForecastWeight: 50, JudgeTimeTimes: 5})
	ship := Kinematics{Position: model.Position{Lat: 25, Lon: 140}, MaxSpeedKt: 20}
	points := []model.ForecastPoint{point(1, 0, 25, 141)}
	if _, ok := s.Select(points, ship, occAt(map[int]int64{1: 0}), 0, 120); ok {
		t.Fatalf("a point with no lead time must be skipped")
	}
}

func TestNextPosition(t *testing.T) {
	points := []model.ForecastPoint{
		point(1, 6*3600, 25, 141),
		point(1, 12*3600, 26, 142),
	}
	next, ok := NextPosition(points, 1, 0, 6)
	if !ok || next != (model.Position{Lat: 25, Lon: 141}) {
		t.Fatalf("next position = %+v, %v", next, ok)
	}
	if _, ok := NextPosition(points, 2, 0, 6); ok {
		t.Fatalf("unknown typhoon must not resolve")
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := NewSelector(Config{ForecastWeight: 150, JudgeTimeTimes: 2}); err == nil {
		t.Fatalf("out-of-range weight must fail")
	}
	if _, err := NewSelector(Config{ForecastWeight: 50}); err == nil {
		t.Fatalf("zero judge_time_times must fail")
	}
}
