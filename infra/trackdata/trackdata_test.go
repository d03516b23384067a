package trackdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tpgship/tpgsim/core/model"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadTrack(t *testing.T) {
	path := write(t, t.TempDir(), "track.csv",
		"typhoon_id,unixtime,lat,lon\n"+
			"1,0,20.5,140.25\n"+
			"1,21600,21.0,140.5\n"+
			"2,43200,18.0,145.0\n")

	tbl, err := LoadTrack(path)
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if tbl.Typhoons() != 2 {
		t.Fatalf("typhoons = %d, want 2", tbl.Typhoons())
	}
	occ, ok := tbl.OccurrenceTime(1)
	if !ok || occ != 0 {
		t.Fatalf("occurrence of 1 = %d, %v", occ, ok)
	}
	w := tbl.Window(0, 21600)
	if len(w) != 2 {
		t.Fatalf("window = %d points", len(w))
	}
}

func TestLoadTrackWithoutHeader(t *testing.T) {
	path := write(t, t.TempDir(), "track.csv", "1,0,20.5,140.25\n")
	tbl, err := LoadTrack(path)
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if tbl.Typhoons() != 1 {
		t.Fatalf("typhoons = %d", tbl.Typhoons())
	}
}

func TestLoadTrackBadRow(t *testing.T) {
	path := write(t, t.TempDir(), "track.csv",
		"1,0,20.5,140.25\n"+
			"1,notatime,21.0,140.5\n")
	if _, err := LoadTrack(path); err == nil {
		t.Fatalf("bad unixtime must fail")
	}
}

func TestLoadTrackMissingFile(t *testing.T) {
	if _, err := LoadTrack(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestDirProviderGrid(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "2024-08.csv",
		"lat,lon,u,v\n"+
			"20,140,3.5,-1.25\n"+
			"30,150,-2.0,4.0\n")

	g, err := DirProvider{Dir: dir}.Grid(2024, 8)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	u, v := g.At(model.Position{Lat: 21, Lon: 141})
	if u != 3.5 || v != -1.25 {
		t.Fatalf("wind = (%v, %v)", u, v)
	}
}

func TestDirProviderMissingMonthCalm(t *testing.T) {
	g, err := DirProvider{Dir: t.TempDir()}.Grid(2024, 1)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if u, v := g.At(model.Position{Lat: 25, Lon: 140}); u != 0 || v != 0 {
		t.Fatalf("missing month must be calm")
	}
}
