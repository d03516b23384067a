// Package geo provides the great-circle helpers shared by the ship, base and
// forecast models. Coordinates are decimal degrees; distances kilometres.
package geo

import (
	"math"

	"github.com/tpgship/tpgsim/core/model"
)

// EarthRadiusKm is the mean earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// KtToKmh converts a speed in knots to km/h.
func KtToKmh(kt float64) float64 { return kt * 1.852 }

// KmhToKt converts a speed in km/h to knots.
func KmhToKt(kmh float64) float64 { return kmh / 1.852 }

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b model.Position) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDeg returns the direction from one point to another as a signed
// compass angle in degrees: 0 is north, east positive, range (-180, 180].
// It uses the flat lat/lon construction of the original route planner, which
// is adequate at the basin scale the simulation operates on.
func BearingDeg(from, to model.Position) float64 {
	// Reference vector pointing due north from the origin.
	rLat, rLon := 10.0, 0.0
	tLat := to.Lat - from.Lat
	tLon := to.Lon - from.Lon

	cross := rLat*tLon - rLon*tLat
	dot := rLat*tLat + rLon*tLon
	refLen := math.Hypot(rLat, rLon)
	tgtLen := math.Hypot(tLat, tLon)
	if tgtLen == 0 {
		return 0
	}

	switch {
	case cross == 0 && dot < 0:
		return 180
	case cross == 0:
		return 0
	case cross < 0:
		return -math.Acos(dot/(refLen*tgtLen)) * 180 / math.Pi
	default:
		return math.Acos(dot/(refLen*tgtLen)) * 180 / math.Pi
	}
}

// Advance moves from the current position toward the target by advanceKm
// along the connecting line, snapping to the target once it is reachable.
func Advance(from, to model.Position, advanceKm float64) model.Position {
	total := DistanceKm(from, to)
	if total == 0 || advanceKm <= 0 {
		if total == 0 {
			return to
		}
		return from
	}
	ratio := advanceKm / total
	if ratio >= 1 {
		return to
	}
	return model.Position{
		Lat: from.Lat + (to.Lat-from.Lat)*ratio,
		Lon: from.Lon + (to.Lon-from.Lon)*ratio,
	}
}

// AngleDiffDeg returns the absolute difference between two signed compass
// angles, folded into [0, 180].
func AngleDiffDeg(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
