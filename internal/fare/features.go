// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package fare

import (
	"math"
	"time"

	"github.com/golang/geo/s2"

	"github.com/tomtom215/taxidash/internal/models"
)

// EarthRadiusMiles is the radius used for great-circle distances.
const EarthRadiusMiles = 3956

// Airport zone IDs.
const (
	NewarkZone    = 1
	JFKZone       = 132
	LaGuardiaZone = 138
)

var airportZones = map[int]string{
	NewarkZone:    "Newark Airport (EWR)",
	JFKZone:       "JFK Airport",
	LaGuardiaZone: "LaGuardia Airport",
}

// IsAirport reports whether id is one of the three airport zones.
func IsAirport(id int) bool {
	_, ok := airportZones[id]
	return ok
}

// HaversineMiles returns the great-circle distance between two points.
func HaversineMiles(from, to Point) float64 {
	p1 := s2.LatLngFromDegrees(from.Lat, from.Lon)
	p2 := s2.LatLngFromDegrees(to.Lat, to.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusMiles
}

// Features is the model input for one trip, keyed by feature name.
type Features map[string]float64

var featureNames = map[string]struct{}{
	"haversine_distance":      {},
	"hour":                    {},
	"dow":                     {},
	"month":                   {},
	"passenger_count":         {},
	"is_weekend":              {},
	"is_rush_hour":            {},
	"is_night":                {},
	"is_airport_pickup":       {},
	"is_airport_dropoff":      {},
	"is_manhattan_to_airport": {},
	"PULocationID":            {},
	"DOLocationID":            {},
}

func knownFeature(name string) bool {
	_, ok := featureNames[name]
	return ok
}

// weekday returns 0 for Monday through 6 for Sunday.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// buildFeatures derives the model features for a trip between two known
// centroids.
func buildFeatures(b *Bundle, req Request, pu, do Point) Features {
	t := req.PickupDatetime
	hour := t.Hour()
	dow := weekday(t)
	airportPU := IsAirport(req.PickupZoneID)
	airportDO := IsAirport(req.DropoffZoneID)

	return Features{
		"haversine_distance":      HaversineMiles(pu, do),
		"hour":                    float64(hour),
		"dow":                     float64(dow),
		"month":                   float64(t.Month()),
		"passenger_count":         float64(req.PassengerCount),
		"is_weekend":              flag(dow >= 5),
		"is_rush_hour":            flag((hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)),
		"is_night":                flag(hour >= 20 || hour < 6),
		"is_airport_pickup":       flag(airportPU),
		"is_airport_dropoff":      flag(airportDO),
		"is_manhattan_to_airport": flag(b.IsManhattan(req.PickupZoneID) && airportDO),
		"PULocationID":            float64(req.PickupZoneID),
		"DOLocationID":            float64(req.DropoffZoneID),
	}
}

// Vector orders f by cols.
func (f Features) Vector(cols []string) []float64 {
	x := make([]float64, len(cols))
	for i, c := range cols {
		x[i] = f[c]
	}
	return x
}

// Surcharge amounts in USD.
const (
	mtaSurcharge         = 0.50
	improvementSurcharge = 1.00
	nightSurcharge       = 1.00
	rushHourSurcharge    = 2.50
	congestionSurcharge  = 2.50
)

// surcharges applies the fixed surcharge rules. Night is 20:00-06:00; rush
// hour is 16:00-20:00 on weekdays; congestion applies when either end is in
// Manhattan.
func surcharges(b *Bundle, pickupID, dropoffID int, t time.Time) models.Surcharges {
	s := models.Surcharges{
		MTASurcharge:         mtaSurcharge,
		ImprovementSurcharge: improvementSurcharge,
	}
	hour := t.Hour()
	if hour >= 20 || hour < 6 {
		s.NightSurcharge = nightSurcharge
	}
	if hour >= 16 && hour < 20 && weekday(t) < 5 {
		s.RushHourSurcharge = rushHourSurcharge
	}
	if b.IsManhattan(pickupID) || b.IsManhattan(dropoffID) {
		s.CongestionSurcharge = congestionSurcharge
	}
	s.TotalSurcharges = round2(s.MTASurcharge + s.ImprovementSurcharge + s.NightSurcharge +
		s.RushHourSurcharge + s.CongestionSurcharge)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
