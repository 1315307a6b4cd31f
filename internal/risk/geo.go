package risk

import (
	"fmt"
	"math"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// geoCeiling caps the Geo evaluator's contribution before aggregation.
const geoCeiling = 65

// earthRadiusKm is the sphere radius used for the Haversine distance.
const earthRadiusKm = 6371.0

// maxSpeedKmh is the impossible-travel threshold.
const maxSpeedKmh = 800.0

// EvaluateGeo flags a location mismatch against the registered city and an
// impossible-travel jump versus the user's last retained transaction.
func EvaluateGeo(tx models.Transaction, profile models.UserProfile, lastTx *models.Transaction) models.EvaluatorOutput {
	var score int
	var reasons []string

	if tx.Location.City != profile.RegisteredCity {
		score += 10
		reasons = append(reasons, fmt.Sprintf(
			"%s: transaction city %q does not match registered city %q",
			models.ReasonGeoImpossible, tx.Location.City, profile.RegisteredCity))
	}

	if lastTx != nil {
		distance := haversineKm(lastTx.Location.Lat, lastTx.Location.Lon, tx.Location.Lat, tx.Location.Lon)
		deltaHours := float64(tx.Timestamp-lastTx.Timestamp) / 3_600_000.0
		if deltaHours > 0 && distance/deltaHours > maxSpeedKmh {
			score += 55
			reasons = append(reasons, fmt.Sprintf(
				"%s: %.1f km in %.2f h implies impossible travel speed",
				models.ReasonGeoImpossible, distance, deltaHours))
		}
	}

	if score > geoCeiling {
		score = geoCeiling
	}
	return models.EvaluatorOutput{Score: score, Reasons: reasons}
}

// haversineKm returns the great-circle distance between two lat/lon points
// in kilometers, on a sphere of radius earthRadiusKm.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
