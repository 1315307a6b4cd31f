package risk

import (
	"fmt"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// deviceCeiling caps the Device evaluator's contribution.
const deviceCeiling = 55

// deviceWindowMs is the lookback for distinct-device fan-out detection.
const deviceWindowMs = 300_000

// EvaluateDevice flags an unregistered device and device fan-out (more
// than one distinct device id transacting within the trailing 5 minutes).
func EvaluateDevice(tx models.Transaction, profile models.UserProfile, history []models.Transaction) models.EvaluatorOutput {
	var score int
	var reasons []string

	if tx.DeviceID != profile.RegisteredDeviceID {
		score += 25
		reasons = append(reasons, fmt.Sprintf(
			"%s: device %q does not match registered device %q",
			models.ReasonBehavioralShift, tx.DeviceID, profile.RegisteredDeviceID))
	}

	cutoff := tx.Timestamp - deviceWindowMs
	seen := map[string]struct{}{tx.DeviceID: {}}
	for _, h := range history {
		if h.Timestamp > cutoff {
			seen[h.DeviceID] = struct{}{}
		}
	}
	if len(seen) > 1 {
		score += 30
		reasons = append(reasons, fmt.Sprintf(
			"%s: %d distinct devices active in the trailing 5 minutes",
			models.ReasonBehavioralShift, len(seen)))
	}

	if score > deviceCeiling {
		score = deviceCeiling
	}
	return models.EvaluatorOutput{Score: score, Reasons: reasons}
}

// RecentDeviceSet returns the distinct device ids active in the trailing
// 5-minute window, inclusive of tx's own device. Shared with the sentinel
// aggregator's context assembly and the secondary pre-OTP check.
func RecentDeviceSet(tx models.Transaction, history []models.Transaction) map[string]struct{} {
	cutoff := tx.Timestamp - deviceWindowMs
	seen := map[string]struct{}{tx.DeviceID: {}}
	for _, h := range history {
		if h.Timestamp > cutoff {
			seen[h.DeviceID] = struct{}{}
		}
	}
	return seen
}
