package risk

import (
	"fmt"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// velocityCeiling caps the Velocity evaluator's contribution.
const velocityCeiling = 65

// velocityWindowMs is the lookback for burst detection.
const velocityWindowMs = 600_000

// EvaluateVelocity flags transaction bursts and repeated failed logins
// over the trailing 10-minute window of the user's retained history.
func EvaluateVelocity(tx models.Transaction, profile models.UserProfile, history []models.Transaction) models.EvaluatorOutput {
	var score int
	var reasons []string

	cutoff := tx.Timestamp - velocityWindowMs
	var windowCount, oneRupeeCount int
	for _, h := range history {
		if h.Timestamp > cutoff {
			windowCount++
			if h.Amount == 1 {
				oneRupeeCount++
			}
		}
	}

	if windowCount > 5 {
		score += 30
		reasons = append(reasons, fmt.Sprintf(
			"%s: %d transactions in the trailing 10 minutes exceeds the burst limit",
			models.ReasonVelocityLimit, windowCount))
	}

	if tx.Amount == 1 && oneRupeeCount > 3 {
		score += 30
		reasons = append(reasons, fmt.Sprintf(
			"%s: ₹1 spam burst — %d probe transactions in the trailing 10 minutes",
			models.ReasonVelocityLimit, oneRupeeCount))
	}

	if profile.FailedAttemptsLast10Min > 3 {
		score += 35
		reasons = append(reasons, fmt.Sprintf(
			"%s: %d failed login attempts in the trailing 10 minutes",
			models.ReasonVelocityLimit, profile.FailedAttemptsLast10Min))
	}

	if score > velocityCeiling {
		score = velocityCeiling
	}
	return models.EvaluatorOutput{Score: score, Reasons: reasons}
}
