package risk

import (
	"fmt"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// amountCeiling caps the Amount evaluator's contribution.
const amountCeiling = 75

// EvaluateAmount applies the first matching exclusive tier for amount
// relative to the profile's max, daily-limit, and average.
func EvaluateAmount(tx models.Transaction, profile models.UserProfile) models.EvaluatorOutput {
	amount := float64(tx.Amount)

	switch {
	case amount > profile.MaxTransactionAmount:
		return clampAmount(75, fmt.Sprintf(
			"%s: amount %d exceeds max transaction amount %.0f",
			models.ReasonVelocityLimit, tx.Amount, profile.MaxTransactionAmount))
	case amount > profile.DailyTransactionLimit:
		return clampAmount(45, fmt.Sprintf(
			"%s: amount %d exceeds daily limit %.0f",
			models.ReasonVelocityLimit, tx.Amount, profile.DailyTransactionLimit))
	case amount > 3*profile.AvgTransactionAmount:
		return clampAmount(20, fmt.Sprintf(
			"%s: amount %d is an amount spike versus average %.0f",
			models.ReasonBehavioralShift, tx.Amount, profile.AvgTransactionAmount))
	default:
		return models.EvaluatorOutput{}
	}
}

func clampAmount(score int, reason string) models.EvaluatorOutput {
	if score > amountCeiling {
		score = amountCeiling
	}
	return models.EvaluatorOutput{Score: score, Reasons: []string{reason}}
}
