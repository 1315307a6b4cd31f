package risk

import (
	"fmt"
	"time"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// behavioralCeiling caps the Behavioral evaluator's contribution (the
// multiplier it also returns is applied by the aggregator, not clamped here).
const behavioralCeiling = 65

// EvaluateBehavioral flags unusual login hour, dormant accounts, and KYC
// state, and derives the risk-category multiplier the aggregator applies
// to the combined base score. Hour is computed in UTC so results are
// reproducible regardless of host timezone.
func EvaluateBehavioral(tx models.Transaction, profile models.UserProfile) models.EvaluatorOutput {
	var score int
	var reasons []string

	hour := time.UnixMilli(tx.Timestamp).UTC().Hour()
	if hour < profile.UsualLoginStart || hour > profile.UsualLoginEnd {
		score += 10
		reasons = append(reasons, fmt.Sprintf(
			"%s: hour %d falls outside usual login window [%d,%d]",
			models.ReasonBehavioralShift, hour, profile.UsualLoginStart, profile.UsualLoginEnd))
	}

	if profile.AccountStatus == models.AccountDormant {
		score += 45
		reasons = append(reasons, fmt.Sprintf("%s: account is dormant", models.ReasonBehavioralShift))
	}

	switch profile.KYCStatus {
	case models.KYCFailed:
		score += 35
		reasons = append(reasons, fmt.Sprintf("%s: KYC status is FAILED", models.ReasonBehavioralShift))
	case models.KYCPending:
		score += 10
		reasons = append(reasons, fmt.Sprintf("%s: KYC status is PENDING", models.ReasonBehavioralShift))
	}

	if score > behavioralCeiling {
		score = behavioralCeiling
	}

	multiplier := 1.0
	switch profile.RiskCategory {
	case models.RiskHigh:
		multiplier = 1.2
	case models.RiskMedium:
		multiplier = 1.1
	}

	return models.EvaluatorOutput{Score: score, Reasons: reasons, Multiplier: multiplier}
}
