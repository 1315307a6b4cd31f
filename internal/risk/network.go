package risk

import (
	"fmt"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// networkCeiling caps the Network evaluator's contribution.
const networkCeiling = 30

// EvaluateNetwork flags VPN and unidentified network transports.
func EvaluateNetwork(tx models.Transaction) models.EvaluatorOutput {
	var score int
	var reasons []string

	switch tx.NetworkType {
	case models.NetworkVPN:
		score += 20
		reasons = append(reasons, fmt.Sprintf("%s: transaction submitted over VPN", models.ReasonBehavioralShift))
	case models.NetworkUnknown:
		score += 10
		reasons = append(reasons, fmt.Sprintf("%s: network type unknown", models.ReasonBehavioralShift))
	}

	if score > networkCeiling {
		score = networkCeiling
	}
	return models.EvaluatorOutput{Score: score, Reasons: reasons}
}
