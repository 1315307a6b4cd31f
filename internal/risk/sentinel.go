// Package risk implements the sentinel scoring pipeline: six pure
// evaluators, the cross-transaction trackers they and the aggregator
// share, and the aggregator itself.
package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

const (
	thresholdPass  = 40
	thresholdBlock = 70

	historyCap = 1000

	coordMultiplier = 1.25
)

// Engine owns all per-process sentinel state: per-user history, the
// coordinated-attack detector, the escalation tracker, and the rolling
// latency buffer. One Engine instance is a single logical actor: mu
// serializes evaluations, so each Evaluate completes fully before the
// next begins even when HTTP handlers call in concurrently.
type Engine struct {
	mu           sync.Mutex
	history      map[string][]models.Transaction // userID -> retained transactions, insertion order
	historyCount int                             // total retained transactions across all users

	coord   *CoordinatedAttackDetector
	esc     *EscalationTracker
	latency *LatencyBuffer

	nowMono func() time.Time // injected for deterministic latency tests
}

// NewEngine constructs a sentinel engine with empty state.
func NewEngine() *Engine {
	return &Engine{
		history: make(map[string][]models.Transaction),
		coord:   NewCoordinatedAttackDetector(),
		esc:     NewEscalationTracker(),
		latency: NewLatencyBuffer(),
		nowMono: time.Now,
	}
}

// Evaluate runs the full scoring pipeline for tx against profile and
// returns the final decision record.
func (e *Engine) Evaluate(tx models.Transaction, profile models.UserProfile) models.FinalRiskResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.nowMono()

	if profile.AccountStatus == models.AccountBlocked {
		result := models.FinalRiskResult{
			TransactionID:   tx.TransactionID,
			UserID:          tx.UserID,
			Amount:          tx.Amount,
			Timestamp:       tx.Timestamp,
			FinalRiskScore:  100,
			ComponentScores: models.ComponentScores{},
			Decision:        models.DecisionBlock,
			Reasoning:       []string{string(models.ReasonBlockedUser) + ": account is BLOCKED"},
			ReasonCode:      models.ReasonBlockedUser,
		}
		e.recordLatency(start, &result)
		return result
	}

	history := e.history[tx.UserID]
	var lastTx *models.Transaction
	if n := len(history); n > 0 {
		lastTx = &history[n-1]
	}

	geo := EvaluateGeo(tx, profile, lastTx)
	velocity := EvaluateVelocity(tx, profile, history)
	device := EvaluateDevice(tx, profile, history)
	amount := EvaluateAmount(tx, profile)
	network := EvaluateNetwork(tx)
	behavioral := EvaluateBehavioral(tx, profile)

	components := models.ComponentScores{
		Geo:        geo.Score,
		Velocity:   velocity.Score,
		Device:     device.Score,
		Amount:     amount.Score,
		Network:    network.Score,
		Behavioral: behavioral.Score,
	}

	var reasons []string
	reasons = append(reasons, geo.Reasons...)
	reasons = append(reasons, velocity.Reasons...)
	reasons = append(reasons, device.Reasons...)
	reasons = append(reasons, amount.Reasons...)
	reasons = append(reasons, network.Reasons...)
	reasons = append(reasons, behavioral.Reasons...)

	baseScore := components.Sum()
	if behavioral.Multiplier > 1.0 {
		baseScore = int(math.Floor(float64(baseScore) * behavioral.Multiplier))
	}

	e.coord.Record(tx)
	coordinated := e.coord.Detect(tx)
	if coordinated {
		baseScore = int(math.Floor(float64(baseScore) * coordMultiplier))
		reasons = append(reasons, string(models.ReasonCoordinatedAtk)+": coordinated attack cluster detected")
	}

	finalScore := clamp(baseScore, 0, 100)

	decision, reasonCode, escalationOverride, escalationReason := e.decide(tx, history, finalScore, coordinated, reasons)
	if escalationOverride {
		reasons = append(reasons, escalationReason)
		if finalScore < thresholdBlock {
			finalScore = thresholdBlock
		}
	}

	switch decision {
	case models.DecisionStepUp:
		e.esc.RecordStepUp(tx.UserID, tx.Timestamp)
	case models.DecisionBlock:
		e.esc.RecordBlock(tx.UserID)
	}

	e.appendHistory(tx)

	result := models.FinalRiskResult{
		TransactionID:      tx.TransactionID,
		UserID:             tx.UserID,
		Amount:             tx.Amount,
		Timestamp:          tx.Timestamp,
		FinalRiskScore:     finalScore,
		ComponentScores:    components,
		Decision:           decision,
		Reasoning:          reasons,
		ReasonCode:         reasonCode,
		CoordinatedAttack:  coordinated,
		EscalationOverride: escalationOverride,
	}
	e.recordLatency(start, &result)
	return result
}

// decide maps finalScore to a decision, applying the escalation-override
// and secondary pre-OTP override paths. The fourth return value is the
// escalation-override reason string to append to the result's reasoning
// list; it is empty unless the third return value is true.
func (e *Engine) decide(tx models.Transaction, history []models.Transaction, finalScore int, coordinated bool, reasons []string) (models.Decision, models.ReasonCode, bool, string) {
	if finalScore >= thresholdBlock {
		if coordinated {
			return models.DecisionBlock, models.ReasonCoordinatedAtk, false, ""
		}
		return models.DecisionBlock, models.PrimaryReasonCode(reasons), false, ""
	}

	if finalScore >= thresholdPass {
		if e.esc.ShouldForceBlock(tx.UserID, finalScore, tx.Timestamp) {
			reason := fmt.Sprintf(
				"%s: %d step-ups recorded in the trailing escalation window forced a block",
				models.ReasonEscalationOvr, escMinStepUps)
			return models.DecisionBlock, models.ReasonEscalationOvr, true, reason
		}

		velocityFail := countInWindow(history, tx.Timestamp, velocityWindowMs) > 8
		deviceFail := len(RecentDeviceSet(tx, history)) > 2
		coordFail := e.coord.Detect(tx)
		escFail := e.esc.ShouldForceBlock(tx.UserID, thresholdBlock, tx.Timestamp)

		if velocityFail || deviceFail || coordFail || escFail {
			return models.DecisionBlock, models.PrimaryReasonCode(reasons), false, ""
		}
		return models.DecisionStepUp, models.PrimaryReasonCode(reasons), false, ""
	}

	return models.DecisionApprove, models.ReasonOK, false, ""
}

// appendHistory retains tx for the user, evicting the globally oldest
// retained transaction once the 1000-entry cap is exceeded.
func (e *Engine) appendHistory(tx models.Transaction) {
	e.history[tx.UserID] = append(e.history[tx.UserID], tx)
	e.historyCount++

	for e.historyCount > historyCap {
		oldestUser := e.oldestHistoryUser()
		if oldestUser == "" {
			break
		}
		bucket := e.history[oldestUser]
		e.history[oldestUser] = bucket[1:]
		if len(e.history[oldestUser]) == 0 {
			delete(e.history, oldestUser)
		}
		e.historyCount--
	}
}

// oldestHistoryUser returns the user whose oldest retained transaction has
// the smallest timestamp, i.e. the FIFO-eviction candidate.
func (e *Engine) oldestHistoryUser() string {
	var bestUser string
	var bestTs int64
	first := true
	for user, bucket := range e.history {
		if len(bucket) == 0 {
			continue
		}
		ts := bucket[0].Timestamp
		if first || ts < bestTs {
			bestUser, bestTs, first = user, ts, false
		}
	}
	return bestUser
}

func (e *Engine) recordLatency(start time.Time, result *models.FinalRiskResult) {
	elapsed := float64(e.nowMono().Sub(start)) / float64(time.Millisecond)
	e.latency.Record(elapsed)
	result.ProcessingTimeMs = elapsed
	result.LatencyBreach = e.latency.IsBreach()
}

// GetHistory returns a snapshot copy of the retained transactions for userID.
func (e *Engine) GetHistory(userID string) []models.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	bucket := e.history[userID]
	out := make([]models.Transaction, len(bucket))
	copy(out, bucket)
	return out
}

// GetLatencyStats returns the rolling latency average, breach flag, and
// sample history.
func (e *Engine) GetLatencyStats() Stats {
	return e.latency.GetStats()
}

func countInWindow(history []models.Transaction, ts int64, windowMs int64) int {
	cutoff := ts - windowMs
	n := 0
	for _, h := range history {
		if h.Timestamp > cutoff {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
