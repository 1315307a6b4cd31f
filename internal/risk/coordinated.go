package risk

import (
	"sync"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// coordEventCap is the hard global cap on retained events.
const coordEventCap = 5000

// coordWindowMs is the lookback window for cluster detection.
const coordWindowMs = 120_000

// coordMinUsers is the distinct-user threshold that trips detection.
const coordMinUsers = 5

// coordAmountVariance is the ±fractional band around tx.Amount a clustered
// event's amount must fall within.
const coordAmountVariance = 0.05

// coordEvent is one recorded transaction, trimmed to what clustering needs.
type coordEvent struct {
	userID           string
	merchantCategory string
	amount           int64
	timestamp        int64
}

// CoordinatedAttackDetector watches a global short window of events for
// many distinct users paying near-identical amounts to the same merchant
// category — the signature of a coordinated fraud ring.
type CoordinatedAttackDetector struct {
	mu     sync.Mutex
	events []coordEvent
}

// NewCoordinatedAttackDetector creates an empty detector.
func NewCoordinatedAttackDetector() *CoordinatedAttackDetector {
	return &CoordinatedAttackDetector{}
}

// Record prunes events older than coordWindowMs relative to tx, then
// appends tx, evicting the oldest event past coordEventCap.
func (d *CoordinatedAttackDetector) Record(tx models.Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pruneLocked(tx.Timestamp)

	d.events = append(d.events, coordEvent{
		userID:           tx.UserID,
		merchantCategory: tx.EffectiveMerchantCategory(),
		amount:           tx.Amount,
		timestamp:        tx.Timestamp,
	})
	if len(d.events) > coordEventCap {
		d.events = d.events[len(d.events)-coordEventCap:]
	}
}

func (d *CoordinatedAttackDetector) pruneLocked(now int64) {
	cutoff := now - coordWindowMs
	i := 0
	for i < len(d.events) && d.events[i].timestamp <= cutoff {
		i++
	}
	if i > 0 {
		d.events = d.events[i:]
	}
}

// Detect scans events within the window for the same merchant category and
// an amount within ±coordAmountVariance of tx.Amount, and reports whether
// the cluster spans at least coordMinUsers distinct users. tx is expected
// to have already been recorded, so it participates in its own cluster.
func (d *CoordinatedAttackDetector) Detect(tx models.Transaction) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := tx.Timestamp - coordWindowMs
	category := tx.EffectiveMerchantCategory()
	lo := float64(tx.Amount) * (1 - coordAmountVariance)
	hi := float64(tx.Amount) * (1 + coordAmountVariance)

	distinct := make(map[string]struct{})
	for _, e := range d.events {
		if e.timestamp <= cutoff {
			continue
		}
		if e.merchantCategory != category {
			continue
		}
		amt := float64(e.amount)
		if amt < lo || amt > hi {
			continue
		}
		distinct[e.userID] = struct{}{}
	}

	return len(distinct) >= coordMinUsers
}
