// Package ledger implements the tamper-evident, single-writer hash chain
// that records every sentinel decision: an in-memory, mutex-guarded,
// append-only slice where each entry's hash is derived from the one
// before it.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sanjayrockerz/SentinelPay/internal/hashutil"
	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// ErrChainMismatch is returned by VerifyAndAppend when the chain fails
// integrity verification; the ledger is left unmodified.
var ErrChainMismatch = errors.New(string(models.ReasonChainMismatch))

// Ledger is an append-only, hash-chained audit log. All state is owned by
// one instance; under the single-writer assumption, Append and
// VerifyAndAppend together give atomic, order-preserving appends.
type Ledger struct {
	mu    sync.Mutex
	chain []models.LedgerEntry

	nowMs func() int64 // injected ingestion-time clock, for deterministic tests
}

// New constructs a ledger seeded with the genesis entry.
func New(nowMs func() int64) *Ledger {
	l := &Ledger{nowMs: nowMs}
	l.chain = []models.LedgerEntry{genesisEntry()}
	return l
}

func genesisEntry() models.LedgerEntry {
	entry := models.LedgerEntry{
		Index:          0,
		TransactionID:  models.GenesisTransactionID,
		FinalRiskScore: 0,
		Decision:       models.GenesisDecision,
		PreviousHash:   "0",
		DataHash:       "0",
	}
	// The genesis hash covers the "GENESIS" decision sentinel, not the
	// zero transaction id.
	entry.CurrentHash = chainHash(entry.Index, entry.PreviousHash, entry.Decision, entry.FinalRiskScore)
	return entry
}

// chainHash hashes index ‖ previousHash ‖ transactionID ‖ finalRiskScore
// per the chain invariant.
func chainHash(index int, previousHash, transactionID string, finalRiskScore int) string {
	payload := fmt.Sprintf("%d%s%s%d", index, previousHash, transactionID, finalRiskScore)
	return hashutil.HString(payload)
}

// canonicalDataHash returns H(canonical_json(result)), where the JSON
// encoding is sorted-key and whitespace-free so independent
// implementations agree on the digest: re-marshal through a generic map
// to force lexicographic key order and drop insignificant whitespace.
func canonicalDataHash(result models.FinalRiskResult) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(generic))
	for k := range generic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, generic[k]...)
	}
	buf = append(buf, '}')

	return hashutil.H(buf), nil
}

// Append constructs and pushes the next entry for result. Infallible: a
// ledger built exclusively through Append/VerifyAndAppend always
// satisfies the chain invariant, so this never needs to verify first.
func (l *Ledger) Append(result models.FinalRiskResult) (models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(result)
}

func (l *Ledger) appendLocked(result models.FinalRiskResult) (models.LedgerEntry, error) {
	dataHash, err := canonicalDataHash(result)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	prev := l.chain[len(l.chain)-1]
	index := len(l.chain)
	entry := models.LedgerEntry{
		Index:          index,
		TransactionID:  result.TransactionID,
		Timestamp:      l.nowMs(),
		FinalRiskScore: result.FinalRiskScore,
		Decision:       string(result.Decision),
		PreviousHash:   prev.CurrentHash,
		DataHash:       dataHash,
	}
	entry.CurrentHash = chainHash(entry.Index, entry.PreviousHash, entry.TransactionID, entry.FinalRiskScore)

	l.chain = append(l.chain, entry)
	return entry, nil
}

// VerifyIntegrity walks the chain from index 1 and checks both hash
// invariants, returning false on the first mismatch. O(n).
func (l *Ledger) VerifyIntegrity() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyIntegrityLocked()
}

func (l *Ledger) verifyIntegrityLocked() bool {
	for i := 1; i < len(l.chain); i++ {
		entry := l.chain[i]
		prev := l.chain[i-1]

		if entry.PreviousHash != prev.CurrentHash {
			return false
		}
		want := chainHash(entry.Index, entry.PreviousHash, entry.TransactionID, entry.FinalRiskScore)
		if entry.CurrentHash != want {
			return false
		}
	}
	return true
}

// VerifyAndAppend verifies the chain before appending; on failure it
// returns ErrChainMismatch and leaves the ledger unmodified.
func (l *Ledger) VerifyAndAppend(result models.FinalRiskResult) (models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.verifyIntegrityLocked() {
		return models.LedgerEntry{}, ErrChainMismatch
	}
	return l.appendLocked(result)
}

// GetLatestHash returns the current-hash of the most recent entry.
func (l *Ledger) GetLatestHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain[len(l.chain)-1].CurrentHash
}

// GetChain returns an immutable snapshot of the full chain.
func (l *Ledger) GetChain() []models.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LedgerEntry, len(l.chain))
	copy(out, l.chain)
	return out
}
