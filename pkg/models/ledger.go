package models

// LedgerEntry is one link in the immutable, hash-chained decision audit log.
type LedgerEntry struct {
	Index           int    `json:"index"`
	TransactionID   string `json:"transactionId"`
	Timestamp       int64  `json:"timestamp"` // ingestion time, ms since epoch
	FinalRiskScore  int    `json:"finalRiskScore"`
	Decision        string `json:"decision"` // includes sentinel "GENESIS" at index 0
	PreviousHash    string `json:"previousHash"`
	CurrentHash     string `json:"currentHash"`
	DataHash        string `json:"dataHash"`
}

// GenesisDecision is the sentinel value stored in the index-0 entry.
const GenesisDecision = "GENESIS"

// GenesisTransactionID is the sentinel transaction id for the index-0 entry.
const GenesisTransactionID = "00000000-0000-0000-0000-000000000000"
