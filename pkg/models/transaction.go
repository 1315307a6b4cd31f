package models

// Location is the geolocation reported with a transaction.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	City string  `json:"city"`
}

// Transaction is a single payment event entering the sentinel engine.
// Immutable once constructed; evaluators read it by value.
type Transaction struct {
	TransactionID    string      `json:"transactionId"`
	UserID           string      `json:"userId"`
	Amount           int64       `json:"amount"`    // non-negative, minor units or whole rupees
	Timestamp        int64       `json:"timestamp"` // ms since epoch
	DeviceID         string      `json:"deviceId"`
	IPAddress        string      `json:"ipAddress"`
	Location         Location    `json:"location"`
	MerchantID       string      `json:"merchantId"`
	MerchantCategory string      `json:"merchantCategory"`
	NetworkType      NetworkType `json:"networkType"`
	SessionID        string      `json:"sessionId"`
}

// EffectiveMerchantCategory returns MerchantCategory, defaulting to
// MerchantID when the category was not supplied by the ingest layer.
func (t Transaction) EffectiveMerchantCategory() string {
	if t.MerchantCategory != "" {
		return t.MerchantCategory
	}
	return t.MerchantID
}

// UserProfile is the external store's view of a user, read per evaluation
// and treated as immutable for the duration of that evaluation.
type UserProfile struct {
	UserID                  string        `json:"userId"`
	RegisteredCity          string        `json:"registeredCity"`
	RegisteredDeviceID      string        `json:"registeredDeviceId"`
	AvgTransactionAmount    float64       `json:"avgTransactionAmount"`
	MaxTransactionAmount    float64       `json:"maxTransactionAmount"`
	DailyTransactionLimit   float64       `json:"dailyTransactionLimit"`
	AvgTransactionsPerDay   float64       `json:"avgTransactionsPerDay"`
	KYCStatus               KYCStatus     `json:"kycStatus"`
	RiskCategory            RiskCategory  `json:"riskCategory"`
	AccountStatus           AccountStatus `json:"accountStatus"`
	UsualLoginStart         int           `json:"usualLoginStart"` // inclusive hour 0-23
	UsualLoginEnd           int           `json:"usualLoginEnd"`   // inclusive hour 0-23
	LastLogin               int64         `json:"lastLogin"`       // ms since epoch
	FailedAttemptsLast10Min int           `json:"failedAttemptsLast10Min"`
}

// DefaultUserProfile returns the ingest defaults applied for a missing
// or partial profile row.
func DefaultUserProfile(userID string) UserProfile {
	return UserProfile{
		UserID:                  userID,
		RegisteredCity:          "Unknown",
		RegisteredDeviceID:      "dev_unknown",
		AvgTransactionAmount:    1000,
		MaxTransactionAmount:    50000,
		DailyTransactionLimit:   100000,
		AvgTransactionsPerDay:   5,
		KYCStatus:               KYCVerified,
		RiskCategory:            RiskLow,
		AccountStatus:           AccountActive,
		UsualLoginStart:         8,
		UsualLoginEnd:           22,
		FailedAttemptsLast10Min: 0,
	}
}

// ComponentScores holds the six evaluators' clamped, pre-aggregation scores.
type ComponentScores struct {
	Geo        int `json:"geo"`
	Velocity   int `json:"velocity"`
	Device     int `json:"device"`
	Amount     int `json:"amount"`
	Network    int `json:"network"`
	Behavioral int `json:"behavioral"`
}

// Sum returns the unweighted total of the six component scores.
func (c ComponentScores) Sum() int {
	return c.Geo + c.Velocity + c.Device + c.Amount + c.Network + c.Behavioral
}

// FinalRiskResult is the sentinel engine's output for one transaction.
type FinalRiskResult struct {
	TransactionID      string          `json:"transactionId"`
	UserID             string          `json:"userId"`
	Amount             int64           `json:"amount"`
	Timestamp          int64           `json:"timestamp"`
	FinalRiskScore     int             `json:"finalRiskScore"`
	ComponentScores    ComponentScores `json:"componentScores"`
	Decision           Decision        `json:"decision"`
	Reasoning          []string        `json:"reasoning"`
	ReasonCode         ReasonCode      `json:"reasonCode"`
	ProcessingTimeMs   float64         `json:"processingTimeMs"`
	LatencyBreach      bool            `json:"latencyBreach"`
	CoordinatedAttack  bool            `json:"coordinatedAttack"`
	EscalationOverride bool            `json:"escalationOverride"`
}

// EvaluatorOutput is the common shape every risk evaluator returns.
type EvaluatorOutput struct {
	Score      int
	Reasons    []string
	Multiplier float64 // 0 means "not applicable"; sentinel treats <=0 as 1.0
}
