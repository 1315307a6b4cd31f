package models

import "testing"

func TestDefaultUserProfile(t *testing.T) {
	p := DefaultUserProfile("user-1")

	if p.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", p.UserID, "user-1")
	}
	if p.RegisteredCity != "Unknown" {
		t.Errorf("RegisteredCity = %q, want %q", p.RegisteredCity, "Unknown")
	}
	if p.RegisteredDeviceID != "dev_unknown" {
		t.Errorf("RegisteredDeviceID = %q, want %q", p.RegisteredDeviceID, "dev_unknown")
	}
	if p.AvgTransactionAmount != 1000 || p.MaxTransactionAmount != 50000 || p.DailyTransactionLimit != 100000 {
		t.Errorf("unexpected amount defaults: %+v", p)
	}
	if p.KYCStatus != KYCVerified || p.RiskCategory != RiskLow || p.AccountStatus != AccountActive {
		t.Errorf("unexpected status defaults: %+v", p)
	}
	if p.UsualLoginStart != 8 || p.UsualLoginEnd != 22 {
		t.Errorf("unexpected login window defaults: %+v", p)
	}
}

func TestEffectiveMerchantCategory(t *testing.T) {
	tests := []struct {
		name     string
		tx       Transaction
		expected string
	}{
		{"category present", Transaction{MerchantID: "m1", MerchantCategory: "groceries"}, "groceries"},
		{"category empty falls back to merchant id", Transaction{MerchantID: "m1"}, "m1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.EffectiveMerchantCategory(); got != tt.expected {
				t.Errorf("EffectiveMerchantCategory() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestComponentScoresSum(t *testing.T) {
	c := ComponentScores{Geo: 10, Velocity: 20, Device: 5, Amount: 15, Network: 10, Behavioral: 5}
	if got := c.Sum(); got != 65 {
		t.Errorf("Sum() = %d, want 65", got)
	}
}
