package risk

import (
	"testing"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

func TestEvaluateDevice(t *testing.T) {
	profile := models.DefaultUserProfile("u1")
	profile.RegisteredDeviceID = "dev_A"

	t.Run("registered device, no history", func(t *testing.T) {
		tx := models.Transaction{DeviceID: "dev_A", Timestamp: 1_000_000}
		out := EvaluateDevice(tx, profile, nil)
		if out.Score != 0 {
			t.Errorf("Score = %d, want 0", out.Score)
		}
	})

	t.Run("unregistered device", func(t *testing.T) {
		tx := models.Transaction{DeviceID: "dev_B", Timestamp: 1_000_000}
		out := EvaluateDevice(tx, profile, nil)
		if out.Score != 25 {
			t.Errorf("Score = %d, want 25", out.Score)
		}
	})

	t.Run("device fan-out within window", func(t *testing.T) {
		tx := models.Transaction{DeviceID: "dev_A", Timestamp: 1_000_000}
		history := []models.Transaction{
			{DeviceID: "dev_C", Timestamp: 1_000_000 - 1000},
		}
		out := EvaluateDevice(tx, profile, history)
		if out.Score < 30 {
			t.Errorf("Score = %d, want at least 30 for device fan-out", out.Score)
		}
	})

	t.Run("device outside window does not count toward fan-out", func(t *testing.T) {
		tx := models.Transaction{DeviceID: "dev_A", Timestamp: 1_000_000}
		history := []models.Transaction{
			{DeviceID: "dev_C", Timestamp: 1_000_000 - deviceWindowMs - 1000},
		}
		out := EvaluateDevice(tx, profile, history)
		if out.Score != 0 {
			t.Errorf("Score = %d, want 0", out.Score)
		}
	})
}

func TestRecentDeviceSet(t *testing.T) {
	tx := models.Transaction{DeviceID: "dev_A", Timestamp: 1_000_000}
	history := []models.Transaction{
		{DeviceID: "dev_B", Timestamp: 1_000_000 - 1000},
		{DeviceID: "dev_C", Timestamp: 1_000_000 - 2000},
		{DeviceID: "dev_D", Timestamp: 1_000_000 - deviceWindowMs - 1000}, // outside window
	}
	set := RecentDeviceSet(tx, history)
	if len(set) != 3 {
		t.Errorf("len(set) = %d, want 3 (dev_A, dev_B, dev_C)", len(set))
	}
	if _, ok := set["dev_D"]; ok {
		t.Error("dev_D is outside the window and should not be in the set")
	}
}
