package risk

import (
	"testing"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

func TestCoordinatedAttackDetector(t *testing.T) {
	t.Run("fewer than coordMinUsers distinct users, no detection", func(t *testing.T) {
		d := NewCoordinatedAttackDetector()
		var last models.Transaction
		for i := 0; i < coordMinUsers-1; i++ {
			tx := models.Transaction{
				UserID: "user", MerchantID: "merchant-1", Amount: 1000,
				Timestamp: int64(i * 1000),
			}
			tx.UserID = tx.UserID + string(rune('A'+i))
			d.Record(tx)
			last = tx
		}
		if d.Detect(last) {
			t.Error("Detect() = true, want false with fewer than coordMinUsers distinct users")
		}
	})

	t.Run("coordMinUsers distinct users within band triggers detection", func(t *testing.T) {
		d := NewCoordinatedAttackDetector()
		var last models.Transaction
		for i := 0; i < coordMinUsers; i++ {
			tx := models.Transaction{
				UserID:     string(rune('A' + i)),
				MerchantID: "merchant-1",
				Amount:     1000,
				Timestamp:  int64(i * 1000),
			}
			d.Record(tx)
			last = tx
		}
		if !d.Detect(last) {
			t.Error("Detect() = false, want true for a coordMinUsers-user cluster")
		}
	})

	t.Run("different merchant categories do not cluster together", func(t *testing.T) {
		d := NewCoordinatedAttackDetector()
		var last models.Transaction
		for i := 0; i < coordMinUsers; i++ {
			tx := models.Transaction{
				UserID:     string(rune('A' + i)),
				MerchantID: "merchant-1",
				Amount:     1000,
				Timestamp:  int64(i * 1000),
			}
			if i == coordMinUsers-1 {
				tx.MerchantID = "merchant-2"
			}
			d.Record(tx)
			last = tx
		}
		if d.Detect(last) {
			t.Error("Detect() = true, want false — last event is in a different merchant category")
		}
	})

	t.Run("amount outside variance band excluded from cluster", func(t *testing.T) {
		d := NewCoordinatedAttackDetector()
		var last models.Transaction
		for i := 0; i < coordMinUsers; i++ {
			amount := int64(1000)
			if i == coordMinUsers-1 {
				amount = 2000 // well outside ±5%
			}
			tx := models.Transaction{
				UserID:     string(rune('A' + i)),
				MerchantID: "merchant-1",
				Amount:     amount,
				Timestamp:  int64(i * 1000),
			}
			d.Record(tx)
			last = tx
		}
		if d.Detect(last) {
			t.Error("Detect() = true, want false — last event amount is outside variance band of itself vs the rest")
		}
	})

	t.Run("events outside window are pruned", func(t *testing.T) {
		d := NewCoordinatedAttackDetector()
		for i := 0; i < coordMinUsers-1; i++ {
			tx := models.Transaction{
				UserID:     string(rune('A' + i)),
				MerchantID: "merchant-1",
				Amount:     1000,
				Timestamp:  0,
			}
			d.Record(tx)
		}
		later := models.Transaction{
			UserID:     "Z",
			MerchantID: "merchant-1",
			Amount:     1000,
			Timestamp:  coordWindowMs + 1,
		}
		d.Record(later)
		if d.Detect(later) {
			t.Error("Detect() = true, want false — earlier events should have been pruned out of the window")
		}
	})
}
