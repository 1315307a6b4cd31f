package risk

import "testing"

func TestEscalationTrackerShouldForceBlock(t *testing.T) {
	t.Run("fewer than escMinStepUps, no force", func(t *testing.T) {
		tr := NewEscalationTracker()
		tr.RecordStepUp("u1", 1000)
		tr.RecordStepUp("u1", 2000)
		if tr.ShouldForceBlock("u1", 80, 3000) {
			t.Error("ShouldForceBlock() = true, want false with only 2 recorded step-ups")
		}
	})

	t.Run("escMinStepUps within window and score above threshold forces block", func(t *testing.T) {
		tr := NewEscalationTracker()
		tr.RecordStepUp("u1", 1000)
		tr.RecordStepUp("u1", 2000)
		tr.RecordStepUp("u1", 3000)
		if !tr.ShouldForceBlock("u1", escRiskThresh, 4000) {
			t.Error("ShouldForceBlock() = false, want true")
		}
	})

	t.Run("score below threshold does not force block", func(t *testing.T) {
		tr := NewEscalationTracker()
		tr.RecordStepUp("u1", 1000)
		tr.RecordStepUp("u1", 2000)
		tr.RecordStepUp("u1", 3000)
		if tr.ShouldForceBlock("u1", escRiskThresh-1, 4000) {
			t.Error("ShouldForceBlock() = true, want false — score below escRiskThresh")
		}
	})

	t.Run("step-ups outside window are pruned", func(t *testing.T) {
		tr := NewEscalationTracker()
		tr.RecordStepUp("u1", 0)
		tr.RecordStepUp("u1", 1000)
		tr.RecordStepUp("u1", 2000)
		if tr.ShouldForceBlock("u1", escRiskThresh, escWindowMs+3000) {
			t.Error("ShouldForceBlock() = true, want false — all step-ups should be outside the window")
		}
	})

	t.Run("a block clears step-up history", func(t *testing.T) {
		tr := NewEscalationTracker()
		tr.RecordStepUp("u1", 1000)
		tr.RecordStepUp("u1", 2000)
		tr.RecordStepUp("u1", 3000)
		tr.RecordBlock("u1")
		if tr.ShouldForceBlock("u1", escRiskThresh, 4000) {
			t.Error("ShouldForceBlock() = true, want false — RecordBlock should have cleared history")
		}
	})
}
