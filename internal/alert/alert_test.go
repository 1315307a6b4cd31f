package alert

import (
	"testing"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

func TestEmitFromResult_ApproveIsSilent(t *testing.T) {
	var broadcast []Alert
	m := NewManager(func(a Alert) { broadcast = append(broadcast, a) })

	m.EmitFromResult(models.FinalRiskResult{Decision: models.DecisionApprove})

	if len(broadcast) != 0 {
		t.Errorf("broadcast count = %d, want 0 for an APPROVE decision", len(broadcast))
	}
	if len(m.Recent(10)) != 0 {
		t.Errorf("Recent() count = %d, want 0 for an APPROVE decision", len(m.Recent(10)))
	}
}

func TestEmitFromResult_StepUp(t *testing.T) {
	var broadcast []Alert
	m := NewManager(func(a Alert) { broadcast = append(broadcast, a) })

	m.EmitFromResult(models.FinalRiskResult{Decision: models.DecisionStepUp, TransactionID: "tx1"})

	if len(broadcast) != 1 {
		t.Fatalf("broadcast count = %d, want 1", len(broadcast))
	}
	if broadcast[0].Severity != "medium" || broadcast[0].AlertType != "step_up" {
		t.Errorf("alert = %+v, want severity=medium alertType=step_up", broadcast[0])
	}
}

func TestEmitFromResult_EscalationOverrideIsCritical(t *testing.T) {
	var broadcast []Alert
	m := NewManager(func(a Alert) { broadcast = append(broadcast, a) })

	m.EmitFromResult(models.FinalRiskResult{
		Decision:           models.DecisionBlock,
		EscalationOverride: true,
		TransactionID:      "tx1",
	})

	if broadcast[0].Severity != "critical" || broadcast[0].AlertType != "escalation_override" {
		t.Errorf("alert = %+v, want severity=critical alertType=escalation_override", broadcast[0])
	}
}

func TestEmitFromResult_CoordinatedAttackIsCritical(t *testing.T) {
	var broadcast []Alert
	m := NewManager(func(a Alert) { broadcast = append(broadcast, a) })

	m.EmitFromResult(models.FinalRiskResult{
		Decision:          models.DecisionBlock,
		CoordinatedAttack: true,
		TransactionID:     "tx1",
	})

	if broadcast[0].Severity != "critical" || broadcast[0].AlertType != "coordinated_attack" {
		t.Errorf("alert = %+v, want severity=critical alertType=coordinated_attack", broadcast[0])
	}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	m := NewManager(nil)

	m.Emit(Alert{AlertType: "first", Severity: "low"})
	m.Emit(Alert{AlertType: "second", Severity: "low"})
	m.Emit(Alert{AlertType: "third", Severity: "low"})

	recent := m.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].AlertType != "third" || recent[1].AlertType != "second" {
		t.Errorf("recent = %+v, want [third, second]", recent)
	}
}

func TestSeverityMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity string
		minimum  string
		expected bool
	}{
		{"critical", "high", true},
		{"low", "high", false},
		{"high", "high", true},
		{"medium", "low", true},
	}

	for _, tt := range tests {
		if got := severityMeetsThreshold(tt.severity, tt.minimum); got != tt.expected {
			t.Errorf("severityMeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.minimum, got, tt.expected)
		}
	}
}
