// Package alert implements structured alert emission for sentinel
// decisions: broadcast to connected dashboards and delivery to
// registered webhooks (Slack/Discord/SIEM/PagerDuty-shaped endpoints).
package alert

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// Alert is a structured notification emitted on a risk decision or a
// ledger integrity failure.
type Alert struct {
	ID            string                  `json:"id"`
	Timestamp     time.Time               `json:"timestamp"`
	Severity      string                  `json:"severity"`  // low/medium/high/critical
	AlertType     string                  `json:"alertType"` // step_up/block/escalation_override/coordinated_attack/chain_mismatch
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	TransactionID string                  `json:"transactionId,omitempty"`
	Result        *models.FinalRiskResult `json:"result,omitempty"`
}

// WebhookEndpoint is a registered webhook receiver.
type WebhookEndpoint struct {
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Enabled     bool              `json:"enabled"`
	Headers     map[string]string `json:"headers,omitempty"`
	MinSeverity string            `json:"minSeverity"`
}

// Manager handles alert emission, webhook delivery, and recent-alert
// history for operator tooling.
type Manager struct {
	mu           sync.RWMutex
	webhooks     []WebhookEndpoint
	recentAlerts []Alert
	maxHistory   int
	httpClient   *http.Client
	broadcastFn  func(Alert)
}

// NewManager creates an alert manager that broadcasts through broadcastFn
// (typically the API websocket hub's Broadcast method, JSON-encoded).
func NewManager(broadcastFn func(Alert)) *Manager {
	return &Manager{
		webhooks:     make([]WebhookEndpoint, 0),
		recentAlerts: make([]Alert, 0),
		maxHistory:   1000,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		broadcastFn:  broadcastFn,
	}
}

// RegisterWebhook adds a webhook endpoint.
func (m *Manager) RegisterWebhook(name, url, minSeverity string, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.webhooks = append(m.webhooks, WebhookEndpoint{
		Name:        name,
		URL:         url,
		Enabled:     true,
		Headers:     headers,
		MinSeverity: minSeverity,
	})

	log.Printf("[AlertManager] Registered webhook: %s → %s (min: %s)", name, url, minSeverity)
}

// RemoveWebhook removes a webhook by name.
func (m *Manager) RemoveWebhook(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, wh := range m.webhooks {
		if wh.Name == name {
			m.webhooks = append(m.webhooks[:i], m.webhooks[i+1:]...)
			return
		}
	}
}

// Emit processes and distributes an alert: history, broadcast, webhooks.
func (m *Manager) Emit(a Alert) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	m.mu.Lock()
	m.recentAlerts = append(m.recentAlerts, a)
	if len(m.recentAlerts) > m.maxHistory {
		m.recentAlerts = m.recentAlerts[len(m.recentAlerts)-m.maxHistory:]
	}
	webhooks := make([]WebhookEndpoint, len(m.webhooks))
	copy(webhooks, m.webhooks)
	m.mu.Unlock()

	if m.broadcastFn != nil {
		m.broadcastFn(a)
	}

	for _, wh := range webhooks {
		if !wh.Enabled || !severityMeetsThreshold(a.Severity, wh.MinSeverity) {
			continue
		}
		go m.sendWebhook(wh, a)
	}

	log.Printf("[Alert] [%s] %s: %s (tx: %s)", a.Severity, a.AlertType, a.Title, a.TransactionID)
}

// EmitFromResult builds and emits an alert from a sentinel decision.
// STEP_UP/BLOCK decisions and any escalation or coordinated-attack flag
// are alert-worthy; plain APPROVE results are not.
func (m *Manager) EmitFromResult(result models.FinalRiskResult) {
	if result.Decision == models.DecisionApprove && !result.CoordinatedAttack {
		return
	}

	severity := "medium"
	alertType := "step_up"
	title := "Step-up challenge required"

	if result.Decision == models.DecisionBlock {
		severity = "high"
		alertType = "block"
		title = "Transaction blocked"
	}
	if result.EscalationOverride {
		severity = "critical"
		alertType = "escalation_override"
		title = "Escalation override block"
	}
	if result.CoordinatedAttack {
		severity = "critical"
		alertType = "coordinated_attack"
		title = "Coordinated attack cluster detected"
	}

	m.Emit(Alert{
		Severity:      severity,
		AlertType:     alertType,
		Title:         title,
		Description:   buildDescription(result),
		TransactionID: result.TransactionID,
		Result:        &result,
	})
}

// EmitChainMismatch alerts on a ledger verification failure.
func (m *Manager) EmitChainMismatch(transactionID string) {
	m.Emit(Alert{
		Severity:      "critical",
		AlertType:     "chain_mismatch",
		Title:         "Ledger integrity check failed",
		Description:   "verify-and-append refused to extend a tampered chain",
		TransactionID: transactionID,
	})
}

// Recent returns the most recent alerts, newest first.
func (m *Manager) Recent(limit int) []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.recentAlerts) {
		limit = len(m.recentAlerts)
	}

	start := len(m.recentAlerts) - limit
	result := make([]Alert, limit)
	for i := 0; i < limit; i++ {
		result[i] = m.recentAlerts[start+limit-1-i]
	}
	return result
}

func (m *Manager) sendWebhook(wh WebhookEndpoint, a Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		log.Printf("[Webhook] Failed to marshal alert: %v", err)
		return
	}

	req, err := http.NewRequest("POST", wh.URL, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("[Webhook] Failed to create request for %s: %v", wh.Name, err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	for key, val := range wh.Headers {
		req.Header.Set(key, val)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[Webhook] Failed to send to %s: %v", wh.Name, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("[Webhook] %s returned status %d", wh.Name, resp.StatusCode)
	}
}

func severityMeetsThreshold(severity, minimum string) bool {
	levels := map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}
	return levels[severity] >= levels[minimum]
}

func buildDescription(result models.FinalRiskResult) string {
	desc := ""
	if result.EscalationOverride {
		desc += "Escalation override fired after repeated step-ups. "
	}
	if result.CoordinatedAttack {
		desc += "Transaction is part of a coordinated-attack cluster. "
	}
	if len(result.Reasoning) > 0 {
		desc += "Reasons: "
		for i, r := range result.Reasoning {
			if i > 0 {
				desc += "; "
			}
			desc += r
		}
	}
	return desc
}
