package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanjayrockerz/SentinelPay/internal/alert"
	"github.com/sanjayrockerz/SentinelPay/internal/ledger"
	"github.com/sanjayrockerz/SentinelPay/internal/risk"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := risk.NewEngine()
	chain := ledger.New(func() int64 { return time.Now().UnixMilli() })
	wsHub := NewHub()
	go wsHub.Run()
	alerts := alert.NewManager(func(alert.Alert) {})
	return SetupRouter(engine, chain, nil, nil, wsHub, alerts)
}

func TestHandleHealth(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "operational" {
		t.Errorf("status field = %v, want operational", body["status"])
	}
}

func TestHandleEvaluate_ReturnsResultAndLedgerEntry(t *testing.T) {
	r := newTestRouter()

	payload := map[string]interface{}{
		"userId":      "user_1",
		"amount":      500,
		"timestamp":   time.Now().UnixMilli(),
		"deviceId":    "dev_unknown",
		"city":        "Unknown",
		"networkType": "4G",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if _, ok := resp["result"]; !ok {
		t.Error("response missing result field")
	}
	if _, ok := resp["ledgerEntry"]; !ok {
		t.Error("response missing ledgerEntry field")
	}
}

func TestHandleEvaluate_RejectsMissingUserID(t *testing.T) {
	r := newTestRouter()

	payload := map[string]interface{}{"amount": 500}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a missing userId", w.Code)
	}
}

func TestHandleEvaluate_ZeroAmountIsAccepted(t *testing.T) {
	r := newTestRouter()

	payload := map[string]interface{}{
		"userId":    "user_1",
		"amount":    0,
		"timestamp": time.Now().UnixMilli(),
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 — amount=0 is a valid transaction, not a missing field", w.Code)
	}
}

func TestHandleGetLedger_StartsWithGenesis(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Chain []map[string]interface{} `json:"chain"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(resp.Chain) != 1 {
		t.Errorf("len(chain) = %d, want 1 (genesis only)", len(resp.Chain))
	}
}

func TestHandleVerifyLedger(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/verify", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !resp.Valid {
		t.Error("valid = false on a fresh ledger")
	}
}
