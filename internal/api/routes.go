package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanjayrockerz/SentinelPay/internal/alert"
	"github.com/sanjayrockerz/SentinelPay/internal/db"
	"github.com/sanjayrockerz/SentinelPay/internal/ledger"
	"github.com/sanjayrockerz/SentinelPay/internal/risk"
	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// APIHandler wires the sentinel engine, ledger, optional profile/audit
// stores, the websocket hub, and the alert manager into HTTP handlers.
type APIHandler struct {
	engine       *risk.Engine
	chain        *ledger.Ledger
	profileStore *db.ProfileStore
	auditStore   *db.AuditStore
	wsHub        *Hub
	alerts       *alert.Manager
}

// SetupRouter builds the Gin engine. profileStore/auditStore may be nil —
// the engine runs from ingest-supplied profiles and an in-memory-only
// ledger when Postgres is unavailable.
func SetupRouter(engine *risk.Engine, chain *ledger.Ledger, profileStore *db.ProfileStore, auditStore *db.AuditStore, wsHub *Hub, alerts *alert.Manager) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://sentinel.example.com
	// Development: leave empty for *
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		engine:       engine,
		chain:        chain,
		profileStore: profileStore,
		auditStore:   auditStore,
		wsHub:        wsHub,
		alerts:       alerts,
	}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// evaluate is the hot path; rate-limit it independently of the
	// domain-level velocity evaluator, which guards a different concern
	// (per-user transaction bursts, not per-IP API abuse).
	evaluateLimiter := NewRateLimiter(120, 20)
	{
		auth.POST("/transactions/evaluate", evaluateLimiter.Middleware(), handler.handleEvaluate)
		auth.GET("/users/:id/history", handler.handleGetHistory)
		auth.GET("/latency", handler.handleGetLatency)
		auth.GET("/ledger", handler.handleGetLedger)
		auth.GET("/ledger/verify", handler.handleVerifyLedger)
		auth.POST("/ledger/verify-and-append", handler.handleVerifyAndAppend)
		auth.GET("/alerts", handler.handleGetAlerts)
	}

	return r
}

// evaluateRequest is the transaction ingest shape: user_id is required,
// everything else has a documented default applied before it reaches the
// engine. amount is not checked for presence: a missing amount is read
// as 0.
type evaluateRequest struct {
	TransactionID    string  `json:"transactionId"`
	UserID           string  `json:"userId" binding:"required"`
	Amount           int64   `json:"amount"`
	Timestamp        int64   `json:"timestamp"`
	DeviceID         string  `json:"deviceId"`
	IPAddress        string  `json:"ipAddress"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	City             string  `json:"city"`
	MerchantID       string  `json:"merchantId"`
	MerchantCategory string  `json:"merchantCategory"`
	NetworkType      string  `json:"networkType"`
	SessionID        string  `json:"sessionId"`

	// Profile is an optional inline profile, used when no ProfileStore is
	// configured or when the caller wants to override the stored row —
	// e.g. simulation/test harnesses feeding synthetic profiles directly.
	Profile *models.UserProfile `json:"profile"`
}

func (req evaluateRequest) toTransaction() models.Transaction {
	txID := req.TransactionID
	if txID == "" {
		txID = uuid.NewString()
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	netType := models.NetworkType(req.NetworkType)
	if netType == "" {
		netType = models.NetworkUnknown
	}

	return models.Transaction{
		TransactionID:    txID,
		UserID:           req.UserID,
		Amount:           req.Amount,
		Timestamp:        ts,
		DeviceID:         req.DeviceID,
		IPAddress:        req.IPAddress,
		Location:         models.Location{Lat: req.Lat, Lon: req.Lon, City: req.City},
		MerchantID:       req.MerchantID,
		MerchantCategory: req.MerchantCategory,
		NetworkType:      netType,
		SessionID:        req.SessionID,
	}
}

// handleEvaluate is the core API operation: evaluate(transaction, profile)
// -> FinalRiskResult, then append the result to the ledger.
func (h *APIHandler) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	tx := req.toTransaction()

	profile, err := h.resolveProfile(c, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile", "details": err.Error()})
		return
	}
	if tx.DeviceID == "" {
		tx.DeviceID = profile.RegisteredDeviceID
	}

	result := h.engine.Evaluate(tx, profile)

	entry, err := h.chain.VerifyAndAppend(result)
	if err != nil {
		log.Printf("[Ledger] verify-and-append refused for tx %s: %v", tx.TransactionID, err)
		h.alerts.EmitChainMismatch(tx.TransactionID)
		c.JSON(http.StatusConflict, gin.H{
			"error":  string(models.ReasonChainMismatch),
			"result": result,
		})
		return
	}

	if h.auditStore != nil {
		if err := h.auditStore.PersistEntry(c.Request.Context(), entry); err != nil {
			log.Printf("[AuditStore] failed to persist ledger entry %d: %v", entry.Index, err)
		}
	}

	h.alerts.EmitFromResult(result)
	h.broadcastResult(result, entry)

	c.JSON(http.StatusOK, gin.H{
		"result":      result,
		"ledgerEntry": entry,
	})
}

// resolveProfile prefers an inline profile on the request, then the
// configured ProfileStore, then the ingest defaults.
func (h *APIHandler) resolveProfile(c *gin.Context, req evaluateRequest) (models.UserProfile, error) {
	if req.Profile != nil {
		return *req.Profile, nil
	}
	if h.profileStore != nil {
		return h.profileStore.GetProfile(c.Request.Context(), req.UserID)
	}
	return models.DefaultUserProfile(req.UserID), nil
}

func (h *APIHandler) broadcastResult(result models.FinalRiskResult, entry models.LedgerEntry) {
	payload, err := json.Marshal(gin.H{
		"type":        "risk_result",
		"result":      result,
		"ledgerEntry": entry,
	})
	if err != nil {
		log.Printf("[Broadcast] failed to marshal risk result: %v", err)
		return
	}
	h.wsHub.Broadcast(payload)
}

func (h *APIHandler) handleGetHistory(c *gin.Context) {
	userID := c.Param("id")
	history := h.engine.GetHistory(userID)
	c.JSON(http.StatusOK, gin.H{"userId": userID, "history": history})
}

func (h *APIHandler) handleGetLatency(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetLatencyStats())
}

func (h *APIHandler) handleGetLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"chain":      h.chain.GetChain(),
		"latestHash": h.chain.GetLatestHash(),
	})
}

func (h *APIHandler) handleVerifyLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": h.chain.VerifyIntegrity()})
}

// handleVerifyAndAppend exposes verifyAndAppend directly for operator
// tooling (e.g. replaying a previously-computed result after a restart).
func (h *APIHandler) handleVerifyAndAppend(c *gin.Context) {
	var result models.FinalRiskResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := h.chain.VerifyAndAppend(result)
	if err != nil {
		h.alerts.EmitChainMismatch(result.TransactionID)
		c.JSON(http.StatusConflict, gin.H{"error": string(models.ReasonChainMismatch)})
		return
	}

	if h.auditStore != nil {
		if err := h.auditStore.PersistEntry(c.Request.Context(), entry); err != nil {
			log.Printf("[AuditStore] failed to persist ledger entry %d: %v", entry.Index, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ledgerEntry": entry})
}

func (h *APIHandler) handleGetAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{"alerts": h.alerts.Recent(limit)})
}

// handleHealth returns engine status for service discovery.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "operational",
		"engine":       "SentinelPay Core",
		"profileStore": h.profileStore != nil,
		"auditStore":   h.auditStore != nil,
		"ledgerValid":  h.chain.VerifyIntegrity(),
		"ledgerLength": len(h.chain.GetChain()),
	})
}
