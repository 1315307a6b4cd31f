package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/sanjayrockerz/SentinelPay/internal/alert"
	"github.com/sanjayrockerz/SentinelPay/internal/api"
	"github.com/sanjayrockerz/SentinelPay/internal/db"
	"github.com/sanjayrockerz/SentinelPay/internal/ledger"
	"github.com/sanjayrockerz/SentinelPay/internal/risk"
)

func main() {
	log.Println("Starting SentinelPay Core (Microservice: sentinel-risk-engine)...")

	// DATABASE_URL is optional. Without it the engine runs from
	// ingest-supplied profiles and an in-memory-only ledger.
	var profileStore *db.ProfileStore
	var auditStore *db.AuditStore

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := db.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without a profile store or audit mirror. Error: %v", err)
		} else {
			defer pg.Close()
			if err := pg.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
			profileStore = db.NewProfileStore(pg)
			auditStore = db.NewAuditStore(pg)
		}
	} else {
		log.Println("DATABASE_URL not set — running with ingest-supplied profiles and an in-memory-only ledger")
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	alertManager := alert.NewManager(func(a alert.Alert) {
		broadcastAlert(wsHub, a)
	})
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		alertManager.RegisterWebhook("default", webhookURL, getEnvOrDefault("ALERT_WEBHOOK_MIN_SEVERITY", "high"), nil)
	}

	engine := risk.NewEngine()
	chain := ledger.New(func() int64 { return time.Now().UnixMilli() })

	r := api.SetupRouter(engine, chain, profileStore, auditStore, wsHub, alertManager)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("Engine running on :%s (API node: sentinel-risk-engine)\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// broadcastAlert pushes an alert to every subscribed dashboard connection.
func broadcastAlert(wsHub *api.Hub, a alert.Alert) {
	payload, err := json.Marshal(struct {
		Type  string      `json:"type"`
		Alert alert.Alert `json:"alert"`
	}{Type: "alert", Alert: a})
	if err != nil {
		log.Printf("Failed to marshal alert for broadcast: %v", err)
		return
	}
	wsHub.Broadcast(payload)
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
