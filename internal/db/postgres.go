// Package db holds the optional Postgres-backed collaborators: the user
// profile store the core reads per evaluation, and the ledger audit
// mirror. Both are nil-safe — the engine runs standalone without
// Postgres, treating the database connection as optional infrastructure.
package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanjayrockerz/SentinelPay/pkg/models"
)

// PostgresStore wraps a pgx connection pool shared by ProfileStore and
// AuditStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for SentinelPay")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("SentinelPay schema initialized")
	return nil
}

// GetPool exposes the connection pool for subsystems that need raw access.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}

// ProfileStore reads UserProfile rows. A separate ingest process (CSV or
// spreadsheet import) is expected to populate this table; that ingest
// path is not part of this package.
type ProfileStore struct {
	store *PostgresStore
}

// NewProfileStore wraps store for profile lookups.
func NewProfileStore(store *PostgresStore) *ProfileStore {
	return &ProfileStore{store: store}
}

// GetProfile fetches a user's profile row, filling any missing optional
// columns with the documented ingest defaults. Returns a default profile,
// not an error, when no row exists at all.
func (p *ProfileStore) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	profile := models.DefaultUserProfile(userID)

	row := p.store.pool.QueryRow(ctx, `
		SELECT registered_city, registered_device_id, avg_transaction_amount,
		       max_transaction_amount, daily_transaction_limit, avg_transactions_per_day,
		       kyc_status, risk_category, account_status,
		       usual_login_start, usual_login_end, last_login, failed_attempts_last_10_min
		FROM user_profiles WHERE user_id = $1
	`, userID)

	var kyc, riskCat, acctStatus string
	err := row.Scan(
		&profile.RegisteredCity, &profile.RegisteredDeviceID, &profile.AvgTransactionAmount,
		&profile.MaxTransactionAmount, &profile.DailyTransactionLimit, &profile.AvgTransactionsPerDay,
		&kyc, &riskCat, &acctStatus,
		&profile.UsualLoginStart, &profile.UsualLoginEnd, &profile.LastLogin, &profile.FailedAttemptsLast10Min,
	)
	if err != nil {
		// No row (or any scan failure): fall back to defaults rather than
		// failing the evaluation — ingest-level validation is out of scope.
		return profile, nil
	}

	profile.KYCStatus = models.KYCStatus(kyc)
	profile.RiskCategory = models.RiskCategory(riskCat)
	profile.AccountStatus = models.AccountStatus(acctStatus)
	return profile, nil
}

// UpsertProfile writes or replaces a user's profile row. Used by the
// (out-of-scope) ingest collaborator to populate the store this core reads.
func (p *ProfileStore) UpsertProfile(ctx context.Context, profile models.UserProfile) error {
	_, err := p.store.pool.Exec(ctx, `
		INSERT INTO user_profiles (
			user_id, registered_city, registered_device_id, avg_transaction_amount,
			max_transaction_amount, daily_transaction_limit, avg_transactions_per_day,
			kyc_status, risk_category, account_status,
			usual_login_start, usual_login_end, last_login, failed_attempts_last_10_min
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (user_id) DO UPDATE SET
			registered_city = EXCLUDED.registered_city,
			registered_device_id = EXCLUDED.registered_device_id,
			avg_transaction_amount = EXCLUDED.avg_transaction_amount,
			max_transaction_amount = EXCLUDED.max_transaction_amount,
			daily_transaction_limit = EXCLUDED.daily_transaction_limit,
			avg_transactions_per_day = EXCLUDED.avg_transactions_per_day,
			kyc_status = EXCLUDED.kyc_status,
			risk_category = EXCLUDED.risk_category,
			account_status = EXCLUDED.account_status,
			usual_login_start = EXCLUDED.usual_login_start,
			usual_login_end = EXCLUDED.usual_login_end,
			last_login = EXCLUDED.last_login,
			failed_attempts_last_10_min = EXCLUDED.failed_attempts_last_10_min;
	`,
		profile.UserID, profile.RegisteredCity, profile.RegisteredDeviceID, profile.AvgTransactionAmount,
		profile.MaxTransactionAmount, profile.DailyTransactionLimit, profile.AvgTransactionsPerDay,
		string(profile.KYCStatus), string(profile.RiskCategory), string(profile.AccountStatus),
		profile.UsualLoginStart, profile.UsualLoginEnd, profile.LastLogin, profile.FailedAttemptsLast10Min,
	)
	return err
}

// AuditStore mirrors ledger entries to Postgres for durability across
// restarts. The in-memory chain in internal/ledger remains the source of
// truth verified by VerifyIntegrity; this is a side-effect log only.
type AuditStore struct {
	store *PostgresStore
}

// NewAuditStore wraps store for ledger persistence.
func NewAuditStore(store *PostgresStore) *AuditStore {
	return &AuditStore{store: store}
}

// PersistEntry appends entry to the durable ledger_entries mirror.
func (a *AuditStore) PersistEntry(ctx context.Context, entry models.LedgerEntry) error {
	_, err := a.store.pool.Exec(ctx, `
		INSERT INTO ledger_entries (
			index, transaction_id, ts, final_risk_score, decision,
			previous_hash, current_hash, data_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (index) DO NOTHING;
	`,
		entry.Index, entry.TransactionID, entry.Timestamp, entry.FinalRiskScore, entry.Decision,
		entry.PreviousHash, entry.CurrentHash, entry.DataHash,
	)
	return err
}
