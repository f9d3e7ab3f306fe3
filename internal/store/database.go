package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartpro-bot/internal/db"
)

// UsageStore keeps request counters and PayPal orders in PostgreSQL.
type UsageStore struct {
	db *db.DB
}

// NewUsageStore creates a new usage ledger on an open database.
func NewUsageStore(database *db.DB) *UsageStore {
	return &UsageStore{db: database}
}

// Payment is a captured or pending PayPal order.
type Payment struct {
	OrderID   string
	ChatID    int64
	Plan      string
	Amount    string
	Currency  string
	Status    string
	CreatedAt time.Time
}

// RecordRequest counts one answered message for the chat.
func (us *UsageStore) RecordRequest(ctx context.Context, chatID, userID int64) error {
	query := `
		INSERT INTO chat_usage (chat_id, user_id, requests, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (chat_id)
		DO UPDATE SET
			requests = chat_usage.requests + 1,
			user_id = EXCLUDED.user_id,
			updated_at = NOW()
	`
	if _, err := us.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// Requests returns how many messages were answered for the chat.
func (us *UsageStore) Requests(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := us.db.QueryRowContext(ctx, `SELECT requests FROM chat_usage WHERE chat_id = $1`, chatID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get request count: %w", err)
	}
	return n, nil
}

// RecordPayment inserts or updates an order by its PayPal id.
func (us *UsageStore) RecordPayment(ctx context.Context, p Payment) error {
	if p.OrderID == "" {
		return fmt.Errorf("order_id is required")
	}
	query := `
		INSERT INTO payments (order_id, chat_id, plan, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (order_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			chat_id = CASE WHEN EXCLUDED.chat_id <> 0 THEN EXCLUDED.chat_id ELSE payments.chat_id END,
			plan = COALESCE(NULLIF(EXCLUDED.plan, ''), payments.plan),
			amount = COALESCE(NULLIF(EXCLUDED.amount, ''), payments.amount),
			currency = COALESCE(NULLIF(EXCLUDED.currency, ''), payments.currency),
			updated_at = NOW()
	`
	_, err := us.db.ExecContext(ctx, query, p.OrderID, p.ChatID, p.Plan, p.Amount, p.Currency, p.Status)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// GetPayment returns nil when the order is unknown.
func (us *UsageStore) GetPayment(ctx context.Context, orderID string) (*Payment, error) {
	var p Payment
	query := `
		SELECT order_id, chat_id, plan, amount, currency, status, created_at
		FROM payments
		WHERE order_id = $1
	`
	err := us.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.OrderID,
		&p.ChatID,
		&p.Plan,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}
