package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OmarElhagagy/tailored-sub002/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, amount, currency, gateway, status, provider_transaction_id,
			card_last4, card_brand, customer_email, idempotency_key,
			failure_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.Amount,
		payment.Currency,
		payment.Gateway,
		payment.Status,
		payment.ProviderTxnID,
		payment.CardLast4,
		payment.CardBrand,
		payment.CustomerEmail,
		nullable(payment.IdempotencyKey),
		payment.FailureReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// The whole history is unsaved on first insert.
	for _, change := range payment.StatusHistory {
		if err := r.insertHistoryEntry(ctx, payment.ID, change); err != nil {
			return err
		}
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, provider_transaction_id = $2, failure_reason = $3, updated_at = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.Status,
		payment.ProviderTxnID,
		payment.FailureReason,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return err
	}

	return r.insertHistory(ctx, payment)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `
		SELECT id, amount, currency, gateway, status, provider_transaction_id,
		       card_last4, card_brand, customer_email, failure_reason,
		       created_at, updated_at
		FROM payments WHERE id = $1
	`

	payment := &models.Payment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.Amount,
		&payment.Currency,
		&payment.Gateway,
		&payment.Status,
		&payment.ProviderTxnID,
		&payment.CardLast4,
		&payment.CardBrand,
		&payment.CustomerEmail,
		&payment.FailureReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	refunds, err := r.listRefunds(ctx, id)
	if err != nil {
		return nil, err
	}
	payment.Refunds = refunds

	history, err := r.listHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	payment.StatusHistory = history

	return payment, nil
}

func (r *PaymentRepository) AddRefund(ctx context.Context, refund *models.Refund) error {
	query := `
		INSERT INTO refunds (id, payment_id, provider_refund_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		refund.ID,
		refund.PaymentID,
		refund.ProviderRefundID,
		refund.Amount,
		refund.Reason,
		refund.CreatedAt,
	)
	return err
}

func (r *PaymentRepository) listRefunds(ctx context.Context, paymentID string) ([]models.Refund, error) {
	query := `
		SELECT id, payment_id, provider_refund_id, amount, reason, created_at
		FROM refunds WHERE payment_id = $1 ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []models.Refund
	for rows.Next() {
		var ref models.Refund
		if err := rows.Scan(&ref.ID, &ref.PaymentID, &ref.ProviderRefundID, &ref.Amount, &ref.Reason, &ref.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, ref)
	}
	return refunds, rows.Err()
}

func (r *PaymentRepository) listHistory(ctx context.Context, paymentID string) ([]models.StatusChange, error) {
	query := `
		SELECT status, note, at
		FROM payment_status_history WHERE payment_id = $1 ORDER BY at
	`
	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		if err := rows.Scan(&change.Status, &change.Note, &change.At); err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

func (r *PaymentRepository) insertHistory(ctx context.Context, payment *models.Payment) error {
	if len(payment.StatusHistory) == 0 {
		return nil
	}
	// Only the newest entry is unsaved; earlier entries were written on
	// prior Create/Update calls.
	return r.insertHistoryEntry(ctx, payment.ID, payment.StatusHistory[len(payment.StatusHistory)-1])
}

func (r *PaymentRepository) insertHistoryEntry(ctx context.Context, paymentID string, change models.StatusChange) error {
	query := `
		INSERT INTO payment_status_history (payment_id, status, note, at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, paymentID, change.Status, change.Note, change.At); err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
