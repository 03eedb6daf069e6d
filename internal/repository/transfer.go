package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/models"
)

const transferColumns = `ext_id, sender_card_number, sender_card_expiry, receiver_card_number,
	sender_phone, receiver_phone, sending_amount, currency, receiving_amount, state, otp,
	try_count, created_at, confirmed_at, cancelled_at, updated_at`

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	t := &models.Transfer{}
	var (
		senderPhone, receiverPhone, otp sql.NullString
		state                           string
		confirmedAt, cancelledAt        sql.NullTime
	)
	err := row.Scan(
		&t.ExtID,
		&t.SenderCardNumber,
		&t.SenderCardExpiry,
		&t.ReceiverCardNumber,
		&senderPhone,
		&receiverPhone,
		&t.SendingAmount,
		&t.Currency,
		&t.ReceivingAmount,
		&state,
		&otp,
		&t.TryCount,
		&t.CreatedAt,
		&confirmedAt,
		&cancelledAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.SenderPhone = senderPhone.String
	t.ReceiverPhone = receiverPhone.String
	t.OTP = otp.String
	t.State = models.TransferState(state)
	if confirmedAt.Valid {
		at := confirmedAt.Time
		t.ConfirmedAt = &at
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		t.CancelledAt = &at
	}
	return t, nil
}

// CreateTransfer inserts a new transfer
func (r *Repository) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO transfers (ext_id, sender_card_number, sender_card_expiry, receiver_card_number,
			sender_phone, receiver_phone, sending_amount, currency, receiving_amount, state, otp,
			try_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		t.ExtID,
		t.SenderCardNumber,
		t.SenderCardExpiry,
		t.ReceiverCardNumber,
		nullString(t.SenderPhone),
		nullString(t.ReceiverPhone),
		t.SendingAmount,
		t.Currency,
		t.ReceivingAmount,
		string(t.State),
		t.OTP,
		t.TryCount,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// GetTransferByExtID retrieves a transfer by its external id
func (r *Repository) GetTransferByExtID(ctx context.Context, extID string) (*models.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE ext_id = $1`
	t, err := scanTransfer(r.db.QueryRowContext(ctx, query, extID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transfer: %w", err)
	}
	return t, nil
}

// ExtIDExists reports whether a transfer with the external id exists
func (r *Repository) ExtIDExists(ctx context.Context, extID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transfers WHERE ext_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, extID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ext id: %w", err)
	}
	return exists, nil
}

// ConfirmTransfer moves a created transfer to confirmed when otp matches.
// It returns ErrStateConflict when the transfer left the created state or the otp differs.
func (r *Repository) ConfirmTransfer(ctx context.Context, extID, otp string, at time.Time) (*models.Transfer, error) {
	query := `
		UPDATE transfers
		SET state = 'confirmed', confirmed_at = $1, updated_at = $1
		WHERE ext_id = $2 AND state = 'created' AND otp = $3`
	return r.guardedUpdate(ctx, extID, query, at, extID, otp)
}

// RegisterFailedAttempt increments try_count of a created transfer and cancels it
// once maxAttempts is reached, in a single statement.
func (r *Repository) RegisterFailedAttempt(ctx context.Context, extID string, maxAttempts int, at time.Time) (*models.Transfer, error) {
	query := `
		UPDATE transfers
		SET try_count = try_count + 1,
			state = CASE WHEN try_count + 1 >= $1 THEN 'cancelled' ELSE state END,
			cancelled_at = CASE WHEN try_count + 1 >= $1 THEN $2 ELSE cancelled_at END,
			updated_at = $2
		WHERE ext_id = $3 AND state = 'created'`
	return r.guardedUpdate(ctx, extID, query, maxAttempts, at, extID)
}

// CancelTransfer moves a created transfer to cancelled
func (r *Repository) CancelTransfer(ctx context.Context, extID string, at time.Time) (*models.Transfer, error) {
	query := `
		UPDATE transfers
		SET state = 'cancelled', cancelled_at = $1, updated_at = $1
		WHERE ext_id = $2 AND state = 'created'`
	return r.guardedUpdate(ctx, extID, query, at, extID)
}

// CountTransfers returns the number of stored transfers
func (r *Repository) CountTransfers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}
	return count, nil
}

// guardedUpdate runs an UPDATE whose WHERE clause encodes the expected state
// and reads the row back in the same transaction. Placeholders must appear in
// numeric order for SQLite.
func (r *Repository) guardedUpdate(ctx context.Context, extID, query string, args ...any) (t *models.Transfer, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			t, err = nil, fmt.Errorf("cannot commit transaction: %w", commitErr)
		}
	}()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update transfer: %w", err)
	}
	if affected == 0 {
		return nil, ErrStateConflict
	}

	selectQuery := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE ext_id = $1`
	t, err = scanTransfer(tx.QueryRowContext(ctx, selectQuery, extID))
	if err != nil {
		return nil, fmt.Errorf("failed to read updated transfer: %w", err)
	}
	return t, nil
}
