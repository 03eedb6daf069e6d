package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SanjarHikmatov/unired-task/internal/models"
)

const cardColumns = `card_number, expire, phone, status, balance`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	var phone sql.NullString
	var status string
	if err := row.Scan(&card.CardNumber, &card.Expire, &phone, &status, &card.Balance); err != nil {
		return nil, err
	}
	card.Phone = phone.String
	card.Status = models.CardStatus(status)
	return card, nil
}

// GetCardByNumberAndExpiry retrieves a card by exact card number and expiry
func (r *Repository) GetCardByNumberAndExpiry(ctx context.Context, number, expire string) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_number = $1 AND expire = $2`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, number, expire))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// GetCardByNumber retrieves a card by card number
func (r *Repository) GetCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_number = $1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// UpsertCard creates a card or updates the card with the same number
func (r *Repository) UpsertCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (card_number, expire, phone, status, balance)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (card_number) DO UPDATE
		SET expire = EXCLUDED.expire,
			phone = EXCLUDED.phone,
			status = EXCLUDED.status,
			balance = EXCLUDED.balance`
	_, err := r.db.ExecContext(ctx, query,
		card.CardNumber,
		card.Expire,
		nullString(card.Phone),
		string(card.Status),
		card.Balance,
	)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// ListCards returns cards matching the filter ordered by card number
func (r *Repository) ListCards(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR card_number LIKE '%' || $2 || '%')
			AND ($3 = '' OR phone LIKE '%' || $3 || '%')
		ORDER BY card_number`

	rows, err := r.db.QueryContext(ctx, query, filter.Status, filter.CardNumber, filter.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return cards, nil
}

// CountCards returns the number of stored cards
func (r *Repository) CountCards(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
