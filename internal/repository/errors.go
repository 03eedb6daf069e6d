package repository

import (
	"context"
	"fmt"

	"github.com/SanjarHikmatov/unired-task/internal/models"
)

// ListErrors returns every error catalog entry
func (r *Repository) ListErrors(ctx context.Context) ([]models.ErrorEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, en, ru, uz FROM errors ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var entries []models.ErrorEntry
	for rows.Next() {
		var e models.ErrorEntry
		if err := rows.Scan(&e.Code, &e.EN, &e.RU, &e.UZ); err != nil {
			return nil, fmt.Errorf("failed to scan error entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// InsertErrorIfAbsent stores an entry unless its code already exists.
// It reports whether a row was created.
func (r *Repository) InsertErrorIfAbsent(ctx context.Context, e models.ErrorEntry) (bool, error) {
	query := `
		INSERT INTO errors (code, en, ru, uz)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, e.Code, e.EN, e.RU, e.UZ)
	if err != nil {
		return false, fmt.Errorf("failed to insert error entry %d: %w", e.Code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert error entry %d: %w", e.Code, err)
	}
	return affected > 0, nil
}
