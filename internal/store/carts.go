package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/sanli-cicek/internal/cart"
	"github.com/safar/sanli-cicek/internal/database"
)

// CartPersister stores cart sessions in the cart_sessions and cart_lines
// tables.
type CartPersister struct {
	DB *sql.DB
}

func NewCartPersister(db *sql.DB) *CartPersister {
	return &CartPersister{DB: db}
}

func (p *CartPersister) Load(ctx context.Context, sessionID string) (cart.Snapshot, error) {
	var snap cart.Snapshot

	if _, err := uuid.Parse(sessionID); err != nil {
		return snap, fmt.Errorf("invalid cart session %q: %w", sessionID, err)
	}

	err := p.DB.QueryRowContext(ctx,
		`SELECT coupon, updated_at FROM cart_sessions WHERE session_id = $1`,
		sessionID).Scan(&snap.Coupon, &snap.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return snap, nil
		}
		return snap, fmt.Errorf("get cart session: %w", err)
	}

	rows, err := p.DB.QueryContext(ctx,
		`SELECT product_id, name, price, image, quantity
		 FROM cart_lines
		 WHERE session_id = $1
		 ORDER BY position`,
		sessionID)
	if err != nil {
		return snap, fmt.Errorf("get cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line cart.Line
		if err := rows.Scan(&line.ID, &line.Name, &line.Price, &line.Image, &line.Quantity); err != nil {
			return snap, fmt.Errorf("scan cart line: %w", err)
		}
		snap.Lines = append(snap.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("rows error: %w", err)
	}

	return snap, nil
}

// Save replaces the stored cart of the session with snap.
func (p *CartPersister) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("invalid cart session %q: %w", sessionID, err)
	}

	return database.WithTransaction(ctx, p.DB, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cart_sessions (session_id, coupon, updated_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (session_id) DO UPDATE
			 SET coupon = EXCLUDED.coupon, updated_at = NOW()`,
			sessionID, snap.Coupon)
		if err != nil {
			return fmt.Errorf("upsert cart session: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}

		for i, line := range snap.Lines {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO cart_lines (session_id, product_id, name, price, image, quantity, position)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				sessionID, line.ID, line.Name, line.Price, line.Image, line.Quantity, i)
			if err != nil {
				return fmt.Errorf("insert cart line: %w", err)
			}
		}

		return nil
	})
}
