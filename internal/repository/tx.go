package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Tx is a unit of work over a single user's balance and the rows it produces
type Tx struct {
	tx      *sql.Tx
	dialect string
}

// InTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error from fn rolls it back and is returned unchanged.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin transaction")
	}

	if err := fn(&Tx{tx: sqlTx, dialect: r.dialect}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classify(err, "failed to commit transaction")
	}
	return nil
}

// LockUser reads a user and holds its row until the transaction ends
func (t *Tx) LockUser(ctx context.Context, id int64) (*models.User, error) {
	query := selectUser + ` WHERE id = ?`
	if t.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	return scanUser(t.tx.QueryRowContext(ctx, rebind(t.dialect, query), id))
}

// UpdateBalance stores a new balance for the user
func (t *Tx) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, rebind(t.dialect, `UPDATE users SET balance = ? WHERE id = ?`), balance, userID)
	if err != nil {
		return classify(err, "failed to update balance")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// CategoryExists reports whether a category with the id is present
func (t *Tx) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := t.tx.QueryRowContext(ctx, rebind(t.dialect, `SELECT id FROM categories WHERE id = ?`), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err, "failed to check category")
	}
	return true, nil
}

// InsertRecord stores a record and fills in its id
func (t *Tx) InsertRecord(ctx context.Context, record *models.Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	var categoryID sql.NullInt64
	if record.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *record.CategoryID, Valid: true}
	}
	query := `
		INSERT INTO records (user_id, category_id, amount, is_expense, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := t.tx.QueryRowContext(ctx, rebind(t.dialect, query),
		record.UserID, categoryID, record.Amount, record.IsExpense, record.Description, record.CreatedAt).
		Scan(&record.ID)
	if err != nil {
		return classify(err, "failed to create record")
	}
	return nil
}

// InsertAdjustment stores a deposit or withdrawal entry and fills in its id
func (t *Tx) InsertAdjustment(ctx context.Context, adj *models.Adjustment) error {
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO adjustments (user_id, amount, kind, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	err := t.tx.QueryRowContext(ctx, rebind(t.dialect, query),
		adj.UserID, adj.Amount, adj.Kind, adj.CreatedAt).Scan(&adj.ID)
	if err != nil {
		return classify(err, "failed to create adjustment")
	}
	return nil
}
