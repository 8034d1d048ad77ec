package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// LedgerTotals is the stored balance of a user next to the sums it is built from
type LedgerTotals struct {
	UserID         int64
	Name           string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Records        decimal.Decimal // income minus expenses
	Adjustments    decimal.Decimal // deposits minus withdrawals
}

// Expected is the balance implied by the opening balance and all entries
func (t LedgerTotals) Expected() decimal.Decimal {
	return t.OpeningBalance.Add(t.Records).Add(t.Adjustments)
}

// Totals reads every user with the sums of their records and adjustments.
// Amounts are summed in Go so SQLite text columns keep exact decimals.
func (r *Repository) Totals(ctx context.Context) ([]LedgerTotals, error) {
	opts := &sql.TxOptions{ReadOnly: true}
	if r.dialect == DialectPostgres {
		opts.Isolation = sql.LevelRepeatableRead
	} else {
		opts = nil
	}

	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, classify(err, "failed to begin snapshot")
	}
	defer tx.Rollback()

	var (
		totals []LedgerTotals
		index  = make(map[int64]int)
	)

	rows, err := tx.QueryContext(ctx, `SELECT id, name, balance, opening_balance FROM users ORDER BY id`)
	if err != nil {
		return nil, classify(err, "failed to list users")
	}
	for rows.Next() {
		var t LedgerTotals
		if err := rows.Scan(&t.UserID, &t.Name, &t.Balance, &t.OpeningBalance); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		index[t.UserID] = len(totals)
		totals = append(totals, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT user_id, amount, is_expense FROM records`)
	if err != nil {
		return nil, classify(err, "failed to list records")
	}
	for rows.Next() {
		var (
			userID    int64
			amount    decimal.Decimal
			isExpense bool
		)
		if err := rows.Scan(&userID, &amount, &isExpense); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if i, ok := index[userID]; ok {
			if isExpense {
				amount = amount.Neg()
			}
			totals[i].Records = totals[i].Records.Add(amount)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT user_id, amount FROM adjustments`)
	if err != nil {
		return nil, classify(err, "failed to list adjustments")
	}
	for rows.Next() {
		var (
			userID int64
			amount decimal.Decimal
		)
		if err := rows.Scan(&userID, &amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		if i, ok := index[userID]; ok {
			totals[i].Adjustments = totals[i].Adjustments.Add(amount)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return totals, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	return rows.Close()
}
