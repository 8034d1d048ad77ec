package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/finance-ledger/internal/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Repository provides database operations
type Repository struct {
	db      *sql.DB
	dialect string
}

// NewRepository initializes a new repository on an open handle
func NewRepository(db *sql.DB, dialect string) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Open connects to the store, applies migrations and returns a repository
func Open(dialect, dsn string) (*Repository, error) {
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; transactions queue on the pool.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, err
	}

	return NewRepository(db, dialect), nil
}

// Close releases the underlying handle
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks that the store is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser inserts a user and fills in its id
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (name, balance, opening_balance, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, query),
		user.Name, user.Balance, user.OpeningBalance, user.PasswordHash, user.CreatedAt).
		Scan(&user.ID)
	if err != nil {
		return classify(err, "failed to create user")
	}
	return nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, rebind(r.dialect, selectUser+` WHERE id = ?`), id))
}

// FindUserByName retrieves a user by name
func (r *Repository) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, rebind(r.dialect, selectUser+` WHERE name = ?`), name))
}

// CreateCategory inserts a category and fills in its id
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, `INSERT INTO categories (name) VALUES (?) RETURNING id`),
		category.Name).Scan(&category.ID)
	if err != nil {
		return classify(err, "failed to create category")
	}
	return nil
}

// FindCategoryByID retrieves a category by id
func (r *Repository) FindCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, `SELECT id, name FROM categories WHERE id = ?`), id).
		Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(err, "failed to find category")
	}
	return category, nil
}

// DeleteCategory removes a category; records that referenced it keep a NULL category
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, rebind(r.dialect, `DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return classify(err, "failed to delete category")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}

// FindRecordByID retrieves a record with its category resolved
func (r *Repository) FindRecordByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `
		SELECT r.id, r.user_id, r.category_id, r.amount, r.is_expense, r.description, r.created_at,
		       c.id, c.name
		FROM records r
		LEFT JOIN categories c ON c.id = r.category_id
		WHERE r.id = ?`

	var (
		record       models.Record
		categoryRef  sql.NullInt64
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, query), id).Scan(
		&record.ID, &record.UserID, &categoryRef, &record.Amount, &record.IsExpense,
		&record.Description, &record.CreatedAt, &categoryID, &categoryName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify(err, "failed to find record")
	}

	if categoryRef.Valid {
		ref := categoryRef.Int64
		record.CategoryID = &ref
	}
	if categoryID.Valid {
		record.Category = &models.Category{ID: categoryID.Int64, Name: categoryName.String}
	}
	return &record, nil
}

const selectUser = `SELECT id, name, balance, opening_balance, password_hash, created_at FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Balance, &user.OpeningBalance, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, classify(err, "failed to find user")
	}
	return user, nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func driverName(dialect string) string {
	if dialect == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") || strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
