// Package sqlite implements storage.Store on an embedded SQLite database.
// It backs local development and the service tests; production runs on Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence. Timestamps are stored as unix
// milliseconds so range comparisons stay numeric.
type Store struct {
	db *sql.DB
}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates or opens the database at path (":memory:" for an ephemeral one)
// and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes every transaction, which is the isolation the
	// Tx contract relies on in place of row locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pragmas and the schema.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
		`CREATE TABLE IF NOT EXISTS users (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE,
			cellphone      TEXT,
			tax_id         TEXT,
			balance        INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			push_subscription TEXT,
			password_hash  TEXT NOT NULL,
			created_at     INTEGER NOT NULL,
			CHECK (current_streak >= 0 AND longest_streak >= current_streak)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			description  TEXT,
			deadline     INTEGER NOT NULL,
			penalty      INTEGER NOT NULL CHECK (penalty > 0),
			status       TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED')),
			proof_url    TEXT,
			completed_at INTEGER,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_deadline ON tasks(status, deadline)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id          TEXT PRIMARY KEY,
			user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			task_id     TEXT REFERENCES tasks(id) ON DELETE SET NULL,
			amount      INTEGER NOT NULL CHECK (amount > 0),
			type        TEXT NOT NULL CHECK (type IN ('DEPOSIT', 'PENALTY', 'WITHDRAWAL')),
			status      TEXT NOT NULL CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED')),
			external_id TEXT UNIQUE,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a transaction on the single pooled connection.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&txStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, cellphone, tax_id, balance, current_streak, longest_streak, push_subscription, password_hash, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, cellphone, tax_id, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, nullable(user.Cellphone), nullable(user.TaxID), user.PasswordHash, toMillis(createdAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return s.UserByID(ctx, id)
}

// UserByID fetches a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateProfile sets the identity fields the payment provider requires.
func (s *Store) UpdateProfile(ctx context.Context, id int64, cellphone, taxID string) (models.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET cellphone = ?, tax_id = ? WHERE id = ?`,
		nullable(cellphone), nullable(taxID), id)
	if err := affected(res, err); err != nil {
		return models.User{}, err
	}
	return s.UserByID(ctx, id)
}

// SetPushSubscription stores or clears (empty string) the push handle.
func (s *Store) SetPushSubscription(ctx context.Context, id int64, subscription string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET push_subscription = ? WHERE id = ?`, nullable(subscription), id)
	return affected(res, err)
}

// UserIDs lists every user id in ascending order.
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats aggregates the dashboard projection for one user.
func (s *Store) Stats(ctx context.Context, userID int64) (models.Stats, error) {
	const query = `
	SELECT u.balance, u.current_streak, u.longest_streak,
		(SELECT COUNT(*) FROM tasks t WHERE t.user_id = u.id AND t.status = 'PENDING'),
		(SELECT COUNT(*) FROM tasks t WHERE t.user_id = u.id AND t.status = 'COMPLETED'),
		(SELECT COUNT(*) FROM tasks t WHERE t.user_id = u.id AND t.status = 'FAILED'),
		(SELECT COALESCE(SUM(p.amount), 0) FROM payments p
			WHERE p.user_id = u.id AND p.type = 'PENALTY' AND p.status = 'COMPLETED')
	FROM users u
	WHERE u.id = ?`
	var st models.Stats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&st.Balance, &st.CurrentStreak, &st.LongestStreak,
		&st.Pending, &st.Completed, &st.Failed, &st.TotalLost,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stats{}, storage.ErrNotFound
	}
	return st, err
}

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	var cellphone, taxID, push sql.NullString
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &cellphone, &taxID, &user.Balance,
		&user.CurrentStreak, &user.LongestStreak, &push, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Cellphone = cellphone.String
	user.TaxID = taxID.String
	user.PushSubscription = push.String
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
