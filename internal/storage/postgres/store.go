package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users, tasks and payments.
type Store struct {
	pool *pgxpool.Pool
}

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			cellphone TEXT,
			tax_id TEXT,
			balance BIGINT NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			push_subscription TEXT,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_streak_check CHECK (current_streak >= 0 AND longest_streak >= current_streak)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			deadline TIMESTAMPTZ NOT NULL,
			penalty BIGINT NOT NULL CHECK (penalty > 0),
			status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED')),
			proof_url TEXT,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS tasks_user_idx ON tasks (user_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS tasks_status_deadline_idx ON tasks (status, deadline);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			task_id TEXT REFERENCES tasks(id) ON DELETE SET NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			type TEXT NOT NULL CHECK (type IN ('DEPOSIT', 'PENALTY', 'WITHDRAWAL')),
			status TEXT NOT NULL CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED')),
			external_id TEXT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS payments_user_idx ON payments (user_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a read-committed transaction; row locks taken by the Tx
// methods serialize writers touching the same task, payment or user.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&txStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, cellphone, tax_id, balance, current_streak, longest_streak, push_subscription, password_hash, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (name, email, cellphone, tax_id, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Name, user.Email, nullable(user.Cellphone), nullable(user.TaxID), user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// UserByID fetches a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpdateProfile sets the identity fields the payment provider requires.
func (s *Store) UpdateProfile(ctx context.Context, id int64, cellphone, taxID string) (models.User, error) {
	query := `UPDATE users SET cellphone = $2, tax_id = $3 WHERE id = $1 RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, nullable(cellphone), nullable(taxID)))
}

// SetPushSubscription stores or clears (empty string) the push handle.
func (s *Store) SetPushSubscription(ctx context.Context, id int64, subscription string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET push_subscription = $2 WHERE id = $1`, id, nullable(subscription))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UserIDs lists every user id in ascending order.
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
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
	WHERE u.id = $1;
	`
	var st models.Stats
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&st.Balance, &st.CurrentStreak, &st.LongestStreak,
		&st.Pending, &st.Completed, &st.Failed, &st.TotalLost,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Stats{}, storage.ErrNotFound
		}
		return models.Stats{}, err
	}
	return st, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var cellphone, taxID, push *string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &cellphone, &taxID, &user.Balance,
		&user.CurrentStreak, &user.LongestStreak, &push, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Cellphone = deref(cellphone)
	user.TaxID = deref(taxID)
	user.PushSubscription = deref(push)
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
