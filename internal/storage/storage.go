package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store captures the persistence operations needed outside of a transaction.
type Store interface {
	// InTx runs fn inside one database transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, cellphone, taxID string) (models.User, error)
	SetPushSubscription(ctx context.Context, id int64, subscription string) error
	UserIDs(ctx context.Context) ([]int64, error)
	Stats(ctx context.Context, userID int64) (models.Stats, error)

	TaskByID(ctx context.Context, userID int64, id string) (models.Task, error)
	ListTasks(ctx context.Context, userID int64) ([]models.Task, error)
	// ExpiredTaskIDs returns up to limit ids of PENDING tasks whose deadline is
	// before now, ordered by id and strictly greater than afterID.
	ExpiredTaskIDs(ctx context.Context, now time.Time, afterID string, limit int) ([]string, error)

	// ListPayments returns the newest payments first; limit <= 0 returns all of them.
	ListPayments(ctx context.Context, userID int64, limit int) ([]models.Payment, error)

	Ping(ctx context.Context) error
	Close()
}

// Tx exposes row-locking reads and writes that must commit together.
type Tx interface {
	UserForUpdate(ctx context.Context, id int64) (models.User, error)
	TaskForUpdate(ctx context.Context, id string) (models.Task, error)
	PaymentByExternalIDForUpdate(ctx context.Context, externalID string) (models.Payment, error)

	InsertTask(ctx context.Context, task models.Task) error
	UpdateTask(ctx context.Context, task models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// AdjustBalance adds delta to the user's balance and returns the new balance.
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
	UpdateStreaks(ctx context.Context, userID int64, current, longest int) error

	InsertPayment(ctx context.Context, payment models.Payment) error
	// CompletePayment marks a payment COMPLETED and records the amount actually settled.
	CompletePayment(ctx context.Context, id string, amount int64) error
}
