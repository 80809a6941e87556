// Package sweep settles tasks whose deadline passed without proof.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/ledger"
	"github.com/yuirsilva/deadline-daddy/internal/lock"
	"github.com/yuirsilva/deadline-daddy/internal/metrics"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/notify"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
	"github.com/yuirsilva/deadline-daddy/internal/tasks"
)

const (
	lockName        = "deadline-sweep"
	defaultPageSize = 100
	defaultLockTTL  = 5 * time.Minute
)

// ErrAlreadyRunning is returned when another sweep holds the lock.
var ErrAlreadyRunning = errors.New("deadline sweep already running")

// Result describes one task failed by a sweep.
type Result struct {
	TaskID         string `json:"taskId"`
	UserID         int64  `json:"userId"`
	Penalty        int64  `json:"penalty"`
	PlatformFee    int64  `json:"platformFee"`
	PreviousStreak int    `json:"previousStreak"`
}

// Summary is returned by Run. Skipped counts candidates that were no longer
// pending when their transaction ran; Errors counts tasks left for the next run.
type Summary struct {
	Processed int      `json:"processed"`
	Results   []Result `json:"results"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
}

// Config tunes a Sweeper.
type Config struct {
	FeePercent int
	PageSize   int
	LockTTL    time.Duration
}

// Sweeper finds expired PENDING tasks and fails them one transaction at a time.
type Sweeper struct {
	store    storage.Store
	notifier *notify.Dispatcher
	locker   lock.Locker
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Sweeper. A nil locker disables cross-process exclusion.
func New(store storage.Store, notifier *notify.Dispatcher, locker lock.Locker, cfg Config, log *zap.Logger) *Sweeper {
	if locker == nil {
		locker = lock.Noop{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Sweeper{store: store, notifier: notifier, locker: locker, cfg: cfg, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run performs one sweep. It is safe to call concurrently and repeatedly: a
// task is only failed if it is still PENDING inside its own transaction.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{Results: []Result{}}

	release, err := s.locker.Acquire(ctx, lockName, s.cfg.LockTTL)
	switch {
	case errors.Is(err, lock.ErrHeld):
		metrics.SweepRuns.WithLabelValues("locked").Inc()
		return summary, ErrAlreadyRunning
	case err != nil:
		s.log.Warn("sweep lock unavailable, continuing without it", zap.Error(err))
	default:
		defer release()
	}

	now := s.now().UTC()
	after := ""
	for {
		ids, err := s.store.ExpiredTaskIDs(ctx, now, after, s.cfg.PageSize)
		if err != nil {
			metrics.SweepRuns.WithLabelValues("error").Inc()
			return summary, fmt.Errorf("list expired tasks: %w", err)
		}

		for _, id := range ids {
			after = id
			if err := ctx.Err(); err != nil {
				metrics.SweepRuns.WithLabelValues("error").Inc()
				return summary, err
			}
			s.settle(ctx, id, now, &summary)
		}

		if len(ids) < s.cfg.PageSize {
			break
		}
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.log.Info("deadline sweep finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Duration("took", time.Since(start)))
	return summary, nil
}

// settle fails one task and records the outcome; errors never escape so one
// bad task cannot abort the batch.
func (s *Sweeper) settle(ctx context.Context, id string, now time.Time, summary *Summary) {
	failed, err := s.failTask(ctx, id, now)
	switch {
	case errors.Is(err, errSkip):
		summary.Skipped++
		metrics.SweepTasks.WithLabelValues("skipped").Inc()
		return
	case err != nil:
		summary.Errors++
		metrics.SweepTasks.WithLabelValues("error").Inc()
		s.log.Error("failing expired task", zap.String("task_id", id), zap.Error(err))
		return
	}

	summary.Processed++
	summary.Results = append(summary.Results, Result{
		TaskID:         failed.task.ID,
		UserID:         failed.task.UserID,
		Penalty:        failed.task.Penalty,
		PlatformFee:    ledger.PlatformFee(failed.task.Penalty, s.cfg.FeePercent),
		PreviousStreak: failed.previousStreak,
	})
	metrics.SweepTasks.WithLabelValues("failed").Inc()
	metrics.PenaltiesCharged.Add(float64(failed.task.Penalty))
	s.log.Info("task failed",
		zap.String("task_id", failed.task.ID),
		zap.Int64("user_id", failed.task.UserID),
		zap.Int64("penalty", failed.task.Penalty),
		zap.Int64("balance", failed.balance))

	if s.notifier != nil {
		s.notifier.TaskFailed(ctx, failed.subscription, failed.task, failed.previousStreak)
	}
}

var errSkip = errors.New("task no longer expired")

type failure struct {
	task           models.Task
	previousStreak int
	balance        int64
	subscription   string
}

// failTask applies the FAILED transition, the penalty debit, the streak reset
// and the penalty payment as one unit.
func (s *Sweeper) failTask(ctx context.Context, id string, now time.Time) (failure, error) {
	var out failure
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		task, err := tx.TaskForUpdate(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return errSkip
		}
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if !task.Expired(now) || !tasks.CanTransition(task.Status, models.TaskFailed) {
			return errSkip
		}

		user, err := tx.UserForUpdate(ctx, task.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		task.Status = models.TaskFailed
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("fail task: %w", err)
		}
		balance, err := ledger.Debit(ctx, tx, user.ID, task.Penalty)
		if err != nil {
			return fmt.Errorf("debit penalty: %w", err)
		}
		if err := tx.UpdateStreaks(ctx, user.ID, 0, user.LongestStreak); err != nil {
			return fmt.Errorf("reset streak: %w", err)
		}
		err = tx.InsertPayment(ctx, models.Payment{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			TaskID:    task.ID,
			Amount:    task.Penalty,
			Type:      models.PaymentPenalty,
			Status:    models.PaymentCompleted,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("record penalty: %w", err)
		}

		out = failure{task: task, previousStreak: user.CurrentStreak, balance: balance, subscription: user.PushSubscription}
		return nil
	})
	return out, err
}

// Loop runs the sweep every interval until ctx is cancelled.
func (s *Sweeper) Loop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) && ctx.Err() == nil {
			s.log.Error("deadline sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
