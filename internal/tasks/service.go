// Package tasks implements the task lifecycle: creation, proof submission and deletion.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/yuirsilva/deadline-daddy/internal/ledger"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/notify"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// CreateInput is a validated-at-the-boundary task creation request.
type CreateInput struct {
	Title       string
	Description string
	Deadline    time.Time
	Penalty     int64
}

// Completion is the result of a successful proof submission.
type Completion struct {
	Task          models.Task
	CurrentStreak int
	LongestStreak int
	Message       string
	Milestone     string
}

// Service owns the task state machine.
type Service struct {
	store   storage.Store
	penalty ledger.Limits
	roaster *notify.Roaster
	log     *zap.Logger
	now     func() time.Time
}

// NewService constructs the task service.
func NewService(store storage.Store, penalty ledger.Limits, roaster *notify.Roaster, log *zap.Logger) *Service {
	if roaster == nil {
		roaster = notify.NewRoaster(nil)
	}
	return &Service{store: store, penalty: penalty, roaster: roaster, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates the input and stores a PENDING task. The balance check is
// advisory: nothing is reserved.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (models.Task, error) {
	now := s.now().UTC()

	title := norm.NFC.String(strings.TrimSpace(in.Title))
	if title == "" {
		return models.Task{}, models.Invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return models.Task{}, models.Invalid("title", "must be at most %d characters", MaxTitleLength)
	}
	description := norm.NFC.String(strings.TrimSpace(in.Description))
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return models.Task{}, models.Invalid("description", "must be at most %d characters", MaxDescriptionLength)
	}
	if in.Deadline.IsZero() {
		return models.Task{}, models.Invalid("deadline", "is required")
	}
	if !in.Deadline.After(now) {
		return models.Task{}, models.Invalid("deadline", "must be in the future")
	}
	if err := s.penalty.Check("penalty", in.Penalty); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Deadline:    in.Deadline.UTC(),
		Penalty:     in.Penalty,
		Status:      models.TaskPending,
		CreatedAt:   now,
	}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.ErrUnauthorized
			}
			return fmt.Errorf("load user: %w", err)
		}
		if err := ledger.RequireFunds(user.Balance, in.Penalty); err != nil {
			return err
		}
		return tx.InsertTask(ctx, task)
	})
	if err != nil {
		return models.Task{}, err
	}

	s.log.Info("task created",
		zap.String("task_id", task.ID),
		zap.Int64("user_id", userID),
		zap.Int64("penalty", task.Penalty),
		zap.Time("deadline", task.Deadline))
	return task, nil
}

// Get returns a task owned by userID.
func (s *Service) Get(ctx context.Context, userID int64, id string) (models.Task, error) {
	return s.store.TaskByID(ctx, userID, id)
}

// List returns the user's tasks, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.store.ListTasks(ctx, userID)
}

// SubmitProof completes a pending task and advances the owner's streak in one
// transaction. The task row is locked before the user row, matching the sweep.
func (s *Service) SubmitProof(ctx context.Context, userID int64, id, proofURL string) (Completion, error) {
	proofURL = strings.TrimSpace(proofURL)
	if err := validateProofURL(proofURL); err != nil {
		return Completion{}, err
	}

	var out Completion
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		task, err := tx.TaskForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if task.UserID != userID {
			return storage.ErrNotFound
		}
		if !CanTransition(task.Status, models.TaskCompleted) {
			return models.ErrTaskFinalized
		}

		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		now := s.now().UTC()
		task.Status = models.TaskCompleted
		task.ProofURL = proofURL
		task.CompletedAt = &now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("complete task: %w", err)
		}

		current := user.CurrentStreak + 1
		longest := max(user.LongestStreak, current)
		if err := tx.UpdateStreaks(ctx, userID, current, longest); err != nil {
			return fmt.Errorf("update streaks: %w", err)
		}

		out = Completion{Task: task, CurrentStreak: current, LongestStreak: longest}
		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	out.Message = s.roaster.Success()
	if milestone, ok := notify.Milestone(out.CurrentStreak); ok {
		out.Milestone = milestone
	}
	s.log.Info("task completed",
		zap.String("task_id", out.Task.ID),
		zap.Int64("user_id", userID),
		zap.Int("current_streak", out.CurrentStreak))
	return out, nil
}

// Delete removes a task that is still PENDING.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.store.InTx(ctx, func(tx storage.Tx) error {
		task, err := tx.TaskForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if task.UserID != userID {
			return storage.ErrNotFound
		}
		if task.Status != models.TaskPending {
			return models.ErrTaskFinalized
		}
		return tx.DeleteTask(ctx, id)
	})
}

func validateProofURL(raw string) error {
	if raw == "" {
		return models.Invalid("proofUrl", "is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Invalid("proofUrl", "must be an http(s) URL")
	}
	return nil
}
