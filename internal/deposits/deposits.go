// Package deposits runs the inbound money path: checkout creation with the
// payment provider and idempotent settlement of its webhooks.
package deposits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/ledger"
	"github.com/yuirsilva/deadline-daddy/internal/metrics"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/notify"
	"github.com/yuirsilva/deadline-daddy/internal/payment"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

// WalletHistory is the number of payments shown on the wallet view.
const WalletHistory = 20

// Outcome classifies how a webhook was handled.
type Outcome string

const (
	OutcomeCredited  Outcome = "credited"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Wallet is the balance plus recent payment history.
type Wallet struct {
	Balance  int64
	Payments []models.Payment
}

// Mismatch is a user whose stored balance disagrees with their completed payments.
type Mismatch struct {
	UserID   int64 `json:"userId"`
	Balance  int64 `json:"balance"`
	Expected int64 `json:"expected"`
}

// Service creates deposits and settles them.
type Service struct {
	store    storage.Store
	provider payment.Provider
	limits   ledger.Limits
	appURL   string
	log      *zap.Logger
	now      func() time.Time
}

// NewService builds a deposit service. appURL is the public web app root used
// for checkout return links.
func NewService(store storage.Store, provider payment.Provider, limits ledger.Limits, appURL string, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		limits:   limits,
		appURL:   strings.TrimRight(appURL, "/"),
		log:      log,
		now:      time.Now,
	}
}

// WalletURL is where a user lands when no checkout could be produced.
func (s *Service) WalletURL() string {
	return s.appURL + "/carteira"
}

// Initiate asks the provider for a PIX checkout of amount and records a
// PENDING deposit keyed by the provider's billing id. When the provider
// answers without a billing id no record is written and the wallet URL is
// returned instead.
func (s *Service) Initiate(ctx context.Context, userID, amount int64) (string, error) {
	if err := s.limits.Check("amount", amount); err != nil {
		return "", err
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", models.ErrUnauthorized
		}
		return "", err
	}
	if !user.CanDeposit() {
		return "", models.ErrProfileIncomplete
	}

	billing, err := s.provider.CreateBilling(ctx, payment.BillingRequest{
		Reference:   fmt.Sprintf("deposit-%d-%s", user.ID, uuid.NewString()),
		Amount:      amount,
		Name:        "Depósito Deadline Daddy",
		Description: "Depósito de " + notify.FormatBRL(amount),
		Customer: payment.Customer{
			Name:      user.Name,
			Email:     user.Email,
			Cellphone: user.Cellphone,
			TaxID:     user.TaxID,
		},
		ReturnURL:     s.WalletURL(),
		CompletionURL: s.WalletURL() + "?deposito=sucesso",
	})
	if err != nil {
		metrics.DepositsInitiated.WithLabelValues("error").Inc()
		s.log.Error("create billing failed", zap.Int64("user_id", user.ID), zap.Int64("amount", amount), zap.Error(err))
		return "", err
	}

	if billing.ID == "" {
		metrics.DepositsInitiated.WithLabelValues("fallback").Inc()
		s.log.Warn("provider returned no billing id", zap.Int64("user_id", user.ID))
		return s.WalletURL(), nil
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPayment(ctx, models.Payment{
			ID:         uuid.NewString(),
			UserID:     user.ID,
			Amount:     amount,
			Type:       models.PaymentDeposit,
			Status:     models.PaymentPending,
			ExternalID: billing.ID,
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		metrics.DepositsInitiated.WithLabelValues("error").Inc()
		return "", fmt.Errorf("record deposit: %w", err)
	}

	metrics.DepositsInitiated.WithLabelValues("created").Inc()
	s.log.Info("deposit initiated",
		zap.Int64("user_id", user.ID),
		zap.Int64("amount", amount),
		zap.String("billing_id", billing.ID),
	)
	if billing.URL == "" {
		return s.WalletURL(), nil
	}
	return billing.URL, nil
}

// Reconcile applies a provider event. A paid event moves the matching
// PENDING deposit to COMPLETED and credits the amount the provider reports,
// both in one transaction. Replays of an already completed deposit are
// acknowledged without touching the balance. An unknown billing id yields
// storage.ErrNotFound.
func (s *Service) Reconcile(ctx context.Context, ev payment.Event) (Outcome, error) {
	if ev.Type != payment.EventPaid {
		metrics.DepositWebhooks.WithLabelValues(string(OutcomeIgnored)).Inc()
		return OutcomeIgnored, nil
	}
	if ev.BillingID == "" || ev.Amount <= 0 {
		metrics.DepositWebhooks.WithLabelValues("invalid").Inc()
		return "", models.Invalid("data", "billing id and positive amount are required")
	}

	outcome := OutcomeCredited
	var credited models.Payment
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		p, err := tx.PaymentByExternalIDForUpdate(ctx, ev.BillingID)
		if err != nil {
			return err
		}
		if p.Type != models.PaymentDeposit || p.Status != models.PaymentPending {
			if p.Status == models.PaymentCompleted {
				outcome = OutcomeDuplicate
			} else {
				outcome = OutcomeIgnored
			}
			return nil
		}
		if err := tx.CompletePayment(ctx, p.ID, ev.Amount); err != nil {
			return err
		}
		if _, err := ledger.Credit(ctx, tx, p.UserID, ev.Amount); err != nil {
			return err
		}
		credited = p
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.DepositWebhooks.WithLabelValues("unknown").Inc()
			s.log.Warn("webhook for unknown billing", zap.String("billing_id", ev.BillingID))
			return "", err
		}
		metrics.DepositWebhooks.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reconcile %s: %w", ev.BillingID, err)
	}

	metrics.DepositWebhooks.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case OutcomeCredited:
		if credited.Amount != ev.Amount {
			s.log.Warn("paid amount differs from requested deposit",
				zap.String("billing_id", ev.BillingID),
				zap.Int64("requested", credited.Amount),
				zap.Int64("paid", ev.Amount),
			)
		}
		s.log.Info("deposit credited",
			zap.Int64("user_id", credited.UserID),
			zap.String("billing_id", ev.BillingID),
			zap.Int64("amount", ev.Amount),
		)
	default:
		s.log.Info("webhook acknowledged without credit", zap.String("billing_id", ev.BillingID), zap.String("outcome", string(outcome)))
	}
	return outcome, nil
}

// Wallet returns the balance and the newest WalletHistory payments.
func (s *Service) Wallet(ctx context.Context, userID int64) (Wallet, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Wallet{}, models.ErrUnauthorized
		}
		return Wallet{}, err
	}
	payments, err := s.store.ListPayments(ctx, userID, WalletHistory)
	if err != nil {
		return Wallet{}, err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return Wallet{Balance: user.Balance, Payments: payments}, nil
}

// Audit compares every user's balance with the sum of their completed payments.
func (s *Service) Audit(ctx context.Context) ([]Mismatch, error) {
	ids, err := s.store.UserIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []Mismatch
	for _, id := range ids {
		user, err := s.store.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		payments, err := s.store.ListPayments(ctx, id, 0)
		if err != nil {
			return nil, err
		}
		if want := ledger.Expected(payments); want != user.Balance {
			out = append(out, Mismatch{UserID: id, Balance: user.Balance, Expected: want})
		}
	}
	return out, nil
}
