package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/config"
	"github.com/yuirsilva/deadline-daddy/internal/deposits"
	"github.com/yuirsilva/deadline-daddy/internal/ledger"
	"github.com/yuirsilva/deadline-daddy/internal/lock"
	"github.com/yuirsilva/deadline-daddy/internal/logger"
	"github.com/yuirsilva/deadline-daddy/internal/notify"
	"github.com/yuirsilva/deadline-daddy/internal/payment/abacatepay"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
	"github.com/yuirsilva/deadline-daddy/internal/storage/postgres"
	"github.com/yuirsilva/deadline-daddy/internal/storage/sqlite"
	"github.com/yuirsilva/deadline-daddy/internal/sweep"
	"github.com/yuirsilva/deadline-daddy/internal/tasks"
)

// app holds what every command needs: configuration, a logger and the store.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	store   storage.Store
	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, flush, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, closers: []func(){flush}}

	store, err := OpenStore(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStore picks a backend from the URL scheme: postgres:// or postgresql://
// for Postgres, sqlite://<path> or file:<path> for SQLite.
func OpenStore(ctx context.Context, url string) (storage.Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.New(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"):
		return sqlite.Open(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(url))
	}
}

func redact(url string) string {
	if scheme, _, ok := strings.Cut(url, "://"); ok {
		return scheme + "://..."
	}
	return "..."
}

func (a *app) locker() (lock.Locker, error) {
	if a.cfg.RedisURL == "" {
		return lock.Noop{}, nil
	}
	r, err := lock.NewRedis(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("init redis lock: %w", err)
	}
	a.closers = append(a.closers, func() { _ = r.Close() })
	return r, nil
}

func (a *app) notifier() notify.Notifier {
	if !a.cfg.PushEnabled() {
		a.log.Info("push notifications disabled: VAPID keys not configured")
		return notify.Noop{}
	}
	return notify.NewWebPush(a.cfg.VAPIDPublicKey, a.cfg.VAPIDPrivateKey, a.cfg.VAPIDSubject)
}

func (a *app) roaster() *notify.Roaster {
	return notify.NewRoaster(nil)
}

func (a *app) sweeper() (*sweep.Sweeper, error) {
	locker, err := a.locker()
	if err != nil {
		return nil, err
	}
	dispatcher := notify.NewDispatcher(a.notifier(), a.roaster(), a.log)
	return sweep.New(a.store, dispatcher, locker, sweep.Config{FeePercent: a.cfg.PlatformFeePercent}, a.log), nil
}

func (a *app) tasks() *tasks.Service {
	return tasks.NewService(a.store, ledger.Limits{Min: a.cfg.PenaltyMin, Max: a.cfg.PenaltyMax}, a.roaster(), a.log)
}

func (a *app) deposits() *deposits.Service {
	provider := abacatepay.NewClient(a.cfg.AbacatePayBaseURL, a.cfg.AbacatePayAPIKey)
	return deposits.NewService(a.store, provider, ledger.Limits{Min: a.cfg.DepositMin, Max: a.cfg.DepositMax}, a.cfg.AppURL, a.log)
}
