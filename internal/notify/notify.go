// Package notify delivers best-effort push notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/metrics"
	"github.com/yuirsilva/deadline-daddy/internal/models"
)

const (
	defaultIcon  = "/icon-192x192.png"
	defaultBadge = "/badge-72x72.png"
	defaultURL   = "/dashboard"
)

// ErrNoSubscription is returned when the user never subscribed to push.
var ErrNoSubscription = errors.New("no push subscription")

// Message is what the user sees on the device.
type Message struct {
	Title string
	Body  string
	URL   string
}

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	URL   string `json:"url"`
}

// Payload encodes msg the way the service worker expects it.
func Payload(msg Message) ([]byte, error) {
	url := msg.URL
	if url == "" {
		url = defaultURL
	}
	return json.Marshal(payload{Title: msg.Title, Body: msg.Body, Icon: defaultIcon, Badge: defaultBadge, URL: url})
}

// Notifier sends a message to an opaque subscription handle.
type Notifier interface {
	Send(ctx context.Context, subscription string, msg Message) error
}

// Noop drops every message. Used when VAPID keys are not configured.
type Noop struct{}

func (Noop) Send(context.Context, string, Message) error { return nil }

// WebPush delivers through the Web Push protocol with VAPID authentication.
type WebPush struct {
	publicKey  string
	privateKey string
	subject    string
	client     *http.Client
}

// NewWebPush builds a WebPush notifier.
func NewWebPush(publicKey, privateKey, subject string) *WebPush {
	return &WebPush{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send decodes the stored browser subscription and pushes msg to it.
func (w *WebPush) Send(ctx context.Context, subscription string, msg Message) error {
	if subscription == "" {
		return ErrNoSubscription
	}
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscription), &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	body, err := Payload(msg)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &sub, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.subject,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             60 * 60 * 24,
	})
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push: endpoint responded %d", resp.StatusCode)
	}
	return nil
}

// Dispatcher composes domain notifications and swallows delivery failures.
type Dispatcher struct {
	notifier Notifier
	roaster  *Roaster
	log      *zap.Logger
}

// NewDispatcher wires a notifier with the roast catalogue.
func NewDispatcher(n Notifier, r *Roaster, log *zap.Logger) *Dispatcher {
	if n == nil {
		n = Noop{}
	}
	if r == nil {
		r = NewRoaster(nil)
	}
	return &Dispatcher{notifier: n, roaster: r, log: log}
}

// FailureMessage builds the notification for a task that just failed.
// previousStreak is the streak the user held before the failure reset it.
func (d *Dispatcher) FailureMessage(task models.Task, previousStreak int) Message {
	body := d.roaster.Failure(task.Penalty)
	if previousStreak > 0 {
		body += "\n\n" + d.roaster.StreakBreak(previousStreak)
	}
	return Message{
		Title: "💀 " + task.Title,
		Body:  body,
		URL:   "/tarefa/" + task.ID,
	}
}

// TaskFailed notifies the owner of a failed task. It never returns an error;
// failures are logged and counted.
func (d *Dispatcher) TaskFailed(ctx context.Context, subscription string, task models.Task, previousStreak int) {
	if subscription == "" {
		return
	}
	msg := d.FailureMessage(task, previousStreak)
	if err := d.notifier.Send(ctx, subscription, msg); err != nil {
		metrics.PushNotifications.WithLabelValues("error").Inc()
		d.log.Warn("push notification failed",
			zap.String("task_id", task.ID),
			zap.Int64("user_id", task.UserID),
			zap.Error(err))
		return
	}
	metrics.PushNotifications.WithLabelValues("sent").Inc()
}
