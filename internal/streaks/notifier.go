package streaks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type NotificationKind string

const (
	NotificationTokenSpent       NotificationKind = "token-spent"
	NotificationTokenAwarded     NotificationKind = "token-awarded"
	NotificationCreditEarned     NotificationKind = "credit-earned"
	NotificationCreditSpent      NotificationKind = "credit-spent"
	NotificationStreakReset      NotificationKind = "streak-reset"
	NotificationRescueNeeded     NotificationKind = "rescue-needed"
	NotificationInsufficient     NotificationKind = "insufficient-balance"
	NotificationIntegrityProblem NotificationKind = "integrity-problem"
)

// Notification is a user-visible message (a toast, in UI terms).
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	UserID  string           `json:"userId"`
	WeekID  string           `json:"weekId,omitempty"`
	Track   string           `json:"track,omitempty"`
	Message string           `json:"message"`
}

// Notifier delivers notifications. Delivery failures never roll back the state change
// that caused the notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.WithFields(log.Fields{
		"kind":  n.Kind,
		"user":  n.UserID,
		"week":  n.WeekID,
		"track": n.Track,
	}).Info(n.Message)
	return nil
}

// MultiNotifier fans a notification out to all notifiers, even if some of them fail.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs error
	for _, notifier := range m {
		errs = multierr.Append(errs, notifier.Notify(ctx, n))
	}
	return errs
}

const DefaultNotificationsChannel = "gymstreak-notifications"

// RedisNotifier publishes notifications as JSON, for any connected client to show them.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultNotificationsChannel
	}
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
	}
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
