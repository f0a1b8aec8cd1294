package events

import (
	"context"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	minReconnectInterval = 5 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// TierChangeHandler reconciles one user's schedules after a tier change.
type TierChangeHandler interface {
	HandleTierChange(ctx context.Context, userID int64) error
}

// TierListener consumes tier-change events published by the billing
// database (a trigger on the subscriptions table runs pg_notify with the
// user ID as payload). Keeping the reconciler off the billing transaction's
// critical path is the point: the API response never waits on re-clamping.
type TierListener struct {
	listener *pq.Listener
	handler  TierChangeHandler
	logger   *logrus.Logger
	channel  string
}

func NewTierListener(dataSourceName, channel string, handler TierChangeHandler, logger *logrus.Logger) *TierListener {
	l := pq.NewListener(dataSourceName, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.WithError(err).Warn("Tier event listener connection event")
			}
		})
	return &TierListener{
		listener: l,
		handler:  handler,
		logger:   logger,
		channel:  channel,
	}
}

// Run listens until ctx is cancelled. Malformed payloads are logged and
// dropped; handler errors are logged and never stop the loop.
func (t *TierListener) Run(ctx context.Context) error {
	if err := t.listener.Listen(t.channel); err != nil {
		return err
	}
	defer t.listener.Close()

	t.logger.WithField("channel", t.channel).Info("Listening for tier-change events")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-t.listener.Notify:
			if n == nil {
				// Connection re-established; missed events are caught up by
				// the reconciler's idempotency on the next change.
				continue
			}
			userID, err := strconv.ParseInt(n.Extra, 10, 64)
			if err != nil {
				t.logger.WithField("payload", n.Extra).Warn("Dropping malformed tier-change payload")
				continue
			}
			if err := t.handler.HandleTierChange(ctx, userID); err != nil {
				t.logger.WithError(err).WithField("user_id", userID).
					Error("Tier reconciliation failed")
			}
		case <-time.After(pingInterval):
			if err := t.listener.Ping(); err != nil {
				t.logger.WithError(err).Warn("Tier event listener ping failed")
			}
		}
	}
}
