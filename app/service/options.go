package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/events"

	"github.com/sirupsen/logrus"
)

type AsyncRunner func(task func())

type Option func(*base)

// base carries the collaborators every service shares.
type base struct {
	now         func() time.Time
	publisher   events.Publisher
	asyncRunner AsyncRunner
}

func newBase(opts []Option) base {
	b := base{
		now:       time.Now,
		publisher: events.NopPublisher{},
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(b *base) {
		if publisher != nil {
			b.publisher = publisher
		}
	}
}

func WithAsyncRunner(runner AsyncRunner) Option {
	return func(b *base) {
		if runner != nil {
			b.asyncRunner = runner
		}
	}
}

// publish never fails the caller; a dropped event is only logged.
func (b *base) publish(event events.AccountEvent) {
	b.asyncRunner(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.publisher.Publish(ctx, event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event_type": event.Type,
				"user_id":    event.UserID,
			}).Warn("Account event dropped")
		}
	})
}
