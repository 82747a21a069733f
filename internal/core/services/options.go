package services

import (
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Option configures the customer and auth services
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *slog.Logger
	lock     driven.DistributedLock
	lockWait time.Duration
	lockTTL  time.Duration
}

func defaultOptions() options {
	return options{
		now:      time.Now,
		logger:   slog.Default(),
		lockWait: 2 * time.Second,
		lockTTL:  10 * time.Second,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now, mainly for tests at exact expiry boundaries
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSignupLock serialises registrations per contact number across
// instances. wait bounds how long a signup queues behind another.
func WithSignupLock(lock driven.DistributedLock, wait time.Duration) Option {
	return func(o *options) {
		o.lock = lock
		if wait > 0 {
			o.lockWait = wait
		}
	}
}

// timestamp returns now in UTC at the precision PostgreSQL stores
func (o options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}

// storeError passes through domain errors and wraps everything else
func storeError(code string, err error, kv ...any) error {
	var coded *domain.Error
	if errors.Is(err, domain.ErrNotFound) || errors.As(err, &coded) {
		return err
	}
	return oops.Code(code).With(kv...).Wrap(err)
}
