package services

import (
	"context"

	"github.com/sirupsen/logrus"
)

// WithFallback runs primary and, if it fails for any reason other than the
// caller giving up, runs secondary. The secondary outcome is returned as is.
func WithFallback[T any](
	ctx context.Context,
	logger *logrus.Logger,
	operation string,
	primary func(context.Context) (T, error),
	secondary func(context.Context) (T, error),
) (T, error) {
	result, err := primary(ctx)
	if err == nil {
		return result, nil
	}
	// the caller gave up; a primary with its own shorter deadline still falls back
	if ctx.Err() != nil {
		return result, err
	}

	logger.WithError(err).WithField("operation", operation).Warn("Primary path failed, using fallback")
	return secondary(ctx)
}
