// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// WithRetriesTimeout uses an exponential backoff to run the operation until
// it succeeds, returns a permanent error, or the timeout limit is reached.
func WithRetriesTimeout(
	logger *zap.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, wait time.Duration) {
		logger.Debug(
			"Operation failed, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	}
	return backoff.RetryNotify(operation, expBackOff, notify)
}
