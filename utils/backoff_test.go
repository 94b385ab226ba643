package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithRetriesTimeout(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		require := require.New(t)

		attempts := 0
		err := WithRetriesTimeout(
			zap.NewNop(),
			func() error {
				attempts++
				if attempts < 3 {
					return errors.New("transient")
				}
				return nil
			},
			5*time.Second,
		)
		require.NoError(err)
		require.Equal(3, attempts)
	})

	t.Run("permanent errors stop retrying", func(t *testing.T) {
		require := require.New(t)

		attempts := 0
		err := WithRetriesTimeout(
			zap.NewNop(),
			func() error {
				attempts++
				return backoff.Permanent(errors.New("fatal"))
			},
			5*time.Second,
		)
		require.Error(err)
		require.Equal(1, attempts)
	})
}
