// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexliesenfeld/health"

	"github.com/botcipher/cipherchat"
)

// RegisterHealthCheck reports healthy only while the ledger's FHE system is
// available.
func RegisterHealthCheck(mux *http.ServeMux, store cipherchat.LedgerStore) {
	healthChecker := health.NewChecker(
		health.WithCheck(health.Check{
			Name: "ledger-availability",
			Check: func(ctx context.Context) error {
				available, err := store.IsAvailable(ctx)
				if err != nil {
					return err
				}
				if !available {
					return errors.New("fhe system unavailable")
				}
				return nil
			},
		}),
	)

	mux.Handle("/health", health.NewHandler(healthChecker))
}
