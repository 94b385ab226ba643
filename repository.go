// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/botcipher/cipherchat/metrics"
)

// Repository reconstructs the normalized in-memory message view from ledger
// reads. Ledger reads are the single source of truth: every refresh rebuilds
// the view wholesale and publishes messages and statistics in one snapshot
// swap, so readers never observe a message list alongside stale stats.
type Repository struct {
	logger  *zap.Logger
	store   LedgerStore
	metrics *metrics.LifecycleMetrics

	mu   sync.RWMutex
	view snapshot
}

type snapshot struct {
	messages []Message
	stats    ChatStats
}

func NewRepository(logger *zap.Logger, store LedgerStore, m *metrics.LifecycleMetrics) *Repository {
	return &Repository{
		logger:  logger,
		store:   store,
		metrics: m,
	}
}

// Refresh rebuilds the message view for the given session identity. The
// returned sequence preserves the ledger's enumeration order. Reconstruction
// is best-effort: an unreadable individual record is logged and skipped, and
// only a failed enumeration aborts the refresh.
func (r *Repository) Refresh(ctx context.Context, activeIdentity string) ([]Message, ChatStats, error) {
	start := time.Now()

	identifiers, err := r.store.ListIdentifiers(ctx)
	if err != nil {
		return nil, ChatStats{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	messages := make([]Message, 0, len(identifiers))
	for _, id := range identifiers {
		record, err := r.store.GetRecord(ctx, id)
		if err != nil {
			r.logger.Warn(
				"Skipping unreadable record",
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		// Responder records are submitted through the user's own wallet, so
		// the creator comparison alone would claim them; the id prefix marks
		// them as automated.
		isBot := strings.HasPrefix(id, botIDPrefix+"-")
		messages = append(messages, Message{
			ID:             id,
			Content:        record.Name,
			Timestamp:      record.Timestamp,
			IsUser:         record.Creator == activeIdentity && !isBot,
			IsVerified:     record.IsVerified,
			DecryptedValue: record.DecryptedValue,
		})
	}

	stats := ComputeStats(messages)

	r.mu.Lock()
	r.view = snapshot{messages: messages, stats: stats}
	r.mu.Unlock()

	r.metrics.ObserveRefreshLatency(time.Since(start))
	return messages, stats, nil
}

// Messages returns the published message view from the last refresh.
func (r *Repository) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, len(r.view.messages))
	copy(out, r.view.messages)
	return out
}

// Stats returns the statistics published with the last refresh.
func (r *Repository) Stats() ChatStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view.stats
}
