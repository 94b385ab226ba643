// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/botcipher/cipherchat/cache"
	"github.com/botcipher/cipherchat/metrics"
)

const (
	messageIDPrefix = "msg"
	botIDPrefix     = "bot"

	createLabel      = "Encrypted Chat Message"
	botResponseLabel = "AI Bot Response"

	// DefaultBotDelay is how long the responder waits before replying to a
	// newly created message.
	DefaultBotDelay = time.Second

	// Ciphertext handles are immutable once written; the TTL only bounds
	// memory for identifiers that are never decrypted.
	handleCacheTTL = 10 * time.Minute
)

// OrchestratorConfig carries the collaborators of an Orchestrator.
type OrchestratorConfig struct {
	Logger          *zap.Logger
	Session         Session
	Encryptor       EncryptionClient
	Verifier        DecryptionVerifier
	Store           LedgerStore
	Repository      *Repository
	Status          *StatusChannel
	Metrics         *metrics.LifecycleMetrics
	ContractAddress string

	// BotDelay overrides DefaultBotDelay when positive.
	BotDelay time.Duration

	// OnComposeClosed, if set, is called after a successful creation so the
	// presentation layer can close any open composition state.
	OnComposeClosed func()
}

// Orchestrator drives the two lifecycle operations, creation and decryption,
// as short sequential state machines reported through the status channel. All
// failures are caught at this boundary and converted into a user-visible
// status; none propagate to the caller.
type Orchestrator struct {
	logger          *zap.Logger
	session         Session
	encryptor       EncryptionClient
	verifier        DecryptionVerifier
	store           LedgerStore
	repo            *Repository
	status          *StatusChannel
	metrics         *metrics.LifecycleMetrics
	contractAddress string
	botDelay        time.Duration
	onComposeClosed func()

	handles *cache.Cache[string, ids.ID]
	bots    sync.WaitGroup
	now     func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	botDelay := cfg.BotDelay
	if botDelay <= 0 {
		botDelay = DefaultBotDelay
	}
	return &Orchestrator{
		logger:          cfg.Logger,
		session:         cfg.Session,
		encryptor:       cfg.Encryptor,
		verifier:        cfg.Verifier,
		store:           cfg.Store,
		repo:            cfg.Repository,
		status:          cfg.Status,
		metrics:         cfg.Metrics,
		contractAddress: cfg.ContractAddress,
		botDelay:        botDelay,
		onComposeClosed: cfg.OnComposeClosed,
		handles:         cache.New[string, ids.ID](handleCacheTTL),
		now:             time.Now,
	}
}

// CreateMessage encrypts value, submits a create-record transaction, awaits
// finality, and schedules the responder sub-flow. It returns the identifier
// of the newly submitted message, or "" if the operation failed. Progress and
// failures are reported through the status channel.
func (o *Orchestrator) CreateMessage(ctx context.Context, content, rawValue string) string {
	identity, ok := o.activeIdentity()
	if !ok {
		o.status.Set(StatusError, "Please connect wallet first")
		o.metrics.MessageCreated(metrics.OutcomeFailure)
		return ""
	}

	value := parseValue(rawValue)
	id := fmt.Sprintf("%s-%d", messageIDPrefix, o.now().UnixMilli())

	o.status.Set(StatusPending, "Encrypting message with Zama FHE...")
	if err := o.submitRecord(ctx, identity, id, content, value, createLabel, true); err != nil {
		o.logger.Debug(
			"Message creation failed",
			zap.String("id", id),
			zap.Error(err),
		)
		if IsUserRejection(err) {
			o.status.Set(StatusError, "Transaction rejected by user")
			o.metrics.MessageCreated(metrics.OutcomeRejected)
		} else {
			o.status.Set(StatusError, "Submission failed: "+err.Error())
			o.metrics.MessageCreated(metrics.OutcomeFailure)
		}
		return ""
	}

	o.status.Set(StatusSuccess, "Message encrypted successfully!")
	o.metrics.MessageCreated(metrics.OutcomeSuccess)

	if _, _, err := o.repo.Refresh(ctx, identity); err != nil {
		o.logger.Warn("Refresh after creation failed", zap.Error(err))
	}
	if o.onComposeClosed != nil {
		o.onComposeClosed()
	}

	o.scheduleBotResponse(id, value, identity)
	return id
}

// DecryptMessage drives the reveal protocol for the given message and returns
// the disclosed integer. Repeated calls on an already-verified message are
// free: the stored value is returned without invoking the reveal protocol.
// The second return is false when no value could be produced; failures are
// reported through the status channel, never returned.
func (o *Orchestrator) DecryptMessage(ctx context.Context, id string) (uint64, bool) {
	identity, ok := o.activeIdentity()
	if !ok {
		o.status.Set(StatusError, "Please connect wallet first")
		o.metrics.Decryption(metrics.OutcomeFailure)
		return 0, false
	}

	record, err := o.store.GetRecord(ctx, id)
	if err != nil {
		o.status.Set(StatusError, "Decryption failed: "+err.Error())
		o.metrics.Decryption(metrics.OutcomeFailure)
		return 0, false
	}
	if record.IsVerified {
		o.status.Set(StatusSuccess, "Data already verified on-chain")
		o.metrics.Decryption(metrics.OutcomeSuccess)
		return record.DecryptedValue, true
	}

	handle, err := o.handles.GetOrFetch(id, func(id string) (ids.ID, error) {
		return o.store.GetCiphertextHandle(ctx, id)
	})
	if err != nil {
		o.status.Set(StatusError, "Decryption failed: "+err.Error())
		o.metrics.Decryption(metrics.OutcomeFailure)
		return 0, false
	}

	result, err := o.verifier.VerifyDecryption(
		ctx,
		[]ids.ID{handle},
		o.contractAddress,
		func(ctx context.Context, encodedClearValues, proof []byte) (PendingTx, error) {
			o.status.Set(StatusPending, "Verifying decryption on-chain...")
			return o.store.SubmitDisclosure(ctx, id, encodedClearValues, proof)
		},
	)
	if err != nil {
		if IsAlreadyVerified(err) {
			// Another actor disclosed this handle first. Not a failure:
			// surface success and let the refreshed view carry the value.
			o.status.Set(StatusSuccess, "Data is already verified on-chain")
			o.metrics.Decryption(metrics.OutcomeSuccess)
			if _, _, err := o.repo.Refresh(ctx, identity); err != nil {
				o.logger.Warn("Refresh after disclosure race failed", zap.Error(err))
			}
			return 0, false
		}
		o.status.Set(StatusError, "Decryption failed: "+err.Error())
		o.metrics.Decryption(metrics.OutcomeFailure)
		return 0, false
	}

	value, found := result.ClearValues[handle]
	if _, _, err := o.repo.Refresh(ctx, identity); err != nil {
		o.logger.Warn("Refresh after decryption failed", zap.Error(err))
	}
	o.status.Set(StatusSuccess, "Message decrypted successfully!")
	o.metrics.Decryption(metrics.OutcomeSuccess)
	return value, found
}

// CheckAvailability reads the ledger's availability flag and reports it
// through the status channel.
func (o *Orchestrator) CheckAvailability(ctx context.Context) {
	available, err := o.store.IsAvailable(ctx)
	if err != nil {
		o.status.Set(StatusError, "Availability check failed")
		return
	}
	if available {
		o.status.Set(StatusSuccess, "FHE System is available and ready!")
	}
}

// Wait blocks until all detached responder sub-flows have finished. Intended
// for graceful shutdown.
func (o *Orchestrator) Wait() {
	o.bots.Wait()
}

func (o *Orchestrator) activeIdentity() (string, bool) {
	if !o.session.IsConnected() {
		return "", false
	}
	return o.session.ActiveIdentity()
}

// submitRecord runs encrypt -> create-record -> await finality. When notify
// is set, the confirmation-wait status is reported; the responder sub-flow
// runs silently.
func (o *Orchestrator) submitRecord(
	ctx context.Context,
	identity string,
	id string,
	content string,
	value uint64,
	label string,
	notify bool,
) error {
	encrypted, err := o.encryptor.Encrypt(ctx, o.contractAddress, identity, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	tx, err := o.store.CreateRecord(ctx, CreateRecordRequest{
		ID:               id,
		Name:             content,
		Ciphertext:       encrypted.Ciphertext,
		Proof:            encrypted.Proof,
		ClearValueEcho:   value,
		TypeDiscriminant: 0,
		Label:            label,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	if notify {
		o.status.Set(StatusPending, "Waiting for transaction confirmation...")
	}
	if _, err := tx.Await(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	return nil
}

// scheduleBotResponse runs the responder sub-flow on a detached goroutine
// after the configured delay. The sub-flow is best-effort flavor text:
// failures are logged and swallowed, and never reach the status channel.
func (o *Orchestrator) scheduleBotResponse(originalID string, userValue uint64, identity string) {
	o.bots.Add(1)
	go func() {
		defer o.bots.Done()
		time.Sleep(o.botDelay)

		// Detached from the caller's context on purpose: the primary
		// operation already completed.
		ctx := context.Background()

		content, botValue := BotResponse(userValue)
		id := fmt.Sprintf("%s-%d", botIDPrefix, o.now().UnixMilli())

		if err := o.submitRecord(ctx, identity, id, content, botValue, botResponseLabel, false); err != nil {
			o.logger.Warn(
				"Bot response failed",
				zap.String("inReplyTo", originalID),
				zap.Error(err),
			)
			o.metrics.BotResponse(metrics.OutcomeFailure)
			return
		}
		o.metrics.BotResponse(metrics.OutcomeSuccess)

		if _, _, err := o.repo.Refresh(ctx, identity); err != nil {
			o.logger.Warn("Refresh after bot response failed", zap.Error(err))
		}
	}()
}

// parseValue coerces raw user input to a non-negative integer. Malformed
// input becomes zero rather than an error; upstream input controls are
// expected to constrain the field, and a missing value is a valid message.
func parseValue(raw string) uint64 {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
