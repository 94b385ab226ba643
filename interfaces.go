// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"context"

	"github.com/luxfi/ids"
)

// EncryptedInput is a ciphertext payload plus its validity proof, produced by
// the encryption client for a (contract, identity, value) triple.
type EncryptedInput struct {
	Ciphertext []byte
	Proof      []byte
}

// EncryptionClient encrypts plaintext integers client-side. Implementations
// are stateless per call and must fail distinguishably on a malformed
// identity or an uninitialized encryption context.
type EncryptionClient interface {
	Encrypt(ctx context.Context, contractAddress, identity string, value uint64) (EncryptedInput, error)
}

// DecryptionResult maps ciphertext handles to their disclosed plaintext
// values.
type DecryptionResult struct {
	ClearValues map[ids.ID]uint64
}

// DisclosureFunc submits a disclosure transaction carrying the verifier's
// clear-value encodings and proof, returning the pending transaction.
type DisclosureFunc func(ctx context.Context, encodedClearValues, proof []byte) (PendingTx, error)

// DecryptionVerifier runs the interactive reveal protocol for a set of
// on-chain ciphertext handles. The verifier calls submit once it has produced
// clear-value encodings and a disclosure proof, and returns the disclosed
// values keyed by handle after the disclosure settles.
type DecryptionVerifier interface {
	VerifyDecryption(ctx context.Context, handles []ids.ID, contractAddress string, submit DisclosureFunc) (DecryptionResult, error)
}

// Receipt confirms that a submitted transaction has been durably committed by
// the ledger.
type Receipt struct {
	TxID        ids.ID
	BlockNumber uint64
}

// PendingTx is a submitted ledger write that settles asynchronously.
type PendingTx interface {
	// Await blocks until the transaction reaches finality or ctx is done.
	Await(ctx context.Context) (*Receipt, error)
}

// CreateRecordRequest carries everything a create-record transaction needs.
type CreateRecordRequest struct {
	ID         string
	Name       string
	Ciphertext []byte
	Proof      []byte

	// ClearValueEcho is the plaintext value sent in the clear alongside its
	// ciphertext, letting read paths short-circuit decryption for records
	// that are already verified.
	ClearValueEcho uint64

	TypeDiscriminant uint8
	Label            string
}

// LedgerStore is the key-value record store addressable by message
// identifier. Reads are synchronous; writes settle asynchronously and return
// a finality receipt through PendingTx.
type LedgerStore interface {
	ListIdentifiers(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, id string) (Record, error)
	GetCiphertextHandle(ctx context.Context, id string) (ids.ID, error)
	IsAvailable(ctx context.Context) (bool, error)
	CreateRecord(ctx context.Context, req CreateRecordRequest) (PendingTx, error)
	SubmitDisclosure(ctx context.Context, id string, encodedClearValues, proof []byte) (PendingTx, error)
}

// Session exposes the active wallet session. Connection loss is treated as a
// precondition failure; the orchestrator never attempts reconnection.
type Session interface {
	// ActiveIdentity returns the session's account identifier, or false if
	// no identity is available.
	ActiveIdentity() (string, bool)
	IsConnected() bool
}

// StaticSession is a Session with a fixed identity, used by the CLI and by
// tests. An empty identity reads as disconnected.
type StaticSession struct {
	Identity string
}

func (s StaticSession) ActiveIdentity() (string, bool) {
	return s.Identity, s.Identity != ""
}

func (s StaticSession) IsConnected() bool {
	return s.Identity != ""
}
