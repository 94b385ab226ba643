// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cipherchat orchestrates the lifecycle of FHE-encrypted chat
// messages exchanged between a user and an automated responder. Messages
// live in an on-chain ledger store; encryption and verified decryption are
// delegated to an off-chain gateway. The package owns the normalized message
// view, the creation/decryption state machines, and the transaction status
// channel surfaced to presentation layers.
package cipherchat

// Message is the normalized unit of conversation, reconstructed from ledger
// reads. Messages form an append-only log: no message is ever deleted or
// edited, identifiers are assigned once by the creator, and timestamps are
// set by the ledger at record creation.
type Message struct {
	// ID is assigned by the creator at submission time, not by the ledger.
	ID string

	// Content is stored as ledger metadata and is never encrypted.
	Content string

	// EncryptedValue is a slot reserved for a locally cached ciphertext
	// reference. It is never populated from ledger reads; reads reconstruct
	// meaning only through DecryptedValue and IsVerified.
	EncryptedValue uint64

	// Timestamp is the ledger-assigned creation time in unix seconds.
	Timestamp uint64

	// IsUser reports whether the record's creator equals the active session
	// identity. It is a view-dependent attribute, not stored on chain.
	IsUser bool

	// IsVerified becomes true once a decryption disclosure settles for this
	// record, and never reverts.
	IsVerified bool

	// DecryptedValue is meaningful only when IsVerified is true.
	DecryptedValue uint64
}

// Record is the raw per-identifier shape returned by ledger reads.
type Record struct {
	Name           string
	Timestamp      uint64
	Creator        string
	IsVerified     bool
	DecryptedValue uint64
}

// ChatStats is a pure projection over a message sequence. It holds no
// independent state and is recomputed from scratch on every refresh.
type ChatStats struct {
	TotalMessages     int
	EncryptedMessages int
	VerifiedMessages  int
	AvgResponseTime   float64
}

// ComputeStats projects statistics over messages: the total count, the count
// that went through the FHE path, the count that is both verified and
// disclosed to a nonzero value, and the mean timestamp.
func ComputeStats(messages []Message) ChatStats {
	stats := ChatStats{TotalMessages: len(messages)}
	var sum float64
	for _, m := range messages {
		if m.IsVerified {
			stats.EncryptedMessages++
			if m.DecryptedValue != 0 {
				stats.VerifiedMessages++
			}
		}
		sum += float64(m.Timestamp)
	}
	if len(messages) > 0 {
		stats.AvgResponseTime = sum / float64(len(messages))
	}
	return stats
}
