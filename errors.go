// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package cipherchat

import (
	"errors"
	"strings"
)

var (
	// ErrNotConnected is returned when no wallet session or identity is
	// available.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrLoad is returned when the identifier enumeration call fails during
	// a repository refresh.
	ErrLoad = errors.New("failed to load messages")

	// ErrEncryption is returned when the encryption client fails.
	ErrEncryption = errors.New("encryption failed")

	// ErrSubmission is returned when a ledger write is rejected, including
	// user-rejected signing prompts.
	ErrSubmission = errors.New("submission failed")

	// ErrVerification is returned when the decryption verifier fails or the
	// disclosure transaction is rejected.
	ErrVerification = errors.New("verification failed")

	// ErrAlreadyVerified is returned when a disclosure races a concurrent
	// disclosure that settled first. Callers treat it as success.
	ErrAlreadyVerified = errors.New("data already verified")
)

// IsUserRejection reports whether err originates from the user declining the
// wallet signing prompt. Wallet surfaces expose this only through error text.
func IsUserRejection(err error) bool {
	return err != nil && strings.Contains(err.Error(), "user rejected")
}

// IsAlreadyVerified reports whether err indicates the record was concurrently
// marked verified by another actor. The ledger contract reports this through
// revert text, so the match is textual in addition to the sentinel.
func IsAlreadyVerified(err error) bool {
	if errors.Is(err, ErrAlreadyVerified) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "already verified")
}
