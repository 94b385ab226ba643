// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe provides the off-chain encryption and verified-decryption
// boundaries of the message lifecycle. The cryptographic scheme itself lives
// behind a relayer gateway; this package only speaks its HTTP surface and
// never sees key material.
package fhe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/botcipher/cipherchat"
)

const (
	inputProofPath    = "/v1/input-proof"
	publicDecryptPath = "/v1/public-decrypt"

	defaultRequestTimeout = 90 * time.Second
)

var (
	// ErrNotInitialized is returned when the gateway has no endpoint to talk
	// to. Distinguishable from protocol failures so callers can gate on it.
	ErrNotInitialized = errors.New("fhe gateway not initialized")

	// ErrBadIdentity is returned for identities that are not hex addresses.
	ErrBadIdentity = errors.New("malformed identity")
)

// Gateway is an HTTP client for a relayer gateway exposing input-proof
// encryption and public-decryption with proof of correctness. It implements
// both cipherchat.EncryptionClient and cipherchat.DecryptionVerifier.
type Gateway struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

func NewGateway(logger *zap.Logger, baseURL string) *Gateway {
	return &Gateway{
		logger:  logger,
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

type inputProofRequest struct {
	ContractAddress string `json:"contractAddress"`
	UserAddress     string `json:"userAddress"`
	Value           uint64 `json:"value"`
}

type inputProofResponse struct {
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

// Encrypt produces a ciphertext payload and validity proof for value, bound
// to the target contract and the user identity. Stateless per call.
func (g *Gateway) Encrypt(
	ctx context.Context,
	contractAddress string,
	identity string,
	value uint64,
) (cipherchat.EncryptedInput, error) {
	if g == nil || g.baseURL == "" {
		return cipherchat.EncryptedInput{}, ErrNotInitialized
	}
	if !common.IsHexAddress(identity) {
		return cipherchat.EncryptedInput{}, fmt.Errorf("%w: %q", ErrBadIdentity, identity)
	}

	var resp inputProofResponse
	err := g.post(ctx, inputProofPath, inputProofRequest{
		ContractAddress: contractAddress,
		UserAddress:     identity,
		Value:           value,
	}, &resp)
	if err != nil {
		return cipherchat.EncryptedInput{}, err
	}
	return cipherchat.EncryptedInput{
		Ciphertext: resp.Ciphertext,
		Proof:      resp.Proof,
	}, nil
}

type publicDecryptRequest struct {
	Handles         []string `json:"handles"`
	ContractAddress string   `json:"contractAddress"`
}

type publicDecryptResponse struct {
	ClearValues        map[string]uint64 `json:"clearValues"`
	EncodedClearValues hexutil.Bytes     `json:"encodedClearValues"`
	Proof              hexutil.Bytes     `json:"proof"`
}

// VerifyDecryption runs the reveal protocol for the given handles: the
// gateway produces clear-value encodings and a disclosure proof, submit
// publishes them on-chain, and the disclosed values are returned keyed by
// handle once the disclosure transaction settles.
func (g *Gateway) VerifyDecryption(
	ctx context.Context,
	handles []ids.ID,
	contractAddress string,
	submit cipherchat.DisclosureFunc,
) (cipherchat.DecryptionResult, error) {
	if g == nil || g.baseURL == "" {
		return cipherchat.DecryptionResult{}, ErrNotInitialized
	}

	hexHandles := make([]string, len(handles))
	for i, h := range handles {
		hexHandles[i] = hexutil.Encode(h[:])
	}

	var resp publicDecryptResponse
	err := g.post(ctx, publicDecryptPath, publicDecryptRequest{
		Handles:         hexHandles,
		ContractAddress: contractAddress,
	}, &resp)
	if err != nil {
		return cipherchat.DecryptionResult{}, err
	}

	tx, err := submit(ctx, resp.EncodedClearValues, resp.Proof)
	if err != nil {
		return cipherchat.DecryptionResult{}, err
	}
	receipt, err := tx.Await(ctx)
	if err != nil {
		return cipherchat.DecryptionResult{}, err
	}
	g.logger.Debug(
		"Disclosure settled",
		zap.Stringer("txID", receipt.TxID),
		zap.Uint64("blockNumber", receipt.BlockNumber),
	)

	result := cipherchat.DecryptionResult{
		ClearValues: make(map[ids.ID]uint64, len(handles)),
	}
	for i, h := range handles {
		if value, ok := resp.ClearValues[hexHandles[i]]; ok {
			result.ClearValues[h] = value
		}
	}
	return result, nil
}

func (g *Gateway) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
