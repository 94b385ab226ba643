// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/luxfi/crypto"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/ethclient"
)

// Client wraps an RPC endpoint with the narrow surface the store consumes.
// It implements Caller and ReceiptFetcher.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to the given RPC endpoint.
func Dial(ctx context.Context, rpcEndpoint string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	return &Client{eth: eth}, nil
}

func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.eth.TransactionReceipt(ctx, txHash)
}

func (c *Client) Close() {
	c.eth.Close()
}

// KeySender is a TxSender backed by a raw private key. The send path is
// serialized so concurrent submissions observe increasing nonces.
type KeySender struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	mu      sync.Mutex
}

// NewKeySender derives the sender from a hex-encoded private key, with or
// without the 0x prefix.
func NewKeySender(ctx context.Context, client *Client, hexKey string) (*KeySender, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	chainID, err := client.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return &KeySender{
		client:  client.eth,
		key:     key,
		address: common.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

// Address returns the sender's account address, which doubles as the session
// identity.
func (s *KeySender) Address() common.Address {
	return s.address
}

func (s *KeySender) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}
	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: s.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, to, common.Big0, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}
