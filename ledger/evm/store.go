// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package evm implements the ledger store boundary against the BotCipher
// record contract on an EVM chain. Reads go through eth_call; writes are
// signed and submitted by a TxSender and reach finality when their receipt
// lands with a successful status.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/ids"
	"go.uber.org/zap"

	"github.com/botcipher/cipherchat"
	"github.com/botcipher/cipherchat/utils"
)

// ledgerABI is the surface of the record contract this client consumes.
const ledgerABI = `[
	{"type":"function","name":"getAllBusinessIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"function","name":"getBusinessData","stateMutability":"view","inputs":[{"name":"businessId","type":"string"}],"outputs":[{"name":"name","type":"string"},{"name":"timestamp","type":"uint256"},{"name":"creator","type":"address"},{"name":"isVerified","type":"bool"},{"name":"decryptedValue","type":"uint256"}]},
	{"type":"function","name":"getEncryptedValue","stateMutability":"view","inputs":[{"name":"businessId","type":"string"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"isAvailable","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"createBusinessData","stateMutability":"nonpayable","inputs":[{"name":"businessId","type":"string"},{"name":"name","type":"string"},{"name":"encryptedData","type":"bytes"},{"name":"inputProof","type":"bytes"},{"name":"value","type":"uint256"},{"name":"dataType","type":"uint8"},{"name":"label","type":"string"}],"outputs":[]},
	{"type":"function","name":"verifyDecryption","stateMutability":"nonpayable","inputs":[{"name":"businessId","type":"string"},{"name":"clearValues","type":"bytes"},{"name":"decryptionProof","type":"bytes"}],"outputs":[]}
]`

const defaultFinalityTimeout = 2 * time.Minute

var errTxReverted = errors.New("transaction reverted")

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// TxSender signs and broadcasts a transaction carrying calldata to the
// contract, returning its hash. Signing (and with it, user rejection) lives
// behind this boundary.
type TxSender interface {
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// ReceiptFetcher retrieves transaction receipts, erroring while the
// transaction is still pending.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Store implements cipherchat.LedgerStore over the record contract.
type Store struct {
	logger   *zap.Logger
	caller   Caller
	sender   TxSender
	receipts ReceiptFetcher
	contract common.Address
	abi      abi.ABI

	// FinalityTimeout bounds how long Await polls for a receipt.
	FinalityTimeout time.Duration
}

func NewStore(
	logger *zap.Logger,
	caller Caller,
	sender TxSender,
	receipts ReceiptFetcher,
	contract common.Address,
) (*Store, error) {
	parsed, err := abi.JSON(strings.NewReader(ledgerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger ABI: %w", err)
	}
	return &Store{
		logger:          logger,
		caller:          caller,
		sender:          sender,
		receipts:        receipts,
		contract:        contract,
		abi:             parsed,
		FinalityTimeout: defaultFinalityTimeout,
	}, nil
}

func (s *Store) ListIdentifiers(ctx context.Context) ([]string, error) {
	values, err := s.call(ctx, "getAllBusinessIds")
	if err != nil {
		return nil, err
	}
	identifiers, ok := values[0].([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected identifier list type %T", values[0])
	}
	return identifiers, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (cipherchat.Record, error) {
	values, err := s.call(ctx, "getBusinessData", id)
	if err != nil {
		return cipherchat.Record{}, err
	}
	if len(values) != 5 {
		return cipherchat.Record{}, fmt.Errorf("unexpected record arity %d", len(values))
	}

	timestamp, err := toUint64(values[1])
	if err != nil {
		return cipherchat.Record{}, fmt.Errorf("bad timestamp for %q: %w", id, err)
	}
	decryptedValue, err := toUint64(values[4])
	if err != nil {
		return cipherchat.Record{}, fmt.Errorf("bad decrypted value for %q: %w", id, err)
	}

	return cipherchat.Record{
		Name:           values[0].(string),
		Timestamp:      timestamp,
		Creator:        values[2].(common.Address).Hex(),
		IsVerified:     values[3].(bool),
		DecryptedValue: decryptedValue,
	}, nil
}

func (s *Store) GetCiphertextHandle(ctx context.Context, id string) (ids.ID, error) {
	values, err := s.call(ctx, "getEncryptedValue", id)
	if err != nil {
		return ids.Empty, err
	}
	handle, ok := values[0].([32]byte)
	if !ok {
		return ids.Empty, fmt.Errorf("unexpected handle type %T", values[0])
	}
	return ids.ID(handle), nil
}

func (s *Store) IsAvailable(ctx context.Context) (bool, error) {
	values, err := s.call(ctx, "isAvailable")
	if err != nil {
		return false, err
	}
	return values[0].(bool), nil
}

func (s *Store) CreateRecord(ctx context.Context, req cipherchat.CreateRecordRequest) (cipherchat.PendingTx, error) {
	return s.transact(
		ctx,
		"createBusinessData",
		req.ID,
		req.Name,
		req.Ciphertext,
		req.Proof,
		new(big.Int).SetUint64(req.ClearValueEcho),
		req.TypeDiscriminant,
		req.Label,
	)
}

func (s *Store) SubmitDisclosure(ctx context.Context, id string, encodedClearValues, proof []byte) (cipherchat.PendingTx, error) {
	return s.transact(ctx, "verifyDecryption", id, encodedClearValues, proof)
}

func (s *Store) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := s.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := s.caller.CallContract(ctx, s.contract, data)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	values, err := s.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return values, nil
}

func (s *Store) transact(ctx context.Context, method string, args ...interface{}) (cipherchat.PendingTx, error) {
	if s.sender == nil {
		return nil, errors.New("no transaction sender configured")
	}
	data, err := s.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	txHash, err := s.sender.SendTransaction(ctx, s.contract, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(
		"Submitted transaction",
		zap.String("method", method),
		zap.Stringer("txHash", txHash),
	)
	return &pendingTx{store: s, txHash: txHash}, nil
}

type pendingTx struct {
	store  *Store
	txHash common.Hash
}

// Await polls for the transaction receipt with exponential backoff until it
// lands or the finality timeout elapses. A reverted transaction fails
// immediately.
func (p *pendingTx) Await(ctx context.Context) (*cipherchat.Receipt, error) {
	var receipt *types.Receipt
	err := utils.WithRetriesTimeout(
		p.store.logger,
		func() error {
			r, err := p.store.receipts.TransactionReceipt(ctx, p.txHash)
			if err != nil {
				return err
			}
			if r.Status != types.ReceiptStatusSuccessful {
				return backoff.Permanent(errTxReverted)
			}
			receipt = r
			return nil
		},
		p.store.FinalityTimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("transaction %s not finalized: %w", p.txHash.Hex(), err)
	}

	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	return &cipherchat.Receipt{
		TxID:        ids.ID(p.txHash),
		BlockNumber: blockNumber,
	}, nil
}

func toUint64(value interface{}) (uint64, error) {
	b, ok := value.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected numeric type %T", value)
	}
	v, overflow := uint256.FromBig(b)
	if overflow || !v.IsUint64() {
		return 0, fmt.Errorf("value %s out of range", b)
	}
	return v.Uint64(), nil
}
