// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/botcipher/cipherchat"
)

const (
	testContract = "0x000000000000000000000000000000000000dEaD"
	testIdentity = "0x00000000000000000000000000000000000000AB"
)

type settledTx struct{}

func (settledTx) Await(context.Context) (*cipherchat.Receipt, error) {
	return &cipherchat.Receipt{BlockNumber: 1}, nil
}

func TestGatewayEncrypt(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		require := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(inputProofPath, r.URL.Path)

			var req inputProofRequest
			require.NoError(json.NewDecoder(r.Body).Decode(&req))
			require.Equal(testContract, req.ContractAddress)
			require.Equal(testIdentity, req.UserAddress)
			require.Equal(uint64(5), req.Value)

			json.NewEncoder(w).Encode(inputProofResponse{
				Ciphertext: hexutil.Bytes{0x01, 0x02},
				Proof:      hexutil.Bytes{0x03},
			})
		}))
		defer server.Close()

		g := NewGateway(zap.NewNop(), server.URL)
		input, err := g.Encrypt(context.Background(), testContract, testIdentity, 5)
		require.NoError(err)
		require.Equal([]byte{0x01, 0x02}, input.Ciphertext)
		require.Equal([]byte{0x03}, input.Proof)
	})

	t.Run("malformed identity", func(t *testing.T) {
		require := require.New(t)
		g := NewGateway(zap.NewNop(), "http://localhost:0")

		_, err := g.Encrypt(context.Background(), testContract, "not-an-address", 5)
		require.ErrorIs(err, ErrBadIdentity)
	})

	t.Run("uninitialized gateway", func(t *testing.T) {
		require := require.New(t)
		g := NewGateway(zap.NewNop(), "")

		_, err := g.Encrypt(context.Background(), testContract, testIdentity, 5)
		require.ErrorIs(err, ErrNotInitialized)
	})

	t.Run("gateway error surfaces body", func(t *testing.T) {
		require := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "context key rotation in progress", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		g := NewGateway(zap.NewNop(), server.URL)
		_, err := g.Encrypt(context.Background(), testContract, testIdentity, 5)
		require.Error(err)
		require.Contains(err.Error(), "context key rotation in progress")
	})
}

func TestGatewayVerifyDecryption(t *testing.T) {
	require := require.New(t)

	handle := ids.ID{0xAA}
	hexHandle := hexutil.Encode(handle[:])

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(publicDecryptPath, r.URL.Path)

		var req publicDecryptRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&req))
		require.Equal([]string{hexHandle}, req.Handles)

		json.NewEncoder(w).Encode(publicDecryptResponse{
			ClearValues:        map[string]uint64{hexHandle: 7},
			EncodedClearValues: hexutil.Bytes{0x07},
			Proof:              hexutil.Bytes{0x0F},
		})
	}))
	defer server.Close()

	g := NewGateway(zap.NewNop(), server.URL)

	var submittedClear, submittedProof []byte
	result, err := g.VerifyDecryption(
		context.Background(),
		[]ids.ID{handle},
		testContract,
		func(_ context.Context, clearValues, proof []byte) (cipherchat.PendingTx, error) {
			submittedClear = clearValues
			submittedProof = proof
			return settledTx{}, nil
		},
	)
	require.NoError(err)
	require.Equal([]byte{0x07}, submittedClear)
	require.Equal([]byte{0x0F}, submittedProof)
	require.Equal(uint64(7), result.ClearValues[handle])
}

func TestGatewayVerifyDecryptionSubmitFailure(t *testing.T) {
	require := require.New(t)

	handle := ids.ID{0xAA}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(publicDecryptResponse{
			ClearValues:        map[string]uint64{hexutil.Encode(handle[:]): 7},
			EncodedClearValues: hexutil.Bytes{0x07},
			Proof:              hexutil.Bytes{0x0F},
		})
	}))
	defer server.Close()

	g := NewGateway(zap.NewNop(), server.URL)
	_, err := g.VerifyDecryption(
		context.Background(),
		[]ids.ID{handle},
		testContract,
		func(context.Context, []byte, []byte) (cipherchat.PendingTx, error) {
			return nil, fmt.Errorf("execution reverted: Data already verified")
		},
	)
	require.Error(err)
	require.Contains(err.Error(), "already verified")
}
