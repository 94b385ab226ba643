// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/botcipher/cipherchat"
)

// staticLedger serves a fixed record set.
type staticLedger struct {
	order   []string
	records map[string]cipherchat.Record
}

func (l *staticLedger) ListIdentifiers(context.Context) ([]string, error) {
	return l.order, nil
}

func (l *staticLedger) GetRecord(_ context.Context, id string) (cipherchat.Record, error) {
	return l.records[id], nil
}

func (l *staticLedger) GetCiphertextHandle(context.Context, string) (ids.ID, error) {
	return ids.Empty, nil
}

func (l *staticLedger) IsAvailable(context.Context) (bool, error) {
	return true, nil
}

func (l *staticLedger) CreateRecord(context.Context, cipherchat.CreateRecordRequest) (cipherchat.PendingTx, error) {
	return nil, nil
}

func (l *staticLedger) SubmitDisclosure(context.Context, string, []byte, []byte) (cipherchat.PendingTx, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *cipherchat.StatusChannel) {
	t.Helper()

	ledger := &staticLedger{
		order: []string{"msg-1", "bot-2"},
		records: map[string]cipherchat.Record{
			"msg-1": {Name: "hello", Timestamp: 10, Creator: "0xABC", IsVerified: true, DecryptedValue: 5},
			"bot-2": {Name: "reply", Timestamp: 20, Creator: "0xABC"},
		},
	}

	repo := cipherchat.NewRepository(zap.NewNop(), ledger, nil)
	_, _, err := repo.Refresh(context.Background(), "0xABC")
	require.NoError(t, err)

	status := cipherchat.NewStatusChannel()

	mux := http.NewServeMux()
	NewServer(zap.NewNop(), repo, status).RegisterRoutes(mux)
	RegisterHealthCheck(mux, ledger)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, status
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServerMessages(t *testing.T) {
	require := require.New(t)
	server, _ := newTestServer(t)

	var messages []messageResponse
	getJSON(t, server.URL+MessagesPath, &messages)

	require.Len(messages, 2)
	require.Equal("msg-1", messages[0].ID)
	require.True(messages[0].IsUser)
	require.NotNil(messages[0].DecryptedValue)
	require.Equal(uint64(5), *messages[0].DecryptedValue)

	// Unverified messages carry no decrypted value at all.
	require.False(messages[1].IsVerified)
	require.Nil(messages[1].DecryptedValue)
}

func TestServerStats(t *testing.T) {
	require := require.New(t)
	server, _ := newTestServer(t)

	var stats statsResponse
	getJSON(t, server.URL+StatsPath, &stats)

	require.Equal(2, stats.TotalMessages)
	require.Equal(1, stats.EncryptedMessages)
	require.Equal(1, stats.VerifiedMessages)
	require.Equal(float64(15), stats.AvgResponseTime)
}

func TestServerStatus(t *testing.T) {
	require := require.New(t)
	server, status := newTestServer(t)

	status.Set(cipherchat.StatusPending, "Encrypting message with Zama FHE...")

	var current statusResponse
	getJSON(t, server.URL+StatusPath, &current)

	require.True(current.Visible)
	require.Equal("pending", current.Status)
	require.Equal("Encrypting message with Zama FHE...", current.Message)
}

func TestServerHealth(t *testing.T) {
	require := require.New(t)
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)
}

func TestServerMethodNotAllowed(t *testing.T) {
	require := require.New(t)
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+MessagesPath, "application/json", nil)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}
