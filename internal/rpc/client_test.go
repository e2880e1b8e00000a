package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyA  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	keyB  = solana.MustPublicKeyFromBase58("star9agSpjiFe3M49B3RniVU4CMBBEK3Qnaqn3RGiFM")
	keyC  = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
	owner = solana.TokenProgramID
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(ClientConfig{
		BaseURL:      url,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Logger:       logger,
	})
}

func TestGetMultipleAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getMultipleAccounts", req.Method)

		var keys []string
		require.NoError(t, json.Unmarshal(req.Params[0], &keys))
		assert.Equal(t, []string{keyA.String(), keyB.String(), keyC.String()}, keys)

		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":4242},"value":[
			{"data":["`+base64.StdEncoding.EncodeToString([]byte{1, 2, 3})+`","base64"],"executable":false,"lamports":10,"owner":"`+owner.String()+`","rentEpoch":0},
			null,
			{"data":"`+base58.Encode([]byte{9, 8})+`","executable":false,"lamports":20,"owner":"`+owner.String()+`","rentEpoch":0}
		]}}`)
	}))
	defer srv.Close()

	accounts, slot, err := newTestClient(t, srv.URL).GetMultipleAccounts(context.Background(), []solana.PublicKey{keyA, keyB, keyC})
	require.NoError(t, err)
	assert.Equal(t, uint64(4242), slot)
	require.Len(t, accounts, 2)

	assert.Equal(t, []byte{1, 2, 3}, accounts[keyA].Data)
	assert.Equal(t, uint64(10), accounts[keyA].Lamports)
	assert.Equal(t, owner, accounts[keyA].Owner)
	assert.NotContains(t, accounts, keyB)
	assert.Equal(t, []byte{9, 8}, accounts[keyC].Data)
}

func TestGetMultipleAccounts_Chunks(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var keys []string
		require.NoError(t, json.Unmarshal(req.Params[0], &keys))

		values := make([]interface{}, len(keys))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 7},
				"value":   values,
			},
		})
	}))
	defer srv.Close()

	keys := make([]solana.PublicKey, MaxAccountsPerRequest+1)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
	}

	accounts, _, err := newTestClient(t, srv.URL).GetMultipleAccounts(context.Background(), keys)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetMultipleAccounts_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).GetMultipleAccounts(context.Background(), []solana.PublicKey{keyA})
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestGetMultipleAccounts_LengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[]}}`)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).GetMultipleAccounts(context.Background(), []solana.PublicKey{keyA})
	assert.ErrorContains(t, err, "asked for 1 accounts, got 0")
}

func TestCall_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":99}`)
	}))
	defer srv.Close()

	slot, err := newTestClient(t, srv.URL).GetSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(99), slot)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetSlot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetSlot(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccountData_Encodings(t *testing.T) {
	var d AccountData
	require.NoError(t, json.Unmarshal([]byte(`["AQI=","base64"]`), &d))
	b, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	require.NoError(t, json.Unmarshal([]byte(`["`+base58.Encode([]byte{5})+`","base58"]`), &d))
	b, err = d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{5}, b)

	require.NoError(t, json.Unmarshal([]byte(`["x","jsonParsed"]`), &d))
	_, err = d.Bytes()
	assert.Error(t, err)

	assert.Error(t, json.Unmarshal([]byte(`["only-one"]`), &d))
}
