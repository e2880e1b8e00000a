package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
)

// Client is a Solana JSON-RPC client with retry and timeout support
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
	nextID       atomic.Uint64
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// StatusError is a non-200 HTTP response from the node
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// retryable reports whether another attempt could succeed
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// Call sends one JSON-RPC request and decodes the envelope into result.
// Transport failures, 429 and 5xx are retried with exponential backoff.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	data, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      c.nextID.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).WithError(lastErr).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !retryable(err) {
				return fmt.Errorf("%s: %w", method, err)
			}
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("unmarshal %s response: %w", method, err)
		}
		return nil
	}

	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// MaxAccountsPerRequest is the node limit for getMultipleAccounts
const MaxAccountsPerRequest = 100

// GetMultipleAccounts fetches the given accounts with base64 encoding and
// returns those that exist. Missing accounts are left out of the map so
// the caller can report them by key.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) (amm.AccountMap, uint64, error) {
	accounts := make(amm.AccountMap, len(keys))
	var slot uint64

	for start := 0; start < len(keys); start += MaxAccountsPerRequest {
		end := start + MaxAccountsPerRequest
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		addrs := make([]string, len(chunk))
		for i, k := range chunk {
			addrs[i] = k.String()
		}
		params := []interface{}{
			addrs,
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		}

		var result MultipleAccountsResponse
		if err := c.Call(ctx, "getMultipleAccounts", params, &result); err != nil {
			return nil, 0, err
		}
		if result.Error != nil {
			return nil, 0, result.Error
		}
		if result.Result == nil {
			return nil, 0, fmt.Errorf("getMultipleAccounts: empty result")
		}
		if len(result.Result.Value) != len(chunk) {
			return nil, 0, fmt.Errorf("getMultipleAccounts: asked for %d accounts, got %d", len(chunk), len(result.Result.Value))
		}
		if result.Result.Context.Slot > slot {
			slot = result.Result.Context.Slot
		}

		for i, info := range result.Result.Value {
			if info == nil {
				continue
			}
			acc, err := info.toAccount()
			if err != nil {
				return nil, 0, fmt.Errorf("account %s: %w", chunk[i], err)
			}
			accounts[chunk[i]] = acc
		}
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(keys),
		"found":     len(accounts),
		"slot":      slot,
	}).Debug("fetched accounts")

	return accounts, slot, nil
}

// GetSlot returns the node's current confirmed slot
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	params := []interface{}{map[string]interface{}{"commitment": "confirmed"}}

	var result SlotResponse
	if err := c.Call(ctx, "getSlot", params, &result); err != nil {
		return 0, err
	}
	if result.Error != nil {
		return 0, result.Error
	}
	return result.Result, nil
}

func (info *AccountInfo) toAccount() (*amm.Account, error) {
	data, err := info.Data.Bytes()
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	owner, err := solana.PublicKeyFromBase58(info.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	return &amm.Account{
		Lamports: info.Lamports,
		Owner:    owner,
		Data:     data,
	}, nil
}
