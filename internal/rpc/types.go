package rpc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ResponseContext is the slot a response was read at
type ResponseContext struct {
	Slot uint64 `json:"slot"`
}

// AccountData is the encoded data field of an account. Nodes return either
// a [data, encoding] pair or, for the legacy "binary" encoding, a bare
// base58 string.
type AccountData struct {
	Raw      string
	Encoding string
}

func (d *AccountData) UnmarshalJSON(b []byte) error {
	var pair []string
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("account data: expected [data, encoding], got %d elements", len(pair))
		}
		d.Raw, d.Encoding = pair[0], pair[1]
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	d.Raw, d.Encoding = s, "base58"
	return nil
}

// Bytes decodes the account data
func (d AccountData) Bytes() ([]byte, error) {
	switch d.Encoding {
	case "base64":
		return base64.StdEncoding.DecodeString(d.Raw)
	case "base58", "binary", "":
		return base58.Decode(d.Raw)
	default:
		return nil, fmt.Errorf("unsupported account encoding %q", d.Encoding)
	}
}

// AccountInfo is a single entry of a getMultipleAccounts response
type AccountInfo struct {
	Data       AccountData `json:"data"`
	Executable bool        `json:"executable"`
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	RentEpoch  uint64      `json:"rentEpoch"`
}

// MultipleAccountsResult holds one entry per requested key; missing
// accounts are null
type MultipleAccountsResult struct {
	Context ResponseContext `json:"context"`
	Value   []*AccountInfo  `json:"value"`
}

// MultipleAccountsResponse is the response from getMultipleAccounts
type MultipleAccountsResponse struct {
	Result *MultipleAccountsResult `json:"result"`
	Error  *RPCError               `json:"error"`
}

// SlotResponse is the response from getSlot
type SlotResponse struct {
	Result uint64    `json:"result"`
	Error  *RPCError `json:"error"`
}
