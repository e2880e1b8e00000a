package models

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
)

// AccountRecord is one raw account as persisted. Data is base64 in JSON.
type AccountRecord struct {
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
	Data     []byte `json:"data"`
}

// AccountSnapshot is the last set of raw accounts a market was updated
// from, kept so a restarted service can quote before its first fetch
type AccountSnapshot struct {
	Vault     string                   `json:"vault"`
	Slot      uint64                   `json:"slot"`
	FetchedAt time.Time                `json:"fetched_at"`
	Accounts  map[string]AccountRecord `json:"accounts"`
}

// NewAccountSnapshot copies accounts into a persistable snapshot
func NewAccountSnapshot(vault solana.PublicKey, slot uint64, fetchedAt time.Time, accounts amm.AccountMap) *AccountSnapshot {
	out := &AccountSnapshot{
		Vault:     vault.String(),
		Slot:      slot,
		FetchedAt: fetchedAt.UTC(),
		Accounts:  make(map[string]AccountRecord, len(accounts)),
	}
	for key, acc := range accounts {
		if acc == nil {
			continue
		}
		out.Accounts[key.String()] = AccountRecord{
			Lamports: acc.Lamports,
			Owner:    acc.Owner.String(),
			Data:     append([]byte(nil), acc.Data...),
		}
	}
	return out
}

// AccountMap converts the snapshot back into the form amm.Amm.Update takes
func (s *AccountSnapshot) AccountMap() (amm.AccountMap, error) {
	out := make(amm.AccountMap, len(s.Accounts))
	for k, rec := range s.Accounts {
		key, err := solana.PublicKeyFromBase58(k)
		if err != nil {
			return nil, fmt.Errorf("snapshot key %q: %w", k, err)
		}
		owner, err := solana.PublicKeyFromBase58(rec.Owner)
		if err != nil {
			return nil, fmt.Errorf("snapshot owner of %s: %w", k, err)
		}
		out[key] = &amm.Account{
			Lamports: rec.Lamports,
			Owner:    owner,
			Data:     append([]byte(nil), rec.Data...),
		}
	}
	return out, nil
}
