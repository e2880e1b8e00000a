// Package venue hosts a single market adapter for a long-running service.
// The adapter itself is unsynchronised; Tracker serialises Update against
// readers and owns all I/O around it.
package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
)

// AccountFetcher loads raw accounts by key. Missing accounts are left out
// of the returned map.
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) (amm.AccountMap, uint64, error)
}

// TrackerConfig holds the dependencies of a Tracker. Snapshots, Journal and
// Publisher are optional.
type TrackerConfig struct {
	Market    *bankineco.Amm
	Fetcher   AccountFetcher
	Snapshots storage.SnapshotStore
	Journal   storage.QuoteJournal
	Publisher storage.MarketPublisher
	Logger    *logrus.Logger

	// IOTimeout bounds each store, journal and publish call
	IOTimeout time.Duration
}

// Info describes the tracked market
type Info struct {
	Label        string
	ProgramID    solana.PublicKey
	Key          solana.PublicKey
	ReserveMints []solana.PublicKey
	AccountsLen  int
	Active       bool
	Ready        bool
	Slot         uint64
	UpdatedAt    time.Time
	LastError    string
	Market       *bankineco.Market
}

// Tracker keeps one market adapter fresh and answers quotes from it
type Tracker struct {
	cfg    TrackerConfig
	logger *logrus.Logger

	mu        sync.RWMutex
	market    *bankineco.Amm
	slot      uint64
	updatedAt time.Time
	lastErr   error
}

func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.Market == nil {
		return nil, fmt.Errorf("market is nil")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("account fetcher is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = 3 * time.Second
	}
	return &Tracker{cfg: cfg, logger: cfg.Logger, market: cfg.Market}, nil
}

// Refresh fetches the tracked accounts and updates the market. The
// previous snapshot stays in use when the fetch or decode fails.
func (t *Tracker) Refresh(ctx context.Context) error {
	keys := t.market.GetAccountsToUpdate()

	accounts, slot, err := t.cfg.Fetcher.GetMultipleAccounts(ctx, keys)
	if err != nil {
		t.recordError(err)
		return fmt.Errorf("fetch accounts: %w", err)
	}

	applied, err := t.apply(accounts, slot, time.Now().UTC())
	if err != nil {
		return err
	}
	if applied {
		t.afterRefresh(ctx, accounts, slot)
	}
	return nil
}

// Warm loads the last stored snapshot so quotes can be served before the
// first successful fetch. It returns storage.ErrNotFound when there is none.
func (t *Tracker) Warm(ctx context.Context) error {
	if t.cfg.Snapshots == nil {
		return storage.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.IOTimeout)
	defer cancel()

	snap, err := t.cfg.Snapshots.LoadSnapshot(ctx, t.market.Key())
	if err != nil {
		return err
	}
	accounts, err := snap.AccountMap()
	if err != nil {
		return fmt.Errorf("warm start: %w", err)
	}
	if _, err := t.apply(accounts, snap.Slot, snap.FetchedAt); err != nil {
		return fmt.Errorf("warm start: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"vault":      t.market.Key(),
		"slot":       snap.Slot,
		"fetched_at": snap.FetchedAt,
	}).Info("market warmed from stored snapshot")
	return nil
}

// apply updates the market unless accounts predate the current snapshot
func (t *Tracker) apply(accounts amm.AccountMap, slot uint64, fetchedAt time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot < t.slot {
		t.logger.WithFields(logrus.Fields{
			"slot":    slot,
			"current": t.slot,
		}).Debug("ignoring accounts older than current snapshot")
		return false, nil
	}
	if err := t.market.Update(accounts); err != nil {
		t.lastErr = err
		return false, fmt.Errorf("update market: %w", err)
	}
	t.slot = slot
	t.updatedAt = fetchedAt
	t.lastErr = nil
	return true, nil
}

func (t *Tracker) recordError(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}

func (t *Tracker) afterRefresh(ctx context.Context, accounts amm.AccountMap, slot uint64) {
	vault := t.market.Key()

	if t.cfg.Snapshots != nil {
		sctx, cancel := context.WithTimeout(ctx, t.cfg.IOTimeout)
		snap := models.NewAccountSnapshot(vault, slot, time.Now(), accounts)
		if err := t.cfg.Snapshots.SaveSnapshot(sctx, snap); err != nil {
			t.logger.WithError(err).WithField("vault", vault).Warn("failed to store snapshot")
		}
		cancel()
	}

	if t.cfg.Publisher != nil {
		info := t.Info()
		ev := &models.MarketEvent{
			Vault:     vault.String(),
			Slot:      info.Slot,
			Active:    info.Active,
			UpdatedAt: info.UpdatedAt,
		}
		if m := info.Market; m != nil {
			ev.FeeBps = m.FeeBps
			ev.Rate = m.Rate
			ev.RateSource = string(m.RateSource)
			ev.StableReserve = m.StableReserve
			ev.YieldingReserve = m.YieldingReserve
		}

		pctx, cancel := context.WithTimeout(ctx, t.cfg.IOTimeout)
		if err := t.cfg.Publisher.PublishMarket(pctx, ev); err != nil {
			t.logger.WithError(err).WithField("vault", vault).Warn("failed to publish market update")
		}
		cancel()
	}
}

// Run refreshes once immediately and then every interval until ctx is done
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := t.Refresh(ctx); err != nil && ctx.Err() == nil {
			t.logger.WithError(err).WithField("vault", t.market.Key()).Warn("market refresh failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Quote prices params against the current snapshot and journals the
// result. The returned slot is the one the quote was priced at.
func (t *Tracker) Quote(ctx context.Context, params amm.QuoteParams) (*amm.Quote, uint64, error) {
	t.mu.RLock()
	q, err := t.market.Quote(params)
	slot := t.slot
	t.mu.RUnlock()
	if err != nil {
		return nil, slot, err
	}

	if t.cfg.Journal != nil {
		t.journal(ctx, params, q, slot)
	}
	return q, slot, nil
}

func (t *Tracker) journal(ctx context.Context, params amm.QuoteParams, q *amm.Quote, slot uint64) {
	dir, err := bankineco.DetermineDirection(params.InputMint, params.OutputMint)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.IOTimeout)
	defer cancel()

	ev := &models.QuoteEvent{
		Timestamp:   time.Now().UTC(),
		Vault:       t.market.Key().String(),
		Direction:   dir.String(),
		InputMint:   params.InputMint.String(),
		OutputMint:  params.OutputMint.String(),
		AmountIn:    q.InAmount,
		AmountOut:   q.OutAmount,
		FeeAmount:   q.FeeAmount,
		FeeMint:     q.FeeMint.String(),
		PriceImpact: q.PriceImpactPct.String(),
		Slot:        slot,
	}
	if err := t.cfg.Journal.InsertQuote(ctx, ev); err != nil {
		t.logger.WithError(err).Warn("failed to journal quote")
	}
}

// SwapAccounts builds the swap account list for params
func (t *Tracker) SwapAccounts(params amm.SwapParams) (*amm.SwapAndAccountMetas, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.market.GetSwapAndAccountMetas(params)
}

// Info reports market metadata and the state of the last refresh
func (t *Tracker) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info := Info{
		Label:        t.market.Label(),
		ProgramID:    t.market.ProgramID(),
		Key:          t.market.Key(),
		ReserveMints: t.market.GetReserveMints(),
		AccountsLen:  t.market.GetAccountsLen(),
		Active:       t.market.IsActive(),
		Ready:        t.market.HasSnapshot(),
		Slot:         t.slot,
		UpdatedAt:    t.updatedAt,
	}
	if t.lastErr != nil {
		info.LastError = t.lastErr.Error()
	}
	if m, ok := t.market.Market(); ok {
		info.Market = &m
	}
	return info
}

// IsStale reports whether the last successful update is older than maxAge
func (t *Tracker) IsStale(maxAge time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt.IsZero() || time.Since(t.updatedAt) > maxAge
}

