package venue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco/bankinecotest"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
)

type fakeFetcher struct {
	mu       sync.Mutex
	accounts amm.AccountMap
	slot     uint64
	err      error
	calls    int
	lastKeys []solana.PublicKey
}

func (f *fakeFetcher) GetMultipleAccounts(_ context.Context, keys []solana.PublicKey) (amm.AccountMap, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKeys = keys
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.accounts.Clone(), f.slot, nil
}

func (f *fakeFetcher) set(accounts amm.AccountMap, slot uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts, f.slot, f.err = accounts, slot, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]*models.AccountSnapshot
}

func (m *memStore) SaveSnapshot(_ context.Context, snap *models.AccountSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = map[string]*models.AccountSnapshot{}
	}
	m.snaps[snap.Vault] = snap
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, vault solana.PublicKey) (*models.AccountSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[vault.String()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return snap, nil
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

type memJournal struct {
	mu     sync.Mutex
	quotes []*models.QuoteEvent
}

func (j *memJournal) InsertQuote(_ context.Context, q *models.QuoteEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.quotes = append(j.quotes, q)
	return nil
}

func (j *memJournal) Ping(context.Context) error { return nil }
func (j *memJournal) Close() error               { return nil }

type memPublisher struct {
	mu     sync.Mutex
	events []*models.MarketEvent
}

func (p *memPublisher) PublishMarket(_ context.Context, ev *models.MarketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func stableIn(amount uint64) amm.QuoteParams {
	return amm.QuoteParams{InputMint: constants.StableMint, OutputMint: constants.YieldingMint, Amount: amount}
}

func newTracker(t *testing.T, cfg TrackerConfig) *Tracker {
	t.Helper()
	if cfg.Market == nil {
		cfg.Market = bankinecotest.NewMarket()
	}
	cfg.Logger = quietLogger()
	tr, err := NewTracker(cfg)
	require.NoError(t, err)
	return tr
}

func TestNewTracker_RequiresDeps(t *testing.T) {
	_, err := NewTracker(TrackerConfig{Fetcher: &fakeFetcher{}})
	assert.Error(t, err)
	_, err = NewTracker(TrackerConfig{Market: bankinecotest.NewMarket()})
	assert.Error(t, err)
}

func TestTracker_RefreshAndQuote(t *testing.T) {
	market := bankinecotest.NewMarket()
	fetcher := &fakeFetcher{}
	fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), 100, nil)

	store := &memStore{}
	journal := &memJournal{}
	pub := &memPublisher{}
	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: fetcher, Snapshots: store, Journal: journal, Publisher: pub})

	_, _, err := tr.Quote(context.Background(), stableIn(100_000))
	assert.ErrorIs(t, err, amm.ErrStaleSnapshot)
	assert.False(t, tr.Info().Ready)
	assert.True(t, tr.IsStale(time.Hour))

	require.NoError(t, tr.Refresh(context.Background()))
	assert.ElementsMatch(t, market.GetAccountsToUpdate(), fetcher.lastKeys)

	q, slot, err := tr.Quote(context.Background(), stableIn(100_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(99_900), q.OutAmount)
	assert.Equal(t, uint64(100), slot)

	info := tr.Info()
	assert.True(t, info.Ready)
	assert.True(t, info.Active)
	assert.Equal(t, uint64(100), info.Slot)
	assert.Equal(t, constants.VenueLabel, info.Label)
	assert.Equal(t, bankineco.SwapAccountsLen, info.AccountsLen)
	require.NotNil(t, info.Market)
	assert.Equal(t, uint16(10), info.Market.FeeBps)
	assert.Empty(t, info.LastError)
	assert.False(t, tr.IsStale(time.Hour))

	require.Len(t, journal.quotes, 1)
	assert.Equal(t, "mint", journal.quotes[0].Direction)
	assert.Equal(t, uint64(99_900), journal.quotes[0].AmountOut)
	assert.Equal(t, uint64(100), journal.quotes[0].Slot)

	require.Len(t, pub.events, 1)
	assert.Equal(t, constants.MainUSDCVault.String(), pub.events[0].Vault)
	assert.Equal(t, "oracle", pub.events[0].RateSource)

	snap, err := store.LoadSnapshot(context.Background(), market.Key())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), snap.Slot)
}

func TestTracker_FailedRefreshKeepsSnapshot(t *testing.T) {
	market := bankinecotest.NewMarket()
	fetcher := &fakeFetcher{}
	fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), 100, nil)
	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: fetcher})
	require.NoError(t, tr.Refresh(context.Background()))

	fetcher.set(nil, 0, errors.New("node down"))
	err := tr.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, tr.Info().LastError, "node down")

	// a fetch that is missing the oracle
	accounts := bankinecotest.Accounts(market, bankinecotest.Flat())
	delete(accounts, bankinecotest.Oracle)
	fetcher.set(accounts, 101, nil)
	err = tr.Refresh(context.Background())
	assert.ErrorIs(t, err, amm.ErrMissingAccount)

	q, _, err := tr.Quote(context.Background(), stableIn(100_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(99_900), q.OutAmount)
	assert.Equal(t, uint64(100), tr.Info().Slot)
}

func TestTracker_IgnoresOlderSlot(t *testing.T) {
	market := bankinecotest.NewMarket()
	fetcher := &fakeFetcher{}
	fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), 200, nil)
	pub := &memPublisher{}
	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: fetcher, Publisher: pub})
	require.NoError(t, tr.Refresh(context.Background()))

	old := bankinecotest.Flat()
	old.FeeBps = 500
	fetcher.set(bankinecotest.Accounts(market, old), 150, nil)
	require.NoError(t, tr.Refresh(context.Background()))

	assert.Equal(t, uint64(200), tr.Info().Slot)
	assert.Equal(t, uint16(10), tr.Info().Market.FeeBps)
	assert.Len(t, pub.events, 1)
}

func TestTracker_Warm(t *testing.T) {
	market := bankinecotest.NewMarket()
	store := &memStore{}
	fetchedAt := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, store.SaveSnapshot(context.Background(),
		models.NewAccountSnapshot(market.Key(), 50, fetchedAt, bankinecotest.Accounts(market, bankinecotest.Flat()))))

	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: &fakeFetcher{err: errors.New("offline")}, Snapshots: store})
	require.NoError(t, tr.Warm(context.Background()))

	info := tr.Info()
	assert.True(t, info.Ready)
	assert.Equal(t, uint64(50), info.Slot)
	assert.True(t, tr.IsStale(30*time.Second))

	q, _, err := tr.Quote(context.Background(), stableIn(100_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(99_900), q.OutAmount)
}

func TestTracker_WarmWithoutStore(t *testing.T) {
	tr := newTracker(t, TrackerConfig{Fetcher: &fakeFetcher{}})
	assert.ErrorIs(t, tr.Warm(context.Background()), storage.ErrNotFound)

	tr = newTracker(t, TrackerConfig{Fetcher: &fakeFetcher{}, Snapshots: &memStore{}})
	assert.ErrorIs(t, tr.Warm(context.Background()), storage.ErrNotFound)
}

func TestTracker_SwapAccounts(t *testing.T) {
	tr := newTracker(t, TrackerConfig{Fetcher: &fakeFetcher{}})

	out, err := tr.SwapAccounts(amm.SwapParams{
		SourceMint:             constants.YieldingMint,
		DestinationMint:        constants.StableMint,
		TokenTransferAuthority: bankinecotest.User,
	})
	require.NoError(t, err)
	assert.Len(t, out.AccountMetas, bankineco.SwapAccountsLen)
	assert.Equal(t, bankinecotest.User, out.AccountMetas[0].PublicKey)
}

func TestTracker_Run(t *testing.T) {
	market := bankinecotest.NewMarket()
	fetcher := &fakeFetcher{}
	fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), 1, nil)
	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: fetcher})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return fetcher.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, tr.Info().Ready)

	assert.Error(t, tr.Run(context.Background(), 0))
}

func TestTracker_ConcurrentQuotesDuringRefresh(t *testing.T) {
	market := bankinecotest.NewMarket()
	fetcher := &fakeFetcher{}
	fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), 1, nil)
	tr := newTracker(t, TrackerConfig{Market: market, Fetcher: fetcher})
	require.NoError(t, tr.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q, _, err := tr.Quote(context.Background(), stableIn(100_000))
				if assert.NoError(t, err) {
					assert.Equal(t, uint64(99_900), q.OutAmount)
				}
			}
		}()
	}
	for slot := uint64(2); slot < 20; slot++ {
		fetcher.set(bankinecotest.Accounts(market, bankinecotest.Flat()), slot, nil)
		require.NoError(t, tr.Refresh(context.Background()))
	}
	wg.Wait()
}
