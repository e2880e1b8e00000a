package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/venue"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Tracker *venue.Tracker // Market host serving quotes and account lists
	DevMode bool           // Enable detailed error responses in development
	Logger  *logrus.Logger // Structured logger

	// MaxSnapshotAge marks the market not ready once the last successful
	// refresh is older; zero disables the check
	MaxSnapshotAge time.Duration
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health reports liveness and whether the market has a snapshot
func (h *Handlers) Health(c echo.Context) error {
	info := h.Tracker.Info()
	ready := info.Ready
	if ready && h.MaxSnapshotAge > 0 && h.Tracker.IsStale(h.MaxSnapshotAge) {
		ready = false
	}
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Ready: ready, Slot: info.Slot})
}

// Market returns the tracked vault's metadata and decoded state
func (h *Handlers) Market(c echo.Context) error {
	info := h.Tracker.Info()

	resp := MarketResponse{
		Label:        info.Label,
		ProgramID:    info.ProgramID.String(),
		Key:          info.Key.String(),
		ReserveMints: keyStrings(info.ReserveMints),
		AccountsLen:  info.AccountsLen,
		Active:       info.Active,
		Ready:        info.Ready,
		Slot:         info.Slot,
		LastError:    info.LastError,
	}
	if !info.UpdatedAt.IsZero() {
		resp.UpdatedAt = info.UpdatedAt.Format(time.RFC3339)
	}
	if m := info.Market; m != nil {
		resp.State = &MarketState{
			FeeBps:            m.FeeBps,
			Rate:              formatRate(m.Rate),
			RateSource:        string(m.RateSource),
			OraclePublishTime: m.OraclePublishTime,
			Paused:            m.Paused,
			StableReserve:     strconv.FormatUint(m.StableReserve, 10),
			YieldingReserve:   strconv.FormatUint(m.YieldingReserve, 10),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func keyStrings(keys []solana.PublicKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
