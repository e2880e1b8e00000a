package server

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

// DefaultSlippageBps is used when a quote request does not set slippageBps
const DefaultSlippageBps = 50

func parseKeyParam(name, v string) (solana.PublicKey, map[string]any) {
	v = strings.TrimSpace(v)
	if v == "" {
		return solana.PublicKey{}, map[string]any{name: "required"}
	}
	key, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, map[string]any{name: "must be a base58 public key"}
	}
	return key, nil
}

func parseAmount(name, v string, required bool) (uint64, map[string]any) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return 0, map[string]any{name: "required"}
		}
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, map[string]any{name: "must be uint64"}
	}
	return n, nil
}

func formatRate(rate uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(rate), -9).String()
}

// Quote prices an exact-in trade against the current snapshot
func (h *Handlers) Quote(c echo.Context) error {
	inputMint, details := parseKeyParam("inputMint", c.QueryParam("inputMint"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", details)
	}
	outputMint, details := parseKeyParam("outputMint", c.QueryParam("outputMint"))
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", details)
	}
	amount, details := parseAmount("amount", c.QueryParam("amount"), true)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", details)
	}

	mode, ok := amm.ParseSwapMode(strings.TrimSpace(c.QueryParam("swapMode")))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid swapMode", map[string]any{"swapMode": "must be ExactIn or ExactOut"})
	}

	slippageBps := uint16(DefaultSlippageBps)
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n > constants.BpsDenom {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "must be 0..10000"})
		}
		slippageBps = uint16(n)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	q, slot, err := h.Tracker.Quote(ctx, amm.QuoteParams{
		InputMint:  inputMint,
		OutputMint: outputMint,
		Amount:     amount,
		SwapMode:   mode,
	})
	if err != nil {
		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.Logger.WithError(err).WithFields(logrus.Fields{
				"input_mint":  inputMint,
				"output_mint": outputMint,
				"amount":      amount,
			}).Warn("quote failed")
		}
		return h.err(c, code, msg, map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		Label:                constants.VenueLabel,
		InputMint:            inputMint.String(),
		OutputMint:           outputMint.String(),
		InAmount:             strconv.FormatUint(q.InAmount, 10),
		OutAmount:            strconv.FormatUint(q.OutAmount, 10),
		OtherAmountThreshold: strconv.FormatUint(bankineco.MinAmountOut(q.OutAmount, slippageBps), 10),
		SwapMode:             mode.String(),
		SlippageBps:          slippageBps,
		FeeAmount:            strconv.FormatUint(q.FeeAmount, 10),
		FeeMint:              q.FeeMint.String(),
		FeePct:               q.FeePct,
		PriceImpactPct:       q.PriceImpactPct,
		Slot:                 slot,
	})
}

// SwapAccounts returns the ordered account list for one swap
func (h *Handlers) SwapAccounts(c echo.Context) error {
	var req SwapAccountsRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	source, details := parseKeyParam("sourceMint", req.SourceMint)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid sourceMint", details)
	}
	destination, details := parseKeyParam("destinationMint", req.DestinationMint)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid destinationMint", details)
	}
	user, details := parseKeyParam("userTransferAuthority", req.UserTransferAuthority)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid userTransferAuthority", details)
	}
	inAmount, details := parseAmount("inAmount", req.InAmount, false)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid inAmount", details)
	}
	outAmount, details := parseAmount("outAmount", req.OutAmount, false)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid outAmount", details)
	}

	params := amm.SwapParams{
		SourceMint:             source,
		DestinationMint:        destination,
		TokenTransferAuthority: user,
		InAmount:               inAmount,
		OutAmount:              outAmount,
	}
	if req.SourceTokenAccount != "" {
		if params.SourceTokenAccount, details = parseKeyParam("sourceTokenAccount", req.SourceTokenAccount); details != nil {
			return h.err(c, http.StatusBadRequest, "invalid sourceTokenAccount", details)
		}
	}
	if req.DestinationTokenAccount != "" {
		if params.DestinationTokenAccount, details = parseKeyParam("destinationTokenAccount", req.DestinationTokenAccount); details != nil {
			return h.err(c, http.StatusBadRequest, "invalid destinationTokenAccount", details)
		}
	}

	out, err := h.Tracker.SwapAccounts(params)
	if err != nil {
		code, msg := statusFor(err)
		return h.err(c, code, msg, map[string]any{"err": err.Error()})
	}

	resp := SwapAccountsResponse{
		Swap:     out.Swap.String(),
		Accounts: make([]AccountMeta, len(out.AccountMetas)),
	}
	for i, m := range out.AccountMetas {
		resp.Accounts[i] = AccountMeta{Pubkey: m.PublicKey.String(), IsSigner: m.IsSigner, IsWritable: m.IsWritable}
	}
	return c.JSON(http.StatusOK, resp)
}
