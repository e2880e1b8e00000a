package bankineco

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

// Direction of a trade through the vault
type Direction int

const (
	// DirectionMint deposits the stable mint and receives the yielding mint
	DirectionMint Direction = iota
	// DirectionRedeem returns the yielding mint for the stable mint
	DirectionRedeem
)

func (d Direction) String() string {
	if d == DirectionMint {
		return "mint"
	}
	return "redeem"
}

// DetermineDirection maps an input/output mint pair to a trade direction.
// Any pair other than the venue's reserve mints is rejected.
func DetermineDirection(inputMint, outputMint solana.PublicKey) (Direction, error) {
	switch {
	case inputMint.Equals(constants.StableMint) && outputMint.Equals(constants.YieldingMint):
		return DirectionMint, nil
	case inputMint.Equals(constants.YieldingMint) && outputMint.Equals(constants.StableMint):
		return DirectionRedeem, nil
	}
	return DirectionMint, fmt.Errorf("%w: %s -> %s", amm.ErrInvalidMintPair, inputMint, outputMint)
}

// CalculateVaultSwapOutput converts amountIn at rate (stable per yielding,
// scaled by constants.RateScale) and takes feeBps from the gross output.
// Returns (grossOut, fee, netOut, error)
func CalculateVaultSwapOutput(
	amountIn uint64,
	rate uint64,
	feeBps uint16,
	dir Direction,
) (uint64, uint64, uint64, error) {

	if amountIn == 0 {
		return 0, 0, 0, fmt.Errorf("%w: amount must be > 0", amm.ErrInvalidAmount)
	}
	if rate == 0 {
		return 0, 0, 0, fmt.Errorf("%w: rate is zero", amm.ErrStaleSnapshot)
	}
	if feeBps > constants.BpsDenom {
		return 0, 0, 0, fmt.Errorf("fee %d bps exceeds %d", feeBps, constants.BpsDenom)
	}

	amountBig := new(big.Int).SetUint64(amountIn)
	rateBig := new(big.Int).SetUint64(rate)
	scale := big.NewInt(constants.RateScale)

	// mint:   gross = amountIn * scale / rate
	// redeem: gross = amountIn * rate / scale
	gross := new(big.Int)
	if dir == DirectionMint {
		gross.Mul(amountBig, scale)
		gross.Div(gross, rateBig)
	} else {
		gross.Mul(amountBig, rateBig)
		gross.Div(gross, scale)
	}

	if !gross.IsUint64() {
		return 0, 0, 0, fmt.Errorf("%w: output amount overflow", amm.ErrInsufficientLiquidity)
	}

	fee := new(big.Int).Mul(gross, big.NewInt(int64(feeBps)))
	fee.Div(fee, big.NewInt(constants.BpsDenom))

	net := new(big.Int).Sub(gross, fee)

	return gross.Uint64(), fee.Uint64(), net.Uint64(), nil
}

// CalculatePriceImpact compares the executed gross rate against the mid
// rate derived from the same cached rate. Only integer rounding can move
// it off zero. The result is a fraction (0.01 = 1%).
func CalculatePriceImpact(amountIn, grossOut, rate uint64, dir Direction) decimal.Decimal {
	if amountIn == 0 || rate == 0 {
		return decimal.Zero
	}

	amountBig := new(big.Int).SetUint64(amountIn)
	grossBig := new(big.Int).SetUint64(grossOut)
	rateBig := new(big.Int).SetUint64(rate)
	scale := big.NewInt(constants.RateScale)

	// ideal and actual are the same quantity scaled by rate*scale
	ideal := new(big.Int)
	actual := new(big.Int)
	if dir == DirectionMint {
		ideal.Mul(amountBig, scale)
		actual.Mul(grossBig, rateBig)
	} else {
		ideal.Mul(amountBig, rateBig)
		actual.Mul(grossBig, scale)
	}

	if actual.Cmp(ideal) >= 0 {
		return decimal.Zero
	}

	diff := new(big.Int).Sub(ideal, actual)
	return decimal.NewFromBigInt(diff, 0).DivRound(decimal.NewFromBigInt(ideal, 0), 12)
}

// FeePct expresses a bps fee as a fraction
func FeePct(feeBps uint16) decimal.Decimal {
	return decimal.New(int64(feeBps), -4)
}

// Quote prices an exact-in trade from the cached snapshot. It performs no
// I/O and returns the same result for the same snapshot and params.
func (a *Amm) Quote(params amm.QuoteParams) (*amm.Quote, error) {
	if params.SwapMode != amm.ExactIn {
		return nil, fmt.Errorf("%w: %s", amm.ErrUnsupportedMode, params.SwapMode)
	}

	dir, err := DetermineDirection(params.InputMint, params.OutputMint)
	if err != nil {
		return nil, err
	}

	if params.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", amm.ErrInvalidAmount)
	}

	s := a.state
	if s == nil {
		return nil, fmt.Errorf("%w: vault %s has not been updated", amm.ErrStaleSnapshot, a.identity.Vault)
	}
	if s.Vault.Paused {
		return nil, fmt.Errorf("%w: vault %s", amm.ErrVenuePaused, a.identity.Vault)
	}

	rate := s.rate()
	gross, fee, net, err := CalculateVaultSwapOutput(params.Amount, rate, s.Vault.FeeBps, dir)
	if err != nil {
		return nil, err
	}

	reserve := s.reserveOf(params.OutputMint)
	if net > reserve {
		return nil, fmt.Errorf("%w: need %d %s, vault holds %d",
			amm.ErrInsufficientLiquidity, net, constants.Symbol(params.OutputMint), reserve)
	}

	impact := decimal.Zero
	if s.HasOracle {
		impact = CalculatePriceImpact(params.Amount, gross, rate, dir)
	}

	return &amm.Quote{
		InAmount:       params.Amount,
		OutAmount:      net,
		FeeAmount:      fee,
		FeeMint:        params.OutputMint,
		FeePct:         FeePct(s.Vault.FeeBps),
		PriceImpactPct: impact,
	}, nil
}

// MinAmountOut is the least output a swap built from a quote should accept
// at the given slippage tolerance
func MinAmountOut(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= constants.BpsDenom {
		return 0
	}

	// minOut = amountOut * (10000 - slippageBps) / 10000
	out := new(big.Int).SetUint64(amountOut)
	out.Mul(out, big.NewInt(int64(constants.BpsDenom-slippageBps)))
	out.Div(out, big.NewInt(constants.BpsDenom))
	return out.Uint64()
}
