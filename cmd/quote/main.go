package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
	"github.com/cheliosooo/bankineco-amm-interface/internal/bankineco"
	"github.com/cheliosooo/bankineco-amm-interface/internal/config"
	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
	"github.com/cheliosooo/bankineco-amm-interface/internal/rpc"
	"github.com/cheliosooo/bankineco-amm-interface/internal/venue"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

// mintFor resolves a symbol or base58 address to one of the venue mints
func mintFor(s string) (solana.PublicKey, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USDC":
		return constants.USDCMint, nil
	case "USD*", "USDSTAR":
		return constants.USDStarMint, nil
	}
	return solana.PublicKeyFromBase58(s)
}

// toRaw converts a human amount to raw units with the venue's mint decimals
func toRaw(amount string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	raw := d.Shift(constants.MintDecimal).Truncate(0)
	if !raw.IsPositive() || !raw.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %q out of range", amount)
	}
	return raw.BigInt().Uint64(), nil
}

func fromRaw(raw uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -constants.MintDecimal).StringFixed(constants.MintDecimal)
}

func main() {
	loadEnv()

	inTok := flag.String("in", "USDC", "input token: USDC, USD* or a mint address")
	outTok := flag.String("out", "USD*", "output token: USDC, USD* or a mint address")
	amt := flag.String("amt", "", "amount in human units (e.g. 100.5)")
	slippageBps := flag.Uint("slippage-bps", 50, "slippage in bps (e.g. 50 = 0.5%)")
	user := flag.String("user", "", "wallet to print swap accounts for (optional)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *amt == "" {
		fmt.Println("missing -amt (must be > 0)")
		os.Exit(2)
	}
	if *slippageBps > constants.BpsDenom {
		fmt.Println("invalid -slippage-bps (max 10000)")
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	inMint, err := mintFor(*inTok)
	if err != nil {
		fmt.Println("invalid -in:", err)
		os.Exit(2)
	}
	outMint, err := mintFor(*outTok)
	if err != nil {
		fmt.Println("invalid -out:", err)
		os.Exit(2)
	}
	amount, err := toRaw(*amt)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	cfg := config.Load()
	keys, err := cfg.Validate()
	if err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	market, err := bankineco.New(keys.Vault, bankineco.Options{
		Oracle:              keys.Oracle,
		Team:                keys.Team,
		YieldingMintProgram: keys.YieldingMintProgram,
	})
	if err != nil {
		fmt.Println("failed to create market:", err)
		os.Exit(1)
	}

	tracker, err := venue.NewTracker(venue.TrackerConfig{
		Market: market,
		Fetcher: rpc.NewClient(rpc.ClientConfig{
			BaseURL:      cfg.RPCUrl,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		}),
		Logger: logger,
	})
	if err != nil {
		fmt.Println("failed to create tracker:", err)
		os.Exit(1)
	}

	if err := tracker.Refresh(ctx); err != nil {
		fmt.Println("refresh failed:", err)
		os.Exit(1)
	}

	q, _, err := tracker.Quote(ctx, amm.QuoteParams{
		InputMint:  inMint,
		OutputMint: outMint,
		Amount:     amount,
		SwapMode:   amm.ExactIn,
	})
	if err != nil {
		fmt.Println("quote failed:", err)
		os.Exit(1)
	}

	info := tracker.Info()
	fmt.Printf("venue=%s vault=%s slot=%d\n", info.Label, info.Key, info.Slot)
	if m := info.Market; m != nil {
		fmt.Printf("rate=%s source=%s fee_bps=%d\n", decimal.New(int64(m.Rate), -9), m.RateSource, m.FeeBps)
	}
	fmt.Printf("in=%s %s out=%s %s min_out=%s fee=%s %s price_impact=%s\n",
		fromRaw(q.InAmount), constants.Symbol(inMint),
		fromRaw(q.OutAmount), constants.Symbol(outMint),
		fromRaw(bankineco.MinAmountOut(q.OutAmount, uint16(*slippageBps))),
		fromRaw(q.FeeAmount), constants.Symbol(q.FeeMint),
		q.PriceImpactPct.String())

	if *user == "" {
		return
	}
	owner, err := solana.PublicKeyFromBase58(*user)
	if err != nil {
		fmt.Println("invalid -user:", err)
		os.Exit(2)
	}
	out, err := tracker.SwapAccounts(amm.SwapParams{
		SourceMint:             inMint,
		DestinationMint:        outMint,
		TokenTransferAuthority: owner,
		InAmount:               q.InAmount,
		OutAmount:              q.OutAmount,
	})
	if err != nil {
		fmt.Println("swap accounts failed:", err)
		os.Exit(1)
	}
	fmt.Printf("swap=%s accounts=%d\n", out.Swap, len(out.AccountMetas))
	for i, m := range out.AccountMetas {
		fmt.Printf("%2d %s signer=%v writable=%v\n", i, m.PublicKey, m.IsSigner, m.IsWritable)
	}
}
