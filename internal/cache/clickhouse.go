package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
)

// ClickHouseConfig holds connection settings for the quote journal
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// QuoteJournal appends served quotes to ClickHouse
type QuoteJournal struct {
	conn   driver.Conn
	logger *logrus.Logger
}

var _ storage.QuoteJournal = (*QuoteJournal)(nil)

const createQuotesTable = `
	CREATE TABLE IF NOT EXISTS quotes (
		timestamp    DateTime64(3),
		vault        String,
		direction    LowCardinality(String),
		input_mint   String,
		output_mint  String,
		amount_in    UInt64,
		amount_out   UInt64,
		fee_amount   UInt64,
		fee_mint     String,
		price_impact String,
		slot         UInt64
	) ENGINE = MergeTree
	ORDER BY (vault, timestamp)
`

func NewQuoteJournal(ctx context.Context, cfg ClickHouseConfig) (*QuoteJournal, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createQuotesTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create quotes table: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &QuoteJournal{conn: conn, logger: cfg.Logger}, nil
}

func (j *QuoteJournal) InsertQuote(ctx context.Context, q *models.QuoteEvent) error {
	query := `
		INSERT INTO quotes (
			timestamp, vault, direction, input_mint, output_mint,
			amount_in, amount_out, fee_amount, fee_mint, price_impact, slot
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := j.conn.Exec(ctx, query,
		q.Timestamp,
		q.Vault,
		q.Direction,
		q.InputMint,
		q.OutputMint,
		q.AmountIn,
		q.AmountOut,
		q.FeeAmount,
		q.FeeMint,
		q.PriceImpact,
		q.Slot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

func (j *QuoteJournal) Ping(ctx context.Context) error {
	return j.conn.Ping(ctx)
}

func (j *QuoteJournal) Close() error {
	return j.conn.Close()
}
