package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

type Config struct {
	// RPC settings
	RPCUrl          string
	RefreshInterval time.Duration

	// Venue settings
	Vault               string
	Oracle              string
	Team                string
	YieldingMintProgram string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// API settings
	APIAddr        string
	APIKey         string
	DevMode        bool
	LogLevel       string
	QuoteRateLimit int // requests per second per client
	QuoteBurst     int
}

// Venue holds the parsed public keys of the configured vault
type Venue struct {
	Vault               solana.PublicKey
	Oracle              solana.PublicKey
	Team                solana.PublicKey
	YieldingMintProgram solana.PublicKey
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:          getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 10*time.Second),

		// Venue
		Vault:               getEnv("BANKINECO_VAULT", constants.MainUSDCVault.String()),
		Oracle:              getEnv("BANKINECO_ORACLE", ""),
		Team:                getEnv("BANKINECO_TEAM", ""),
		YieldingMintProgram: getEnv("BANKINECO_YIELDING_MINT_PROGRAM", constants.TokenProgramID.String()),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// API
		APIAddr:        getEnv("API_ADDR", ":8090"),
		APIKey:         getEnv("API_KEY", ""),
		DevMode:        getBoolEnv("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		QuoteRateLimit: getIntEnv("QUOTE_RATE_LIMIT", 20),
		QuoteBurst:     getIntEnv("QUOTE_BURST", 40),
	}
}

// Validate checks required values and parses the venue keys
func (c *Config) Validate() (*Venue, error) {
	if strings.TrimSpace(c.RPCUrl) == "" {
		return nil, fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if c.RefreshInterval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	if c.MaxRetries < 0 {
		return nil, fmt.Errorf("MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	var v Venue
	var err error

	if v.Vault, err = parseKey("BANKINECO_VAULT", c.Vault, true); err != nil {
		return nil, err
	}
	if v.Oracle, err = parseKey("BANKINECO_ORACLE", c.Oracle, false); err != nil {
		return nil, err
	}
	if v.Team, err = parseKey("BANKINECO_TEAM", c.Team, false); err != nil {
		return nil, err
	}
	if v.YieldingMintProgram, err = parseKey("BANKINECO_YIELDING_MINT_PROGRAM", c.YieldingMintProgram, false); err != nil {
		return nil, err
	}
	if v.YieldingMintProgram.IsZero() {
		v.YieldingMintProgram = constants.TokenProgramID
	}
	if !v.YieldingMintProgram.Equals(constants.TokenProgramID) &&
		!v.YieldingMintProgram.Equals(constants.Token2022ProgramID) {
		return nil, fmt.Errorf("BANKINECO_YIELDING_MINT_PROGRAM %s is not a token program", v.YieldingMintProgram)
	}

	return &v, nil
}

func parseKey(name, val string, required bool) (solana.PublicKey, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		if required {
			return solana.PublicKey{}, fmt.Errorf("%s is required", name)
		}
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(val)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: invalid public key %q: %w", name, val, err)
	}
	// the zero key is the unset value everywhere downstream
	if key.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%s: %s is the zero key", name, val)
	}
	return key, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
