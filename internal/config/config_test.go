package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SOLANA_RPC_URL", "REFRESH_INTERVAL", "BANKINECO_VAULT", "BANKINECO_ORACLE", "MAX_RETRIES", "DEV_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCUrl)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, constants.MainUSDCVault.String(), cfg.Vault)
	assert.Empty(t, cfg.Oracle)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.False(t, cfg.DevMode)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "3s")
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("BANKINECO_TEAM", "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP", cfg.Team)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "soon")
	t.Setenv("MAX_RETRIES", "many")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func validConfig() *Config {
	return &Config{
		RPCUrl:              "http://localhost:8899",
		RefreshInterval:     time.Second,
		Vault:               constants.MainUSDCVault.String(),
		Oracle:              "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",
		Team:                "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP",
		YieldingMintProgram: constants.Token2022ProgramID.String(),
		LogLevel:            "debug",
	}
}

func TestValidate(t *testing.T) {
	v, err := validConfig().Validate()
	require.NoError(t, err)
	assert.Equal(t, constants.MainUSDCVault, v.Vault)
	assert.Equal(t, constants.Token2022ProgramID, v.YieldingMintProgram)
	assert.False(t, v.Oracle.IsZero())

	cfg := validConfig()
	cfg.Oracle = ""
	cfg.Team = ""
	v, err = cfg.Validate()
	require.NoError(t, err)
	assert.True(t, v.Oracle.IsZero())
	assert.True(t, v.Team.IsZero())

	cfg = validConfig()
	cfg.YieldingMintProgram = " "
	v, err = cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, constants.TokenProgramID, v.YieldingMintProgram)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"missing rpc", func(c *Config) { c.RPCUrl = " " }, "SOLANA_RPC_URL"},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }, "REFRESH_INTERVAL"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "MAX_RETRIES"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "LOG_LEVEL"},
		{"missing vault", func(c *Config) { c.Vault = "" }, "BANKINECO_VAULT"},
		{"bad oracle", func(c *Config) { c.Oracle = "not-a-key" }, "BANKINECO_ORACLE"},
		{"foreign token program", func(c *Config) { c.YieldingMintProgram = constants.AssociatedTokenProgramID.String() }, "not a token program"},
		{"system program as token program", func(c *Config) { c.YieldingMintProgram = constants.SystemProgramID.String() }, "zero key"},
		{"zero oracle", func(c *Config) { c.Oracle = constants.SystemProgramID.String() }, "BANKINECO_ORACLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
