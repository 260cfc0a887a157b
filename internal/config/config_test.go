package config

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

func TestRPCConfigLoad(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("RPC_COMMITMENT", "finalized")
	t.Setenv("BALANCE_FETCH_TIMEOUT_MS", "2500")

	var c RPCConfig
	require.NoError(t, c.Load())
	require.Equal(t, "http://localhost:8899", c.RPCUrl)
	require.Equal(t, rpc.CommitmentFinalized, c.Commitment)
	require.Equal(t, 2500*time.Millisecond, c.FetchTimeout)

	t.Setenv("RPC_COMMITMENT", "max")
	require.Error(t, c.Load())
}

func TestCatalogConfigLoad(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "https://example.org/orca")
	t.Setenv("CATALOG_NETWORK", "devnet")
	t.Setenv("CATALOG_SNAPSHOT_ENABLED", "false")
	t.Setenv("BALANCE_PREFETCH", "true")

	var c CatalogConfig
	require.NoError(t, c.Load())
	require.Equal(t, "https://example.org/orca", c.Source)
	require.Equal(t, "devnet", c.Network)
	require.False(t, c.SnapshotEnabled)
	require.True(t, c.PrefetchBalances)

	c.SnapshotEnabled = true
	c.SnapshotPath = ""
	require.Error(t, c.Validate())
}

func TestRoutingConfigValidate(t *testing.T) {
	t.Setenv("DEFAULT_SLIPPAGE_BPS", "100")
	t.Setenv("MAX_SLIPPAGE_BPS", "1000")

	var c RoutingConfig
	require.NoError(t, c.Load())
	require.Equal(t, 100, c.DefaultSlippageBps)
	require.Equal(t, 1000, c.MaxSlippageBps)

	for _, bad := range []RoutingConfig{
		{DefaultSlippageBps: 50, MaxSlippageBps: 0},
		{DefaultSlippageBps: 50, MaxSlippageBps: 10000},
		{DefaultSlippageBps: 600, MaxSlippageBps: 500},
		{DefaultSlippageBps: -1, MaxSlippageBps: 500},
	} {
		require.Error(t, bad.Validate(), "%+v", bad)
	}
}

func TestGeneralConfigRateLimit(t *testing.T) {
	t.Setenv("HTTP_RATE_LIMIT", "5")
	t.Setenv("HTTP_RATE_BURST", "2")

	var c GeneralConfig
	require.Error(t, c.Load())

	t.Setenv("HTTP_RATE_BURST", "10")
	require.NoError(t, c.Load())
	require.Equal(t, 5, c.RateLimit)
	require.Equal(t, 10, c.RateBurst)
}
