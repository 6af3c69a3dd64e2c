package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xDualCube/univ2-mev/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvAlchemyKey, "")
	path := writeFile(t, "empty.yaml", "log_level: debug\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateConfig())

	assert.Equal(t, "1000000000000000000000", cfg.AmountIn.String())
	assert.Equal(t, types.QuoteToOther, cfg.Direction)
	assert.Equal(t, 1, cfg.Quantum)
	assert.Equal(t, 32, cfg.PruneVenueLimit)
	assert.Equal(t, 12*time.Second, cfg.PollInterval)
	assert.Equal(t, uint64(152000), cfg.GasPerSwap)
	assert.Nil(t, cfg.PerSwapCost)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, float64(10), cfg.RPCRateLimit.RequestsPerSecond)
	assert.Equal(t, types.OtherToQuote, cfg.GasDirection())

	venues, err := cfg.DexVenues()
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "uniswap", venues[0].Name)
	assert.Equal(t, common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11"), venues[0].Pair)
	assert.Equal(t, "sushiswap", venues[1].Name)
	assert.Equal(t, common.HexToAddress("0xC3D03e4F041Fd4cD388c549Ee2A29a9E5075882f"), venues[1].Pair)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeFile(t, "config.yaml", `
amount_in: "5e18"
direction: sell
quantum: 5
per_swap_cost: "2000000000000000"
rpc_rate_limit:
  requests_per_second: 3
  burst_size: 4
venues:
  - name: uniswap
    factory: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
    init_code_hash: "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"
    token_a: "0x6B175474E89094C44Da98b954EedeAC495271d0F"
    token_b: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
  - name: forked
    pair: "0x0000000000000000000000000000000000000042"
    fee_numerator: 9975
    fee_denominator: 10000
`)
	t.Setenv("UNIV2MEV_MIN_PROFIT_THRESHOLD", "1000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("prune-venue-limit", 0, "")
	require.NoError(t, flags.Parse([]string{"--prune-venue-limit=8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateConfig())

	assert.Equal(t, "5000000000000000000", cfg.AmountIn.String())
	assert.Equal(t, types.OtherToQuote, cfg.Direction)
	assert.Equal(t, 5, cfg.Quantum)
	assert.Equal(t, 8, cfg.PruneVenueLimit)
	assert.Equal(t, "1000", cfg.MinProfitThreshold.String())
	assert.Equal(t, "2000000000000000", cfg.PerSwapCost.String())
	assert.Equal(t, float64(3), cfg.RPCRateLimit.RequestsPerSecond)
	assert.Equal(t, 4, cfg.RPCRateLimit.BurstSize)

	venues, err := cfg.DexVenues()
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11"), venues[0].Pair)
	assert.Equal(t, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), venues[0].QuoteToken)
	assert.Equal(t, types.DefaultFee, venues[0].Fee)
	assert.Equal(t, types.Fee{Numerator: 9975, Denominator: 10000}, venues[1].Fee)
	assert.Equal(t, common.Address{}, venues[1].QuoteToken)
}

func TestLoadAlchemyEndpoint(t *testing.T) {
	t.Setenv(EnvAlchemyKey, "secret")
	path := writeFile(t, "config.json", `{"quantum": 2}`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://eth-mainnet.alchemyapi.io/v2/secret", cfg.RPCEndpoint)

	t.Setenv("UNIV2MEV_RPC_ENDPOINT", "http://localhost:8545")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
}

func TestLoadRejectsBadAmounts(t *testing.T) {
	path := writeFile(t, "config.yaml", "amount_in: \"1.5\"\ndirection: sideways\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount_in")
	assert.Contains(t, err.Error(), "direction")
}

func TestValidateConfigCollectsErrors(t *testing.T) {
	path := writeFile(t, "config.yaml", "quantum: 0\npoll_interval: 0s\ngas_asset: btc\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	cfg.Venues = append(cfg.Venues, VenueConfig{Name: "uniswap", Pair: "not-an-address"})

	err = cfg.ValidateConfig()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "quantum must be between 1 and 100")
	assert.Contains(t, msg, "poll_interval must be positive")
	assert.Contains(t, msg, "gas_asset must be quote or other")
	assert.Contains(t, msg, `venue "uniswap" configured twice`)
	assert.Contains(t, msg, "invalid pair address")
}

func TestVenueConfigErrors(t *testing.T) {
	_, err := VenueConfig{Pair: "0x0000000000000000000000000000000000000001"}.Venue()
	assert.Error(t, err)

	_, err = VenueConfig{Name: "x", Factory: "0x0000000000000000000000000000000000000001", TokenA: "0x02", TokenB: "0x03"}.Venue()
	assert.Error(t, err)

	_, err = VenueConfig{Name: "x", Pair: "0x0000000000000000000000000000000000000001", FeeNumerator: 2, FeeDenominator: 1}.Venue()
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("UNIV2MEV_TEST_VALUE", "")
	assert.Equal(t, "fallback", GetEnvWithDefault("UNIV2MEV_TEST_VALUE", "fallback"))
	t.Setenv("UNIV2MEV_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvWithDefault("UNIV2MEV_TEST_VALUE", "fallback"))
}
