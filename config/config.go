package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/0xDualCube/univ2-mev/dex"
	"github.com/0xDualCube/univ2-mev/dex/sushiswap"
	"github.com/0xDualCube/univ2-mev/dex/uniswap"
	"github.com/0xDualCube/univ2-mev/types"
)

// EnvPrefix prefixes environment overrides, e.g. UNIV2MEV_AMOUNT_IN
const EnvPrefix = "UNIV2MEV"

const alchemyEndpoint = "https://eth-mainnet.alchemyapi.io/v2/"

type Config struct {
	// Chain access
	RPCEndpoint  string          `json:"rpc_endpoint"`
	RPCRateLimit RateLimitConfig `json:"rpc_rate_limit"`
	MaxRetries   int             `json:"max_retries"`
	RetryBackoff time.Duration   `json:"retry_backoff"`
	FetchTimeout time.Duration   `json:"fetch_timeout"`
	PollInterval time.Duration   `json:"poll_interval"`

	// Trade sizing, all amounts in base units
	AmountIn           *big.Int        `json:"amount_in"`
	Direction          types.Direction `json:"direction"`
	Quantum            int             `json:"quantum"`
	PruneVenueLimit    int             `json:"prune_venue_limit"`
	MinProfitThreshold *big.Int        `json:"min_profit_threshold"`

	// Swap cost. PerSwapCost, when set, overrides the gas estimate and is
	// denominated in the gas asset.
	GasPerSwap  uint64   `json:"gas_per_swap"`
	PerSwapCost *big.Int `json:"per_swap_cost"`
	GasAsset    string   `json:"gas_asset"`

	// Display
	QuoteSymbol   string `json:"quote_symbol"`
	OtherSymbol   string `json:"other_symbol"`
	QuoteDecimals int32  `json:"quote_decimals"`
	OtherDecimals int32  `json:"other_decimals"`

	// Outputs
	PrometheusEnabled  bool   `json:"prometheus_enabled"`
	PrometheusEndpoint string `json:"prometheus_endpoint"`
	JSONLOut           string `json:"jsonl_out"`
	RedisAddr          string `json:"redis_addr"`
	RedisChannel       string `json:"redis_channel"`
	LogLevel           string `json:"log_level"`
	LogFile            string `json:"log_file"`

	Venues []VenueConfig `json:"venues"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `json:"burst_size" mapstructure:"burst_size"`
}

// VenueConfig describes one pair. Either Pair is set, or Factory,
// InitCodeHash, TokenA and TokenB are used to derive it.
type VenueConfig struct {
	Name           string `json:"name" mapstructure:"name"`
	Pair           string `json:"pair" mapstructure:"pair"`
	Factory        string `json:"factory" mapstructure:"factory"`
	InitCodeHash   string `json:"init_code_hash" mapstructure:"init_code_hash"`
	TokenA         string `json:"token_a" mapstructure:"token_a"`
	TokenB         string `json:"token_b" mapstructure:"token_b"`
	QuoteToken     string `json:"quote_token" mapstructure:"quote_token"`
	FeeNumerator   int64  `json:"fee_numerator" mapstructure:"fee_numerator"`
	FeeDenominator int64  `json:"fee_denominator" mapstructure:"fee_denominator"`
}

// DefaultVenues returns the DAI/WETH pairs on Uniswap V2 and Sushiswap
func DefaultVenues() []VenueConfig {
	venues := []dex.Venue{
		uniswap.NewVenue(uniswap.DAIAddress, uniswap.WETHAddress),
		sushiswap.NewVenue(uniswap.DAIAddress, uniswap.WETHAddress),
	}

	out := make([]VenueConfig, 0, len(venues))
	for _, v := range venues {
		out = append(out, VenueConfig{
			Name:           v.Name,
			Pair:           v.Pair.Hex(),
			QuoteToken:     v.QuoteToken.Hex(),
			FeeNumerator:   v.Fee.Numerator,
			FeeDenominator: v.Fee.Denominator,
		})
	}
	return out
}

// Load merges defaults, config file, .env, environment variables and flags.
// Flag names use dashes; the matching keys use underscores.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("univ2-mev")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("amount_in", "1000000000000000000000") // 1000 DAI
	v.SetDefault("direction", types.QuoteToOther.String())
	v.SetDefault("quantum", 1)
	v.SetDefault("prune_venue_limit", 32)
	v.SetDefault("poll_interval", 12*time.Second)
	v.SetDefault("gas_per_swap", 152000)
	v.SetDefault("per_swap_cost", "")
	v.SetDefault("gas_asset", "other")
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_backoff", 500*time.Millisecond)
	v.SetDefault("fetch_timeout", 10*time.Second)
	v.SetDefault("rpc_rate_limit.requests_per_second", 10.0)
	v.SetDefault("rpc_rate_limit.burst_size", 20)
	v.SetDefault("min_profit_threshold", "0")
	v.SetDefault("quote_symbol", "DAI")
	v.SetDefault("other_symbol", "WETH")
	v.SetDefault("quote_decimals", 18)
	v.SetDefault("other_decimals", 18)
	v.SetDefault("prometheus_enabled", false)
	v.SetDefault("prometheus_endpoint", ":9090")
	v.SetDefault("redis_channel", "univ2-mev:results")
	v.SetDefault("log_level", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var errors []string

	amountIn, err := parseAmount(v.GetString("amount_in"))
	if err != nil {
		errors = append(errors, fmt.Sprintf("amount_in: %v", err))
	}
	minProfit, err := parseAmount(v.GetString("min_profit_threshold"))
	if err != nil {
		errors = append(errors, fmt.Sprintf("min_profit_threshold: %v", err))
	}
	var perSwapCost *big.Int
	if raw := v.GetString("per_swap_cost"); raw != "" {
		if perSwapCost, err = parseAmount(raw); err != nil {
			errors = append(errors, fmt.Sprintf("per_swap_cost: %v", err))
		}
	}
	direction, err := types.ParseDirection(v.GetString("direction"))
	if err != nil {
		errors = append(errors, fmt.Sprintf("direction: %v", err))
	}

	var venues []VenueConfig
	if err := v.UnmarshalKey("venues", &venues); err != nil {
		errors = append(errors, fmt.Sprintf("venues: %v", err))
	}
	if len(venues) == 0 {
		venues = DefaultVenues()
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration parsing failed: %s", strings.Join(errors, "; "))
	}

	cfg := &Config{
		RPCEndpoint: v.GetString("rpc_endpoint"),
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("rpc_rate_limit.requests_per_second"),
			BurstSize:         v.GetInt("rpc_rate_limit.burst_size"),
		},
		MaxRetries:         v.GetInt("max_retries"),
		RetryBackoff:       v.GetDuration("retry_backoff"),
		FetchTimeout:       v.GetDuration("fetch_timeout"),
		PollInterval:       v.GetDuration("poll_interval"),
		AmountIn:           amountIn,
		Direction:          direction,
		Quantum:            v.GetInt("quantum"),
		PruneVenueLimit:    v.GetInt("prune_venue_limit"),
		MinProfitThreshold: minProfit,
		GasPerSwap:         v.GetUint64("gas_per_swap"),
		PerSwapCost:        perSwapCost,
		GasAsset:           v.GetString("gas_asset"),
		QuoteSymbol:        v.GetString("quote_symbol"),
		OtherSymbol:        v.GetString("other_symbol"),
		QuoteDecimals:      v.GetInt32("quote_decimals"),
		OtherDecimals:      v.GetInt32("other_decimals"),
		PrometheusEnabled:  v.GetBool("prometheus_enabled"),
		PrometheusEndpoint: v.GetString("prometheus_endpoint"),
		JSONLOut:           v.GetString("jsonl_out"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisChannel:       v.GetString("redis_channel"),
		LogLevel:           v.GetString("log_level"),
		LogFile:            v.GetString("log_file"),
		Venues:             venues,
	}

	if cfg.RPCEndpoint == "" {
		if key := os.Getenv(EnvAlchemyKey); key != "" {
			cfg.RPCEndpoint = alchemyEndpoint + key
		}
	}

	return cfg, nil
}

// parseAmount accepts integers in plain or exponent notation ("1e21")
func parseAmount(raw string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%s is not a whole number of base units", raw)
	}
	return d.BigInt(), nil
}

func (c *Config) ValidateConfig() error {
	var errors []string

	if c.AmountIn == nil || c.AmountIn.Sign() <= 0 {
		errors = append(errors, "amount_in must be positive")
	}
	if c.Quantum < 1 || c.Quantum > 100 {
		errors = append(errors, "quantum must be between 1 and 100")
	}
	if c.PruneVenueLimit < 0 {
		errors = append(errors, "prune_venue_limit must not be negative")
	}
	if c.MinProfitThreshold == nil || c.MinProfitThreshold.Sign() < 0 {
		errors = append(errors, "min_profit_threshold must not be negative")
	}
	if c.PerSwapCost != nil && c.PerSwapCost.Sign() < 0 {
		errors = append(errors, "per_swap_cost must not be negative")
	}
	if c.PerSwapCost == nil && c.GasPerSwap == 0 {
		errors = append(errors, "gas_per_swap must be positive when per_swap_cost is not set")
	}
	if c.GasAsset != "quote" && c.GasAsset != "other" {
		errors = append(errors, "gas_asset must be quote or other")
	}
	if c.PollInterval <= 0 {
		errors = append(errors, "poll_interval must be positive")
	}
	if c.MaxRetries < 0 {
		errors = append(errors, "max_retries must not be negative")
	}
	if c.FetchTimeout < 0 {
		errors = append(errors, "fetch_timeout must not be negative")
	}
	if c.QuoteDecimals < 0 || c.OtherDecimals < 0 {
		errors = append(errors, "token decimals must not be negative")
	}

	if err := c.RPCRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("RPC rate limit error: %v", err))
	}

	if len(c.Venues) == 0 {
		errors = append(errors, "at least one venue must be configured")
	}
	seen := make(map[string]bool, len(c.Venues))
	for i, venue := range c.Venues {
		if seen[venue.Name] {
			errors = append(errors, fmt.Sprintf("venue %q configured twice", venue.Name))
		}
		seen[venue.Name] = true
		if _, err := venue.Venue(); err != nil {
			errors = append(errors, fmt.Sprintf("venues[%d]: %v", i, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate accepts zero as unlimited
func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	if r.BurstSize < 0 {
		return fmt.Errorf("burst size must not be negative")
	}

	return nil
}

// GasDirection is the swap direction that sells the gas asset
func (c *Config) GasDirection() types.Direction {
	if c.GasAsset == "quote" {
		return types.QuoteToOther
	}
	return types.OtherToQuote
}

// Fee returns the venue fee, defaulting to the Uniswap V2 fee
func (vc VenueConfig) Fee() types.Fee {
	if vc.FeeNumerator == 0 && vc.FeeDenominator == 0 {
		return types.DefaultFee
	}
	return types.Fee{Numerator: vc.FeeNumerator, Denominator: vc.FeeDenominator}
}

// Venue resolves the configured pair
func (vc VenueConfig) Venue() (dex.Venue, error) {
	if vc.Name == "" {
		return dex.Venue{}, fmt.Errorf("name must be specified")
	}
	fee := vc.Fee()
	if err := fee.Validate(); err != nil {
		return dex.Venue{}, err
	}

	var quote common.Address
	if vc.QuoteToken != "" {
		if !common.IsHexAddress(vc.QuoteToken) {
			return dex.Venue{}, fmt.Errorf("invalid quote_token %q", vc.QuoteToken)
		}
		quote = common.HexToAddress(vc.QuoteToken)
	}

	if vc.Pair != "" {
		if !common.IsHexAddress(vc.Pair) {
			return dex.Venue{}, fmt.Errorf("invalid pair address %q", vc.Pair)
		}
		return dex.Venue{Name: vc.Name, Pair: common.HexToAddress(vc.Pair), QuoteToken: quote, Fee: fee}, nil
	}

	for _, field := range [][2]string{{"factory", vc.Factory}, {"token_a", vc.TokenA}, {"token_b", vc.TokenB}} {
		if !common.IsHexAddress(field[1]) {
			return dex.Venue{}, fmt.Errorf("invalid %s %q", field[0], field[1])
		}
	}
	initCodeHash := common.FromHex(vc.InitCodeHash)
	if len(initCodeHash) != common.HashLength {
		return dex.Venue{}, fmt.Errorf("init_code_hash must be 32 bytes")
	}
	tokenA := common.HexToAddress(vc.TokenA)
	if vc.QuoteToken == "" {
		quote = tokenA
	}

	pair := uniswap.PairFor(common.HexToAddress(vc.Factory), initCodeHash, tokenA, common.HexToAddress(vc.TokenB))
	return dex.Venue{Name: vc.Name, Pair: pair, QuoteToken: quote, Fee: fee}, nil
}

// DexVenues resolves every configured venue
func (c *Config) DexVenues() ([]dex.Venue, error) {
	venues := make([]dex.Venue, 0, len(c.Venues))
	for _, vc := range c.Venues {
		venue, err := vc.Venue()
		if err != nil {
			return nil, fmt.Errorf("venue %q: %w", vc.Name, err)
		}
		venues = append(venues, venue)
	}
	return venues, nil
}
