// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Source kinds
const (
	SourceCSV    = "csv"
	SourceRemote = "remote"
)

// Price providers
const (
	ProviderCoinPaprika = "coinpaprika"
	ProviderStatic      = "static"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Network     NetworkConfig     `mapstructure:"network"`
	Reward      RewardConfig      `mapstructure:"reward"`
	ProtocolFee ProtocolFeeConfig `mapstructure:"protocol_fee"`
	Payment     PaymentConfig     `mapstructure:"payment"`
	Sources     SourcesConfig     `mapstructure:"sources"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Output      OutputConfig      `mapstructure:"output"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json or pretty
}

// NetworkConfig selects the chain the payout runs for.
type NetworkConfig struct {
	Name    string `mapstructure:"name"`
	ChainID uint64 `mapstructure:"chain_id"`
	NodeURL string `mapstructure:"node_url"`
}

// RewardConfig holds the reward mechanism parameters.
type RewardConfig struct {
	RewardTokenAddress                   string `mapstructure:"reward_token_address"`
	CowBondingPoolAddress                string `mapstructure:"cow_bonding_pool_address"`
	ServiceFeeFactor                     string `mapstructure:"service_fee_factor"`
	QuoteRewardCowCap                    string `mapstructure:"quote_reward_cow_cap"`
	QuoteRewardNativeCap                 string `mapstructure:"quote_reward_native_cap"`
	SecondaryRewardBudgetNativePerPeriod string `mapstructure:"secondary_reward_budget_native_per_period"`
	BatchesPerPeriod                     int64  `mapstructure:"batches_per_period"`
	IncludeSlippage                      bool   `mapstructure:"include_slippage"`
	UpperCap                             string `mapstructure:"upper_cap"`
	LowerCap                             string `mapstructure:"lower_cap"`
}

// PartnerFeeCut overrides the partner fee tax for one recipient, optionally
// restricted to one app code.
type PartnerFeeCut struct {
	Recipient string `mapstructure:"recipient"`
	AppCode   string `mapstructure:"app_code"`
	Cut       string `mapstructure:"cut"`
}

// PartnerRedirect rewrites a partner fee recipient before the tax lookup.
type PartnerRedirect struct {
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
	AppCode string `mapstructure:"app_code"`
}

// ProtocolFeeConfig holds protocol and partner fee settings.
type ProtocolFeeConfig struct {
	ProtocolFeeSafeAddress string            `mapstructure:"protocol_fee_safe_address"`
	DefaultPartnerFeeCut   string            `mapstructure:"default_partner_fee_cut"`
	CustomPartnerFees      []PartnerFeeCut   `mapstructure:"custom_partner_fees"`
	PartnerRedirects       []PartnerRedirect `mapstructure:"partner_redirects"`
}

// PaymentConfig holds the settings of the paying safe.
type PaymentConfig struct {
	PaymentSafeAddress        string `mapstructure:"payment_safe_address"`
	WrappedNativeTokenAddress string `mapstructure:"wrapped_native_token_address"`
	MultisendAddress          string `mapstructure:"multisend_address"`
	MinTransferNativeWei      string `mapstructure:"min_transfer_native_wei"`
	MinTransferCowAtoms       string `mapstructure:"min_transfer_cow_atoms"`
}

// OrderbookConfig points at the orderbook databases.
type OrderbookConfig struct {
	ProdDBURL          string `mapstructure:"prod_db_url"`
	BarnDBURL          string `mapstructure:"barn_db_url"`
	BatchDataQueryFile string `mapstructure:"batch_data_query_file"`
	TradeDataQueryFile string `mapstructure:"trade_data_query_file"`
	MaxConns           int32  `mapstructure:"max_conns"`
}

// DuneConfig holds the analytics API settings.
type DuneConfig struct {
	APIKey               string        `mapstructure:"api_key"`
	BaseURL              string        `mapstructure:"base_url"`
	SlippageQueryID      int           `mapstructure:"slippage_query_id"`
	RewardTargetsQueryID int           `mapstructure:"reward_targets_query_id"`
	ServiceFeesQueryID   int           `mapstructure:"service_fees_query_id"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

// SourcesConfig selects where the input tables come from.
type SourcesConfig struct {
	Kind      string          `mapstructure:"kind"`
	CSVDir    string          `mapstructure:"csv_dir"`
	Orderbook OrderbookConfig `mapstructure:"orderbook"`
	Dune      DuneConfig      `mapstructure:"dune"`
}

// StaticPrice is one configured USD price.
type StaticPrice struct {
	Token string `mapstructure:"token"`
	Day   string `mapstructure:"day"` // YYYY-MM-DD, empty for every day
	USD   string `mapstructure:"usd"`
}

// PricingConfig selects and tunes the price provider.
type PricingConfig struct {
	Provider          string        `mapstructure:"provider"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	StaticPrices      []StaticPrice `mapstructure:"static_prices"`
}

// S3Config holds the archive bucket settings.
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	Prefix         string `mapstructure:"prefix"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// SlackConfig holds the notification settings.
type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir         string      `mapstructure:"dir"`
	Consolidate bool        `mapstructure:"consolidate"`
	S3          S3Config    `mapstructure:"s3"`
	Slack       SlackConfig `mapstructure:"slack"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("PAYOUTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.environment", "PAYOUTS_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PAYOUTS_LOG_LEVEL", "LOG_LEVEL")

	// Network
	v.BindEnv("network.name", "PAYOUTS_NETWORK", "NETWORK")
	v.BindEnv("network.node_url", "PAYOUTS_NODE_URL", "NODE_URL")

	// Secrets
	v.BindEnv("sources.orderbook.prod_db_url", "PAYOUTS_PROD_DB_URL", "PROD_DB_URL")
	v.BindEnv("sources.orderbook.barn_db_url", "PAYOUTS_BARN_DB_URL", "BARN_DB_URL")
	v.BindEnv("sources.dune.api_key", "PAYOUTS_DUNE_API_KEY", "DUNE_API_KEY")
	v.BindEnv("pricing.api_key", "PAYOUTS_COIN_PAPRIKA_KEY", "COIN_PAPRIKA_KEY")
	v.BindEnv("output.slack.token", "PAYOUTS_SLACK_TOKEN", "SLACK_TOKEN")
	v.BindEnv("output.slack.channel", "PAYOUTS_SLACK_CHANNEL", "SLACK_CHANNEL")
	v.BindEnv("output.s3.access_key", "PAYOUTS_AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	v.BindEnv("output.s3.secret_key", "PAYOUTS_AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("output.s3.bucket", "PAYOUTS_AWS_BUCKET", "AWS_BUCKET")

	// Telemetry
	v.BindEnv("telemetry.enabled", "PAYOUTS_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PAYOUTS_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PAYOUTS_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "solver-payouts")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Network defaults
	v.SetDefault("network.name", "mainnet")
	v.SetDefault("network.chain_id", 1)

	// Reward defaults (mainnet)
	v.SetDefault("reward.reward_token_address", "0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB")
	v.SetDefault("reward.cow_bonding_pool_address", "0x5d4020b9261f01b6f8a45db929704b0ad6f5e9e6")
	v.SetDefault("reward.service_fee_factor", "0.15")
	v.SetDefault("reward.quote_reward_cow_cap", "6000000000000000000")
	v.SetDefault("reward.quote_reward_native_cap", "600000000000000")
	v.SetDefault("reward.secondary_reward_budget_native_per_period", "0")
	v.SetDefault("reward.batches_per_period", 1)
	v.SetDefault("reward.include_slippage", true)
	v.SetDefault("reward.upper_cap", "12000000000000000")
	v.SetDefault("reward.lower_cap", "10000000000000000")

	// Protocol fee defaults
	v.SetDefault("protocol_fee.protocol_fee_safe_address", "0xB64963f95215FDe6510657e719bd832BB8bb941B")
	v.SetDefault("protocol_fee.default_partner_fee_cut", "0.15")

	// Payment defaults
	v.SetDefault("payment.payment_safe_address", "0xA03be496e67Ec29bC62F01a428683D7F9c204930")
	v.SetDefault("payment.wrapped_native_token_address", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	v.SetDefault("payment.multisend_address", "0x40A2aCCbd92BCA938b02010E17A5b8929b49130D")
	v.SetDefault("payment.min_transfer_native_wei", "0")
	v.SetDefault("payment.min_transfer_cow_atoms", "0")

	// Source defaults
	v.SetDefault("sources.kind", SourceCSV)
	v.SetDefault("sources.csv_dir", "./data")
	v.SetDefault("sources.orderbook.max_conns", 4)
	v.SetDefault("sources.dune.base_url", "https://api.dune.com/api/v1")
	v.SetDefault("sources.dune.poll_interval", "5s")
	v.SetDefault("sources.dune.timeout", "10m")

	// Pricing defaults
	v.SetDefault("pricing.provider", ProviderCoinPaprika)
	v.SetDefault("pricing.base_url", "https://api.coinpaprika.com")
	v.SetDefault("pricing.requests_per_minute", 60)
	v.SetDefault("pricing.timeout", "10s")

	// Output defaults
	v.SetDefault("output.dir", "./out")
	v.SetDefault("output.consolidate", false)
	v.SetDefault("output.s3.region", "eu-central-1")
	v.SetDefault("output.s3.prefix", "payouts")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "solver-payouts")
	v.SetDefault("telemetry.trace_provider", "stdout")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	addresses := map[string]string{
		"reward.reward_token_address":            c.Reward.RewardTokenAddress,
		"reward.cow_bonding_pool_address":        c.Reward.CowBondingPoolAddress,
		"protocol_fee.protocol_fee_safe_address": c.ProtocolFee.ProtocolFeeSafeAddress,
		"payment.payment_safe_address":           c.Payment.PaymentSafeAddress,
		"payment.wrapped_native_token_address":   c.Payment.WrappedNativeTokenAddress,
		"payment.multisend_address":              c.Payment.MultisendAddress,
	}
	for key, addr := range addresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s: %q", key, addr)
		}
	}

	factors := map[string]string{
		"reward.service_fee_factor":            c.Reward.ServiceFeeFactor,
		"protocol_fee.default_partner_fee_cut": c.ProtocolFee.DefaultPartnerFeeCut,
	}
	for key, f := range factors {
		if _, err := ParseFactor(f); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	amounts := map[string]string{
		"reward.quote_reward_cow_cap":                      c.Reward.QuoteRewardCowCap,
		"reward.quote_reward_native_cap":                   c.Reward.QuoteRewardNativeCap,
		"reward.secondary_reward_budget_native_per_period": c.Reward.SecondaryRewardBudgetNativePerPeriod,
		"reward.upper_cap":                                 c.Reward.UpperCap,
		"reward.lower_cap":                                 c.Reward.LowerCap,
		"payment.min_transfer_native_wei":                  c.Payment.MinTransferNativeWei,
		"payment.min_transfer_cow_atoms":                   c.Payment.MinTransferCowAtoms,
	}
	for key, a := range amounts {
		if _, err := ParseWei(a); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if c.Reward.BatchesPerPeriod <= 0 {
		return fmt.Errorf("reward.batches_per_period must be positive")
	}

	for i, p := range c.ProtocolFee.CustomPartnerFees {
		if !common.IsHexAddress(p.Recipient) {
			return fmt.Errorf("invalid protocol_fee.custom_partner_fees[%d].recipient: %q", i, p.Recipient)
		}
		if _, err := ParseFactor(p.Cut); err != nil {
			return fmt.Errorf("invalid protocol_fee.custom_partner_fees[%d].cut: %w", i, err)
		}
	}
	for i, r := range c.ProtocolFee.PartnerRedirects {
		if !common.IsHexAddress(r.From) || !common.IsHexAddress(r.To) {
			return fmt.Errorf("invalid protocol_fee.partner_redirects[%d]", i)
		}
	}

	switch c.Sources.Kind {
	case SourceCSV, SourceRemote:
	default:
		return fmt.Errorf("unknown sources.kind: %q", c.Sources.Kind)
	}

	switch c.Pricing.Provider {
	case ProviderCoinPaprika, ProviderStatic:
	default:
		return fmt.Errorf("unknown pricing.provider: %q", c.Pricing.Provider)
	}
	for i, p := range c.Pricing.StaticPrices {
		if _, err := decimal.NewFromString(p.USD); err != nil {
			return fmt.Errorf("invalid pricing.static_prices[%d].usd: %w", i, err)
		}
	}

	return nil
}

// ParseFactor parses a decimal factor in [0, 1) exactly.
func ParseFactor(s string) (*big.Rat, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("factor %s outside [0, 1)", s)
	}
	return d.Rat(), nil
}

// ParseWei parses a non-negative integer amount given as a decimal string.
func ParseWei(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if !d.IsInteger() || d.IsNegative() {
		return nil, fmt.Errorf("amount %s must be a non-negative integer", s)
	}
	return d.BigInt(), nil
}
