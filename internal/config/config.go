package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrMissingField is returned by Validate for an empty required field.
var ErrMissingField = errors.New("missing required config field")

// DefaultRouter is the Liquidity Book router used when none is configured.
const DefaultRouter = "0x18556DA13313f3532c54711497A8FedAC273220E"

// EnvPrefix prefixes every environment variable, e.g. LBKEEPER_RPC.
const EnvPrefix = "LBKEEPER"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	AccountKey       string
	RPCURL           string
	TelegramToken    string
	NotifyChatID     int64
	ExplorerAPIKey   string
	ExplorerURL      string
	Router           string
	GasPriceCeiling  *big.Int
	Positions        string
	ABICache         string
	EventLog         string
	PGDSN            string
	PollInterval     time.Duration
	PositionDelay    time.Duration
	SettleDelay      time.Duration
	Deadline         time.Duration
	NativeIDSlippage uint64
	NativeDeltaID    int64
	AutoApprove      bool
	ReceiptTimeout   time.Duration
	ReceiptPoll      time.Duration
	LogLevel         string
	LogFile          string
	LogMaxSizeMB     int
	LogMaxBackups    int
	LogMaxAgeDays    int
}

// Load merges .env, config file, environment variables, and flags into
// Config. It does not validate; call Validate before starting the keeper.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("explorer-url", "https://api.etherscan.io/v2/api")
	v.SetDefault("router", DefaultRouter)
	v.SetDefault("gas-price-ceiling", "15000000")
	v.SetDefault("positions", "./positions.json")
	v.SetDefault("abi-cache", "./abi_cache.json")
	v.SetDefault("event-log", "./data/rebalances.jsonl")
	v.SetDefault("poll-interval", 60*time.Second)
	v.SetDefault("position-delay", 100*time.Millisecond)
	v.SetDefault("settle-delay", time.Second)
	v.SetDefault("deadline", 24*time.Hour)
	v.SetDefault("native-id-slippage", uint64(5))
	v.SetDefault("native-delta-id", int64(0))
	v.SetDefault("auto-approve", true)
	v.SetDefault("receipt-timeout", 5*time.Minute)
	v.SetDefault("receipt-poll", 2*time.Second)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-max-size", 50)
	v.SetDefault("log-max-backups", 5)
	v.SetDefault("log-max-age", 28)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	ceiling, ok := new(big.Int).SetString(strings.TrimSpace(v.GetString("gas-price-ceiling")), 10)
	if !ok || ceiling.Sign() <= 0 {
		return Config{}, fmt.Errorf("invalid gas-price-ceiling %q", v.GetString("gas-price-ceiling"))
	}

	cfg := Config{
		AccountKey:       strings.TrimSpace(v.GetString("account-key")),
		RPCURL:           strings.TrimSpace(v.GetString("rpc")),
		TelegramToken:    strings.TrimSpace(v.GetString("telegram-token")),
		NotifyChatID:     v.GetInt64("notify-chat-id"),
		ExplorerAPIKey:   v.GetString("explorer-api-key"),
		ExplorerURL:      v.GetString("explorer-url"),
		Router:           strings.TrimSpace(v.GetString("router")),
		GasPriceCeiling:  ceiling,
		Positions:        v.GetString("positions"),
		ABICache:         v.GetString("abi-cache"),
		EventLog:         v.GetString("event-log"),
		PGDSN:            v.GetString("pg-dsn"),
		PollInterval:     v.GetDuration("poll-interval"),
		PositionDelay:    v.GetDuration("position-delay"),
		SettleDelay:      v.GetDuration("settle-delay"),
		Deadline:         v.GetDuration("deadline"),
		NativeIDSlippage: v.GetUint64("native-id-slippage"),
		NativeDeltaID:    v.GetInt64("native-delta-id"),
		AutoApprove:      v.GetBool("auto-approve"),
		ReceiptTimeout:   v.GetDuration("receipt-timeout"),
		ReceiptPoll:      v.GetDuration("receipt-poll"),
		LogLevel:         v.GetString("log-level"),
		LogFile:          v.GetString("log-file"),
		LogMaxSizeMB:     v.GetInt("log-max-size"),
		LogMaxBackups:    v.GetInt("log-max-backups"),
		LogMaxAgeDays:    v.GetInt("log-max-age"),
	}

	return cfg, nil
}

// Validate checks the fields the keeper cannot start without.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"account-key", c.AccountKey},
		{"rpc", c.RPCURL},
		{"telegram-token", c.TelegramToken},
		{"router", c.Router},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}
	if !common.IsHexAddress(c.Router) || common.HexToAddress(c.Router) == (common.Address{}) {
		return fmt.Errorf("invalid router address %q", c.Router)
	}
	if c.NativeDeltaID > 0 {
		return fmt.Errorf("native-delta-id must be <= 0, got %d", c.NativeDeltaID)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	return nil
}
