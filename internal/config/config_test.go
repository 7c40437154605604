package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GasPriceCeiling.Int64() != 15_000_000 {
		t.Fatalf("unexpected ceiling: %s", cfg.GasPriceCeiling)
	}
	if cfg.PollInterval != time.Minute || cfg.PositionDelay != 100*time.Millisecond || cfg.SettleDelay != time.Second {
		t.Fatalf("unexpected delays: %+v", cfg)
	}
	if cfg.Positions != "./positions.json" || cfg.NativeIDSlippage != 5 || !cfg.AutoApprove {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestLoadEnvFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	env := "LBKEEPER_ACCOUNT_KEY=abc\nLBKEEPER_TELEGRAM_TOKEN=tok\nLBKEEPER_NOTIFY_CHAT_ID=42\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LBKEEPER_ACCOUNT_KEY")
		os.Unsetenv("LBKEEPER_TELEGRAM_TOKEN")
		os.Unsetenv("LBKEEPER_NOTIFY_CHAT_ID")
	})
	t.Setenv("LBKEEPER_GAS_PRICE_CEILING", "25000000")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Duration("poll-interval", 0, "")
	if err := flags.Parse([]string{"--rpc", "http://localhost:8545", "--poll-interval", "30s"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccountKey != "abc" || cfg.TelegramToken != "tok" || cfg.NotifyChatID != 42 {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if cfg.RPCURL != "http://localhost:8545" || cfg.PollInterval != 30*time.Second {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.GasPriceCeiling.Int64() != 25_000_000 {
		t.Fatalf("env not applied: %s", cfg.GasPriceCeiling)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "keeper.yaml")
	body := "account-key: k\nrpc: http://node\ntelegram-token: t\nnative-delta-id: 1\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected positive native-delta-id to be rejected")
	}
}

func TestLoadRejectsBadCeiling(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LBKEEPER_GAS_PRICE_CEILING", "lots")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRouterDefaultAndRequired(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "keeper.yaml")
	body := "account-key: k\nrpc: http://node\ntelegram-token: t\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Router != DefaultRouter {
		t.Fatalf("unexpected router default: %q", cfg.Router)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.Router = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for empty router, got %v", err)
	}
	cfg.Router = "0x0000000000000000000000000000000000000000"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero router address to be rejected")
	}
}
