// Package environment declares the active trading environment and the
// explicit safety flags that gate real order flow.
package environment

import (
	"os"
	"strings"
)

// Environment identifies which venue class the process trades against.
type Environment string

const (
	Paper   Environment = "paper"
	Testnet Environment = "testnet"
	Live    Environment = "live"
)

// Config is the immutable declaration of the active environment and its
// safety flags. It is created once at process or session start; nothing in
// the core mutates it afterwards.
type Config struct {
	Environment Environment

	// Live-mode authorization chain. All of these must line up before
	// AllowsRealOrders can be true.
	EnableLiveTrading   bool
	LiveModeArmed       bool
	LiveDryRunMode      bool
	RequireConfirmToken bool
	ConfirmToken        string

	// TestnetDryRun keeps testnet sessions fully local instead of
	// attempting validate-only network calls.
	TestnetDryRun bool
}

// confirmTokenValue is the only accepted confirm token. Matching the
// original operator workflow, the token is a fixed phrase rather than a
// secret: it exists to force a deliberate keystroke, not to authenticate.
const confirmTokenValue = "CONFIRM-LIVE-TRADING"

// ConfirmTokenValid reports whether the confirm-token requirement is
// satisfied. A config that does not require the token is trivially valid.
func (c Config) ConfirmTokenValid() bool {
	if !c.RequireConfirmToken {
		return true
	}
	return c.ConfirmToken == confirmTokenValue
}

// AllowsRealOrders reports whether every gate for placing a real live order
// is satisfied. Any environment other than Live is unconditionally false.
func (c Config) AllowsRealOrders() bool {
	if c.Environment != Live {
		return false
	}
	if !c.EnableLiveTrading || !c.LiveModeArmed {
		return false
	}
	if c.LiveDryRunMode {
		return false
	}
	return c.ConfirmTokenValid()
}

// FromEnv builds a Config from process environment variables. Every default
// is the safe one: paper environment, live trading off, dry-run on.
func FromEnv() Config {
	return Config{
		Environment:         parseEnvironment(getEnv("TRADING_ENV", string(Paper))),
		EnableLiveTrading:   getEnvBool("ENABLE_LIVE_TRADING", false),
		LiveModeArmed:       getEnvBool("LIVE_MODE_ARMED", false),
		LiveDryRunMode:      getEnvBool("LIVE_DRY_RUN", true),
		RequireConfirmToken: getEnvBool("REQUIRE_CONFIRM_TOKEN", true),
		ConfirmToken:        getEnv("CONFIRM_TOKEN", ""),
		TestnetDryRun:       getEnvBool("TESTNET_DRY_RUN", true),
	}
}

func parseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Testnet:
		return Testnet
	case Live:
		return Live
	default:
		return Paper
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}
