package environment

import "testing"

func TestAllowsRealOrders_NonLiveAlwaysFalse(t *testing.T) {
	for _, env := range []Environment{Paper, Testnet} {
		cfg := Config{
			Environment:       env,
			EnableLiveTrading: true,
			LiveModeArmed:     true,
			LiveDryRunMode:    false,
			ConfirmToken:      confirmTokenValue,
		}
		if cfg.AllowsRealOrders() {
			t.Errorf("environment %s must never allow real orders", env)
		}
	}
}

func TestAllowsRealOrders_LiveDryRunAlwaysFalse(t *testing.T) {
	cfg := Config{
		Environment:         Live,
		EnableLiveTrading:   true,
		LiveModeArmed:       true,
		LiveDryRunMode:      true,
		RequireConfirmToken: true,
		ConfirmToken:        confirmTokenValue,
	}
	if cfg.AllowsRealOrders() {
		t.Error("live dry-run must override a fully authorized chain")
	}
}

func TestAllowsRealOrders_FullChain(t *testing.T) {
	cfg := Config{
		Environment:         Live,
		EnableLiveTrading:   true,
		LiveModeArmed:       true,
		LiveDryRunMode:      false,
		RequireConfirmToken: true,
		ConfirmToken:        confirmTokenValue,
	}
	if !cfg.AllowsRealOrders() {
		t.Error("fully satisfied chain should allow real orders")
	}

	cfg.ConfirmToken = "wrong"
	if cfg.AllowsRealOrders() {
		t.Error("invalid confirm token should block real orders")
	}

	cfg.RequireConfirmToken = false
	if !cfg.AllowsRealOrders() {
		t.Error("token requirement off: token content should not matter")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	// No trading env vars set in tests: everything defaults to the safe side.
	cfg := FromEnv()
	if cfg.Environment != Paper {
		t.Errorf("default environment = %s, want paper", cfg.Environment)
	}
	if cfg.EnableLiveTrading || cfg.LiveModeArmed {
		t.Error("live flags must default off")
	}
	if !cfg.LiveDryRunMode || !cfg.TestnetDryRun {
		t.Error("dry-run flags must default on")
	}
	if cfg.AllowsRealOrders() {
		t.Error("default config must not allow real orders")
	}
}

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"paper":   Paper,
		"TESTNET": Testnet,
		" live ":  Live,
		"bogus":   Paper,
		"":        Paper,
	}
	for in, want := range cases {
		if got := parseEnvironment(in); got != want {
			t.Errorf("parseEnvironment(%q) = %s, want %s", in, got, want)
		}
	}
}
