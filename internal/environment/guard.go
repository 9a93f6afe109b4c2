package environment

import (
	"errors"
	"fmt"
)

// GateKind identifies which gate rejected an order attempt.
type GateKind string

const (
	GatePaperMode     GateKind = "paper_mode_forbids_orders"
	GateDisabled      GateKind = "live_trading_disabled"
	GateNotArmed      GateKind = "live_mode_not_armed"
	GateConfirmToken  GateKind = "confirm_token_invalid"
	GateLiveDryRun    GateKind = "live_dry_run_blocked"
	GateTestnetDryRun GateKind = "testnet_dry_run_only"
)

// GatingError reports exactly which safety gate blocked the call. Gating
// errors are never retried; they resolve only by reconfiguration.
type GatingError struct {
	Kind    GateKind
	Message string
}

func (e *GatingError) Error() string {
	return fmt.Sprintf("gating: %s: %s", e.Kind, e.Message)
}

// IsGatingError reports whether err is a GatingError, optionally of a
// specific kind.
func IsGatingError(err error, kind GateKind) bool {
	var ge *GatingError
	if !errors.As(err, &ge) {
		return false
	}
	return kind == "" || ge.Kind == kind
}

func gate(kind GateKind, msg string) error {
	return &GatingError{Kind: kind, Message: msg}
}

// Guard is the stateless safety evaluator over an environment Config.
// It has no side effects and never mutates the config.
type Guard struct {
	cfg Config
}

// NewGuard creates a guard over the given config.
func NewGuard(cfg Config) *Guard {
	return &Guard{cfg: cfg}
}

// Config returns the config the guard evaluates.
func (g *Guard) Config() Config { return g.cfg }

// EnsureMayPlaceOrder decides whether placing an order right now is
// permitted. Checks run in fixed precedence:
//
//  1. Paper environment rejects everything.
//  2. Live: enable flag → armed flag → confirm token (when required) →
//     the dry-run flag, checked last and unconditionally.
//  3. Testnet: the dry-run flag decides whether the call may proceed to a
//     validate-only network attempt or must stay fully local.
//
// isTestnet tells the guard which path the caller is on.
func (g *Guard) EnsureMayPlaceOrder(isTestnet bool) error {
	if g.cfg.Environment == Paper {
		return gate(GatePaperMode, "paper environment never places orders")
	}

	if isTestnet || g.cfg.Environment == Testnet {
		if g.cfg.TestnetDryRun {
			return gate(GateTestnetDryRun, "testnet dry-run keeps execution local")
		}
		return nil
	}

	// Live path: walk the authorization chain in order so the caller learns
	// the first unsatisfied gate, then apply the dry-run rail regardless.
	if !g.cfg.EnableLiveTrading {
		return gate(GateDisabled, "live trading is not enabled")
	}
	if !g.cfg.LiveModeArmed {
		return gate(GateNotArmed, "live mode is not armed")
	}
	if !g.cfg.ConfirmTokenValid() {
		return gate(GateConfirmToken, "confirm token missing or invalid")
	}
	if g.cfg.LiveDryRunMode {
		return gate(GateLiveDryRun, "live dry-run rail is engaged")
	}

	return nil
}

// EffectiveMode reports the composite human-meaningful mode the process is
// actually operating in.
func (g *Guard) EffectiveMode() string {
	switch g.cfg.Environment {
	case Live:
		if !g.cfg.EnableLiveTrading || !g.cfg.LiveModeArmed || !g.cfg.ConfirmTokenValid() {
			return "live_locked"
		}
		if g.cfg.LiveDryRunMode {
			return "live_dry_run"
		}
		return "live"
	case Testnet:
		if g.cfg.TestnetDryRun {
			return "dry_run"
		}
		return "testnet"
	default:
		return "paper"
	}
}
