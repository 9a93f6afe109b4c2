// Package main runs the trading core service: the session orchestrator
// behind a JSON HTTP API, with Prometheus metrics and graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"trading-core/internal/alert"
	"trading-core/internal/domain"
	"trading-core/internal/environment"
	"trading-core/internal/feed"
	"trading-core/internal/observability"
	"trading-core/internal/orchestrator"
	"trading-core/internal/risk"
	"trading-core/internal/storage"
	chstore "trading-core/internal/storage/clickhouse"
	"trading-core/internal/storage/memory"
	"trading-core/internal/storage/migrations"
	pgstore "trading-core/internal/storage/postgres"
)

// Server wires the orchestrator to the HTTP API.
type Server struct {
	orch   *orchestrator.Orchestrator
	env    environment.Config
	logger *log.Logger
}

func main() {
	loadEnvFile()

	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("FEED_WS_ENDPOINT"), "WebSocket candle feed endpoint (simulated feed when empty)")
	alertWebhook := flag.String("alert-webhook", os.Getenv("ALERT_WEBHOOK_URL"), "Webhook URL for risk alerts (log-only when empty)")

	riskEnabled := flag.Bool("risk-enabled", envBool("RISK_ENABLED", true), "Enable risk threshold checks")
	riskBlock := flag.Bool("risk-block", envBool("RISK_BLOCK_ON_VIOLATION", true), "Treat risk violations as hard blocks")
	maxOrderNotional := flag.Float64("max-order-notional", envFloat("MAX_ORDER_NOTIONAL", 0), "Per-order notional hard limit (0 disables)")
	maxSymbolExposure := flag.Float64("max-symbol-exposure", envFloat("MAX_SYMBOL_EXPOSURE", 0), "Per-symbol exposure hard limit (0 disables)")
	maxTotalExposure := flag.Float64("max-total-exposure", envFloat("MAX_TOTAL_EXPOSURE", 0), "Total exposure hard limit (0 disables)")
	maxOpenPositions := flag.Int("max-open-positions", int(envFloat("MAX_OPEN_POSITIONS", 0)), "Open position count hard limit (0 disables)")
	maxDailyLoss := flag.Float64("max-daily-loss", envFloat("MAX_DAILY_LOSS", 0), "Daily realized loss hard limit (0 disables)")
	maxDailyLossPct := flag.Float64("max-daily-loss-pct", envFloat("MAX_DAILY_LOSS_PCT", 0), "Daily loss percent hard limit (0 disables)")
	startingCapital := flag.Float64("starting-capital", envFloat("STARTING_CAPITAL", 0), "Capital base for percentage loss limits")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	envCfg := environment.FromEnv()
	logger.Printf("Trading environment: %s (effective mode: %s)",
		envCfg.Environment, environment.NewGuard(envCfg).EffectiveMode())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eventStore, ledger, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	var notifier alert.Notifier = alert.NewLogNotifier(logger)
	if *alertWebhook != "" {
		notifier = alert.NewWebhookNotifier(*alertWebhook, 0)
	}

	limiter, err := risk.New(risk.Options{
		Config: risk.Config{
			Enabled:           *riskEnabled,
			BlockOnViolation:  *riskBlock,
			MaxOrderNotional:  *maxOrderNotional,
			MaxSymbolExposure: *maxSymbolExposure,
			MaxTotalExposure:  *maxTotalExposure,
			MaxOpenPositions:  *maxOpenPositions,
			MaxDailyLoss:      *maxDailyLoss,
			MaxDailyLossPct:   *maxDailyLossPct,
			StartingCapital:   *startingCapital,
			RunCategories: []string{
				domain.RunCategoryShadow,
				domain.RunCategoryTestnet,
				domain.RunCategoryReplay,
			},
		},
		Ledger:   ledger,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("Invalid risk config: %v", err)
	}

	metrics := observability.NewMetrics(nil, "")

	orch := orchestrator.New(orchestrator.Options{
		Env:         envCfg,
		EventStore:  eventStore,
		Limiter:     limiter,
		Readiness:   feedReadiness(*feedEndpoint),
		Metrics:     metrics,
		Logger:      logger,
		TestnetFeed: feedFactory(*feedEndpoint, logger),
	})

	server := &Server{orch: orch, env: envCfg, logger: logger}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("HTTP API listening on %s", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Println("Shutdown signal received")
	case err := <-errCh:
		logger.Printf("HTTP server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}

	orch.StopAll()
	logger.Println("Shutdown complete")
}

// createStores builds the run event store and PnL ledger for the selected
// backend and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.RunEventStore, storage.PnLLedger, func(), error) {
	if useMemory {
		return memory.NewRunEventStore(), memory.NewPnLLedger(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return chstore.NewRunEventStore(conn), pgstore.NewPnLLedger(pool), cleanup, nil
}

// feedFactory returns a websocket feed factory for the configured endpoint,
// or nil to let the orchestrator fall back to its simulated feed.
func feedFactory(endpoint string, logger *log.Logger) orchestrator.FeedFactory {
	if endpoint == "" {
		return nil
	}
	return func(ctx context.Context, _ orchestrator.StartOptions) (feed.Feed, error) {
		cfg := feed.DefaultWSConfig()
		cfg.Logger = logger
		return feed.NewWSFeed(ctx, endpoint, &cfg)
	}
}

// feedReadiness probes the feed endpoint before a testnet session is
// admitted. With no endpoint configured the probe trivially passes.
func feedReadiness(endpoint string) orchestrator.ReadinessChecker {
	return orchestrator.CheckFunc(func(ctx context.Context) error {
		if endpoint == "" {
			return nil
		}
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		f, err := feed.NewWSFeed(probeCtx, endpoint, nil)
		if err != nil {
			return err
		}
		return f.Close()
	})
}

// routes builds the HTTP API.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /api/runs/shadow", s.handleStartShadow)
	mux.HandleFunc("POST /api/runs/testnet", s.handleStartTestnet)
	mux.HandleFunc("POST /api/runs/stop-all", s.handleStopAll)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /api/runs/{id}/stop", s.handleStopRun)
	mux.HandleFunc("GET /api/runs/{id}/events", s.handleRunEvents)

	return mux
}

// StartRunRequest is the JSON body for starting a session.
type StartRunRequest struct {
	Strategy  string  `json:"strategy"`
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Notes     string  `json:"notes"`
	BaseSize  float64 `json:"base_size"`
}

// RunResponse is the JSON shape of one session status.
type RunResponse struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	Strategy  string    `json:"strategy"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	Steps     int64     `json:"steps"`
}

func runResponse(st *domain.SessionStatus) RunResponse {
	return RunResponse{
		RunID:     st.RunID,
		Mode:      string(st.Mode),
		Strategy:  st.Strategy,
		Symbol:    st.Symbol,
		Timeframe: st.Timeframe,
		Notes:     st.Notes,
		State:     string(st.State),
		StartedAt: st.StartedAt,
		EndedAt:   st.EndedAt,
		LastError: st.LastError,
		Steps:     st.Steps,
	}
}

func (s *Server) handleStartShadow(w http.ResponseWriter, r *http.Request) {
	s.handleStart(w, r, s.orch.StartShadowRun)
}

func (s *Server) handleStartTestnet(w http.ResponseWriter, r *http.Request) {
	s.handleStart(w, r, s.orch.StartTestnetRun)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, start func(context.Context, orchestrator.StartOptions) (string, error)) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	runID, err := start(r.Context(), orchestrator.StartOptions{
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Notes:     req.Notes,
		BaseSize:  req.BaseSize,
	})
	if err != nil {
		status := http.StatusBadRequest
		if orchestrator.IsReadinessError(err) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"run_id": runID})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	statuses := s.orch.AllStatuses()
	out := make([]RunResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, runResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st, err := s.orch.GetStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(st))
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.StopRun(r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	s.orch.StopAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// RunEventResponse is the JSON shape of one run event.
type RunEventResponse struct {
	RunID           string            `json:"run_id"`
	Step            int64             `json:"step"`
	Timestamp       time.Time         `json:"ts"`
	Type            string            `json:"type"`
	OrdersSubmitted int               `json:"orders_submitted,omitempty"`
	OrdersFilled    int               `json:"orders_filled,omitempty"`
	OrdersRejected  int               `json:"orders_rejected,omitempty"`
	RiskSeverity    string            `json:"risk_severity,omitempty"`
	RiskReasons     []string          `json:"risk_reasons,omitempty"`
	Price           float64           `json:"price,omitempty"`
	Signal          int               `json:"signal,omitempty"`
	Position        float64           `json:"position,omitempty"`
	Detail          map[string]string `json:"detail,omitempty"`
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	events, err := s.orch.TailEvents(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	out := make([]RunEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, RunEventResponse{
			RunID:           e.RunID,
			Step:            e.Step,
			Timestamp:       e.Timestamp,
			Type:            e.Type,
			OrdersSubmitted: e.OrdersSubmitted,
			OrdersFilled:    e.OrdersFilled,
			OrdersRejected:  e.OrdersRejected,
			RiskSeverity:    e.RiskSeverity,
			RiskReasons:     e.RiskReasons,
			Price:           e.Price,
			Signal:          e.Signal,
			Position:        e.Position,
			Detail:          e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	if errors.Is(err, orchestrator.ErrRunNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
