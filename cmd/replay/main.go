// Package main replays a signal series against a price series through the
// execution pipeline and prints a fill summary. Everything runs in memory
// against the paper executor; no gating applies to historical replay.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/execution"
)

func main() {
	pricesPath := flag.String("prices", "", "CSV price series: ts,price (RFC3339 or unix ms) (required)")
	signalsPath := flag.String("signals", "", "CSV signal series: ts,signal (required)")
	symbol := flag.String("symbol", "BTCUSDT", "Symbol the series describes")
	baseSize := flag.Float64("base-size", 1, "Position size one full signal targets")
	slippageBps := flag.Float64("slippage-bps", 0, "Simulated slippage in basis points")
	feeBps := flag.Float64("fee-bps", 0, "Simulated fee in basis points")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if *pricesPath == "" || *signalsPath == "" {
		logger.Fatal("--prices and --signals are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prices, err := loadPrices(*pricesPath)
	if err != nil {
		logger.Fatalf("load prices: %v", err)
	}
	signals, err := loadSignals(*signalsPath)
	if err != nil {
		logger.Fatalf("load signals: %v", err)
	}
	logger.Printf("Loaded %d price bars and %d signal points for %s", len(prices), len(signals), *symbol)

	executor := execution.NewPaperExecutor(execution.PaperConfig{
		SlippageBps: *slippageBps,
		FeeBps:      *feeBps,
	})
	pipe, err := execution.NewPipeline(execution.Options{
		Executor: executor,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("create pipeline: %v", err)
	}

	results, err := pipe.ExecuteFromSignals(ctx, signals, prices, *symbol, *baseSize)
	if err != nil {
		logger.Fatalf("replay failed: %v", err)
	}

	summary := pipe.Summary()
	positions := executor.Positions()

	if *outputJSON {
		printJSON(*symbol, summary, results, positions)
		return
	}

	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Symbol:          %s\n", *symbol)
	fmt.Printf("Total Orders:    %d\n", summary.TotalOrders)
	fmt.Printf("Filled Orders:   %d\n", summary.FilledOrders)
	fmt.Printf("Rejected Orders: %d\n", summary.RejectedOrders)
	fmt.Printf("Fill Rate:       %.2f%%\n", summary.FillRate*100)
	fmt.Printf("Total Notional:  %.2f\n", summary.TotalNotional)
	fmt.Printf("Total Fees:      %.4f\n", summary.TotalFees)
	for _, p := range positions {
		fmt.Printf("Open Position:   %s %s %.6f @ %.4f (realized %.4f, unrealized %.4f)\n",
			p.Symbol, p.Side, p.Size, p.EntryPrice, p.RealizedPnL, p.UnrealizedPnL)
	}
	if len(positions) == 0 {
		fmt.Printf("Open Position:   none\n")
	}
}

// replayOutput is the JSON report shape.
type replayOutput struct {
	Symbol    string                   `json:"symbol"`
	Summary   domain.ExecutionSummary  `json:"summary"`
	Fills     []fillOutput             `json:"fills"`
	Positions []domain.Position        `json:"positions"`
}

type fillOutput struct {
	Side     string  `json:"side"`
	Status   string  `json:"status"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason,omitempty"`
}

func printJSON(symbol string, summary domain.ExecutionSummary, results []*domain.ExecutionResult, positions []domain.Position) {
	out := replayOutput{
		Symbol:    symbol,
		Summary:   summary,
		Fills:     make([]fillOutput, 0, len(results)),
		Positions: positions,
	}
	for _, r := range results {
		out.Fills = append(out.Fills, fillOutput{
			Side:     string(r.Side),
			Status:   string(r.Status),
			Quantity: r.FilledQuantity,
			Price:    r.FillPrice,
			Reason:   r.Reason,
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// loadPrices reads a two-column CSV of timestamp,price.
func loadPrices(path string) ([]domain.PricePoint, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PricePoint, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected ts,price", i+1)
		}
		ts, err := parseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse price %q: %w", i+1, row[1], err)
		}
		out = append(out, domain.PricePoint{Timestamp: ts, Price: price})
	}
	return out, nil
}

// loadSignals reads a two-column CSV of timestamp,signal.
func loadSignals(path string) ([]domain.SignalPoint, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SignalPoint, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected ts,signal", i+1)
		}
		ts, err := parseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		sig, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse signal %q: %w", i+1, row[1], err)
		}
		out = append(out, domain.SignalPoint{Timestamp: ts, Value: sig})
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var rows [][]string
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Skip a header row if the second column is not numeric.
		if header {
			header = false
			if len(row) >= 2 {
				if _, err := strconv.ParseFloat(row[1], 64); err != nil {
					continue
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseTimestamp accepts RFC3339 or unix milliseconds.
func parseTimestamp(v string) (time.Time, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t.UTC(), nil
}
