package backtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type JsonReportBuilder struct {
	log     *slog.Logger
	report  JsonReport
	initial decimal.Decimal
	final   decimal.Decimal
	mu      sync.Mutex
}

type JsonReport struct {
	TotalReturn float64                     `json:"total_return"`
	Symbols     map[string]JsonSymbolReport `json:"symbols,omitempty"`
}

type JsonSymbolReport struct {
	Metrics     Metrics     `json:"metrics"`
	SkippedBars int         `json:"skipped_bars,omitempty"`
	Trades      []JsonTrade `json:"trades,omitempty"`
}

type JsonTrade struct {
	Side       string    `json:"side"`
	EntryTime  time.Time `json:"entry_time,omitzero"`
	ExitTime   time.Time `json:"exit_time,omitzero"`
	EntryPrice string    `json:"entry_price"`
	ExitPrice  string    `json:"exit_price"`
	Qty        string    `json:"qty"`
	Pnl        string    `json:"pnl"`
}

func NewJsonReportBuilder(log *slog.Logger) *JsonReportBuilder {
	return &JsonReportBuilder{
		log: log,
		report: JsonReport{
			Symbols: map[string]JsonSymbolReport{},
		},
	}
}

func (r *JsonReportBuilder) SubmitResult(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sym := JsonSymbolReport{
		Metrics:     res.Metrics,
		SkippedBars: res.SkippedBars,
		Trades:      make([]JsonTrade, len(res.Trades)),
	}
	for i, t := range res.Trades {
		sym.Trades[i] = JsonTrade{
			Side:       t.Side.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice.String(),
			ExitPrice:  t.ExitPrice.String(),
			Qty:        t.Qty.String(),
			Pnl:        t.Pnl.String(),
		}
	}
	r.report.Symbols[res.Symbol] = sym

	r.initial = r.initial.Add(res.InitialCapital)
	r.final = r.final.Add(finalEquity(res))

	r.log.Info("backtest finished",
		slog.String("symbol", res.Symbol),
		slog.Float64("total_return", res.Metrics.TotalReturn),
		slog.Float64("win_rate", res.Metrics.WinRate),
		slog.Float64("sharpe_ratio", res.Metrics.SharpeRatio),
		slog.Int("trades", res.Metrics.TotalTrades),
		slog.Int("skipped_bars", res.SkippedBars))
}

// finalEquity is the last mark-to-market equity value of a run, so an open
// position contributes its unrealized pnl to the aggregate total return the
// same way it does to the per-symbol metric.
func finalEquity(res Result) decimal.Decimal {
	if len(res.EquityCurve) == 0 {
		return res.FinalCapital
	}

	return res.EquityCurve[len(res.EquityCurve)-1].Equity
}

func (r *JsonReportBuilder) Write(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initial.IsZero() {
		r.report.TotalReturn, _ = r.final.Div(r.initial).Sub(decimal.NewFromInt(1)).Float64()
	}

	e := json.NewEncoder(w)
	if err := e.Encode(r.report); err != nil {
		return fmt.Errorf("failed to write backtest report: %w", err)
	}

	return nil
}

func (r *JsonReportBuilder) WriteToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return r.Write(f)
}
