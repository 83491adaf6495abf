package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
	"intraday-trader/internal/trading"
)

// instrumentFile is the JSON shape of a universe snapshot file. The broker
// integration layer (out of process) writes these; the CLI only reads them.
type instrumentFile struct {
	Symbol    string  `json:"symbol"`
	Exchange  string  `json:"exchange"`
	Type      string  `json:"type"`
	LotSize   int     `json:"lot_size"`
	LastPrice float64 `json:"last_price"`
	AvgVolume int64   `json:"avg_volume"`
	DayVolume int64   `json:"day_volume"`
	DayOpen   float64 `json:"day_open"`
	DayHigh   float64 `json:"day_high"`
	DayLow    float64 `json:"day_low"`
	Sector    string  `json:"sector"`
}

type candleFile struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// fileUniverse reads the instrument universe from a JSON snapshot file on
// every call, so a long-running session picks up refreshed snapshots.
type fileUniverse struct {
	path string
}

func (f *fileUniverse) Universe(context.Context) ([]models.Instrument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDataUnavailable, err.Error())
	}
	var raw []instrumentFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "parsing %s: %v", f.path, err)
	}

	out := make([]models.Instrument, len(raw))
	for i, r := range raw {
		instType := models.InstrumentType(r.Type)
		if r.Type == "" {
			instType = models.InstrumentEquity
		}
		exchange := models.Exchange(r.Exchange)
		if r.Exchange == "" {
			exchange = models.NSE
		}
		lot := r.LotSize
		if lot == 0 {
			lot = 1
		}
		out[i] = models.Instrument{
			Symbol:    r.Symbol,
			Exchange:  exchange,
			Type:      instType,
			LotSize:   lot,
			LastPrice: r.LastPrice,
			AvgVolume: r.AvgVolume,
			DayVolume: r.DayVolume,
			DayOpen:   r.DayOpen,
			DayHigh:   r.DayHigh,
			DayLow:    r.DayLow,
			Sector:    r.Sector,
		}
	}
	return out, nil
}

// fileHistory reads per-symbol candle files (<dir>/<SYMBOL>.json) written
// by the data collector.
type fileHistory struct {
	dir string
}

func (f *fileHistory) History(_ context.Context, symbol string) ([]models.Candle, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, symbol+".json"))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "history for %s: %v", symbol, err)
	}
	var raw []candleFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewDataError(symbol, "malformed candle file", err)
	}

	out := make([]models.Candle, len(raw))
	for i, c := range raw {
		out[i] = models.Candle{
			Timestamp: c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	}
	return out, nil
}

// fileQuotes derives monitoring quotes from the universe snapshot file,
// rereading it on every call so price updates flow through.
type fileQuotes struct {
	universe *fileUniverse
}

func (f *fileQuotes) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	instruments, err := f.universe.Universe(ctx)
	if err != nil {
		return models.Quote{}, err
	}
	for _, inst := range instruments {
		if inst.Symbol == symbol {
			return models.Quote{
				Symbol:    inst.Symbol,
				LTP:       inst.LastPrice,
				Open:      inst.DayOpen,
				High:      inst.DayHigh,
				Low:       inst.DayLow,
				Volume:    inst.DayVolume,
				Timestamp: time.Now(),
			}, nil
		}
	}
	return models.Quote{}, errors.Wrapf(errors.ErrDataUnavailable, "no quote for %s", symbol)
}

var _ trading.UniverseProvider = (*fileUniverse)(nil)
var _ trading.QuoteProvider = (*fileQuotes)(nil)
