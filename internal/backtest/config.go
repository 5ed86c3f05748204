package backtest

import "solana-strategy-lab/internal/domain"

// Config holds backtest run parameters.
type Config struct {
	PositionSize    float64 // SOL committed per trade
	StartingCapital float64 // total SOL, denominator for ROI
	MaxHoldHours    int     // forced exit horizon per position
	CandleTimeframe int     // minutes per candle
	CandleLimit     int     // max candles fetched per token
	Fees            domain.TradingFees
}

// DefaultConfig returns the standard run parameters: 0.1 SOL positions out
// of 10 SOL capital, 72h max hold on 15-minute candles, GMGN fees.
func DefaultConfig() Config {
	return Config{
		PositionSize:    0.1,
		StartingCapital: 10.0,
		MaxHoldHours:    72,
		CandleTimeframe: 15,
		CandleLimit:     1000, // ~10 days of 15min candles
		Fees:            domain.DefaultFees,
	}
}
