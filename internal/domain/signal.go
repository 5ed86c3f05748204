package domain

// SignalRecord is one historical call for a token, as recorded by the
// signal tracker. The engine consumes these in memory; where they came
// from (file, database) is the caller's concern.
type SignalRecord struct {
	Address         string     `json:"address"`
	Symbol          string     `json:"symbol"`
	SignalTimestamp string     `json:"signal_timestamp"` // ISO-8601, 'Z' suffix accepted
	Signal          SignalPeak `json:"signal"`
	Real            RealState  `json:"real"`
}

// SignalPeak carries the peak multiplier observed after the signal fired.
type SignalPeak struct {
	Multiplier float64 `json:"multiplier"`
}

// RealState carries the last known state of the token.
type RealState struct {
	Multiplier float64 `json:"multiplier"`
	IsRugged   bool    `json:"is_rugged"`
}

// PeakMultiplier returns the recorded peak, defaulting to 1.0 when the
// tracker never recorded one.
func (s *SignalRecord) PeakMultiplier() float64 {
	if s.Signal.Multiplier == 0 {
		return 1.0
	}
	return s.Signal.Multiplier
}

// CurrentMultiplier returns the last known multiplier, defaulting to 0.5
// when the tracker lost sight of the token.
func (s *SignalRecord) CurrentMultiplier() float64 {
	if s.Real.Multiplier == 0 {
		return 0.5
	}
	return s.Real.Multiplier
}

// DisplaySymbol returns the symbol or a placeholder when missing.
func (s *SignalRecord) DisplaySymbol() string {
	if s.Symbol == "" {
		return "UNKNOWN"
	}
	return s.Symbol
}
