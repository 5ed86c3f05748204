package domain

// TradingFees models the round-trip cost structure of a GMGN-style swap
// venue on Solana. Percentages are expressed as whole percent (1.0 = 1%).
// The zero-cost path is deliberate: a TradingFees value is pure and shared
// by value between whoever needs it.
type TradingFees struct {
	BuyFeePct      float64 // platform fee on the buy leg
	SellFeePct     float64 // platform fee on the sell leg
	PriorityFeePct float64 // MEV-protection priority fee, both legs
	SlippagePct    float64 // average slippage assumption, both legs
	NetworkFeeSOL  float64 // flat Solana network fee, charged on the buy leg only
}

// DefaultFees is the GMGN.ai fee structure used when callers do not
// override it.
var DefaultFees = TradingFees{
	BuyFeePct:      1.0,
	SellFeePct:     1.0,
	PriorityFeePct: 0.5,
	SlippagePct:    1.0,
	NetworkFeeSOL:  0.00025,
}

// TotalBuyFeePct returns the combined percentage fee on the buy side.
func (f TradingFees) TotalBuyFeePct() float64 {
	return f.BuyFeePct + f.PriorityFeePct + f.SlippagePct
}

// TotalSellFeePct returns the combined percentage fee on the sell side.
func (f TradingFees) TotalSellFeePct() float64 {
	return f.SellFeePct + f.PriorityFeePct + f.SlippagePct
}

// BuyCost returns the SOL actually converted into tokens after buy-side
// fees, and the total fee paid. The flat network fee is charged here, on
// the buy leg of the round trip.
func (f TradingFees) BuyCost(positionSOL float64) (effectiveSOL, feeSOL float64) {
	feeSOL = positionSOL*(f.TotalBuyFeePct()/100) + f.NetworkFeeSOL
	effectiveSOL = positionSOL - feeSOL
	if effectiveSOL < 0 {
		effectiveSOL = 0
	}
	return effectiveSOL, feeSOL
}

// SellProceeds returns the SOL received after sell-side fees. The network
// fee is not charged again: one round trip pays it once, on the buy.
func (f TradingFees) SellProceeds(grossSOL float64) (netSOL, feeSOL float64) {
	if grossSOL == 0 {
		return 0, 0
	}
	feeSOL = grossSOL * (f.TotalSellFeePct() / 100)
	netSOL = grossSOL - feeSOL
	if netSOL < 0 {
		netSOL = 0
	}
	return netSOL, feeSOL
}

// BreakEvenMultiplier returns the exit multiplier at which a 1 SOL round
// trip returns exactly 1 SOL after all fees:
//
//	SellProceeds(BuyCost(1).effective * m) == 1
//
// Solved analytically: m = 1 / ((buyFactor - networkFee) * sellFactor).
func (f TradingFees) BreakEvenMultiplier() float64 {
	buyFactor := 1 - f.TotalBuyFeePct()/100
	sellFactor := 1 - f.TotalSellFeePct()/100
	effective := buyFactor - f.NetworkFeeSOL
	if effective <= 0 || sellFactor <= 0 {
		return 0
	}
	return 1 / (effective * sellFactor)
}
