package domain

import (
	"math"
	"testing"
)

func TestBuyCost_DefaultFees(t *testing.T) {
	effective, fee := DefaultFees.BuyCost(0.1)

	// 2.5% of 0.1 SOL plus the flat network fee.
	wantFee := 0.1*0.025 + 0.00025
	if math.Abs(fee-wantFee) > 1e-12 {
		t.Errorf("expected fee %f, got %f", wantFee, fee)
	}
	if math.Abs(effective-(0.1-wantFee)) > 1e-12 {
		t.Errorf("expected effective %f, got %f", 0.1-wantFee, effective)
	}
}

func TestBuyCost_NeverNegative(t *testing.T) {
	// Position too small to cover the network fee.
	effective, fee := DefaultFees.BuyCost(0.0001)

	if effective != 0 {
		t.Errorf("expected effective 0, got %f", effective)
	}
	if fee <= 0 {
		t.Errorf("expected positive fee, got %f", fee)
	}
}

func TestSellProceeds_NoNetworkFee(t *testing.T) {
	net, fee := DefaultFees.SellProceeds(1.0)

	// Sell side pays only the percentage fees, never the network fee.
	if math.Abs(fee-0.025) > 1e-12 {
		t.Errorf("expected fee 0.025, got %f", fee)
	}
	if math.Abs(net-0.975) > 1e-12 {
		t.Errorf("expected net 0.975, got %f", net)
	}
}

func TestSellProceeds_ZeroGross(t *testing.T) {
	net, fee := DefaultFees.SellProceeds(0)

	if net != 0 || fee != 0 {
		t.Errorf("expected (0, 0), got (%f, %f)", net, fee)
	}
}

func TestTotalFeePcts(t *testing.T) {
	if got := DefaultFees.TotalBuyFeePct(); got != 2.5 {
		t.Errorf("expected total buy fee 2.5, got %f", got)
	}
	if got := DefaultFees.TotalSellFeePct(); got != 2.5 {
		t.Errorf("expected total sell fee 2.5, got %f", got)
	}
}

func TestBreakEvenMultiplier_RoundTripsToOne(t *testing.T) {
	m := DefaultFees.BreakEvenMultiplier()
	if m <= 1 {
		t.Fatalf("expected break-even above 1, got %f", m)
	}

	// Exiting a 1 SOL position at exactly the break-even multiplier must
	// return 1 SOL after all fees.
	effective, _ := DefaultFees.BuyCost(1.0)
	net, _ := DefaultFees.SellProceeds(effective * m)
	if math.Abs(net-1.0) > 1e-9 {
		t.Errorf("expected 1 SOL back at break-even, got %f", net)
	}
}

func TestBreakEvenMultiplier_GreaterThanNaiveFeeSum(t *testing.T) {
	// The compounding of buy and sell fees makes break-even strictly
	// larger than 1 + buy% + sell%.
	naive := 1 + DefaultFees.TotalBuyFeePct()/100 + DefaultFees.TotalSellFeePct()/100
	if m := DefaultFees.BreakEvenMultiplier(); m <= naive {
		t.Errorf("expected break-even above %f, got %f", naive, m)
	}
}

func TestBreakEvenMultiplier_DegenerateFees(t *testing.T) {
	fees := TradingFees{BuyFeePct: 100}
	if m := fees.BreakEvenMultiplier(); m != 0 {
		t.Errorf("expected 0 for degenerate fees, got %f", m)
	}
}
