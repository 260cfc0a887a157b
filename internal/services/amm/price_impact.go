package amm

import (
	"math"

	"github.com/shopspring/decimal"
)

// ImpactLevel buckets a quote's price impact for display and metrics.
type ImpactLevel string

const (
	ImpactNegligible ImpactLevel = "negligible"
	ImpactLow        ImpactLevel = "low"
	ImpactModerate   ImpactLevel = "moderate"
	ImpactHigh       ImpactLevel = "high"
	ImpactSevere     ImpactLevel = "severe"
)

// impactBands are upper bounds in bps, checked in order.
var impactBands = []struct {
	below   uint16
	level   ImpactLevel
	warning string
}{
	{100, ImpactNegligible, ""},
	{300, ImpactLow, "price moves slightly against this trade"},
	{500, ImpactModerate, "consider splitting the trade into smaller swaps"},
	{1000, ImpactHigh, "output is well below the spot price of the route"},
	{math.MaxUint16, ImpactSevere, "trade drains a large share of pool liquidity"},
}

// ImpactReport is the classified form of a price impact percentage.
type ImpactReport struct {
	Bps     uint16
	Level   ImpactLevel
	Warning string
}

// ClassifyImpact converts a percentage into bps and buckets it. Negative
// impact, where the trade beats the spot price, reports as zero.
func ClassifyImpact(percent decimal.Decimal) ImpactReport {
	var bps uint16
	if percent.IsPositive() {
		scaled := percent.Shift(2).Floor()
		if scaled.GreaterThanOrEqual(decimal.NewFromInt(math.MaxUint16)) {
			bps = math.MaxUint16
		} else {
			bps = uint16(scaled.IntPart())
		}
	}
	for _, band := range impactBands {
		if bps < band.below {
			return ImpactReport{Bps: bps, Level: band.level, Warning: band.warning}
		}
	}
	last := impactBands[len(impactBands)-1]
	return ImpactReport{Bps: bps, Level: last.level, Warning: last.warning}
}
