package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

func newPool(reserveA, reserveB uint64, fee domain.Fee) domain.Pool {
	return domain.Pool{
		Path:     "BTC/ETH",
		A:        domain.Leg{TokenName: "BTC"},
		B:        domain.Leg{TokenName: "ETH"},
		TradeFee: fee,
	}.WithBalances(
		domain.TokenBalance{Amount: reserveA, Decimals: 6},
		domain.TokenBalance{Amount: reserveB, Decimals: 6},
	)
}

func stablePool(reserveA, reserveB uint64) domain.Pool {
	p := newPool(reserveA, reserveB, domain.Fee{Numerator: 6, Denominator: 10000})
	p.Path = "SOCN/SOL[stable][aquafarm]"
	p.Curve = domain.CurveStableSwap
	p.Amp = 100
	return p
}

var orcaFee = domain.Fee{Numerator: 30, Denominator: 10000}

func TestOutputAmountDirectZeroFee(t *testing.T) {
	pool := newPool(1014, 16914, domain.Fee{})

	// 16914 - floor(1014*16914/1114) = 16914 - 15395
	out, err := OutputAmount(pool, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1519), out)

	base, err := BaseOutputAmount(pool, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1668), base)

	fee, err := CalculatingFees(pool, 100)
	require.NoError(t, err)
	require.Zero(t, fee)
}

func TestOutputAmountWithFee(t *testing.T) {
	pool := newPool(18448748, 7218011507888, orcaFee)

	out, err := OutputAmount(pool, 100000)
	require.NoError(t, err)
	require.Equal(t, uint64(38797625944), out)

	fee, err := CalculatingFees(pool, 100000)
	require.NoError(t, err)
	require.Equal(t, uint64(300), fee)
}

func TestOwnerFeeIsAddedToTradeFee(t *testing.T) {
	withOwner := newPool(1_000_000, 1_000_000, domain.Fee{Numerator: 25, Denominator: 10000})
	withOwner.OwnerTradeFee = domain.Fee{Numerator: 5, Denominator: 10000}
	combined := newPool(1_000_000, 1_000_000, orcaFee)

	a, err := OutputAmount(withOwner, 50_000)
	require.NoError(t, err)
	b, err := OutputAmount(combined, 50_000)
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestRoundTripWithinOneUnit(t *testing.T) {
	pools := []domain.Pool{
		newPool(1_000_000, 10_000_000, domain.Fee{}),
		newPool(1_000_000, 10_000_000, orcaFee),
		newPool(18448748, 7218011507888, orcaFee),
	}
	for _, pool := range pools {
		for in := uint64(1); in < 100_000; in += 7919 {
			out, err := OutputAmount(pool, in)
			require.NoError(t, err)

			back, err := InputAmount(pool, out)
			require.NoError(t, err)
			require.LessOrEqual(t, back, in)
			require.LessOrEqual(t, in-back, uint64(1), "in=%d out=%d back=%d", in, out, back)

			again, err := OutputAmount(pool, back)
			require.NoError(t, err)
			require.GreaterOrEqual(t, again, out)
		}
	}
}

func TestInputAmountCoversRequestedOutput(t *testing.T) {
	pools := []domain.Pool{
		newPool(1014, 16914, domain.Fee{}),
		newPool(16914, 1014, orcaFee),
		newPool(20097450122295, 27474561069286, orcaFee),
		stablePool(20097450122295, 27474561069286),
		stablePool(1_000_000_000, 1_200_000_000),
	}
	for _, pool := range pools {
		_, reserveB, err := pool.Reserves()
		require.NoError(t, err)
		for _, want := range []uint64{1, 7, 1000, reserveB / 10, reserveB / 2} {
			in, err := InputAmount(pool, want)
			require.NoError(t, err)

			got, err := OutputAmount(pool, in)
			require.NoError(t, err)
			require.GreaterOrEqual(t, got, want, "pool=%s want=%d in=%d", pool.Path, want, in)

			if in > 0 {
				less, err := OutputAmount(pool, in-1)
				require.NoError(t, err)
				require.Less(t, less, want, "input %d is not minimal", in)
			}
		}
	}
}

func TestOutputAmountMonotonic(t *testing.T) {
	for _, pool := range []domain.Pool{newPool(1_000_000, 3_000_000, orcaFee), stablePool(1_000_000_000, 1_200_000_000)} {
		prev := uint64(0)
		for in := uint64(1000); in < 500_000_000; in = in*3 + 1 {
			out, err := OutputAmount(pool, in)
			require.NoError(t, err)
			require.Greater(t, out, prev, "pool=%s in=%d", pool.Path, in)
			prev = out
		}
	}
}

func TestInsufficientLiquidity(t *testing.T) {
	pool := newPool(1014, 16914, domain.Fee{})

	_, err := InputAmount(pool, 16914)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
	_, err = InputAmount(pool, 20000)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)

	_, err = OutputAmount(newPool(0, 100, domain.Fee{}), 10)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)

	_, err = InputAmount(stablePool(1000, 1000), 1000)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)

	// an input large enough to drain the whole reserve is rejected
	_, err = OutputAmount(pool, 1<<62)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
}

func TestBalancesRequired(t *testing.T) {
	pool := domain.Pool{Path: "BTC/ETH", A: domain.Leg{TokenName: "BTC"}, B: domain.Leg{TokenName: "ETH"}}
	_, err := OutputAmount(pool, 1)
	require.ErrorIs(t, err, domain.ErrBalanceNotLoaded)
	_, err = InputAmount(pool, 1)
	require.ErrorIs(t, err, domain.ErrBalanceNotLoaded)
}

func TestFeesNonNegative(t *testing.T) {
	pool := newPool(1_000_000, 1_000_000, orcaFee)
	for _, x := range []uint64{1, 2, 333, 10_000, 1 << 40} {
		fee, err := CalculatingFees(pool, x)
		require.NoError(t, err)
		require.LessOrEqual(t, fee, x)
		require.Positive(t, fee)
	}
	free := newPool(1_000_000, 1_000_000, domain.Fee{})
	fee, err := CalculatingFees(free, 12345)
	require.NoError(t, err)
	require.Zero(t, fee)
}

func TestSlippageHelpers(t *testing.T) {
	half := decimal.RequireFromString("0.005")

	pool := newPool(1014, 16914, domain.Fee{})
	minOut, err := MinimumAmountOut(pool, 100, half)
	require.NoError(t, err)
	// floor(1519 * 0.995)
	require.Equal(t, uint64(1511), minOut)

	maxIn, err := MaximumAmountIn(pool, 1519, half)
	require.NoError(t, err)
	in, err := InputAmount(pool, 1519)
	require.NoError(t, err)
	up, err := ApplySlippageUp(in, half)
	require.NoError(t, err)
	require.Equal(t, up, maxIn)
	require.GreaterOrEqual(t, maxIn, in)

	gross, err := GrossUpForSlippage(995, half)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), gross)
	gross, err = GrossUpForSlippage(996, half)
	require.NoError(t, err)
	require.Equal(t, uint64(1002), gross)

	_, err = ApplySlippageDown(10, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrInvalidSlippage)
	_, err = ApplySlippageDown(10, decimal.NewFromFloat(-0.1))
	require.ErrorIs(t, err, domain.ErrInvalidSlippage)
}

func TestInputAmountForMinimumReceive(t *testing.T) {
	pool := newPool(1_000_000, 10_000_000, orcaFee)
	slippage := decimal.RequireFromString("0.01")

	for _, minOut := range []uint64{10, 5_000, 123_456} {
		in, err := InputAmountForMinimumReceive(pool, minOut, slippage)
		require.NoError(t, err)

		got, err := MinimumAmountOut(pool, in, slippage)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got, minOut)
	}
}

func TestStableSwapPricesNearParity(t *testing.T) {
	pool := stablePool(1_000_000_000, 1_000_000_000)
	pool.TradeFee = domain.Fee{}

	out, err := OutputAmount(pool, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(999991), out)

	base, err := BaseOutputAmount(pool, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), base)

	cp := pool
	cp.Curve = domain.CurveConstantProduct
	cpOut, err := OutputAmount(cp, 1_000_000)
	require.NoError(t, err)
	require.Greater(t, out, cpOut, "stable curve should beat constant product near parity")
}

func TestStableSwapDefaultsAmp(t *testing.T) {
	pool := stablePool(20097450122295, 27474561069286)
	pool.TradeFee = domain.Fee{}
	withAmp, err := OutputAmount(pool, 1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1003225891), withAmp)

	pool.Amp = 0
	defaulted, err := OutputAmount(pool, 1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, withAmp, defaulted)
}

func TestPriceImpact(t *testing.T) {
	impact, err := PriceImpact(1668, 1519)
	require.NoError(t, err)
	require.True(t, impact.IsPositive())
	require.Equal(t, "8.93", impact.StringFixed(2))
	report := ClassifyImpact(impact)
	require.Equal(t, uint16(893), report.Bps)
	require.Equal(t, ImpactHigh, report.Level)
	require.NotEmpty(t, report.Warning)

	neg, err := PriceImpact(100, 101)
	require.NoError(t, err)
	require.True(t, neg.IsNegative())
	require.Equal(t, ImpactReport{Level: ImpactNegligible}, ClassifyImpact(neg))

	_, err = PriceImpact(0, 0)
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
}

func TestMulDivOverflow(t *testing.T) {
	_, err := MulDiv(1<<63, 4, 1)
	require.ErrorIs(t, err, domain.ErrOverflow)
	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, domain.ErrOverflow)

	v, err := MulDivCeil(10, 10, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(34), v)
}

func BenchmarkOutputAmountConstantProduct(b *testing.B) {
	pool := newPool(18448748, 7218011507888, orcaFee)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = OutputAmount(pool, 100000)
	}
}

func BenchmarkInputAmountStable(b *testing.B) {
	pool := stablePool(20097450122295, 27474561069286)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = InputAmount(pool, 1_000_000_000)
	}
}

func TestConstantProductDustBeatsSpotReference(t *testing.T) {
	pool := newPool(1014, 16914, domain.Fee{})

	// 16914 - floor(1014*16914/1015) = 16914 - 16897
	out, err := OutputAmount(pool, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(17), out)

	// floor(16914/1014)
	base, err := BaseOutputAmount(pool, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(16), base)

	impact, err := PriceImpact(base, out)
	require.NoError(t, err)
	require.Equal(t, "-6.25", impact.String())
	require.Equal(t, ImpactReport{Level: ImpactNegligible}, ClassifyImpact(impact))
}
