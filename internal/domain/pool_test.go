package domain

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func testPool(path, a, b string) Pool {
	return Pool{
		Path:    path,
		Account: solana.NewWallet().PublicKey(),
		A:       Leg{TokenName: a, Account: solana.NewWallet().PublicKey()},
		B:       Leg{TokenName: b, Account: solana.NewWallet().PublicKey()},
	}
}

func TestFixedTokenName(t *testing.T) {
	require.Equal(t, "SOL", FixedTokenName("SOL[aquafarm]"))
	require.Equal(t, "SOL", FixedTokenName("SOL[stable][aquafarm]"))
	require.Equal(t, "BTC", FixedTokenName("BTC"))
	require.Equal(t, "", FixedTokenName("[stable]"))
}

func TestReversedSwapsLegsWithoutMutation(t *testing.T) {
	p := testPool("BTC/ETH", "BTC", "ETH").WithBalances(
		TokenBalance{Amount: 1014, Decimals: 6},
		TokenBalance{Amount: 16914, Decimals: 6},
	)
	r := p.Reversed()

	require.Equal(t, "ETH", r.A.TokenName)
	require.Equal(t, "BTC", r.B.TokenName)
	require.Equal(t, p.B.Account, r.A.Account)
	require.Equal(t, uint64(16914), r.A.Balance.Amount)

	require.Equal(t, "BTC", p.A.TokenName)
	require.Equal(t, p, r.Reversed())
}

func TestReservesBeforeBalancesLoaded(t *testing.T) {
	p := testPool("BTC/ETH", "BTC", "ETH")
	_, err := p.ReserveA()
	require.True(t, errors.Is(err, ErrBalanceNotLoaded))
	_, _, err = p.Reserves()
	require.ErrorIs(t, err, ErrBalanceNotLoaded)
	require.False(t, p.HasBalances())

	filled := p.WithBalances(TokenBalance{Amount: 1}, TokenBalance{Amount: 2})
	a, b, err := filled.Reserves()
	require.NoError(t, err)
	require.Equal(t, uint64(1), a)
	require.Equal(t, uint64(2), b)
	require.False(t, p.HasBalances(), "WithBalances must not touch the receiver")
}

func TestFeeAdd(t *testing.T) {
	trade := Fee{Numerator: 25, Denominator: 10000}
	owner := Fee{Numerator: 5, Denominator: 10000}
	require.Equal(t, Fee{Numerator: 30, Denominator: 10000}, trade.Add(owner))

	mixed := Fee{Numerator: 1, Denominator: 100}.Add(Fee{Numerator: 1, Denominator: 1000})
	require.Equal(t, Fee{Numerator: 1100, Denominator: 100000}, mixed)

	require.Equal(t, trade, trade.Add(Fee{}))
	require.Equal(t, trade, Fee{Numerator: 3, Denominator: 0}.Add(trade))
	require.True(t, Fee{}.IsZero())
}

func TestPoolsPairValidate(t *testing.T) {
	socnSol := testPool("SOCN/SOL[stable][aquafarm]", "SOCN", "SOL")
	solBtc := testPool("BTC/SOL[aquafarm]", "BTC", "SOL").Reversed()

	require.NoError(t, PoolsPair{socnSol, solBtc}.Validate("SOCN", "BTC"))
	require.NoError(t, PoolsPair{socnSol}.Validate("SOCN", "SOL"))

	require.ErrorIs(t, PoolsPair{}.Validate("SOCN", "BTC"), ErrInvalidRouteShape)
	require.ErrorIs(t, PoolsPair{socnSol, solBtc, solBtc}.Validate("SOCN", "BTC"), ErrInvalidRouteShape)
	require.ErrorIs(t, PoolsPair{solBtc, socnSol}.Validate("SOCN", "BTC"), ErrInvalidRouteShape)
	require.ErrorIs(t, PoolsPair{socnSol, solBtc.Reversed()}.Validate("SOCN", "BTC"), ErrInvalidRouteShape)

	inter, ok := PoolsPair{socnSol, solBtc}.Intermediary()
	require.True(t, ok)
	require.Equal(t, "SOL", inter)
	require.Equal(t, []string{"SOCN", "SOL", "BTC"}, PoolsPair{socnSol, solBtc}.TokenPath())
}

func TestPathHelpers(t *testing.T) {
	a, b, ok := PathTokens("SOCN/SOL[stable][aquafarm]")
	require.True(t, ok)
	require.Equal(t, "SOCN", a)
	require.Equal(t, "SOL[stable][aquafarm]", b)
	require.True(t, IsStablePath("SOCN/SOL[stable][aquafarm]"))
	require.False(t, IsStablePath("BTC/SOL[aquafarm]"))

	_, _, ok = PathTokens("BTC")
	require.False(t, ok)
}

func TestQuoteRequestValidate(t *testing.T) {
	req := QuoteRequest{InputToken: "BTC", OutputToken: "ETH", Amount: 100, Slippage: SlippageFromBps(50)}
	require.NoError(t, req.Validate())
	require.Equal(t, "0.005", req.Slippage.String())

	bad := req
	bad.Amount = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidAmount)

	bad = req
	bad.Slippage = SlippageFromBps(10000)
	require.ErrorIs(t, bad.Validate(), ErrInvalidSlippage)

	// 65586 bps would wrap to 50 in 16 bits
	bad = req
	bad.Slippage = SlippageFromBps(65586)
	require.Equal(t, "6.5586", bad.Slippage.String())
	require.ErrorIs(t, bad.Validate(), ErrInvalidSlippage)

	mode, err := ParseSwapMode("")
	require.NoError(t, err)
	require.Equal(t, SwapModeExactIn, mode)
	_, err = ParseSwapMode("Both")
	require.Error(t, err)
}
