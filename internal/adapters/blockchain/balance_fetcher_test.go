package blockchain

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/orca-swap-router/internal/metrics"
)

type rpcRequest struct {
	ID     any    `json:"id"`
	Method string `json:"method"`
}

func tokenAccountData(amount uint64) string {
	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1 // initialized
	return base64.StdEncoding.EncodeToString(data)
}

func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req rpcRequest
		require.NoError(t, sonic.Unmarshal(body, &req))

		result, ok := results[req.Method]
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		out, err := sonic.Marshal(resp)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
	}))
}

func fetchCount(t *testing.T, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.BalanceFetches.WithLabelValues(status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestGetReserveBalance(t *testing.T) {
	srv := newRPCServer(t, map[string]any{
		"getTokenAccountBalance": map[string]any{
			"context": map[string]any{"slot": 1},
			"value": map[string]any{
				"amount":         "16914",
				"decimals":       6,
				"uiAmount":       0.016914,
				"uiAmountString": "0.016914",
			},
		},
	})
	defer srv.Close()

	f := NewBalanceFetcher(rpc.New(srv.URL), "")
	before := fetchCount(t, "ok")
	bal, err := f.GetReserveBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(16914), bal.Amount)
	require.Equal(t, uint8(6), bal.Decimals)
	require.Equal(t, before+1, fetchCount(t, "ok"))
}

func TestGetReserveBalanceRPCError(t *testing.T) {
	srv := newRPCServer(t, map[string]any{})
	defer srv.Close()

	f := NewBalanceFetcher(rpc.New(srv.URL), rpc.CommitmentFinalized)
	_, err := f.GetReserveBalance(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
}

func TestGetReserveBalancesDecodesTokenAccounts(t *testing.T) {
	known := solana.NewWallet().PublicKey()
	unregistered := solana.NewWallet().PublicKey()
	missing := solana.NewWallet().PublicKey()

	account := func(amount uint64) map[string]any {
		return map[string]any{
			"data":       []string{tokenAccountData(amount), "base64"},
			"executable": false,
			"lamports":   2039280,
			"owner":      solana.TokenProgramID.String(),
			"rentEpoch":  0,
		}
	}
	srv := newRPCServer(t, map[string]any{
		"getMultipleAccounts": map[string]any{
			"context": map[string]any{"slot": 1},
			"value":   []any{account(1014), account(7), nil},
		},
	})
	defer srv.Close()

	f := NewBalanceFetcher(rpc.New(srv.URL), "")
	f.RegisterDecimals(map[solana.PublicKey]uint8{known: 6, missing: 9})

	ok, notFound := fetchCount(t, "ok"), fetchCount(t, "not_found")
	got, err := f.GetReserveBalances(context.Background(), []solana.PublicKey{known, unregistered, missing})
	require.NoError(t, err)
	require.Equal(t, ok+1, fetchCount(t, "ok"))
	require.Equal(t, notFound+1, fetchCount(t, "not_found"))
	require.Len(t, got, 1)
	require.Equal(t, uint64(1014), got[known].Amount)
	require.Equal(t, uint8(6), got[known].Decimals)
}
