package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/hxuan190/orca-swap-router/internal/adapters/blockchain"
	"github.com/hxuan190/orca-swap-router/internal/adapters/orca"
	"github.com/hxuan190/orca-swap-router/internal/adapters/persistence"
	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/common"
	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/services/market"
)

func main() {
	root := &cobra.Command{
		Use:          "orca-quote",
		Short:        "Quote Orca token swaps from the command line",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("catalog", "./catalog", "catalog directory or http(s) base URL")
	root.PersistentFlags().String("network", orca.DefaultNetwork, "catalog network")
	root.PersistentFlags().String("rpc", rpc.MainNetBeta_RPC, "Solana RPC URL")
	root.PersistentFlags().String("snapshot", "", "BoltDB snapshot path used when the catalog source is unreachable")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price the best route between two tokens",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("from", "", "input token name or mint")
	quoteCmd.Flags().String("to", "", "output token name or mint")
	quoteCmd.Flags().Uint64("amount", 0, "amount in smallest units")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the desired output")
	quoteCmd.Flags().Int("slippage-bps", 50, "slippage tolerance in basis points")
	_ = quoteCmd.MarkFlagRequired("from")
	_ = quoteCmd.MarkFlagRequired("to")
	_ = quoteCmd.MarkFlagRequired("amount")
	root.AddCommand(quoteCmd)

	destCmd := &cobra.Command{
		Use:   "destinations",
		Short: "List tokens reachable from a token",
		RunE:  runDestinations,
	}
	destCmd.Flags().String("from", "", "token name or mint")
	_ = destCmd.MarkFlagRequired("from")
	root.AddCommand(destCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Print catalog statistics",
		RunE:  runPools,
	}
	root.AddCommand(poolsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newAggregator loads the catalog and wires the quote service without the
// DI container.
func newAggregator(ctx context.Context, cmd *cobra.Command, slippageBps int) (*aggregator.Service, func(), error) {
	flags := cmd.Flags()
	source, _ := flags.GetString("catalog")
	network, _ := flags.GetString("network")
	rpcURL, _ := flags.GetString("rpc")
	snapshot, _ := flags.GetString("snapshot")
	logLevel, _ := flags.GetString("log-level")
	common.SetupLogger(logLevel, "dev")

	var storage *persistence.Storage
	if snapshot != "" {
		s, err := persistence.NewStorage(snapshot)
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot: %w", err)
		}
		storage = s
	}

	fetcher := blockchain.NewBalanceFetcher(rpc.New(rpcURL), rpc.CommitmentConfirmed)
	marketSvc := market.NewService(orca.NewLoader(source, network), storage, fetcher, 10*time.Second)
	closeFn := func() { _ = marketSvc.Stop() }

	if err := marketSvc.Load(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}

	routing := &config.RoutingConfig{DefaultSlippageBps: slippageBps, MaxSlippageBps: 5000}
	if err := routing.Validate(); err != nil {
		closeFn()
		return nil, nil, err
	}
	return aggregator.NewService(marketSvc, routing), closeFn, nil
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	amount, _ := cmd.Flags().GetUint64("amount")
	exactOut, _ := cmd.Flags().GetBool("exact-out")
	slippageBps, _ := cmd.Flags().GetInt("slippage-bps")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := newAggregator(ctx, cmd, slippageBps)
	if err != nil {
		return err
	}
	defer closeFn()

	mode := domain.SwapModeExactIn
	if exactOut {
		mode = domain.SwapModeExactOut
	}
	quote, err := svc.Quote(ctx, domain.QuoteRequest{
		InputToken:  from,
		OutputToken: to,
		Amount:      amount,
		Mode:        mode,
		Slippage:    svc.DefaultSlippage(),
	})
	if err != nil {
		return err
	}

	return printJSON(struct {
		*domain.SwapQuote
		Route []string `json:"route"`
	}{quote, quote.Pair.Paths()})
}

func runDestinations(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetString("from")

	svc, closeFn, err := newAggregator(cmd.Context(), cmd, 50)
	if err != nil {
		return err
	}
	defer closeFn()

	dests, err := svc.Destinations(from)
	if err != nil {
		return err
	}
	return printJSON(dests)
}

func runPools(cmd *cobra.Command, _ []string) error {
	svc, closeFn, err := newAggregator(cmd.Context(), cmd, 50)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := svc.Stats()
	if err != nil {
		return err
	}
	pools, err := svc.Pools()
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(pools))
	for _, p := range pools {
		paths = append(paths, p.Path)
	}
	return printJSON(struct {
		aggregator.Stats
		PoolPaths []string `json:"poolPaths"`
	}{stats, paths})
}
