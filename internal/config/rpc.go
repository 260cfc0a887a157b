package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go/rpc"
)

type RPCConfig struct {
	RPCUrl     string
	Commitment rpc.CommitmentType
	// FetchTimeout bounds a single reserve balance fetch.
	FetchTimeout time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("RPC_URL", rpc.MainNetBeta_RPC)
	r.Commitment = rpc.CommitmentType(common.GetEnvOrDefault("RPC_COMMITMENT", string(rpc.CommitmentConfirmed)))
	r.FetchTimeout = time.Duration(common.GetEnvOrDefaultInt("BALANCE_FETCH_TIMEOUT_MS", 10000)) * time.Millisecond
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config")
	}
	switch r.Commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return errors.New("invalid rpc commitment")
	}
	if r.FetchTimeout <= 0 {
		return errors.New("invalid balance fetch timeout")
	}
	return nil
}
