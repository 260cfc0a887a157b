// Package orca reads the Orca token-swap catalog documents (pools, routes,
// tokens, programIds) and decodes them into domain values.
package orca

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/orca-swap-router/internal/common"
	"github.com/hxuan190/orca-swap-router/internal/domain"
)

type DocumentType string

const (
	DocPools      DocumentType = "pools"
	DocRoutes     DocumentType = "routes"
	DocTokens     DocumentType = "tokens"
	DocProgramIDs DocumentType = "programIds"
)

var AllDocuments = []DocumentType{DocPools, DocRoutes, DocTokens, DocProgramIDs}

// curveType values of the pools document
const (
	curveConstantProduct = 0
	curveStable          = 2
)

var ErrMissingDocument = errors.New("catalog document missing")

// RawDocuments holds the undecoded JSON of each document type.
type RawDocuments map[DocumentType][]byte

type poolDoc struct {
	Account                  string  `json:"account"`
	Authority                string  `json:"authority"`
	Nonce                    uint8   `json:"nonce"`
	PoolTokenMint            string  `json:"poolTokenMint"`
	TokenAccountA            string  `json:"tokenAccountA"`
	TokenAccountB            string  `json:"tokenAccountB"`
	FeeAccount               string  `json:"feeAccount"`
	FeeNumerator             uint64  `json:"feeNumerator"`
	FeeDenominator           uint64  `json:"feeDenominator"`
	OwnerTradeFeeNumerator   uint64  `json:"ownerTradeFeeNumerator"`
	OwnerTradeFeeDenominator uint64  `json:"ownerTradeFeeDenominator"`
	TokenAName               string  `json:"tokenAName"`
	TokenBName               string  `json:"tokenBName"`
	CurveType                int     `json:"curveType"`
	Amp                      *uint64 `json:"amp,omitempty"`
	ProgramVersion           uint8   `json:"programVersion"`
	Deprecated               bool    `json:"deprecated"`
}

type tokenDoc struct {
	Mint       string `json:"mint"`
	Name       string `json:"name"`
	Decimals   uint8  `json:"decimals"`
	FetchPrice bool   `json:"fetchPrice"`
	PoolToken  bool   `json:"poolToken"`
}

type programIDsDoc struct {
	SerumTokenSwap string `json:"serumTokenSwap"`
	TokenSwapV2    string `json:"tokenSwapV2"`
	TokenSwap      string `json:"tokenSwap"`
	Token          string `json:"token"`
	Aquafarm       string `json:"aquafarm"`
}

// Decode turns raw documents into catalog data. Pools that fail to decode are
// skipped with a warning; a malformed document fails the whole decode.
func Decode(network string, raw RawDocuments) (*domain.CatalogData, error) {
	for _, doc := range AllDocuments {
		if len(raw[doc]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingDocument, doc)
		}
	}

	var programs programIDsDoc
	if err := sonic.Unmarshal(raw[DocProgramIDs], &programs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocProgramIDs, err)
	}
	programIDs, err := programs.toDomain()
	if err != nil {
		return nil, err
	}

	var tokenDocs map[string]tokenDoc
	if err := sonic.Unmarshal(raw[DocTokens], &tokenDocs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocTokens, err)
	}
	tokens := make(map[string]domain.TokenInfo, len(tokenDocs))
	for name, t := range tokenDocs {
		mint, err := solana.PublicKeyFromBase58(t.Mint)
		if err != nil {
			log.Warn().Str("token", name).Err(err).Msg("[orcaCatalog] invalid token mint, skipping")
			continue
		}
		tokens[name] = domain.TokenInfo{
			Name:       name,
			Mint:       mint,
			Decimals:   t.Decimals,
			FetchPrice: t.FetchPrice,
			PoolToken:  t.PoolToken,
		}
	}

	var poolDocs map[string]poolDoc
	if err := sonic.Unmarshal(raw[DocPools], &poolDocs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocPools, err)
	}
	pools := make(map[string]domain.Pool, len(poolDocs))
	for path, p := range poolDocs {
		pool, err := p.toDomain(path, tokens, programIDs)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("[orcaCatalog] invalid pool, skipping")
			continue
		}
		pools[path] = pool
	}

	var routes map[string][]domain.Route
	if err := sonic.Unmarshal(raw[DocRoutes], &routes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocRoutes, err)
	}

	return &domain.CatalogData{
		Network:    network,
		Pools:      pools,
		Routes:     routes,
		Tokens:     tokens,
		ProgramIDs: programIDs,
	}, nil
}

// toDomain overlays the document on the mainnet defaults.
func (d programIDsDoc) toDomain() (domain.ProgramIDs, error) {
	ids := common.DefaultProgramIDs()
	fields := []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"serumTokenSwap", d.SerumTokenSwap, &ids.SerumTokenSwap},
		{"tokenSwapV2", d.TokenSwapV2, &ids.TokenSwapV2},
		{"tokenSwap", d.TokenSwap, &ids.TokenSwap},
		{"token", d.Token, &ids.Token},
		{"aquafarm", d.Aquafarm, &ids.Aquafarm},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(f.raw)
		if err != nil {
			return ids, fmt.Errorf("decode %s.%s: %w", DocProgramIDs, f.name, err)
		}
		*f.dst = pk
	}
	return ids, nil
}

func (p poolDoc) toDomain(path string, tokens map[string]domain.TokenInfo, programs domain.ProgramIDs) (domain.Pool, error) {
	keys := make([]solana.PublicKey, 6)
	for i, raw := range []string{p.Account, p.Authority, p.PoolTokenMint, p.TokenAccountA, p.TokenAccountB, p.FeeAccount} {
		if raw == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return domain.Pool{}, err
		}
		keys[i] = pk
	}
	if keys[3].IsZero() || keys[4].IsZero() {
		return domain.Pool{}, errors.New("missing reserve account")
	}
	if p.FeeDenominator != 0 && p.FeeNumerator >= p.FeeDenominator {
		return domain.Pool{}, fmt.Errorf("trade fee %d/%d is not below 100%%", p.FeeNumerator, p.FeeDenominator)
	}

	pool := domain.Pool{
		Path:           path,
		Account:        keys[0],
		Authority:      keys[1],
		PoolTokenMint:  keys[2],
		FeeAccount:     keys[5],
		ProgramVersion: p.ProgramVersion,
		Nonce:          p.Nonce,
		A:              domain.Leg{TokenName: p.TokenAName, Mint: tokens[p.TokenAName].Mint, Account: keys[3]},
		B:              domain.Leg{TokenName: p.TokenBName, Mint: tokens[p.TokenBName].Mint, Account: keys[4]},
		TradeFee:       domain.Fee{Numerator: p.FeeNumerator, Denominator: p.FeeDenominator},
		OwnerTradeFee:  domain.Fee{Numerator: p.OwnerTradeFeeNumerator, Denominator: p.OwnerTradeFeeDenominator},
		Curve:          domain.CurveConstantProduct,
		Deprecated:     p.Deprecated,
	}
	if p.ProgramVersion >= 2 {
		pool.ProgramID = programs.TokenSwapV2
	} else {
		pool.ProgramID = programs.TokenSwap
	}
	if p.CurveType == curveStable {
		pool.Curve = domain.CurveStableSwap
	}
	if p.Amp != nil {
		pool.Amp = *p.Amp
	} else if pool.IsStable() {
		pool.Amp = domain.DefaultAmp
	}
	return pool, nil
}
