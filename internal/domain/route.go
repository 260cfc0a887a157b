package domain

import (
	"fmt"
	"strings"
)

// Route is one static way of connecting two tokens: an ordered list of pool
// path strings such as "BTC/SOL[aquafarm]".
type Route []string

// RouteKey is the topology key for a token pair.
func RouteKey(from, to string) string {
	return from + "/" + to
}

// PathTokens splits a pool path into its two token slots, keeping
// annotations on the second one: "SOCN/SOL[stable][aquafarm]" -> SOCN, SOL[stable][aquafarm].
func PathTokens(path string) (string, string, bool) {
	a, b, ok := strings.Cut(path, "/")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// IsStablePath reports whether a path string selects the stable curve.
func IsStablePath(path string) bool {
	return strings.Contains(path, "[stable]")
}

// PoolsPair is a resolved, oriented, balance-filled candidate of 1 or 2 pools.
type PoolsPair []Pool

// Validate checks the orientation invariant against source and destination.
func (pp PoolsPair) Validate(source, destination string) error {
	if len(pp) == 0 || len(pp) > 2 {
		return fmt.Errorf("%w: %d pools", ErrInvalidRouteShape, len(pp))
	}
	src, dst := FixedTokenName(source), FixedTokenName(destination)
	if FixedTokenName(pp[0].A.TokenName) != src {
		return fmt.Errorf("%w: first leg is %s, want %s", ErrInvalidRouteShape, pp[0].A.TokenName, src)
	}
	last := pp[len(pp)-1]
	if FixedTokenName(last.B.TokenName) != dst {
		return fmt.Errorf("%w: last leg is %s, want %s", ErrInvalidRouteShape, last.B.TokenName, dst)
	}
	if len(pp) == 2 && FixedTokenName(pp[0].B.TokenName) != FixedTokenName(pp[1].A.TokenName) {
		return fmt.Errorf("%w: %s does not chain into %s", ErrInvalidRouteShape, pp[0].B.TokenName, pp[1].A.TokenName)
	}
	return nil
}

func (pp PoolsPair) Hops() int {
	return len(pp)
}

// Intermediary returns the pass-through token of a 2-pool pair.
func (pp PoolsPair) Intermediary() (string, bool) {
	if len(pp) != 2 {
		return "", false
	}
	return FixedTokenName(pp[0].B.TokenName), true
}

func (pp PoolsPair) Paths() []string {
	out := make([]string, len(pp))
	for i := range pp {
		out[i] = pp[i].Path
	}
	return out
}

// TokenPath lists the tokens traversed, source first.
func (pp PoolsPair) TokenPath() []string {
	if len(pp) == 0 {
		return nil
	}
	out := make([]string, 0, len(pp)+1)
	out = append(out, FixedTokenName(pp[0].A.TokenName))
	for i := range pp {
		out = append(out, FixedTokenName(pp[i].B.TokenName))
	}
	return out
}
