package market

import (
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

// Catalog is the immutable pool topology. It is built once per load and read
// concurrently without locks.
type Catalog struct {
	network  string
	pools    map[string]domain.Pool
	routes   map[string][]domain.Route
	tokens   map[string]domain.TokenInfo
	byMint   map[solana.PublicKey]string
	programs domain.ProgramIDs

	destinations map[string][]string
}

func NewCatalog(data *domain.CatalogData) *Catalog {
	c := &Catalog{
		network:      data.Network,
		pools:        make(map[string]domain.Pool, len(data.Pools)),
		routes:       make(map[string][]domain.Route, len(data.Routes)),
		tokens:       make(map[string]domain.TokenInfo, len(data.Tokens)),
		byMint:       make(map[solana.PublicKey]string, len(data.Tokens)),
		programs:     data.ProgramIDs,
		destinations: make(map[string][]string),
	}
	for path, pool := range data.Pools {
		c.pools[path] = pool
	}
	for name, token := range data.Tokens {
		c.tokens[name] = token
		c.byMint[token.Mint] = name
	}

	reachable := make(map[string]map[string]struct{})
	link := func(from, to string) {
		if reachable[from] == nil {
			reachable[from] = make(map[string]struct{})
		}
		reachable[from][to] = struct{}{}
	}
	for key, routes := range data.Routes {
		if len(routes) == 0 {
			continue
		}
		c.routes[key] = routes
		from, to, ok := domain.PathTokens(key)
		if !ok {
			continue
		}
		link(from, to)
		link(to, from)
	}
	for from, set := range reachable {
		dests := make([]string, 0, len(set))
		for to := range set {
			dests = append(dests, to)
		}
		sort.Strings(dests)
		c.destinations[from] = dests
	}
	return c
}

func (c *Catalog) Network() string {
	return c.network
}

func (c *Catalog) ProgramIDs() domain.ProgramIDs {
	return c.programs
}

// Pool returns the catalog pool for a path string.
func (c *Catalog) Pool(path string) (domain.Pool, bool) {
	p, ok := c.pools[path]
	return p, ok
}

// Routes returns the static routes between two tokens, looked up under
// either key order. Returned routes must not be modified.
func (c *Catalog) Routes(source, destination string) []domain.Route {
	src, dst := domain.FixedTokenName(source), domain.FixedTokenName(destination)
	if routes, ok := c.routes[domain.RouteKey(src, dst)]; ok {
		return routes
	}
	return c.routes[domain.RouteKey(dst, src)]
}

func (c *Catalog) Token(name string) (domain.TokenInfo, bool) {
	t, ok := c.tokens[domain.FixedTokenName(name)]
	return t, ok
}

// Mint returns the mint of a token name.
func (c *Catalog) Mint(name string) (solana.PublicKey, bool) {
	t, ok := c.Token(name)
	return t.Mint, ok
}

// TokenName returns the catalog name of a mint.
func (c *Catalog) TokenName(mint solana.PublicKey) (string, bool) {
	name, ok := c.byMint[mint]
	return name, ok
}

// PossibleDestinations lists the tokens with at least one route from source.
func (c *Catalog) PossibleDestinations(source string) []string {
	dests := c.destinations[domain.FixedTokenName(source)]
	out := make([]string, len(dests))
	copy(out, dests)
	return out
}

// Pools returns every pool sorted by path.
func (c *Catalog) Pools() []domain.Pool {
	out := make([]domain.Pool, 0, len(c.pools))
	for _, p := range c.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Tokens returns every token sorted by name.
func (c *Catalog) Tokens() []domain.TokenInfo {
	out := make([]domain.TokenInfo, 0, len(c.tokens))
	for _, t := range c.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ReserveAccounts lists the distinct reserve accounts of every pool.
func (c *Catalog) ReserveAccounts() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(c.pools)*2)
	out := make([]solana.PublicKey, 0, len(c.pools)*2)
	for _, p := range c.pools {
		for _, account := range p.Accounts() {
			if _, ok := seen[account]; ok {
				continue
			}
			seen[account] = struct{}{}
			out = append(out, account)
		}
	}
	return out
}

// Decimals maps reserve accounts to their token decimals, for fetchers that
// decode raw token accounts.
func (c *Catalog) Decimals() map[solana.PublicKey]uint8 {
	out := make(map[solana.PublicKey]uint8, len(c.pools)*2)
	for _, p := range c.pools {
		for _, leg := range []domain.Leg{p.A, p.B} {
			if t, ok := c.Token(leg.TokenName); ok {
				out[leg.Account] = t.Decimals
			}
		}
	}
	return out
}

func (c *Catalog) PoolCount() int {
	return len(c.pools)
}

func (c *Catalog) RouteCount() int {
	return len(c.routes)
}

func (c *Catalog) TokenCount() int {
	return len(c.tokens)
}
