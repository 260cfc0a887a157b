package balance

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

const numShards = 16

// shardedBalanceMap spreads reserve accounts over independently locked
// shards. Locks are held only for a single read or write.
//
// Every account has a generation that grows on each Delete and Clear. A fetch
// records the generation it started under and stores its result with
// SetIfGeneration, so readings taken before an invalidation are dropped.
type shardedBalanceMap struct {
	shards [numShards]balanceShard
}

type balanceShard struct {
	mu       sync.RWMutex
	balances map[solana.PublicKey]domain.TokenBalance
	gens     map[solana.PublicKey]uint64
	epoch    uint64
}

func newShardedBalanceMap() *shardedBalanceMap {
	m := &shardedBalanceMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].balances = make(map[solana.PublicKey]domain.TokenBalance)
		m.shards[i].gens = make(map[solana.PublicKey]uint64)
	}
	return m
}

// Public keys are uniformly distributed, so the first byte is a good shard key.
func (m *shardedBalanceMap) getShard(key solana.PublicKey) *balanceShard {
	return &m.shards[key[0]%numShards]
}

func (m *shardedBalanceMap) Get(key solana.PublicKey) (domain.TokenBalance, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	bal, ok := shard.balances[key]
	shard.mu.RUnlock()
	return bal, ok
}

func (m *shardedBalanceMap) Set(key solana.PublicKey, bal domain.TokenBalance) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.balances[key] = bal
	shard.mu.Unlock()
}

// Generation only ever grows: both the per-key counter and the shard epoch
// are monotonic.
func (m *shardedBalanceMap) Generation(key solana.PublicKey) uint64 {
	shard := m.getShard(key)
	shard.mu.RLock()
	gen := shard.epoch + shard.gens[key]
	shard.mu.RUnlock()
	return gen
}

// SetIfGeneration stores bal only when key was not deleted or cleared since
// gen was read.
func (m *shardedBalanceMap) SetIfGeneration(key solana.PublicKey, bal domain.TokenBalance, gen uint64) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.epoch+shard.gens[key] != gen {
		return false
	}
	shard.balances[key] = bal
	return true
}

func (m *shardedBalanceMap) Delete(key solana.PublicKey) {
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.balances, key)
	shard.gens[key]++
	shard.mu.Unlock()
}

func (m *shardedBalanceMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].balances)
		m.shards[i].mu.RUnlock()
	}
	return total
}

func (m *shardedBalanceMap) Clear() {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.Lock()
		m.shards[i].balances = make(map[solana.PublicKey]domain.TokenBalance)
		m.shards[i].epoch++
		m.shards[i].mu.Unlock()
	}
}
