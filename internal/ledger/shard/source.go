// Package shard assigns reporters and confirmation requests to index shards.
//
// The default NonceSource is a weak, predictable randomness source: every
// value is a deterministic function of the seed, the account and a shared
// nonce that anyone observing the ledger can reconstruct. Shard assignment is
// not adversarially gameable in this system, so that is accepted as a known
// limitation. Do not reuse a Source for anything that needs unpredictability.
package shard

import (
	"encoding/binary"
	"sync"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

const (
	// Count is the number of shards; every index is in [0, Count).
	Count uint8 = 10
	// NonceWrap is the nonce value after which NonceSource starts over.
	NonceWrap uint64 = 250
	// maxDraws bounds how often Assign redraws a colliding value before it
	// falls back to the smallest unused index.
	maxDraws = 64
)

// Source yields shard indexes in [0, Count) for an account.
type Source interface {
	Next(account domain.Address) uint8
}

// NonceSource derives indexes as keccak(seed || nonce || account) mod Count
// and advances the nonce on every draw, wrapping after NonceWrap.
type NonceSource struct {
	mu    sync.Mutex
	seed  []byte
	nonce uint64
}

// NewNonceSource creates a source seeded with seed. The seed plays the role of
// observable ledger state and is not a secret.
func NewNonceSource(seed []byte) *NonceSource {
	return &NonceSource{seed: append([]byte(nil), seed...)}
}

func (s *NonceSource) Next(account domain.Address) uint8 {
	s.mu.Lock()
	nonce := s.nonce
	s.nonce++
	if s.nonce > NonceWrap {
		s.nonce = 0
	}
	s.mu.Unlock()

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	d := domain.Keccak(s.seed, n[:], account.Bytes())
	return d[len(d)-1] % Count
}

// Nonce reports the next nonce to be used.
func (s *NonceSource) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// Sequence replays a fixed list of values, cycling when exhausted. Values are
// reduced mod Count. Use it in tests to pin shard placement.
type Sequence struct {
	mu     sync.Mutex
	values []uint8
	pos    int
}

func NewSequence(values ...uint8) *Sequence {
	if len(values) == 0 {
		values = []uint8{0}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Next(domain.Address) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.pos%len(s.values)] % Count
	s.pos++
	return v
}

// Assign draws IndexesPerOracle pairwise-distinct indexes for account. A slot
// that keeps colliding after maxDraws takes the smallest unused index, so
// Assign terminates for any Source.
func Assign(src Source, account domain.Address) [models.IndexesPerOracle]uint8 {
	var (
		out  [models.IndexesPerOracle]uint8
		used [Count]bool
	)
	for i := range out {
		v, ok := draw(src, account, &used)
		if !ok {
			v = smallestUnused(&used)
		}
		used[v] = true
		out[i] = v
	}
	return out
}

func draw(src Source, account domain.Address, used *[Count]bool) (uint8, bool) {
	for range maxDraws {
		v := src.Next(account) % Count
		if !used[v] {
			return v, true
		}
	}
	return 0, false
}

func smallestUnused(used *[Count]bool) uint8 {
	for v := range Count {
		if !used[v] {
			return v
		}
	}
	return 0
}
