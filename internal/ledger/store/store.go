// Package store holds the ledger's state: the participant, flight, insurance
// and oracle registries, kept as flat arenas keyed by address or digest.
//
// All access goes through a Tx obtained from Store.RunInTx or Store.View.
// Both run under one lock per Store, which gives every operation a fully
// consistent view and serializes writers. RunInTx records an undo entry for
// every write and replays them in reverse when the callback fails, so a
// rejected operation leaves no partial state behind.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

var errReadOnly = errors.New("store: write attempted in read-only transaction")

// Store is the ledger state owner.
type Store struct {
	mu sync.Mutex
	a  *arenas
}

type arenas struct {
	airlines    map[domain.Address]models.Airline
	airlineSeq  uint64
	fundedCount int
	votes       map[domain.Address]models.VoteRecord

	flights   map[domain.Digest]models.Flight
	flightSeq uint64

	pools    map[domain.Digest]models.InsurancePool
	policies map[domain.Digest]models.Policy
	balances map[domain.Address]domain.Amount
	holds    map[uuid.UUID]models.WithdrawalHold

	oracles   map[domain.Address]models.Oracle
	requests  map[domain.Digest]models.ConfirmationRequest
	responses map[domain.Digest]models.ResponseBucket
}

// New returns an empty store.
func New() *Store {
	return &Store{a: &arenas{
		airlines:  make(map[domain.Address]models.Airline),
		votes:     make(map[domain.Address]models.VoteRecord),
		flights:   make(map[domain.Digest]models.Flight),
		pools:     make(map[domain.Digest]models.InsurancePool),
		policies:  make(map[domain.Digest]models.Policy),
		balances:  make(map[domain.Address]domain.Amount),
		holds:     make(map[uuid.UUID]models.WithdrawalHold),
		oracles:   make(map[domain.Address]models.Oracle),
		requests:  make(map[domain.Digest]models.ConfirmationRequest),
		responses: make(map[domain.Digest]models.ResponseBucket),
	}}
}

// Tx is a view of the arenas scoped to one RunInTx or View call. It must not
// be retained after the callback returns.
type Tx struct {
	a        *arenas
	undo     []func()
	hooks    []func()
	readOnly bool
}

// OnCommit registers fn to run after the transaction commits but before the
// ledger lock is released, so hooks of successive transactions run in commit
// order. Hooks must not block or call back into the store.
func (tx *Tx) OnCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}

// RunInTx executes fn with exclusive access to the ledger. If fn returns an
// error or panics, every write it made is undone before the lock is released.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{a: s.a}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// View executes fn with a consistent read-only view.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{a: s.a, readOnly: true})
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *Tx) mustWrite() {
	if tx.readOnly {
		panic(errReadOnly)
	}
}

func put[K comparable, V any](tx *Tx, m map[K]V, k K, v V) {
	tx.mustWrite()
	prev, had := m[k]
	tx.undo = append(tx.undo, func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

func remove[K comparable, V any](tx *Tx, m map[K]V, k K) {
	tx.mustWrite()
	prev, had := m[k]
	if !had {
		return
	}
	tx.undo = append(tx.undo, func() { m[k] = prev })
	delete(m, k)
}

func set[T any](tx *Tx, p *T, v T) {
	tx.mustWrite()
	prev := *p
	tx.undo = append(tx.undo, func() { *p = prev })
	*p = v
}

func get[K comparable, V any](m map[K]V, k K) (V, error) {
	v, ok := m[k]
	if !ok {
		var zero V
		return zero, errNotFound
	}
	return v, nil
}
