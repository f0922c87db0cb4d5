// Package memory is a thread-safe in-memory implementation of the repository
// interfaces. It backs the test suites and the server when no database DSN is
// configured.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"garage-backend/internal/domain"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

// state is everything the store holds. Slices keep insertion order.
type state struct {
	members map[uuid.UUID]domain.Member
	levels  map[domain.Tier]domain.MemberLevelRule
	points  []domain.PointsTransaction
	wallet  []domain.WalletTransaction
	carts   map[uuid.UUID]domain.Cart
	items   []domain.CartItem
	reports []domain.Report
	users   map[uuid.UUID]domain.User
}

func newState() *state {
	return &state{
		members: make(map[uuid.UUID]domain.Member),
		levels:  make(map[domain.Tier]domain.MemberLevelRule),
		carts:   make(map[uuid.UUID]domain.Cart),
		users:   make(map[uuid.UUID]domain.User),
	}
}

func (s *state) clone() *state {
	return &state{
		members: maps.Clone(s.members),
		levels:  maps.Clone(s.levels),
		points:  slices.Clone(s.points),
		wallet:  slices.Clone(s.wallet),
		carts:   maps.Clone(s.carts),
		items:   slices.Clone(s.items),
		reports: slices.Clone(s.reports),
		users:   maps.Clone(s.users),
	}
}

// Store serializes every operation behind one mutex. WithinTx holds the
// mutex for the whole callback, so a transaction sees no interleaved writes.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repositories() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	h := &handle{store: s, inTx: inTx}
	return repository.Repositories{
		Members: &memberRepository{h},
		Levels:  &levelRepository{h},
		Ledger:  &ledgerRepository{h},
		Carts:   &cartRepository{h},
		Reports: &reportRepository{h},
		Users:   &userRepository{h},
	}
}

// WithinTx runs fn with the store locked. If fn fails or panics, every write
// it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(ctx, s.repositories(true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// handle gives repositories access to the state. Handles created by
// WithinTx run under the already-held lock.
type handle struct {
	store *Store
	inTx  bool
}

func (h *handle) read(fn func(st *state) error) error {
	if !h.inTx {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
	}
	return fn(h.store.state)
}

func (h *handle) write(fn func(st *state) error) error {
	return h.read(fn)
}
