package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/sirupsen/logrus"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Store owns one shopper's cart for the lifetime of the session. Lines are
// unique by product id; quantities are always >= 1 (removal, not zero, is
// how a line goes away). Totals are derived on demand, never cached.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	storage  Storage
	degraded bool
	log      logrus.FieldLogger
}

// NewStore rehydrates prior cart state from storage. Missing or malformed
// stored data yields an empty cart, never an error.
func NewStore(ctx context.Context, storage Storage, log logrus.FieldLogger) *Store {
	s := &Store{storage: storage, log: log}

	lines, err := storage.Load(ctx)
	if err != nil {
		log.Warnf("[CartStore] discarding stored cart: %v", err)
		return s
	}
	for _, ln := range lines {
		if ln.Quantity < 1 || ln.ProductID == "" {
			log.Warnf("[CartStore] discarding stored cart: invalid line for product %q", ln.ProductID)
			s.lines = nil
			return s
		}
	}
	s.lines = lines
	return s
}

// Add appends a line for the product, or bumps the quantity of the existing
// line for the same product.
func (s *Store) Add(ctx context.Context, p *model.Product, quantity int32) (MutationResult, error) {
	if quantity < 1 {
		return MutationResult{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity += quantity
			s.persist(ctx)
			ln := s.lines[i]
			return MutationResult{Op: OpMerged, Line: &ln}, nil
		}
	}

	line := Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Quantity:  quantity,
	}
	s.lines = append(s.lines, line)
	s.persist(ctx)
	return MutationResult{Op: OpAdded, Line: &line}, nil
}

// Remove deletes the line if present. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, productID string) (MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, productID), nil
}

func (s *Store) removeLocked(ctx context.Context, productID string) MutationResult {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			removed := s.lines[i]
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persist(ctx)
			return MutationResult{Op: OpRemoved, Line: &removed}
		}
	}
	return MutationResult{Op: OpNone}
}

// SetQuantity overwrites an existing line's quantity. Quantity < 1 behaves
// exactly as Remove. No line is ever created here; an absent id is a no-op.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int32) (MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return s.removeLocked(ctx, productID), nil
	}

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = quantity
			s.persist(ctx)
			ln := s.lines[i]
			return MutationResult{Op: OpUpdated, Line: &ln}, nil
		}
	}
	return MutationResult{Op: OpNone}, nil
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist(ctx)
	return MutationResult{Op: OpCleared}
}

// TotalItems is the sum of line quantities.
func (s *Store) TotalItems() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int32
	for _, ln := range s.lines {
		n += ln.Quantity
	}
	return n
}

// TotalPrice is the sum of unit price times quantity over all lines.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, ln := range s.lines {
		total += ln.UnitPrice * int64(ln.Quantity)
	}
	return total
}

// Snapshot returns a copy of the current lines, insulated from later
// mutations. Checkout takes its order lines from here.
func (s *Store) Snapshot() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// persist writes the whole cart through to storage. A write failure drops
// the store into memory-only mode for the rest of the session; mutations
// keep working and the shopper never sees a persistence error.
func (s *Store) persist(ctx context.Context) {
	if s.degraded {
		return
	}
	if err := s.storage.Save(ctx, s.lines); err != nil {
		s.log.Warnf("[CartStore] persistence failed, continuing in-memory only: %v", err)
		s.degraded = true
	}
}
