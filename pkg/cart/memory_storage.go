package cart

import (
	"context"
	"sync"
)

// memoryStorage keeps the cart in process memory. It backs sessions when no
// durable store is configured; carts do not survive a restart.
type memoryStorage struct {
	mu    sync.Mutex
	lines []Line
}

func NewMemoryStorage() Storage {
	return &memoryStorage{}
}

func (s *memoryStorage) Load(ctx context.Context) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

func (s *memoryStorage) Save(ctx context.Context, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make([]Line, len(lines))
	copy(s.lines, lines)
	return nil
}
