package cart

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Storage is the durable key-value slot holding one shopper's cart. Save
// replaces the whole cart in a single write (last-writer-wins, no partial
// state); Load returns the stored line sequence in order.
type Storage interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

type redisStorage struct {
	rdb *redis.Client
	key string
}

// NewRedisStorage stores the cart as one JSON array under cart:<shopperID>.
// A single SET keeps every write atomic; readers never observe a
// half-written cart.
func NewRedisStorage(rdb *redis.Client, shopperID string) Storage {
	return &redisStorage{
		rdb: rdb,
		key: fmt.Sprintf("cart:%s", shopperID),
	}
}

func (s *redisStorage) Load(ctx context.Context) ([]Line, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("malformed cart entry at %s: %w", s.key, err)
	}
	return lines, nil
}

func (s *redisStorage) Save(ctx context.Context, lines []Line) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}
