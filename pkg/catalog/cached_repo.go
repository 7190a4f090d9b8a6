package catalog

import (
	"context"
	"time"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	productTTL    = 5 * time.Minute
	cacheSweep    = 10 * time.Minute
	listCacheKey  = "products:all"
	productKeyPre = "product:"
)

// cachedRepo fronts another repository with an in-process TTL cache.
// Concurrent misses for the same product collapse into one upstream call.
// Cache failures are impossible by construction; upstream failures pass
// through untouched.
type cachedRepo struct {
	next  ProductRepository
	cache *gocache.Cache
	sf    singleflight.Group
	log   *logrus.Logger
}

func NewCachedRepo(next ProductRepository, log *logrus.Logger) ProductRepository {
	return &cachedRepo{
		next:  next,
		cache: gocache.New(productTTL, cacheSweep),
		log:   log,
	}
}

func (c *cachedRepo) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if v, ok := c.cache.Get(listCacheKey); ok {
		return v.([]*model.Product), nil
	}

	v, err, _ := c.sf.Do(listCacheKey, func() (interface{}, error) {
		products, err := c.next.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(listCacheKey, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*model.Product), nil
}

func (c *cachedRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	key := productKeyPre + id
	if v, ok := c.cache.Get(key); ok {
		return v.(*model.Product), nil
	}

	v, err, shared := c.sf.Do(key, func() (interface{}, error) {
		product, err := c.next.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debugf("[Catalog] collapsed concurrent lookups for product %s", id)
	}
	return v.(*model.Product), nil
}

// SearchProducts is not cached: queries are unbounded and the upstream
// already serves them from an indexed table.
func (c *cachedRepo) SearchProducts(ctx context.Context, query string) ([]*model.Product, error) {
	return c.next.SearchProducts(ctx, query)
}
