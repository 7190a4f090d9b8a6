package catalog

import (
	"context"
	"errors"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the read-only catalog interface. The storefront never
// mutates products through it.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	SearchProducts(ctx context.Context, query string) ([]*model.Product, error)
}
