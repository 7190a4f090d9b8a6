package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"gorm.io/gorm"
)

type mysqlRepo struct {
	db *gorm.DB
}

func NewMysqlRepo(db *gorm.DB) ProductRepository {
	return &mysqlRepo{db: db}
}

func (r *mysqlRepo) ListProducts(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *mysqlRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *mysqlRepo) SearchProducts(ctx context.Context, query string) ([]*model.Product, error) {
	var products []*model.Product

	likeQuery := fmt.Sprintf("%%%s%%", query)
	if err := r.db.WithContext(ctx).Where("name LIKE ? OR description LIKE ?", likeQuery, likeQuery).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}
