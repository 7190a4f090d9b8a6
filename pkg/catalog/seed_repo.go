package catalog

import (
	"context"
	"strings"

	"github.com/geek-guru098/NEPSTORE/pkg/model"
)

// seedRepo serves the fixed sample catalog from memory. It backs local
// development and tests when no MySQL DSN is configured; prices are whole
// NPR.
type seedRepo struct {
	products []*model.Product
}

func NewSeedRepo() ProductRepository {
	return &seedRepo{products: sampleProducts}
}

var sampleProducts = []*model.Product{
	{
		ID:          "1",
		Name:        "iPhone 15 Pro Max",
		Price:       185000,
		Category:    "electronics",
		Brand:       "Apple",
		Image:       "https://images.unsplash.com/photo-1695048133142-1a20484d2569?w=500&auto=format&fit=crop",
		Description: "Latest iPhone with A17 Pro chip, Titanium design, and Pro camera system",
		Rating:      4.8,
		Stock:       15,
	},
	{
		ID:          "2",
		Name:        "Samsung Galaxy S24",
		Price:       135000,
		Category:    "electronics",
		Brand:       "Samsung",
		Image:       "https://images.unsplash.com/photo-1610945265064-0e34e5519bbf?w=500&auto=format&fit=crop",
		Description: "AI-powered smartphone with professional-grade camera",
		Rating:      4.6,
		Stock:       25,
	},
	{
		ID:          "3",
		Name:        "MacBook Air M2",
		Price:       165000,
		Category:    "electronics",
		Brand:       "Apple",
		Image:       "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=500&auto=format&fit=crop",
		Description: "Supercharged by M2 chip with 13-inch Retina display",
		Rating:      4.9,
		Stock:       10,
	},
	{
		ID:          "4",
		Name:        "Nike Air Jordan 1",
		Price:       14500,
		Category:    "fashion",
		Brand:       "Nike",
		Image:       "https://images.unsplash.com/photo-1600269452121-4f2416e55c28?w=500&auto=format&fit=crop",
		Description: "Classic basketball sneakers with premium leather",
		Rating:      4.7,
		Stock:       50,
	},
	{
		ID:          "5",
		Name:        "Levi's 501 Original",
		Price:       6500,
		Category:    "fashion",
		Brand:       "Levi's",
		Image:       "https://images.unsplash.com/photo-1542272604-787c3835535d?w=500&auto=format&fit=crop",
		Description: "Original fit jeans with button fly",
		Rating:      4.5,
		Stock:       100,
	},
	{
		ID:          "6",
		Name:        "Bose QuietComfort 45",
		Price:       32000,
		Category:    "electronics",
		Brand:       "Bose",
		Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&auto=format&fit=crop",
		Description: "Wireless noise cancelling headphones",
		Rating:      4.8,
		Stock:       30,
	},
	{
		ID:          "7",
		Name:        "Zara Oversized T-Shirt",
		Price:       2200,
		Category:    "fashion",
		Brand:       "Zara",
		Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500&auto=format&fit=crop",
		Description: "Comfortable cotton oversized t-shirt",
		Rating:      4.3,
		Stock:       200,
	},
	{
		ID:          "8",
		Name:        "Apple Watch Series 9",
		Price:       75000,
		Category:    "electronics",
		Brand:       "Apple",
		Image:       "https://images.unsplash.com/photo-1579586337278-3fdb946b7d8a?w=500&auto=format&fit=crop",
		Description: "Smartwatch with advanced health features",
		Rating:      4.7,
		Stock:       20,
	},
}

func (r *seedRepo) ListProducts(ctx context.Context) ([]*model.Product, error) {
	out := make([]*model.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *seedRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *seedRepo) SearchProducts(ctx context.Context, query string) ([]*model.Product, error) {
	q := strings.ToLower(query)
	var out []*model.Product
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}
