package api

import (
	"context"
	"net/http"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// ListProducts returns the catalog in server order.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	_, err := c.do(ctx, request{
		op:     "list products",
		method: http.MethodGet,
		path:   []string{"products/"},
		out:    &products,
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	_, err := c.do(ctx, request{
		op:     "get product",
		method: http.MethodGet,
		path:   []string{"products", id},
		out:    p,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListCategories returns the raw category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	_, err := c.do(ctx, request{
		op:     "list categories",
		method: http.MethodGet,
		path:   []string{"products", "categories"},
		out:    &categories,
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateProduct adds a product and returns the stored record.
func (c *Client) CreateProduct(ctx context.Context, token string, p model.Product) (*model.Product, error) {
	p.ID = ""
	created := &model.Product{}
	_, err := c.do(ctx, request{
		op:     "create product",
		method: http.MethodPost,
		path:   []string{"products"},
		token:  token,
		body:   p,
		out:    created,
	})
	if err != nil {
		return nil, err
	}
	if created.Name == "" {
		// Empty body: echo what was sent.
		return &p, nil
	}
	return created, nil
}

// UpdateProduct replaces the product with the given id.
func (c *Client) UpdateProduct(ctx context.Context, token string, p model.Product) error {
	_, err := c.do(ctx, request{
		op:     "update product",
		method: http.MethodPut,
		path:   []string{"products", p.ID},
		token:  token,
		body:   p,
	})
	return err
}

// DeleteProduct removes the product with the given id.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{
		op:     "delete product",
		method: http.MethodDelete,
		path:   []string{"products", id},
		token:  token,
	})
	return err
}
