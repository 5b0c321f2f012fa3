package api

import (
	"context"
	"net/http"
)

// Product is a catalogue entry
type Product struct {
	ID          ID      `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Inventory   int     `json:"inventory,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// ListProducts returns the whole catalogue
func (a *Authorized) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := a.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product
func (a *Authorized) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := a.do(ctx, http.MethodGet, "/products/"+escape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct adds a product and returns it as stored
func (a *Authorized) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var created Product
	if err := a.do(ctx, http.MethodPost, "/products", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a product
func (a *Authorized) UpdateProduct(ctx context.Context, id string, p Product) (*Product, error) {
	var updated Product
	if err := a.do(ctx, http.MethodPut, "/products/"+escape(id), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a product
func (a *Authorized) DeleteProduct(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/products/"+escape(id), nil, nil)
}
