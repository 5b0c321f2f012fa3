package api

import (
	"context"
	"net/http"
)

// Order statuses used by the admin dashboard
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Order is a customer order as listed in the dashboard
type Order struct {
	ID       ID      `json:"id,omitempty"`
	Customer string  `json:"customer"`
	Date     string  `json:"date"`
	Total    float64 `json:"total"`
	Status   string  `json:"status"`
	Items    int     `json:"items"`
}

// ListOrders returns all orders
func (a *Authorized) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := a.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns one order
func (a *Authorized) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := a.do(ctx, http.MethodGet, "/orders/"+escape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder places an order
func (a *Authorized) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	var created Order
	if err := a.do(ctx, http.MethodPost, "/orders", o, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrderStatus moves an order to status
func (a *Authorized) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	var updated Order
	body := struct {
		Status string `json:"status"`
	}{Status: status}
	if err := a.do(ctx, http.MethodPatch, "/orders/"+escape(id)+"/status", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
