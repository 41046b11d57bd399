package model

import "time"

// OrderRequest is the body sent when an order is placed.
type OrderRequest struct {
	ProductID string `json:"product"`
	AddressID string `json:"address"`
	Quantity  int    `json:"quantity"`
}

// Order is the backend's record of a placed order.
type Order struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product"`
	AddressID string    `json:"address"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
