package api

import (
	"context"
	"net/http"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// PlaceOrder submits an order for the authenticated user.
func (c *Client) PlaceOrder(ctx context.Context, token string, req model.OrderRequest) (*model.Order, error) {
	order := &model.Order{}
	_, err := c.do(ctx, request{
		op:     "place order",
		method: http.MethodPost,
		path:   []string{"orders"},
		token:  token,
		body:   req,
		out:    order,
	})
	if err != nil {
		return nil, err
	}
	if order.ProductID == "" {
		order.ProductID = req.ProductID
		order.AddressID = req.AddressID
		order.Quantity = req.Quantity
	}
	return order, nil
}
