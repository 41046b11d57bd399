package api

import (
	"context"
	"net/http"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// ListAddresses returns the caller's saved addresses in server order.
func (c *Client) ListAddresses(ctx context.Context, token string) ([]model.Address, error) {
	var addresses []model.Address
	_, err := c.do(ctx, request{
		op:     "list addresses",
		method: http.MethodGet,
		path:   []string{"addresses"},
		token:  token,
		out:    &addresses,
	})
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}

// CreateAddress stores a new address and returns it with its server id.
func (c *Client) CreateAddress(ctx context.Context, token string, a model.Address) (*model.Address, error) {
	a.ID = ""
	created := &model.Address{}
	_, err := c.do(ctx, request{
		op:     "create address",
		method: http.MethodPost,
		path:   []string{"addresses"},
		token:  token,
		body:   a,
		out:    created,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
