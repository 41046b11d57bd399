package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/NicolasHaas/goshop/pkg/model"
)

var ErrMissingToken = errors.New("api: sign-in response carried no token")

// SignInResult is what a successful sign-in yields.
type SignInResult struct {
	User  *model.User
	Token string
}

// SignIn posts credentials and returns the user record and bearer token.
// The token is carried in the x-auth-token response header.
func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (*SignInResult, error) {
	user := &model.User{}
	header, err := c.do(ctx, request{
		op:     "sign in",
		method: http.MethodPost,
		path:   []string{"auth", "signin"},
		body:   creds,
		out:    user,
	})
	if err != nil {
		return nil, err
	}
	token := header.Get(HeaderAuthToken)
	if token == "" {
		return nil, ErrMissingToken
	}
	if user.Email == "" {
		user.Email = creds.Email
	}
	return &SignInResult{User: user, Token: token}, nil
}

// SignUp registers a new account. It yields no token.
func (c *Client) SignUp(ctx context.Context, req model.SignupRequest) error {
	_, err := c.do(ctx, request{
		op:     "sign up",
		method: http.MethodPost,
		path:   []string{"auth", "signup"},
		body:   req,
	})
	return err
}
