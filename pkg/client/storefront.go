// Package client is the storefront engine: it wires the session, the REST
// client, catalog filtering and the order wizard behind one type that a
// shell (CLI or UI) drives.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/NicolasHaas/goshop/pkg/api"
	"github.com/NicolasHaas/goshop/pkg/catalog"
	"github.com/NicolasHaas/goshop/pkg/logging"
	"github.com/NicolasHaas/goshop/pkg/model"
	"github.com/NicolasHaas/goshop/pkg/order"
	"github.com/NicolasHaas/goshop/pkg/rbac"
	"github.com/NicolasHaas/goshop/pkg/session"
)

var (
	ErrNotLoggedIn    = errors.New("client: not logged in")
	ErrForbidden      = errors.New("client: admin role required")
	ErrBadCredentials = errors.New("client: invalid email or password")
	ErrExceedsStock   = errors.New("client: quantity exceeds available items")
	ErrSessionExpired = errors.New("client: session expired")
)

// Backend is the subset of the REST API the storefront uses.
type Backend interface {
	SignIn(ctx context.Context, creds model.Credentials) (*api.SignInResult, error)
	SignUp(ctx context.Context, req model.SignupRequest) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, token string, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, token string, p model.Product) error
	DeleteProduct(ctx context.Context, token, id string) error
	order.AddressService
	order.OrderService
}

var _ Backend = (*api.Client)(nil)

// Storefront is the main client engine.
type Storefront struct {
	backend Backend
	session *session.Manager

	mu    sync.Mutex
	route string

	// OnNavigate is called with the route actually shown after Navigate.
	OnNavigate func(route string)
}

// New creates a storefront. Call Start before using it.
func New(backend Backend, sess *session.Manager) *Storefront {
	return &Storefront{
		backend: backend,
		session: sess,
		route:   rbac.RouteProducts,
	}
}

// Start restores the persisted session.
func (s *Storefront) Start(ctx context.Context) {
	s.session.Restore(ctx)
}

// Session returns the session manager.
func (s *Storefront) Session() *session.Manager {
	return s.session
}

// Login signs in and records the session.
func (s *Storefront) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if err := creds.Validate(); err != nil {
		slog.Debug("login rejected", "err", err)
		return nil, err
	}

	res, err := s.backend.SignIn(ctx, creds)
	if err != nil {
		slog.Error("sign in", "user", creds.Email, "err", err)
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := s.session.Login(ctx, res.User, "", res.Token); err != nil {
		return nil, err
	}
	if err := s.session.SetLoginIntent(ctx, false); err != nil {
		slog.Warn("clear login intent", "err", err)
	}
	slog.Info("signed in", "user", res.User.Email, "role", res.User.PrimaryRole(), "token", logging.Redact(res.Token))
	u := *res.User
	return &u, nil
}

// Logout clears the session.
func (s *Storefront) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// Signup registers a new account. It does not sign in.
func (s *Storefront) Signup(ctx context.Context, req model.SignupRequest) error {
	if err := req.Validate(); err != nil {
		slog.Debug("signup rejected", "err", err)
		return err
	}
	if err := s.backend.SignUp(ctx, req); err != nil {
		slog.Error("sign up", "user", req.Email, "err", err)
		return err
	}
	slog.Info("signed up", "user", req.Email)
	return nil
}

// Search sets the query used by Products when the query carries none.
func (s *Storefront) Search(query string) {
	s.session.SetSearch(query)
}

// Products lists the catalog filtered by q. An empty q.Search falls back
// to the session's search query. A bucket filter without q.Groups uses the
// server's categories; if they cannot be loaded the static table applies.
func (s *Storefront) Products(ctx context.Context, q catalog.Query) ([]model.Product, error) {
	if q.Search == "" {
		q.Search = s.session.Snapshot().SearchQuery
	}
	if q.Bucket != catalog.BucketAll && q.Groups == nil {
		if groups, err := s.Categories(ctx); err == nil {
			q.Groups = &groups
		} else {
			slog.Warn("filtering by static category table", "err", err)
		}
	}
	all, err := s.backend.ListProducts(ctx)
	if err != nil {
		slog.Error("list products", "err", err)
		return nil, err
	}
	return catalog.Filter(all, q), nil
}

// Categories returns the server's categories grouped into buckets.
func (s *Storefront) Categories(ctx context.Context) (catalog.Groups, error) {
	raw, err := s.backend.ListCategories(ctx)
	if err != nil {
		slog.Error("list categories", "err", err)
		return catalog.Groups{}, err
	}
	return catalog.GroupCategories(raw), nil
}

// Product fetches one product.
func (s *Storefront) Product(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		slog.Error("get product", "product_id", id, "err", err)
		return nil, err
	}
	return p, nil
}

// AddProduct creates a product. Admin only.
func (s *Storefront) AddProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	token, err := s.requireAdmin()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	created, err := s.backend.CreateProduct(ctx, token, p)
	if err != nil {
		slog.Error("create product", "name", p.Name, "err", err)
		return nil, s.authFailed(ctx, err)
	}
	slog.Info("product created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

// ModifyProduct replaces a product. Admin only.
func (s *Storefront) ModifyProduct(ctx context.Context, p model.Product) error {
	token, err := s.requireAdmin()
	if err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("client: modify product: %w", model.ErrFieldsRequired)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.backend.UpdateProduct(ctx, token, p); err != nil {
		slog.Error("update product", "product_id", p.ID, "err", err)
		return s.authFailed(ctx, err)
	}
	slog.Info("product modified", "product_id", p.ID)
	return nil
}

// DeleteProduct removes a product. Admin only.
func (s *Storefront) DeleteProduct(ctx context.Context, id string) error {
	token, err := s.requireAdmin()
	if err != nil {
		return err
	}
	if err := s.backend.DeleteProduct(ctx, token, id); err != nil {
		slog.Error("delete product", "product_id", id, "err", err)
		return s.authFailed(ctx, err)
	}
	slog.Info("product deleted", "product_id", id)
	return nil
}

// StartOrder opens an order wizard for quantity units of a product. The
// caller owns the wizard and must Close it when leaving the flow.
func (s *Storefront) StartOrder(ctx context.Context, productID string, quantity int) (*order.Wizard, error) {
	if !s.session.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if quantity < 1 {
		return nil, order.ErrInvalidQuantity
	}
	p, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.AvailableItems > 0 && quantity > p.AvailableItems {
		return nil, ErrExceedsStock
	}
	return order.NewWizard(*p, quantity, order.Deps{
		Addresses: s.backend,
		Orders:    s.backend,
		Tokens:    s.session,
	})
}

// Navigate applies the route guards to path and returns the route to show.
// Anonymous users sent to the login page get their login intent recorded.
func (s *Storefront) Navigate(ctx context.Context, path string) string {
	target := path
	redirect, ok := rbac.Guard(path, s.session.Snapshot().Subject())
	if !ok {
		slog.Debug("route guarded", "path", path, "redirect", redirect)
		target = redirect
		if redirect == rbac.RouteLogin {
			if err := s.session.SetLoginIntent(ctx, true); err != nil {
				slog.Warn("record login intent", "err", err)
			}
		}
	}

	s.mu.Lock()
	s.route = target
	s.mu.Unlock()

	if s.OnNavigate != nil {
		s.OnNavigate(target)
	}
	return target
}

// Route returns the current route.
func (s *Storefront) Route() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

func (s *Storefront) requireAdmin() (string, error) {
	snap := s.session.Snapshot()
	if msg := rbac.RequirePermission(snap.Subject(), model.PermManageProducts); msg != "" {
		slog.Debug("action denied", "reason", msg)
		if !snap.IsLoggedIn() {
			return "", ErrNotLoggedIn
		}
		return "", ErrForbidden
	}
	return snap.Token, nil
}

// authFailed drops a session the backend no longer accepts.
func (s *Storefront) authFailed(ctx context.Context, err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return err
	}
	if lerr := s.session.Logout(ctx); lerr != nil {
		slog.Warn("drop rejected session", "err", lerr)
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}
