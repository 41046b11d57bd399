// Package apitest runs an in-process fake of the storefront backend for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// Account is a registered user known to the fake backend.
type Account struct {
	User     model.User
	Password string
	Token    string
}

// Server is a fake backend. Its fields may be inspected and adjusted
// between calls; all access goes through the mutex.
type Server struct {
	mu sync.Mutex

	srv *httptest.Server

	accounts   map[string]*Account // by email
	products   []model.Product
	categories []string
	addresses  map[string][]model.Address // by token
	orders     []model.Order
	nextID     int

	// Calls counts requests per "METHOD /path-pattern".
	calls map[string]int

	// Fail makes the named route ("GET /addresses") answer with the status.
	fail map[string]int

	hold          chan struct{}
	listHold      chan struct{}
	heldLists     int
	lastRequestID string
}

// NewServer starts a fake backend and registers its shutdown with t.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:  make(map[string]*Account),
		addresses: make(map[string][]model.Address),
		calls:     make(map[string]int),
		fail:      make(map[string]int),
		nextID:    1,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.track)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signup", s.handleSignUp)
		r.Get("/products/", s.handleListProducts)
		r.Get("/products/categories", s.handleCategories)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Post("/products", s.handleCreateProduct)
		r.Put("/products/{id}", s.handleUpdateProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Get("/addresses", s.handleListAddresses)
		r.Post("/addresses", s.handleCreateAddress)
		r.Post("/orders", s.handlePlaceOrder)
	})

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root.
func (s *Server) URL() url.URL {
	u, _ := url.Parse(s.srv.URL + "/api")
	return *u
}

// HTTPClient returns a client wired to the fake server.
func (s *Server) HTTPClient() *http.Client {
	return s.srv.Client()
}

// AddAccount registers a user that can sign in.
func (s *Server) AddAccount(email, password string, roles ...string) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &Account{
		User: model.User{
			ID:    s.newID(),
			Email: email,
			Roles: roles,
		},
		Password: password,
		Token:    "token-" + email,
	}
	s.accounts[email] = acc
	return acc
}

// AddProduct seeds the catalog.
func (s *Server) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.newID()
	}
	s.products = append(s.products, p)
	return p
}

// SetCategories replaces the category list.
func (s *Server) SetCategories(c ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = c
}

// AddAddress seeds an address for the account owning token.
func (s *Server) AddAddress(token string, a model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.newID()
	s.addresses[token] = append(s.addresses[token], a)
	return a
}

// Fail makes route answer with status until cleared with status 0.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, route)
		return
	}
	s.fail[route] = status
}

// Calls returns how many times route was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Orders returns placed orders.
func (s *Server) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Products returns the current catalog.
func (s *Server) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// HoldAddressCreates blocks address creation until the returned func is called.
func (s *Server) HoldAddressCreates() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.hold = nil
			s.mu.Unlock()
			close(ch)
		})
	}
}

// HoldAddressLists blocks the next address list request until the returned
// func is called. The held request answers with the addresses stored when
// it arrived; later requests are served normally.
func (s *Server) HoldAddressLists() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.listHold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.listHold == ch {
				s.listHold = nil
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// HeldAddressLists counts address list requests that reached a hold.
func (s *Server) HeldAddressLists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heldLists
}

// LastRequestID is the X-Request-ID header of the most recent request.
func (s *Server) LastRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequestID
}

func (s *Server) newID() string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	return id
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + normalize(strings.TrimPrefix(r.URL.Path, "/api"))
		s.mu.Lock()
		s.calls[route]++
		s.lastRequestID = r.Header.Get("X-Request-ID")
		status := s.fail[route]
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// normalize collapses product ids so callers can count "GET /products/{id}".
func normalize(path string) string {
	rest, ok := strings.CutPrefix(path, "/products/")
	if !ok || rest == "" || rest == "categories" {
		return path
	}
	return "/products/{id}"
}

func (s *Server) auth(r *http.Request) (*Account, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, false
	}
	for _, acc := range s.accounts {
		if acc.Token == token {
			return acc, true
		}
	}
	return nil, false
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[creds.Email]
	s.mu.Unlock()
	if !ok || acc.Password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	w.Header().Set("x-auth-token", acc.Token)
	writeJSON(w, http.StatusOK, acc.User)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Error: Email is already in use!"})
		return
	}
	s.accounts[req.Email] = &Account{
		User: model.User{
			ID: s.newID(), Email: req.Email, FirstName: req.FirstName, LastName: req.LastName,
			Roles: []string{model.RoleUser},
		},
		Password: req.Password,
		Token:    "token-" + req.Email,
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully!"})
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Products())
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	c := append([]string(nil), s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range s.Products() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	writeJSON(w, http.StatusCreated, s.AddProduct(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID = id
			s.products[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc, ok := s.auth(r)
	var list []model.Address
	if ok {
		list = append([]model.Address(nil), s.addresses[acc.Token]...)
	}
	hold := s.listHold
	if hold != nil {
		s.listHold = nil
		s.heldLists++
	}
	s.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	if list == nil {
		list = []model.Address{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var a model.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}

	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		<-hold
	}

	s.mu.Lock()
	acc, ok := s.auth(r)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusCreated, s.AddAddress(acc.Token, a))
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auth(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	o := model.Order{
		ID: s.newID(), ProductID: req.ProductID, AddressID: req.AddressID,
		Quantity: req.Quantity, CreatedAt: time.Now().UTC(),
	}
	s.orders = append(s.orders, o)
	writeJSON(w, http.StatusCreated, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
