// Package order drives the three-step order flow: review the item, choose
// or create a delivery address, confirm.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goshop/pkg/api"
	"github.com/NicolasHaas/goshop/pkg/async"
	"github.com/NicolasHaas/goshop/pkg/model"
)

// User-visible messages.
const (
	MsgSelectAddress  = "Please select an address to proceed."
	MsgUnknownAddress = "Please select one of your saved addresses."
	MsgFetchFailed    = "Failed to load addresses. Please try again later."
	MsgFillAllFields  = "Please fill out all fields to save the address."
	MsgSaveFailed     = "Failed to save the address. Please try again."
	MsgPlaceFailed    = "Failed to place the order. Please try again."
)

var (
	ErrInvalidQuantity   = errors.New("order: quantity must be at least 1")
	ErrNoAddressSelected = errors.New("order: no address selected")
	ErrUnknownAddress    = errors.New("order: address not in the fetched list")
	ErrWrongStep         = errors.New("order: operation not available at this step")
	ErrBusy              = errors.New("order: another request is in flight")
	ErrClosed            = errors.New("order: wizard closed")
	ErrStale             = errors.New("order: superseded by a newer address fetch")
	ErrMissingDeps       = errors.New("order: missing dependency")
)

// AddressService lists and creates the user's saved addresses.
type AddressService interface {
	ListAddresses(ctx context.Context, token string) ([]model.Address, error)
	CreateAddress(ctx context.Context, token string, a model.Address) (*model.Address, error)
}

// OrderService submits orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, token string, req model.OrderRequest) (*model.Order, error)
}

// Deps are the collaborators of a Wizard. Tokens is only read.
type Deps struct {
	Addresses AddressService
	Orders    OrderService
	Tokens    api.TokenSource
}

// Wizard holds one order draft. It is discarded when the user leaves
// without finishing; nothing is persisted.
type Wizard struct {
	mu sync.Mutex

	deps     Deps
	product  model.Product
	quantity int

	step       Step
	selectedID string
	draft      model.Address
	addresses  []model.Address
	message    string
	closed     bool
	fetchSeq   uint64

	fetch async.State[[]model.Address]
	save  async.State[model.Address]
	place async.State[model.Order]

	// Callbacks for UI updates. They run outside the wizard lock.
	OnStepChange func(step Step)
	OnAddresses  func(addresses []model.Address)
	OnError      func(message string)
}

// NewWizard starts a flow at StepItems for quantity units of product.
func NewWizard(product model.Product, quantity int, deps Deps) (*Wizard, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if deps.Addresses == nil || deps.Orders == nil || deps.Tokens == nil {
		return nil, ErrMissingDeps
	}
	return &Wizard{
		deps:     deps,
		product:  product,
		quantity: quantity,
		step:     StepItems,
		fetch:    async.Idle[[]model.Address](),
		save:     async.Idle[model.Address](),
		place:    async.Idle[model.Order](),
	}, nil
}

// Next moves forward one step. Leaving StepAddress requires a selected
// address from the fetched list; otherwise the wizard stays put, sets
// MsgSelectAddress and returns ErrNoAddressSelected. At StepConfirm it does
// nothing; see Confirm.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}

	switch w.step {
	case StepItems:
		w.step = StepAddress
		w.message = ""
		w.mu.Unlock()
		w.notifyStep(StepAddress)
		w.refreshAddresses(ctx)
		return nil

	case StepAddress:
		if w.selectedID == "" || !containsAddress(w.addresses, w.selectedID) {
			w.message = MsgSelectAddress
			w.mu.Unlock()
			w.notifyError(MsgSelectAddress)
			return ErrNoAddressSelected
		}
		w.step = StepConfirm
		w.message = ""
		w.mu.Unlock()
		w.notifyStep(StepConfirm)
		return nil

	default:
		w.mu.Unlock()
		return nil
	}
}

// Previous moves back one step without validation. It stays at StepItems.
// Landing on StepAddress refetches the address list.
func (w *Wizard) Previous(ctx context.Context) {
	w.mu.Lock()
	if w.closed || w.step == StepItems {
		w.mu.Unlock()
		return
	}
	w.step--
	step := w.step
	w.mu.Unlock()
	w.notifyStep(step)
	if step == StepAddress {
		w.refreshAddresses(ctx)
	}
}

// refreshAddresses runs the fetch that accompanies entering StepAddress.
// A failure is reported through ErrorMessage; the step change stands.
func (w *Wizard) refreshAddresses(ctx context.Context) {
	err := w.FetchAddresses(ctx)
	if err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrStale) {
		slog.Debug("order: address fetch on entering step failed", "err", err)
	}
}

// FetchAddresses replaces the address list with the server's, in server
// order. On failure the previous list is kept and MsgFetchFailed is shown.
// A selection that no longer exists in the new list is cleared. A result
// overtaken by a later fetch is dropped and ErrStale returned.
func (w *Wizard) FetchAddresses(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.step != StepAddress {
		w.mu.Unlock()
		return ErrWrongStep
	}
	w.fetchSeq++
	seq := w.fetchSeq
	w.fetch = w.fetch.Start()
	w.message = ""
	w.mu.Unlock()

	list, err := w.deps.Addresses.ListAddresses(ctx, w.deps.Tokens.Token())

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		slog.Debug("order: discarding address list after close")
		return ErrClosed
	}
	if seq != w.fetchSeq {
		w.mu.Unlock()
		slog.Debug("order: discarding stale address list")
		return ErrStale
	}
	if err != nil {
		w.fetch = w.fetch.Fail(MsgFetchFailed)
		w.message = MsgFetchFailed
		w.mu.Unlock()
		slog.Error("fetch addresses", "err", err)
		w.notifyError(MsgFetchFailed)
		return fmt.Errorf("order: fetch addresses: %w", err)
	}
	w.addresses = append([]model.Address(nil), list...)
	if w.selectedID != "" && !containsAddress(w.addresses, w.selectedID) {
		w.selectedID = ""
	}
	snapshot := w.addressesLocked()
	w.fetch = w.fetch.Succeed(w.addressesLocked())
	w.mu.Unlock()

	w.notifyAddresses(snapshot)
	return nil
}

// SetDraftField edits one field of the address being composed.
func (w *Wizard) SetDraftField(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.draft.SetField(field, value)
}

// SetDraft replaces the address being composed.
func (w *Wizard) SetDraft(a model.Address) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	a.ID = ""
	w.draft = a
	return nil
}

// Draft returns the address being composed.
func (w *Wizard) Draft() model.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// SaveAddress creates the draft address on the server. All seven fields
// must be filled in, otherwise nothing is sent. Only one save may be in
// flight; a second call returns ErrBusy. On success the server's record is
// appended and the draft cleared; on failure the draft is kept for retry.
func (w *Wizard) SaveAddress(ctx context.Context) (*model.Address, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.step != StepAddress {
		w.mu.Unlock()
		return nil, ErrWrongStep
	}
	if w.save.Busy() {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	draft := w.draft
	if err := draft.Validate(); err != nil {
		w.message = MsgFillAllFields
		w.mu.Unlock()
		slog.Debug("order: draft address incomplete")
		w.notifyError(MsgFillAllFields)
		return nil, err
	}
	w.save = w.save.Start()
	w.message = ""
	w.mu.Unlock()

	created, err := w.deps.Addresses.CreateAddress(ctx, w.deps.Tokens.Token(), draft)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		slog.Debug("order: discarding late address create result")
		return nil, ErrClosed
	}
	if err != nil {
		w.save = w.save.Fail(MsgSaveFailed)
		w.message = MsgSaveFailed
		w.mu.Unlock()
		slog.Error("save address", "err", err)
		w.notifyError(MsgSaveFailed)
		return nil, fmt.Errorf("order: save address: %w", err)
	}
	w.addresses = append(w.addresses, *created)
	w.draft = model.Address{}
	w.save = w.save.Succeed(*created)
	snapshot := w.addressesLocked()
	w.mu.Unlock()

	slog.Info("address saved", "address_id", created.ID)
	w.notifyAddresses(snapshot)
	out := *created
	return &out, nil
}

// SelectAddress chooses the delivery address. The id must belong to the
// most recently fetched list.
func (w *Wizard) SelectAddress(id string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.step != StepAddress {
		w.mu.Unlock()
		return ErrWrongStep
	}
	if !containsAddress(w.addresses, id) {
		w.message = MsgUnknownAddress
		w.mu.Unlock()
		w.notifyError(MsgUnknownAddress)
		return ErrUnknownAddress
	}
	w.selectedID = id
	w.message = ""
	w.mu.Unlock()
	return nil
}

// Confirm places the order. It is only available at StepConfirm. Once an
// order has been placed, further calls return the same order without a
// second request.
func (w *Wizard) Confirm(ctx context.Context) (*model.Order, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.step != StepConfirm {
		w.mu.Unlock()
		return nil, ErrWrongStep
	}
	if w.place.Busy() {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if w.place.Kind == async.KindSucceeded {
		o := w.place.Data
		w.mu.Unlock()
		return &o, nil
	}
	req := model.OrderRequest{
		ProductID: w.product.ID,
		AddressID: w.selectedID,
		Quantity:  w.quantity,
	}
	w.place = w.place.Start()
	w.message = ""
	w.mu.Unlock()

	placed, err := w.deps.Orders.PlaceOrder(ctx, w.deps.Tokens.Token(), req)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if err != nil {
		w.place = w.place.Fail(MsgPlaceFailed)
		w.message = MsgPlaceFailed
		w.mu.Unlock()
		slog.Error("place order", "err", err)
		w.notifyError(MsgPlaceFailed)
		return nil, fmt.Errorf("order: place order: %w", err)
	}
	w.place = w.place.Succeed(*placed)
	w.mu.Unlock()

	slog.Info("order placed", "order_id", placed.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	out := *placed
	return &out, nil
}

// Close discards the wizard. Results of requests still in flight are
// dropped and later calls return ErrClosed.
func (w *Wizard) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// TotalPrice is price × quantity.
func (w *Wizard) TotalPrice() decimal.Decimal {
	return decimal.NewFromFloat(w.product.Price).Mul(decimal.NewFromInt(int64(w.quantity)))
}

// Product returns the product snapshot the flow was started with.
func (w *Wizard) Product() model.Product {
	return w.product
}

// Quantity returns the ordered quantity.
func (w *Wizard) Quantity() int {
	return w.quantity
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Addresses returns a copy of the fetched address list.
func (w *Wizard) Addresses() []model.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addressesLocked()
}

// SelectedAddress returns the chosen address, if any.
func (w *Wizard) SelectedAddress() (model.Address, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.addresses {
		if a.ID == w.selectedID && w.selectedID != "" {
			return a, true
		}
	}
	return model.Address{}, false
}

// SelectedAddressID returns the chosen address id, or "".
func (w *Wizard) SelectedAddressID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedID
}

// ErrorMessage returns the message to show, or "".
func (w *Wizard) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

// FetchState returns the state of the address fetch.
func (w *Wizard) FetchState() async.State[[]model.Address] {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.fetch
	st.Data = append([]model.Address(nil), st.Data...)
	return st
}

// SaveState returns the state of the address save.
func (w *Wizard) SaveState() async.State[model.Address] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.save
}

// PlaceState returns the state of the order placement.
func (w *Wizard) PlaceState() async.State[model.Order] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.place
}

func (w *Wizard) addressesLocked() []model.Address {
	out := make([]model.Address, len(w.addresses))
	copy(out, w.addresses)
	return out
}

func containsAddress(list []model.Address, id string) bool {
	if id == "" {
		return false
	}
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (w *Wizard) notifyStep(s Step) {
	if w.OnStepChange != nil {
		w.OnStepChange(s)
	}
}

func (w *Wizard) notifyAddresses(list []model.Address) {
	if w.OnAddresses != nil {
		w.OnAddresses(list)
	}
}

func (w *Wizard) notifyError(msg string) {
	if w.OnError != nil {
		w.OnError(msg)
	}
}
