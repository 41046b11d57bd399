package order_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goshop/pkg/api"
	"github.com/NicolasHaas/goshop/pkg/api/apitest"
	"github.com/NicolasHaas/goshop/pkg/async"
	"github.com/NicolasHaas/goshop/pkg/model"
	"github.com/NicolasHaas/goshop/pkg/order"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type fixture struct {
	srv   *apitest.Server
	acc   *apitest.Account
	deps  order.Deps
	watch model.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer(t)
	acc := srv.AddAccount("buyer@shop.dev", "pw", "USER")
	c := api.NewClient(srv.HTTPClient(), srv.URL())
	watch := srv.AddProduct(model.Product{Name: "Watch", Category: "Watches", Price: 250, AvailableItems: 5})
	return &fixture{
		srv:   srv,
		acc:   acc,
		deps:  order.Deps{Addresses: c, Orders: c, Tokens: staticToken(acc.Token)},
		watch: watch,
	}
}

func (f *fixture) wizard(t *testing.T, qty int) *order.Wizard {
	t.Helper()
	w, err := order.NewWizard(f.watch, qty, f.deps)
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func fullAddress(name string) model.Address {
	return model.Address{
		Name: name, ContactNumber: "9999", Street: "1 Main St", City: "Pune",
		State: "MH", Landmark: "Park", Zipcode: "411001",
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewWizardRejectsQuantity(t *testing.T) {
	f := newFixture(t)
	for _, qty := range []int{0, -3} {
		if _, err := order.NewWizard(f.watch, qty, f.deps); !errors.Is(err, order.ErrInvalidQuantity) {
			t.Errorf("NewWizard(qty=%d) = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if _, err := order.NewWizard(f.watch, 1, order.Deps{}); !errors.Is(err, order.ErrMissingDeps) {
		t.Errorf("NewWizard without deps = %v, want ErrMissingDeps", err)
	}
}

func TestNextFetchesAddresses(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	work := f.srv.AddAddress(f.acc.Token, fullAddress("Work"))
	w := f.wizard(t, 1)

	var steps []order.Step
	w.OnStepChange = func(s order.Step) { steps = append(steps, s) }

	if err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if w.Step() != order.StepAddress {
		t.Fatalf("Step = %v, want %v", w.Step(), order.StepAddress)
	}
	if diff := cmp.Diff([]model.Address{home, work}, w.Addresses()); diff != "" {
		t.Errorf("Addresses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]order.Step{order.StepAddress}, steps); diff != "" {
		t.Errorf("step notifications (-want +got):\n%s", diff)
	}
	if got := w.FetchState().Kind; got != async.KindSucceeded {
		t.Errorf("FetchState = %v, want succeeded", got)
	}
}

func TestNextRequiresSelection(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	var shown []string
	w.OnError = func(msg string) { shown = append(shown, msg) }

	if err := w.Next(ctx); !errors.Is(err, order.ErrNoAddressSelected) {
		t.Fatalf("Next without selection = %v, want ErrNoAddressSelected", err)
	}
	if w.Step() != order.StepAddress {
		t.Errorf("Step = %v, want to stay at %v", w.Step(), order.StepAddress)
	}
	if got := w.ErrorMessage(); got != order.MsgSelectAddress {
		t.Errorf("ErrorMessage = %q, want %q", got, order.MsgSelectAddress)
	}
	if diff := cmp.Diff([]string{order.MsgSelectAddress}, shown); diff != "" {
		t.Errorf("OnError mismatch (-want +got):\n%s", diff)
	}

	if err := w.SelectAddress(home.ID); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next with selection: %v", err)
	}
	if w.Step() != order.StepConfirm {
		t.Errorf("Step = %v, want %v", w.Step(), order.StepConfirm)
	}
	if w.ErrorMessage() != "" {
		t.Errorf("ErrorMessage = %q after advancing", w.ErrorMessage())
	}
	if got, ok := w.SelectedAddress(); !ok || got.ID != home.ID {
		t.Errorf("SelectedAddress = (%+v, %v)", got, ok)
	}
}

func TestSelectAddressMustBeFetched(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	if err := w.SelectAddress("1"); !errors.Is(err, order.ErrWrongStep) {
		t.Errorf("SelectAddress at items = %v, want ErrWrongStep", err)
	}

	if err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := w.SelectAddress("does-not-exist"); !errors.Is(err, order.ErrUnknownAddress) {
		t.Errorf("SelectAddress(unknown) = %v, want ErrUnknownAddress", err)
	}
	if w.SelectedAddressID() != "" {
		t.Errorf("SelectedAddressID = %q after rejected select", w.SelectedAddressID())
	}
}

func TestPreviousClampsAtItems(t *testing.T) {
	f := newFixture(t)
	f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	w.Previous(ctx)
	if w.Step() != order.StepItems {
		t.Fatalf("Previous at items moved to %v", w.Step())
	}

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := w.SelectAddress(w.Addresses()[0].ID); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	w.Previous(ctx)
	if w.Step() != order.StepAddress {
		t.Errorf("Previous from confirm = %v, want %v", w.Step(), order.StepAddress)
	}
	w.Previous(ctx)
	w.Previous(ctx)
	if w.Step() != order.StepItems {
		t.Errorf("Step = %v, want %v", w.Step(), order.StepItems)
	}
}

func TestPreviousIntoAddressRefetches(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := w.SelectAddress(home.ID); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	office := f.srv.AddAddress(f.acc.Token, fullAddress("Office"))
	before := f.srv.Calls("GET /addresses")

	w.Previous(ctx)
	if w.Step() != order.StepAddress {
		t.Fatalf("Step = %v, want %v", w.Step(), order.StepAddress)
	}
	if got := f.srv.Calls("GET /addresses"); got != before+1 {
		t.Errorf("list calls = %d, want %d", got, before+1)
	}
	if diff := cmp.Diff([]model.Address{home, office}, w.Addresses()); diff != "" {
		t.Errorf("Addresses mismatch (-want +got):\n%s", diff)
	}
	if w.SelectedAddressID() != home.ID {
		t.Errorf("selection = %q, want %q kept", w.SelectedAddressID(), home.ID)
	}

	// Going back to items does not fetch.
	before = f.srv.Calls("GET /addresses")
	w.Previous(ctx)
	if got := f.srv.Calls("GET /addresses"); got != before {
		t.Errorf("list calls after leaving address = %d, want %d", got, before)
	}
}

func TestPreviousIntoAddressRetriesFailedFetch(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	f.srv.Fail("GET /addresses", http.StatusServiceUnavailable)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if w.ErrorMessage() != order.MsgFetchFailed {
		t.Fatalf("ErrorMessage = %q, want %q", w.ErrorMessage(), order.MsgFetchFailed)
	}

	f.srv.Fail("GET /addresses", 0)
	w.Previous(ctx)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if diff := cmp.Diff([]model.Address{home}, w.Addresses()); diff != "" {
		t.Errorf("Addresses mismatch (-want +got):\n%s", diff)
	}
	if w.ErrorMessage() != "" {
		t.Errorf("ErrorMessage = %q after successful retry", w.ErrorMessage())
	}
}

func TestFetchFailureKeepsList(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	f.srv.Fail("GET /addresses", http.StatusInternalServerError)
	if err := w.FetchAddresses(ctx); err == nil {
		t.Fatalf("FetchAddresses: expected error")
	}
	if got := w.ErrorMessage(); got != order.MsgFetchFailed {
		t.Errorf("ErrorMessage = %q, want %q", got, order.MsgFetchFailed)
	}
	if diff := cmp.Diff([]model.Address{home}, w.Addresses()); diff != "" {
		t.Errorf("list changed on failed fetch (-want +got):\n%s", diff)
	}
	if st := w.FetchState(); st.Kind != async.KindFailed || st.Message != order.MsgFetchFailed {
		t.Errorf("FetchState = %+v", st)
	}
}

func TestNextSurvivesFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail("GET /addresses", http.StatusServiceUnavailable)
	w := f.wizard(t, 1)

	if err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if w.Step() != order.StepAddress {
		t.Errorf("Step = %v, want %v", w.Step(), order.StepAddress)
	}
	if w.ErrorMessage() != order.MsgFetchFailed {
		t.Errorf("ErrorMessage = %q, want %q", w.ErrorMessage(), order.MsgFetchFailed)
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	first := w.Addresses()
	if err := w.FetchAddresses(ctx); err != nil {
		t.Fatalf("FetchAddresses: %v", err)
	}
	if diff := cmp.Diff(first, w.Addresses()); diff != "" {
		t.Errorf("second fetch changed the list (-want +got):\n%s", diff)
	}
}

func TestAddressesAreScopedToToken(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	other := f.srv.AddAccount("other@shop.dev", "pw", "USER")
	f.deps.Tokens = staticToken(other.Token)
	w := f.wizard(t, 1)

	if err := w.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(w.Addresses()) != 0 {
		t.Errorf("Addresses = %+v, want none for another account", w.Addresses())
	}
	if err := w.SelectAddress(home.ID); !errors.Is(err, order.ErrUnknownAddress) {
		t.Errorf("selecting another account's address = %v, want ErrUnknownAddress", err)
	}
}

func TestSaveAddressIncompleteSendsNothing(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	partial := fullAddress("Home")
	partial.Landmark = ""
	if err := w.SetDraft(partial); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}

	if _, err := w.SaveAddress(ctx); !errors.Is(err, model.ErrAddressIncomplete) {
		t.Fatalf("SaveAddress = %v, want ErrAddressIncomplete", err)
	}
	if got := w.ErrorMessage(); got != order.MsgFillAllFields {
		t.Errorf("ErrorMessage = %q, want %q", got, order.MsgFillAllFields)
	}
	if n := f.srv.Calls("POST /addresses"); n != 0 {
		t.Errorf("create calls = %d, want 0", n)
	}
	if diff := cmp.Diff(partial, w.Draft()); diff != "" {
		t.Errorf("draft changed (-want +got):\n%s", diff)
	}
}

func TestSaveAddressAppendsAndClearsDraft(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	for _, field := range model.AddressFields {
		if err := w.SetDraftField(field, "x-"+field); err != nil {
			t.Fatalf("SetDraftField(%q): %v", field, err)
		}
	}
	if err := w.SetDraftField("country", "IN"); !errors.Is(err, model.ErrUnknownAddressField) {
		t.Errorf("SetDraftField(country) = %v", err)
	}

	created, err := w.SaveAddress(ctx)
	if err != nil {
		t.Fatalf("SaveAddress: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("SaveAddress returned no id")
	}
	if n := f.srv.Calls("POST /addresses"); n != 1 {
		t.Errorf("create calls = %d, want 1", n)
	}
	if diff := cmp.Diff([]model.Address{*created}, w.Addresses()); diff != "" {
		t.Errorf("Addresses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Address{}, w.Draft()); diff != "" {
		t.Errorf("draft not cleared (-want +got):\n%s", diff)
	}
	if w.SaveState().Kind != async.KindSucceeded {
		t.Errorf("SaveState = %v", w.SaveState().Kind)
	}
}

func TestSaveAddressFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	draft := fullAddress("Home")
	_ = w.SetDraft(draft)

	f.srv.Fail("POST /addresses", http.StatusInternalServerError)
	if _, err := w.SaveAddress(ctx); err == nil {
		t.Fatalf("SaveAddress: expected error")
	}
	if got := w.ErrorMessage(); got != order.MsgSaveFailed {
		t.Errorf("ErrorMessage = %q, want %q", got, order.MsgSaveFailed)
	}
	if diff := cmp.Diff(draft, w.Draft()); diff != "" {
		t.Errorf("draft lost on failure (-want +got):\n%s", diff)
	}

	f.srv.Fail("POST /addresses", 0)
	if _, err := w.SaveAddress(ctx); err != nil {
		t.Fatalf("retry SaveAddress: %v", err)
	}
	if w.ErrorMessage() != "" {
		t.Errorf("ErrorMessage = %q after successful retry", w.ErrorMessage())
	}
}

func TestSaveAddressWhileBusy(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	_ = w.SetDraft(fullAddress("Home"))

	release := f.srv.HoldAddressCreates()
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := w.SaveAddress(ctx)
		done <- err
	}()
	waitFor(t, func() bool { return w.SaveState().Busy() })

	if _, err := w.SaveAddress(ctx); !errors.Is(err, order.ErrBusy) {
		t.Errorf("second SaveAddress = %v, want ErrBusy", err)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("first SaveAddress: %v", err)
	}
	if n := f.srv.Calls("POST /addresses"); n != 1 {
		t.Errorf("create calls = %d, want 1", n)
	}
}

func TestLateResultAfterCloseIsDiscarded(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	_ = w.SetDraft(fullAddress("Home"))

	var notified bool
	w.OnAddresses = func([]model.Address) { notified = true }

	release := f.srv.HoldAddressCreates()
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := w.SaveAddress(ctx)
		done <- err
	}()
	waitFor(t, func() bool { return w.SaveState().Busy() })

	w.Close()
	release()

	if err := <-done; !errors.Is(err, order.ErrClosed) {
		t.Fatalf("SaveAddress after close = %v, want ErrClosed", err)
	}
	if len(w.Addresses()) != 0 {
		t.Errorf("late address applied: %+v", w.Addresses())
	}
	if notified {
		t.Errorf("OnAddresses fired after close")
	}
	if err := w.Next(ctx); !errors.Is(err, order.ErrClosed) {
		t.Errorf("Next after close = %v, want ErrClosed", err)
	}
}

func TestFetchAfterCloseIsDiscarded(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	f.srv.AddAddress(f.acc.Token, fullAddress("Office"))

	var notified bool
	w.OnAddresses = func([]model.Address) { notified = true }

	release := f.srv.HoldAddressLists()
	defer release()

	done := make(chan error, 1)
	go func() { done <- w.FetchAddresses(ctx) }()
	waitFor(t, func() bool { return f.srv.HeldAddressLists() == 1 })

	w.Close()
	release()

	if err := <-done; !errors.Is(err, order.ErrClosed) {
		t.Fatalf("FetchAddresses after close = %v, want ErrClosed", err)
	}
	if diff := cmp.Diff([]model.Address{home}, w.Addresses()); diff != "" {
		t.Errorf("late list applied (-want +got):\n%s", diff)
	}
	if notified {
		t.Errorf("OnAddresses fired after close")
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	release := f.srv.HoldAddressLists()
	defer release()

	older := make(chan error, 1)
	go func() { older <- w.FetchAddresses(ctx) }()
	waitFor(t, func() bool { return f.srv.HeldAddressLists() == 1 })

	office := f.srv.AddAddress(f.acc.Token, fullAddress("Office"))
	if err := w.FetchAddresses(ctx); err != nil {
		t.Fatalf("newer FetchAddresses: %v", err)
	}
	release()

	if err := <-older; !errors.Is(err, order.ErrStale) {
		t.Fatalf("older FetchAddresses = %v, want ErrStale", err)
	}
	want := []model.Address{home, office}
	if diff := cmp.Diff(want, w.Addresses()); diff != "" {
		t.Errorf("Addresses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, w.FetchState().Data); diff != "" {
		t.Errorf("FetchState mismatch (-want +got):\n%s", diff)
	}
	if w.ErrorMessage() != "" {
		t.Errorf("ErrorMessage = %q, want none", w.ErrorMessage())
	}
}

func TestConfirmAfterClose(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()
	_ = w.Next(ctx)
	_ = w.SelectAddress(home.ID)
	_ = w.Next(ctx)

	w.Close()
	if _, err := w.Confirm(ctx); !errors.Is(err, order.ErrClosed) {
		t.Fatalf("Confirm after close = %v, want ErrClosed", err)
	}
	if n := f.srv.Calls("POST /orders"); n != 0 {
		t.Errorf("order calls = %d, want 0", n)
	}
}

func TestTotalPrice(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(t, 3)
	if got, want := w.TotalPrice(), decimal.NewFromInt(750); !got.Equal(want) {
		t.Errorf("TotalPrice = %s, want %s", got, want)
	}

	cheap, err := order.NewWizard(model.Product{ID: "x", Price: 0.1}, 3, f.deps)
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	defer cheap.Close()
	if got := cheap.TotalPrice().String(); got != "0.3" {
		t.Errorf("TotalPrice = %s, want 0.3", got)
	}
}

// Confirm submits POST /orders. This behavior is chosen here since the
// storefront historically left the final step without a submit action.
func TestConfirmPlacesOrderOnce(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 3)
	ctx := context.Background()

	if _, err := w.Confirm(ctx); !errors.Is(err, order.ErrWrongStep) {
		t.Fatalf("Confirm at items = %v, want ErrWrongStep", err)
	}

	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := w.SelectAddress(home.ID); err != nil {
		t.Fatalf("SelectAddress: %v", err)
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	// Next at the last step is a no-op.
	if err := w.Next(ctx); err != nil || w.Step() != order.StepConfirm {
		t.Fatalf("Next at confirm = (%v, %v)", err, w.Step())
	}
	if n := len(f.srv.Orders()); n != 0 {
		t.Fatalf("orders after Next = %d, want 0", n)
	}

	placed, err := w.Confirm(ctx)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	want := model.Order{ID: placed.ID, ProductID: f.watch.ID, AddressID: home.ID, Quantity: 3, CreatedAt: placed.CreatedAt}
	if diff := cmp.Diff(want, *placed); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	again, err := w.Confirm(ctx)
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if again.ID != placed.ID || f.srv.Calls("POST /orders") != 1 {
		t.Errorf("second Confirm re-submitted (calls=%d)", f.srv.Calls("POST /orders"))
	}
}

func TestConfirmFailure(t *testing.T) {
	f := newFixture(t)
	home := f.srv.AddAddress(f.acc.Token, fullAddress("Home"))
	w := f.wizard(t, 1)
	ctx := context.Background()
	_ = w.Next(ctx)
	_ = w.SelectAddress(home.ID)
	_ = w.Next(ctx)

	f.srv.Fail("POST /orders", http.StatusBadGateway)
	if _, err := w.Confirm(ctx); err == nil {
		t.Fatalf("Confirm: expected error")
	}
	if w.ErrorMessage() != order.MsgPlaceFailed {
		t.Errorf("ErrorMessage = %q, want %q", w.ErrorMessage(), order.MsgPlaceFailed)
	}
	if w.PlaceState().Kind != async.KindFailed {
		t.Errorf("PlaceState = %v, want failed", w.PlaceState().Kind)
	}
}

func TestStepLabels(t *testing.T) {
	tests := []struct {
		step      order.Step
		name      string
		nextLabel string
	}{
		{order.StepItems, "Items", "Next"},
		{order.StepAddress, "Select Address", "Next"},
		{order.StepConfirm, "Confirm Order", "Confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.step.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.step.NextLabel(); got != tt.nextLabel {
				t.Errorf("NextLabel() = %q, want %q", got, tt.nextLabel)
			}
		})
	}
}
