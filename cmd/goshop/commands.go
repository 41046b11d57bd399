package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goshop/pkg/catalog"
	"github.com/NicolasHaas/goshop/pkg/client"
	"github.com/NicolasHaas/goshop/pkg/config"
	"github.com/NicolasHaas/goshop/pkg/model"
	"github.com/NicolasHaas/goshop/pkg/rbac"
)

type env struct {
	sf  *client.Storefront
	in  io.Reader
	out io.Writer

	shops *config.ShopStore
	shop  string // selected with -shop, or ""
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"login":          cmdLogin,
	"logout":         cmdLogout,
	"signup":         cmdSignup,
	"whoami":         cmdWhoami,
	"products":       cmdProducts,
	"categories":     cmdCategories,
	"product":        cmdProduct,
	"add-product":    cmdAddProduct,
	"modify-product": cmdModifyProduct,
	"delete-product": cmdDeleteProduct,
	"order":          cmdOrder,
	"route":          cmdRoute,
}

// positional splits a leading non-flag argument off args, so both
// "order 3 -qty 2" and "order -qty 2 3" work.
func positional(fs *flag.FlagSet, args []string) (string, error) {
	var first string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		first, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if first == "" && fs.NArg() > 0 {
		first = fs.Arg(0)
	}
	if first == "" {
		return "", fmt.Errorf("%w: %s needs an id", errUsage, fs.Name())
	}
	return first, nil
}

func price(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := e.sf.Login(ctx, model.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Welcome, %s.\n", u.DisplayName())

	if e.shop != "" && e.shops.Touch(e.shop, u.Email, time.Now().Unix()) {
		if err := e.shops.Save(); err != nil {
			slog.Warn("save shops", "err", err)
		}
	}
	return nil
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.sf.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Logged out.")
	return nil
}

func cmdSignup(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	var req model.SignupRequest
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.ConfirmPassword, "confirm", "", "password again")
	fs.StringVar(&req.ContactNumber, "contact", "", "contact number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := e.sf.Signup(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Account created. You can now log in.")
	return nil
}

func cmdWhoami(_ context.Context, e *env, _ []string) error {
	s := e.sf.Session().Snapshot()
	if !s.IsLoggedIn() {
		fmt.Fprintln(e.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(e.out, "%s <%s>\nrole: %s\nadmin: %t\n", s.User.DisplayName(), s.User.Email, s.Role, e.sf.Session().IsAdmin())
	return nil
}

func cmdProducts(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	bucket := fs.String("category", "", "bucket: apparel, electronics, personalCare")
	search := fs.String("search", "", "case-insensitive name filter")
	sort := fs.String("sort", "default", "default, priceHighToLow, priceLowToHigh, newest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := catalog.ParseBucket(*bucket)
	if err != nil {
		return err
	}
	sortOrder, err := catalog.ParseSort(*sort)
	if err != nil {
		return err
	}
	e.sf.Search(*search)

	products, err := e.sf.Products(ctx, catalog.Query{Bucket: b, Sort: sortOrder})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(e.out, "No products found.")
		return nil
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, price(p.Price), p.AvailableItems)
	}
	return tw.Flush()
}

func cmdCategories(ctx context.Context, e *env, _ []string) error {
	g, err := e.sf.Categories(ctx)
	if err != nil {
		return err
	}
	for _, b := range catalog.Buckets {
		fmt.Fprintf(e.out, "%-14s %s\n", b.String()+":", strings.Join(g.Of(b), ", "))
	}
	return nil
}

func cmdProduct(ctx context.Context, e *env, args []string) error {
	id, err := positional(flag.NewFlagSet("product", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	p, err := e.sf.Product(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s\n", p.Name)
	fmt.Fprintf(e.out, "  category:     %s\n", p.Category)
	fmt.Fprintf(e.out, "  manufacturer: %s\n", p.Manufacturer)
	fmt.Fprintf(e.out, "  price:        %s\n", price(p.Price))
	fmt.Fprintf(e.out, "  available:    %d\n", p.AvailableItems)
	fmt.Fprintf(e.out, "  %s\n", p.DescriptionPreview())
	if e.sf.Session().IsAdmin() {
		fmt.Fprintf(e.out, "  (admin: modify-product %s, delete-product %s)\n", p.ID, p.ID)
	}
	return nil
}

// productFlags binds the product form to fs.
func productFlags(fs *flag.FlagSet, p *model.Product) {
	fs.StringVar(&p.Name, "name", p.Name, "product name")
	fs.StringVar(&p.Category, "category", p.Category, "category")
	fs.StringVar(&p.Manufacturer, "manufacturer", p.Manufacturer, "manufacturer")
	fs.IntVar(&p.AvailableItems, "items", p.AvailableItems, "available items")
	fs.Float64Var(&p.Price, "price", p.Price, "price")
	fs.StringVar(&p.ImageURL, "image", p.ImageURL, "image URL")
	fs.StringVar(&p.Description, "description", p.Description, "description")
}

func cmdAddProduct(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("add-product", flag.ContinueOnError)
	var p model.Product
	productFlags(fs, &p)
	if err := fs.Parse(args); err != nil {
		return err
	}
	created, err := e.sf.AddProduct(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Product %s added (id %s).\n", created.Name, created.ID)
	return nil
}

func cmdModifyProduct(ctx context.Context, e *env, args []string) error {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if id == "" {
		return fmt.Errorf("%w: modify-product needs an id", errUsage)
	}
	p, err := e.sf.Product(ctx, id)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("modify-product", flag.ContinueOnError)
	productFlags(fs, p)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p.ID = id
	if err := e.sf.ModifyProduct(ctx, *p); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Product %s modified.\n", p.Name)
	return nil
}

func cmdDeleteProduct(ctx context.Context, e *env, args []string) error {
	id, err := positional(flag.NewFlagSet("delete-product", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := e.sf.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Product %s deleted.\n", id)
	return nil
}

func cmdOrder(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity")
	id, err := positional(fs, args)
	if err != nil {
		return err
	}
	if redirect := e.sf.Navigate(ctx, rbac.RouteCreateOrder); redirect != rbac.RouteCreateOrder {
		return client.ErrNotLoggedIn
	}
	w, err := e.sf.StartOrder(ctx, id, *qty)
	if err != nil {
		return err
	}
	defer w.Close()
	return runWizard(ctx, w, e.in, e.out)
}

func cmdRoute(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: route needs a path", errUsage)
	}
	fmt.Fprintln(e.out, e.sf.Navigate(ctx, args[0]))
	return nil
}
