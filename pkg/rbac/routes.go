package rbac

import (
	"strings"

	"github.com/NicolasHaas/goshop/pkg/model"
)

const (
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteProducts       = "/products"
	RouteAddProduct     = "/add-products"
	RouteProductDetails = "/product-details/:id"
	RouteModifyProduct  = "/modify-product/:id"
	RouteCreateOrder    = "/create-order"
)

// routePermissions maps route patterns to the permission needed to view them.
var routePermissions = map[string]model.Permission{
	RouteLogin:          model.PermBrowse,
	RouteSignup:         model.PermBrowse,
	RouteProducts:       model.PermBrowse,
	RouteProductDetails: model.PermBrowse,
	RouteAddProduct:     model.PermManageProducts,
	RouteModifyProduct:  model.PermManageProducts,
	RouteCreateOrder:    model.PermPlaceOrder,
}

// Match resolves a concrete path like "/modify-product/42" to its pattern
// and the value bound to ":id", if any.
func Match(path string) (pattern, id string, ok bool) {
	path = "/" + strings.Trim(path, "/")
	if _, ok := routePermissions[path]; ok {
		return path, "", true
	}
	for p := range routePermissions {
		prefix, hasParam := strings.CutSuffix(p, ":id")
		if !hasParam {
			continue
		}
		if rest, found := strings.CutPrefix(path, prefix); found && rest != "" && !strings.Contains(rest, "/") {
			return p, rest, true
		}
	}
	return "", "", false
}

// Guard decides whether a subject may open path. When it may not, redirect
// names the route to send them to: anonymous users go to the login page,
// logged-in users without the role go back to the product list.
func Guard(path string, s Subject) (redirect string, ok bool) {
	pattern, _, found := Match(path)
	if !found {
		return RouteProducts, false
	}
	perm := routePermissions[pattern]
	if HasPermission(s, perm) {
		return "", true
	}
	if !s.LoggedIn {
		return RouteLogin, false
	}
	return RouteProducts, false
}
