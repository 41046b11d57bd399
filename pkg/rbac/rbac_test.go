package rbac

import (
	"testing"

	"github.com/NicolasHaas/goshop/pkg/model"
)

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"upper", []string{"ADMIN"}, true},
		{"lower", []string{"admin"}, true},
		{"mixed later", []string{"USER", "Admin"}, true},
		{"user only", []string{"USER"}, false},
		{"none", nil, false},
		{"substring", []string{"administrator"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdmin(tt.roles...); got != tt.want {
				t.Errorf("IsAdmin(%v) = %v, want %v", tt.roles, got, tt.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	anon := Subject{}
	user := Subject{LoggedIn: true, Roles: []string{"USER"}}
	admin := Subject{LoggedIn: true, Roles: []string{"ADMIN"}}
	// Roles without a login must not grant anything.
	staleAdmin := Subject{Roles: []string{"ADMIN"}}

	tests := []struct {
		name string
		s    Subject
		perm model.Permission
		want bool
	}{
		{"anon browse", anon, model.PermBrowse, true},
		{"anon order", anon, model.PermPlaceOrder, false},
		{"user order", user, model.PermPlaceOrder, true},
		{"user manage", user, model.PermManageProducts, false},
		{"admin manage", admin, model.PermManageProducts, true},
		{"stale admin manage", staleAdmin, model.PermManageProducts, false},
		{"unknown perm", admin, model.Permission(42), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.s, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%+v, %s) = %v, want %v", tt.s, tt.perm, got, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	if msg := RequirePermission(Subject{LoggedIn: true, Roles: []string{"admin"}}, model.PermManageProducts); msg != "" {
		t.Errorf("admin: got %q, want empty", msg)
	}
	if msg := RequirePermission(Subject{}, model.PermPlaceOrder); msg != "permission denied: place_order requires login" {
		t.Errorf("anon: got %q", msg)
	}
	if msg := RequirePermission(Subject{LoggedIn: true}, model.PermManageProducts); msg != "permission denied: manage_products requires admin role" {
		t.Errorf("user: got %q", msg)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		path        string
		wantPattern string
		wantID      string
		wantOK      bool
	}{
		{"/products", RouteProducts, "", true},
		{"products/", RouteProducts, "", true},
		{"/product-details/42", RouteProductDetails, "42", true},
		{"/modify-product/abc", RouteModifyProduct, "abc", true},
		{"/modify-product/", "", "", false},
		{"/modify-product/1/2", "", "", false},
		{"/nowhere", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			pattern, id, ok := Match(tt.path)
			if pattern != tt.wantPattern || id != tt.wantID || ok != tt.wantOK {
				t.Errorf("Match(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.path, pattern, id, ok, tt.wantPattern, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	anon := Subject{}
	user := Subject{LoggedIn: true, Roles: []string{"USER"}}
	admin := Subject{LoggedIn: true, Roles: []string{"ADMIN"}}

	tests := []struct {
		name         string
		path         string
		s            Subject
		wantRedirect string
		wantOK       bool
	}{
		{"anon products", "/products", anon, "", true},
		{"anon order", "/create-order", anon, RouteLogin, false},
		{"user order", "/create-order", user, "", true},
		{"user add", "/add-products", user, RouteProducts, false},
		{"anon modify", "/modify-product/7", anon, RouteLogin, false},
		{"admin modify", "/modify-product/7", admin, "", true},
		{"unknown", "/admin", admin, RouteProducts, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redirect, ok := Guard(tt.path, tt.s)
			if redirect != tt.wantRedirect || ok != tt.wantOK {
				t.Errorf("Guard(%q) = (%q, %v), want (%q, %v)", tt.path, redirect, ok, tt.wantRedirect, tt.wantOK)
			}
		})
	}
}
