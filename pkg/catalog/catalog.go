// Package catalog groups server categories into display buckets and filters
// and sorts product listings.
package catalog

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// Bucket is a top-level category group.
type Bucket string

const (
	BucketAll          Bucket = ""
	BucketApparel      Bucket = "apparel"
	BucketElectronics  Bucket = "electronics"
	BucketPersonalCare Bucket = "personalCare"
)

// Buckets in display order.
var Buckets = []Bucket{BucketApparel, BucketElectronics, BucketPersonalCare}

var members = map[Bucket][]string{
	BucketApparel:      {"watches", "shoes", "pants", "clothes"},
	BucketElectronics:  {"electronics", "cooking"},
	BucketPersonalCare: {"perfumes", "fitness"},
}

func (b Bucket) String() string {
	switch b {
	case BucketAll:
		return "All"
	case BucketApparel:
		return "Apparel"
	case BucketElectronics:
		return "Electronics"
	case BucketPersonalCare:
		return "Personal Care"
	default:
		return string(b)
	}
}

var ErrUnknownBucket = errors.New("catalog: unknown bucket")

// ParseBucket accepts a bucket id or its display name, case-insensitively.
func ParseBucket(s string) (Bucket, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return BucketAll, nil
	}
	for _, b := range Buckets {
		if strings.EqualFold(s, string(b)) || strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return BucketAll, ErrUnknownBucket
}

// BucketOf returns the bucket a category belongs to.
func BucketOf(category string) (Bucket, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, b := range Buckets {
		if slices.Contains(members[b], c) {
			return b, true
		}
	}
	return BucketAll, false
}

// Groups holds the lower-cased server categories per bucket.
type Groups struct {
	Apparel      []string
	Electronics  []string
	PersonalCare []string
}

// Of returns the categories of b. BucketAll yields every grouped category.
func (g Groups) Of(b Bucket) []string {
	switch b {
	case BucketApparel:
		return g.Apparel
	case BucketElectronics:
		return g.Electronics
	case BucketPersonalCare:
		return g.PersonalCare
	default:
		return slices.Concat(g.Apparel, g.Electronics, g.PersonalCare)
	}
}

// GroupCategories sorts raw server categories into buckets, keeping their
// order. Categories outside every bucket are dropped.
func GroupCategories(raw []string) Groups {
	var g Groups
	for _, c := range raw {
		b, ok := BucketOf(c)
		if !ok {
			continue
		}
		lc := strings.ToLower(strings.TrimSpace(c))
		switch b {
		case BucketApparel:
			g.Apparel = append(g.Apparel, lc)
		case BucketElectronics:
			g.Electronics = append(g.Electronics, lc)
		case BucketPersonalCare:
			g.PersonalCare = append(g.PersonalCare, lc)
		}
	}
	return g
}

// SortOrder of a product listing.
type SortOrder string

const (
	SortDefault        SortOrder = "default"
	SortPriceHighToLow SortOrder = "priceHighToLow"
	SortPriceLowToHigh SortOrder = "priceLowToHigh"
	SortNewest         SortOrder = "newest"
)

var ErrUnknownSort = errors.New("catalog: unknown sort order")

// ParseSort maps a sort name to a SortOrder. Empty means SortDefault.
func ParseSort(s string) (SortOrder, error) {
	switch SortOrder(strings.TrimSpace(s)) {
	case "", SortDefault:
		return SortDefault, nil
	case SortPriceHighToLow:
		return SortPriceHighToLow, nil
	case SortPriceLowToHigh:
		return SortPriceLowToHigh, nil
	case SortNewest:
		return SortNewest, nil
	default:
		return SortDefault, ErrUnknownSort
	}
}

// Query narrows a listing. When Groups is set, a bucket only matches the
// categories the server listed for it; otherwise the static table applies.
type Query struct {
	Bucket Bucket
	Search string
	Sort   SortOrder
	Groups *Groups
}

func (q Query) inBucket(category string) bool {
	if q.Groups == nil {
		b, ok := BucketOf(category)
		return ok && b == q.Bucket
	}
	return slices.Contains(q.Groups.Of(q.Bucket), strings.ToLower(strings.TrimSpace(category)))
}

// Filter applies q to products and returns a new slice.
func Filter(products []model.Product, q Query) []model.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q.Bucket != BucketAll && !q.inBucket(p.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceHighToLow:
		slices.SortStableFunc(out, func(a, b model.Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortPriceLowToHigh:
		slices.SortStableFunc(out, func(a, b model.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortNewest:
		slices.SortStableFunc(out, func(a, b model.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	return out
}
