package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShopsFileName is stored next to the config file.
const ShopsFileName = "shops.yaml"

var ErrUnknownShop = errors.New("config: unknown shop")

// Shop is a saved storefront endpoint.
type Shop struct {
	Name     string `yaml:"name"`
	APIURL   string `yaml:"api_url"`
	Email    string `yaml:"email,omitempty"`
	LastUsed int64  `yaml:"last_used,omitempty"`
}

// ShopStore manages saved shops.
type ShopStore struct {
	path  string
	Shops []Shop `yaml:"shops"`
}

// NewShopStore creates a store backed by path.
func NewShopStore(path string) *ShopStore {
	return &ShopStore{path: path}
}

// ShopsPath is shops.yaml in the directory holding the config file.
func (c *Config) ShopsPath() string {
	return filepath.Join(filepath.Dir(c.Path()), ShopsFileName)
}

// Load reads shops from disk. A missing file is an empty list.
func (ss *ShopStore) Load() error {
	data, err := os.ReadFile(ss.path)
	if err != nil {
		if os.IsNotExist(err) {
			ss.Shops = nil
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, ss)
}

// Save writes shops to disk.
func (ss *ShopStore) Save() error {
	data, err := yaml.Marshal(ss)
	if err != nil {
		return err
	}
	return os.WriteFile(ss.path, data, 0600)
}

// Add adds or replaces the shop with the same name. Returns true if it was
// a new entry.
func (ss *ShopStore) Add(s Shop) (bool, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" || strings.TrimSpace(s.APIURL) == "" {
		return false, fmt.Errorf("config: shop needs a name and an api url")
	}
	for i, existing := range ss.Shops {
		if strings.EqualFold(existing.Name, s.Name) {
			ss.Shops[i] = s
			return false, nil
		}
	}
	ss.Shops = append(ss.Shops, s)
	return true, nil
}

// Touch records use of a shop and the account signed in to it.
func (ss *ShopStore) Touch(name, email string, ts int64) bool {
	for i := range ss.Shops {
		if strings.EqualFold(ss.Shops[i].Name, name) {
			ss.Shops[i].LastUsed = ts
			if email != "" {
				ss.Shops[i].Email = email
			}
			return true
		}
	}
	return false
}

// Find returns the shop with the given name.
func (ss *ShopStore) Find(name string) (*Shop, error) {
	for _, s := range ss.Shops {
		if strings.EqualFold(s.Name, name) {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownShop, name)
}

// Sorted returns shops most recently used first, then by name.
func (ss *ShopStore) Sorted() []Shop {
	out := slices.Clone(ss.Shops)
	slices.SortFunc(out, func(a, b Shop) int {
		if a.LastUsed != b.LastUsed {
			if a.LastUsed > b.LastUsed {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
