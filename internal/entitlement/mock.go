package entitlement

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is the YAML product list used by the mock client.
type Catalog struct {
	Products []Product `yaml:"products"`
	// EntitledUsers lists, per product reference name, the users that own it.
	EntitledUsers map[string][]string `yaml:"entitled_users"`
}

// DefaultCatalog holds the single premium product offered by the skill.
func DefaultCatalog(productID, referenceName string) Catalog {
	return Catalog{Products: []Product{{
		ProductID:     productID,
		ReferenceName: referenceName,
		Name:          "All Access",
		Summary:       "All access lets you record the condition of every coin you add",
		Entitled:      NotEntitled,
		Purchasable:   Purchasable,
	}}}
}

func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %q: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %q: %w", path, err)
	}
	if len(c.Products) == 0 {
		return Catalog{}, fmt.Errorf("catalog %q lists no products", path)
	}
	return c, nil
}

// MockClient serves a fixed catalog and tracks entitlements in memory. The
// gate settles accepted purchases and cancellations into it, so the purchase
// flows can be exercised locally.
type MockClient struct {
	mu       sync.RWMutex
	products []Product
	owners   map[string]map[string]bool
	err      error
}

func NewMockClient(c Catalog) *MockClient {
	m := &MockClient{
		products: append([]Product(nil), c.Products...),
		owners:   make(map[string]map[string]bool),
	}
	for ref, users := range c.EntitledUsers {
		for _, u := range users {
			m.Grant(u, ref)
		}
	}
	return m
}

// Grant marks userID as owning the product with reference name ref.
func (m *MockClient) Grant(userID, ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[userID] == nil {
		m.owners[userID] = make(map[string]bool)
	}
	m.owners[userID][ref] = true
}

// Revoke removes userID's ownership of ref.
func (m *MockClient) Revoke(userID, ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners[userID], ref)
}

// FailWith makes every subsequent call return err; nil restores normal behavior.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockClient) Products(ctx context.Context, req Request) ([]Product, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, m.err)
	}
	out := make([]Product, len(m.products))
	for i, p := range m.products {
		if m.owners[req.UserID][p.ReferenceName] {
			p.Entitled = Entitled
		} else {
			p.Entitled = NotEntitled
		}
		out[i] = p
	}
	return out, nil
}
