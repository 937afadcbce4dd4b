package entitlement

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testProductID = "amzn1.adg.product.test"
	testRef       = "all_access"
)

func TestMockClientGrantMarksEntitled(t *testing.T) {
	m := NewMockClient(DefaultCatalog(testProductID, testRef))
	gate := NewGate(m, GateConfig{PremiumProductID: testProductID, PremiumReferenceName: testRef}, nil)
	ctx := context.Background()

	products, err := gate.Products(ctx, Request{UserID: "u1", Locale: "en-US"})
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if gate.HasPremium(products) {
		t.Fatalf("HasPremium() = true before grant")
	}
	if len(PurchasableProducts(products)) != 1 {
		t.Fatalf("PurchasableProducts() = %+v, want the premium product", PurchasableProducts(products))
	}

	m.Grant("u1", testRef)
	products, _ = gate.Products(ctx, Request{UserID: "u1", Locale: "en-US"})
	if !gate.HasPremium(products) {
		t.Fatalf("HasPremium() = false after grant")
	}
	if len(PurchasableProducts(products)) != 0 {
		t.Fatalf("owned product should not be purchasable")
	}

	other, _ := gate.Products(ctx, Request{UserID: "u2", Locale: "en-US"})
	if gate.HasPremium(other) {
		t.Fatalf("grant leaked to another user")
	}
}

func TestGateWrapsFailures(t *testing.T) {
	m := NewMockClient(DefaultCatalog(testProductID, testRef))
	m.FailWith(errors.New("boom"))
	gate := NewGate(m, GateConfig{PremiumReferenceName: testRef}, nil)

	var results []string
	gate.SetLookupHook(func(r string) { results = append(results, r) })

	_, err := gate.Products(context.Background(), Request{UserID: "u1"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Products() error = %v, want ErrUnavailable", err)
	}
	if len(results) != 1 || results[0] != "error" {
		t.Fatalf("lookup results = %v, want [error]", results)
	}
}

func TestGatePremiumFallsBackToConfiguredID(t *testing.T) {
	gate := NewGate(NewMockClient(Catalog{}), GateConfig{PremiumProductID: "pid", PremiumReferenceName: testRef}, nil)
	p := gate.Premium(nil)
	if p.ProductID != "pid" || p.ReferenceName != testRef {
		t.Fatalf("Premium() = %+v, want configured stub", p)
	}
}

type slowClient struct {
	calls   atomic.Int32
	release chan struct{}
}

func (c *slowClient) Products(ctx context.Context, _ Request) ([]Product, error) {
	c.calls.Add(1)
	<-c.release
	return []Product{{ReferenceName: testRef, Entitled: Entitled}}, nil
}

func TestGateCollapsesConcurrentLookups(t *testing.T) {
	client := &slowClient{release: make(chan struct{})}
	gate := NewGate(client, GateConfig{PremiumReferenceName: testRef}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := gate.Products(context.Background(), Request{UserID: "u1", Locale: "en-US"})
			if err != nil || !gate.HasPremium(products) {
				t.Errorf("Products() = %+v, %v", products, err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()

	if got := client.calls.Load(); got < 1 || got > 5 {
		t.Fatalf("client calls = %d, want between 1 and 5", got)
	}
}

func TestHTTPClientProducts(t *testing.T) {
	var gotAuth, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != productsPath {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"inSkillProducts":[{"productId":"p1","referenceName":"all_access","name":"All Access","entitled":"ENTITLED","purchasable":"NOT_PURCHASABLE"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("", time.Second)
	products, err := c.Products(context.Background(), Request{
		Locale:         "en-US",
		APIEndpoint:    srv.URL,
		APIAccessToken: "tok",
	})
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 1 || products[0].Entitled != Entitled {
		t.Fatalf("Products() = %+v", products)
	}
	if gotAuth != "Bearer tok" || gotLang != "en-US" {
		t.Fatalf("headers auth=%q lang=%q", gotAuth, gotLang)
	}
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"inSkillProducts":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	c.backoffBase = time.Millisecond
	if _, err := c.Products(context.Background(), Request{}); err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.Products(context.Background(), Request{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Products() error = %v, want ErrUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	raw := `
products:
  - product_id: p1
    reference_name: all_access
    name: All Access
    summary: Record coin conditions
    purchasable: PURCHASABLE
  - product_id: p2
    reference_name: rare_finds
    name: Rare Finds
    purchasable: PURCHASABLE
entitled_users:
  all_access: [u1]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	m := NewMockClient(c)
	products, _ := m.Products(context.Background(), Request{UserID: "u1"})
	if len(EntitledProducts(products)) != 1 || EntitledProducts(products)[0].ProductID != "p1" {
		t.Fatalf("EntitledProducts() = %+v", EntitledProducts(products))
	}
	if got := SpeakableList(products); got != "All Access and Rare Finds" {
		t.Fatalf("SpeakableList() = %q", got)
	}
}

func TestMatchProduct(t *testing.T) {
	products := []Product{
		{ProductID: "p1", ReferenceName: "all_access", Name: "All Access"},
		{ProductID: "p2", ReferenceName: "rare_finds", Name: "Rare Finds"},
	}
	cases := []struct {
		spoken string
		want   string
		ok     bool
	}{
		{spoken: "all access", want: "p1", ok: true},
		{spoken: "All Access", want: "p1", ok: true},
		{spoken: "rare finds", want: "p2", ok: true},
		{spoken: "zebra", ok: false},
		{spoken: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := MatchProduct(tc.spoken, products)
		if ok != tc.ok {
			t.Fatalf("MatchProduct(%q) ok = %v, want %v", tc.spoken, ok, tc.ok)
		}
		if ok && got.ProductID != tc.want {
			t.Fatalf("MatchProduct(%q) = %q, want %q", tc.spoken, got.ProductID, tc.want)
		}
	}
}

func TestNewClientModes(t *testing.T) {
	if c, err := NewClient(ClientConfig{Mode: "mock", PremiumReferenceName: testRef}); err != nil {
		t.Fatalf("NewClient(mock) error = %v", err)
	} else if _, ok := c.(*MockClient); !ok {
		t.Fatalf("NewClient(mock) = %T", c)
	}
	if c, err := NewClient(ClientConfig{}); err != nil {
		t.Fatalf("NewClient(auto) error = %v", err)
	} else if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("NewClient(auto) = %T, want *HTTPClient", c)
	}
	if _, err := NewClient(ClientConfig{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("NewClient(unknown) should fail")
	}
}

func TestGateSettleRecordsWithMockClient(t *testing.T) {
	catalog := DefaultCatalog(testProductID, testRef)
	catalog.Products = append(catalog.Products, Product{
		ProductID: "p2", ReferenceName: "rare_finds", Name: "Rare Finds",
		Entitled: NotEntitled, Purchasable: Purchasable,
	})
	m := NewMockClient(catalog)
	gate := NewGate(m, GateConfig{PremiumProductID: testProductID, PremiumReferenceName: testRef}, nil)
	ctx := context.Background()
	req := Request{UserID: "u1"}

	products, _ := gate.Products(ctx, req)
	if !gate.Settle("u1", products, "p2", true) {
		t.Fatalf("Settle() = false, want mock client to record")
	}
	products, _ = gate.Products(ctx, req)
	if gate.HasPremium(products) {
		t.Fatalf("buying p2 granted the premium product")
	}
	if p, _ := FindByReference(products, "rare_finds"); p.Entitled != Entitled {
		t.Fatalf("rare_finds = %+v, want entitled", p)
	}

	// No product id settles the premium product.
	gate.Settle("u1", products, "", true)
	products, _ = gate.Products(ctx, req)
	if !gate.HasPremium(products) {
		t.Fatalf("HasPremium() = false after settling premium")
	}
	gate.Settle("u1", products, testProductID, false)
	products, _ = gate.Products(ctx, req)
	if gate.HasPremium(products) {
		t.Fatalf("HasPremium() = true after revoking premium")
	}
}

func TestGateSettleIgnoresPlatformClient(t *testing.T) {
	gate := NewGate(NewHTTPClient("http://127.0.0.1:1", time.Second), GateConfig{PremiumReferenceName: testRef}, nil)
	if gate.Settle("u1", nil, "", true) {
		t.Fatalf("Settle() = true for the platform client, want false")
	}
}
