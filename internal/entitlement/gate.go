package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Gate answers the premium question for the orchestrator. Concurrent lookups
// for the same user and locale share one call to the client.
type Gate struct {
	client     Client
	premiumRef string
	premiumID  string
	timeout    time.Duration
	logger     *zap.Logger
	group      singleflight.Group
	onLookup   func(result string)
}

type GateConfig struct {
	PremiumProductID     string
	PremiumReferenceName string
	Timeout              time.Duration
}

func NewGate(client Client, cfg GateConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Gate{
		client:     client,
		premiumRef: strings.TrimSpace(cfg.PremiumReferenceName),
		premiumID:  strings.TrimSpace(cfg.PremiumProductID),
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// SetLookupHook registers a callback receiving "ok" or "error" per lookup.
func (g *Gate) SetLookupHook(hook func(result string)) {
	g.onLookup = hook
}

func (g *Gate) PremiumReference() string { return g.premiumRef }

func (g *Gate) PremiumProductID() string { return g.premiumID }

// Products lists the user's products. Errors always wrap ErrUnavailable.
func (g *Gate) Products(ctx context.Context, req Request) ([]Product, error) {
	key := req.UserID + "|" + req.Locale
	v, err, _ := g.group.Do(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.client.Products(callCtx, req)
	})
	if err != nil {
		g.report("error")
		g.logger.Warn("in-skill products lookup failed",
			zap.String("locale", req.Locale),
			zap.Error(err),
		)
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	g.report("ok")
	products, _ := v.([]Product)
	out := make([]Product, len(products))
	copy(out, products)
	return out, nil
}

// HasPremium reports whether the premium product is entitled in products.
func (g *Gate) HasPremium(products []Product) bool {
	p, ok := FindByReference(products, g.premiumRef)
	return ok && p.Entitled == Entitled
}

// Premium returns the premium product from products, falling back to a
// stub carrying the configured product id.
func (g *Gate) Premium(products []Product) Product {
	if p, ok := FindByReference(products, g.premiumRef); ok {
		return p
	}
	return Product{ProductID: g.premiumID, ReferenceName: g.premiumRef, Name: "All Access"}
}

// Recorder is implemented by clients that keep entitlements themselves rather
// than reading them from the platform, such as MockClient.
type Recorder interface {
	Grant(userID, ref string)
	Revoke(userID, ref string)
}

// Settle applies a completed purchase or cancellation of productID to clients
// that implement Recorder. An empty or unknown productID settles the premium
// product. The platform service records purchases on its own, so other
// clients are left alone and Settle reports false.
func (g *Gate) Settle(userID string, products []Product, productID string, owned bool) bool {
	rec, ok := g.client.(Recorder)
	if !ok || userID == "" {
		return false
	}
	if productID == "" {
		productID = g.PremiumProductID()
	}
	ref := g.premiumRef
	if p, found := FindByID(products, productID); found {
		ref = p.ReferenceName
	}
	if owned {
		rec.Grant(userID, ref)
	} else {
		rec.Revoke(userID, ref)
	}
	g.logger.Info("entitlement settled locally",
		zap.String("reference", ref),
		zap.Bool("owned", owned),
	)
	return true
}

func (g *Gate) report(result string) {
	if g.onLookup != nil {
		g.onLookup(result)
	}
}
