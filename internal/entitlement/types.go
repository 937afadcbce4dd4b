// Package entitlement answers whether a user owns the premium in-skill
// product, and exposes the product catalog for the shopping dialogs.
package entitlement

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable wraps every failure to obtain the product list.
var ErrUnavailable = errors.New("in-skill products unavailable")

type EntitledState string

const (
	Entitled    EntitledState = "ENTITLED"
	NotEntitled EntitledState = "NOT_ENTITLED"
)

type PurchasableState string

const (
	Purchasable    PurchasableState = "PURCHASABLE"
	NotPurchasable PurchasableState = "NOT_PURCHASABLE"
)

type Product struct {
	ProductID     string           `json:"productId" yaml:"product_id"`
	ReferenceName string           `json:"referenceName" yaml:"reference_name"`
	Name          string           `json:"name" yaml:"name"`
	Summary       string           `json:"summary" yaml:"summary"`
	Entitled      EntitledState    `json:"entitled" yaml:"entitled"`
	Purchasable   PurchasableState `json:"purchasable" yaml:"purchasable"`
}

// Request identifies whose products to list and how to reach the service.
type Request struct {
	UserID         string
	Locale         string
	APIEndpoint    string
	APIAccessToken string
}

// Client lists the in-skill products visible to one user.
type Client interface {
	Products(ctx context.Context, req Request) ([]Product, error)
}

func EntitledProducts(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Entitled == Entitled {
			out = append(out, p)
		}
	}
	return out
}

// PurchasableProducts returns products that are for sale and not yet owned.
func PurchasableProducts(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Entitled == NotEntitled && p.Purchasable == Purchasable {
			out = append(out, p)
		}
	}
	return out
}

func FindByReference(products []Product, ref string) (Product, bool) {
	for _, p := range products {
		if p.ReferenceName == ref {
			return p, true
		}
	}
	return Product{}, false
}

func FindByID(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ProductID == id {
			return p, true
		}
	}
	return Product{}, false
}

// SpeakableList joins product names as "a, b and c".
func SpeakableList(products []Product) string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	if len(names) <= 1 {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
