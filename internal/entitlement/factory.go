package entitlement

import (
	"fmt"
	"strings"
	"time"
)

// ClientConfig controls client construction.
type ClientConfig struct {
	Mode                 string
	APIEndpoint          string
	ProductsFile         string
	Timeout              time.Duration
	PremiumProductID     string
	PremiumReferenceName string
}

// NewClient builds the entitlement client. Auto mode calls the platform
// service when an endpoint is configured and otherwise serves a local catalog.
func NewClient(cfg ClientConfig) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "http":
		return NewHTTPClient(cfg.APIEndpoint, cfg.Timeout), nil
	case "mock":
		return newCatalogClient(cfg)
	case "auto":
		if strings.TrimSpace(cfg.ProductsFile) != "" {
			return newCatalogClient(cfg)
		}
		return NewHTTPClient(cfg.APIEndpoint, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported entitlement mode %q", cfg.Mode)
	}
}

func newCatalogClient(cfg ClientConfig) (*MockClient, error) {
	if strings.TrimSpace(cfg.ProductsFile) == "" {
		return NewMockClient(DefaultCatalog(cfg.PremiumProductID, cfg.PremiumReferenceName)), nil
	}
	c, err := LoadCatalog(cfg.ProductsFile)
	if err != nil {
		return nil, err
	}
	return NewMockClient(c), nil
}
