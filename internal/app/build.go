package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/config"
	"github.com/ent0n29/coincollector/internal/entitlement"
	"github.com/ent0n29/coincollector/internal/httpapi"
	"github.com/ent0n29/coincollector/internal/observability"
	"github.com/ent0n29/coincollector/internal/session"
	"github.com/ent0n29/coincollector/internal/skill"
	"github.com/ent0n29/coincollector/internal/slots"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *skill.Orchestrator
	Records      *collection.Adapter
	Gate         *entitlement.Gate
	Metrics      *observability.Metrics

	// Cleanup should be called on shutdown to release the store.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	records, err := OpenRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	records.SetErrorHook(func(op string, err error) {
		metrics.StoreError(op)
		logger.Warn("collection store error", zap.String("op", op), zap.Error(err))
	})

	client, err := entitlement.NewClient(entitlement.ClientConfig{
		Mode:                 cfg.EntitlementMode,
		APIEndpoint:          cfg.EntitlementAPIEndpoint,
		ProductsFile:         cfg.EntitlementProductsFile,
		Timeout:              cfg.EntitlementTimeout,
		PremiumProductID:     cfg.PremiumProductID,
		PremiumReferenceName: cfg.PremiumReferenceName,
	})
	if err != nil {
		_ = records.Close()
		return nil, fmt.Errorf("entitlement client init failed: %w", err)
	}
	gate := entitlement.NewGate(client, entitlement.GateConfig{
		PremiumProductID:     cfg.PremiumProductID,
		PremiumReferenceName: cfg.PremiumReferenceName,
		Timeout:              cfg.EntitlementTimeout,
	}, logger.Named("entitlement"))
	gate.SetLookupHook(metrics.EntitlementLookup)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEnded("expired")
	})

	orchestrator := skill.NewOrchestrator(
		sessions,
		slots.NewResolver(logger.Named("slots")),
		records,
		gate,
		metrics,
		logger.Named("skill"),
	)

	api := httpapi.New(cfg, sessions, orchestrator, records, metrics, logger.Named("http"))

	logger.Info("skill service built",
		zap.String("store_mode", records.Mode()),
		zap.String("entitlement_mode", cfg.EntitlementMode),
		zap.String("premium_reference", cfg.PremiumReferenceName),
	)

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Records:      records,
		Gate:         gate,
		Metrics:      metrics,
		Cleanup: func() error {
			return records.Close()
		},
	}, nil
}

// OpenRecords opens the configured collection store.
func OpenRecords(ctx context.Context, cfg config.Config) (*collection.Adapter, error) {
	store, err := collection.NewStore(ctx, collection.StoreConfig{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("collection store init failed: %w", err)
	}
	return collection.NewAdapter(store), nil
}

// NewLogger builds the production JSON logger at the configured level.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zcfg.DisableStacktrace = cfg.LogLevel > zap.DebugLevel
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	return logger, nil
}
