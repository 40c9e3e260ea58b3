package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/batch"
	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/headless"
	"github.com/a3tai/casedocs/internal/office"
	"github.com/a3tai/casedocs/internal/pdf/form"
	"github.com/a3tai/casedocs/internal/render"
	"github.com/a3tai/casedocs/internal/store"
)

const caseAPITimeout = 30 * time.Second

// openStore connects the configured case store. The returned func releases
// it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (batch.Fetcher, func(), error) {
	switch cfg.StoreKind {
	case config.StorePostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseDSN, cfg.FetchConcurrency*2, logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() {
			if err := pg.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}, nil

	case config.StoreHTTP:
		return store.NewHTTP(cfg.CaseAPIURL, caseAPITimeout, logger), func() {}, nil

	default:
		mem := store.NewMemory(logger)
		if cfg.SeedDir != "" {
			n, err := mem.LoadDir(cfg.SeedDir)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to load seed cases: %w", err)
			}
			logger.Info("loaded seed cases", zap.Int("count", n), zap.String("dir", cfg.SeedDir))
		}
		return mem, func() {}, nil
	}
}

// newService assembles the render pipeline
func newService(cfg *config.Config, fetcher batch.Fetcher, logger *zap.Logger) (*render.Service, *form.Provisioner) {
	normalizer := casefile.NewNormalizer()
	engine := form.NewPDFCPUEngine(logger)
	schema := form.IntakeSchema()

	provisioner := form.NewProvisioner(cfg.BaseTemplatePath(), cfg.FillableTemplatePath(), engine, schema, logger)
	overlay := form.NewOverlay(engine, normalizer.Table(), form.HelveticaWidth, logger)

	svc := render.NewService(render.Components{
		Store:            fetcher,
		StoreKind:        cfg.StoreKind,
		Normalizer:       normalizer,
		Templates:        provisioner,
		Filler:           form.NewFiller(engine, schema, overlay, logger),
		Printer:          headless.NewRenderer(cfg.BrowserBin, cfg.NoSandbox, cfg.RenderTimeout, logger),
		Converter:        office.NewConverter(cfg.ConverterPath, cfg.ConvertTimeout, logger),
		FetchConcurrency: cfg.FetchConcurrency,
		PageFormat:       cfg.PageFormat,
	}, render.WithLogger(logger))
	return svc, provisioner
}
