package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/flooring-orders/internal/cli"
	"github.com/xenking/flooring-orders/internal/domain/order"
	"github.com/xenking/flooring-orders/internal/storage/flatfile"
)

// Run creates all dependencies, loads the catalog and order index into
// memory, and drives the interactive menu until the user quits or the
// context is canceled. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("orders_dir", cfg.OrdersDir),
		zap.String("products_file", cfg.ProductsFile),
		zap.String("taxes_file", cfg.TaxesFile),
	)

	store := flatfile.NewCatalogStore(cfg.ProductsFile, cfg.TaxesFile)
	repo := flatfile.NewOrderRepository(flatfile.OrderRepositoryConfig{
		Dir:            cfg.OrdersDir,
		ExportFile:     cfg.Export.File,
		ExportJSONFile: cfg.Export.JSONFile,
		ExportGzip:     cfg.Export.Gzip,
	}, lg.Named("orders"))

	svc := order.NewService(store, repo)
	if err := svc.Init(ctx); err != nil {
		return errors.Wrap(err, "initialise service")
	}

	menu := cli.NewMenu(svc, os.Stdin, os.Stdout)
	if err := menu.Run(ctx); err != nil {
		return errors.Wrap(err, "menu")
	}

	lg.Info("Shutting down")
	return nil
}
