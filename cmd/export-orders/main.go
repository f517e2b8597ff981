// Command export-orders loads every per-date order file and writes the
// consolidated export without going through the interactive menu. Useful
// for scheduled backups.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/xenking/flooring-orders/internal/storage/flatfile"
)

func main() {
	var (
		ordersDir  string
		exportFile string
		jsonFile   string
		gzipCopy   bool
	)

	flag.StringVar(&ordersDir, "orders-dir", "res/Orders", "directory containing Orders_MMDDYYYY.txt files")
	flag.StringVar(&exportFile, "export-file", "res/Backup/DataExport.txt", "consolidated export file")
	flag.StringVar(&jsonFile, "json-file", "", "optional JSON-lines export copy")
	flag.BoolVar(&gzipCopy, "gzip", false, "also write a gzip-compressed export copy")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, flatfile.OrderRepositoryConfig{
		Dir:            ordersDir,
		ExportFile:     exportFile,
		ExportJSONFile: jsonFile,
		ExportGzip:     gzipCopy,
	}); err != nil {
		lg.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg flatfile.OrderRepositoryConfig) error {
	repo := flatfile.NewOrderRepository(cfg, lg)

	byDate, maxNum, err := repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, orders := range byDate {
		total += len(orders)
	}
	lg.Info("Orders loaded",
		zap.Int("dates", len(byDate)),
		zap.Int("orders", total),
		zap.Int("max_order_number", maxNum),
	)

	return repo.ExportAll(ctx, byDate)
}
