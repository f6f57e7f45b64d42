package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
	"github.com/xenking/tillpoint/internal/repository"
)

type productJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
}

type denominationJSON struct {
	Value     int64 `json:"value"`
	Available int64 `json:"available_count"`
}

func main() {
	var (
		databaseURL       string
		productsFile      string
		denominationsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&denominationsFile, "denominations-file", "db/seed/denominations.json", "path to denominations JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, denominationsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, denominationsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return seedProducts(ctx, repository.NewProductRepository(pool), productsFile)
	})
	g.Go(func() error {
		return seedDenominations(ctx, repository.NewDenominationRepository(pool), denominationsFile)
	})
	return g.Wait()
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Upsert(ctx, catalog.Product{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			Stock:      p.Stock,
			TaxPercent: p.TaxPercent,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedDenominations(ctx context.Context, repo *repository.DenominationRepository, path string) error {
	slog.Info("reading denominations file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read denominations file")
	}

	var denominations []denominationJSON
	if err := json.Unmarshal(data, &denominations); err != nil {
		return errors.Wrap(err, "parse denominations JSON")
	}

	slog.Info("upserting denominations", slog.Int("count", len(denominations)))

	for _, d := range denominations {
		if err := repo.Upsert(ctx, till.Denomination{
			Value:     d.Value,
			Available: d.Available,
		}); err != nil {
			return errors.Wrapf(err, "upsert denomination %d", d.Value)
		}

		slog.Info("upserted denomination", slog.Int64("value", d.Value), slog.Int64("count", d.Available))
	}

	return nil
}
