// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pviana/stockroom-be/internal/adapters/db"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/internal/core/services"
	"github.com/pviana/stockroom-be/internal/pkg/config"
	"github.com/pviana/stockroom-be/internal/pkg/logger"
)

var (
	productCount  int
	movementCount int
	reset         bool
	migrateFirst  bool
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Populate the catalog and ledger with development data",
	Long: `Seeder fills a development database with sample products and a
plausible movement history. Products are created through the catalog service
and movements through the ledger service, so the seeded data obeys the same
validation and stock rules as the API.`,
	RunE: runSeed,
}

func init() {
	rootCmd.Flags().IntVar(&productCount, "products", 25, "Number of products to create")
	rootCmd.Flags().IntVar(&movementCount, "movements", 100, "Number of movements to record")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Truncate products and movements before seeding")
	rootCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Run pending migrations before seeding")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	appLogger := logger.SetupLogger(logLevel, "text")
	slogger := appLogger.Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.IsProduction() {
		return fmt.Errorf("seeder refuses to run against a production environment")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if migrateFirst {
		migrator, err := db.NewMigrator(cfg.GetDatabaseURL(), slogger)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		if err := migrator.Up(ctx); err != nil {
			migrator.Close()
			return err
		}
		migrator.Close()
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  5,
		MinConnections:  1,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if reset {
		slogger.Info("truncating products and stock_movements")
		if _, err := database.Pool().Exec(ctx,
			`TRUNCATE TABLE stock_movements, products RESTART IDENTITY CASCADE`); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
	}

	productRepo := db.NewProductRepository(database, slogger)
	movementRepo := db.NewMovementRepository(database, slogger)
	txRunner := db.NewTxRunner(database, slogger)
	catalog := services.NewCatalogService(productRepo, txRunner, slogger)
	ledger := services.NewLedgerService(txRunner, movementRepo, slogger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	products, err := seedProducts(ctx, catalog, rng, productCount, slogger)
	if err != nil {
		return err
	}

	recorded, err := seedMovements(ctx, ledger, rng, products, movementCount, slogger)
	if err != nil {
		return err
	}

	slogger.Info("seed completed",
		slog.Int("products", len(products)),
		slog.Int("movements", recorded))
	return nil
}

var sampleCategories = []string{
	"electronics", "apparel", "home", "toys", "office", "outdoors",
}

var sampleAdjectives = []string{
	"Compact", "Deluxe", "Classic", "Portable", "Heavy Duty", "Slim",
	"Wireless", "Foldable", "Premium", "Eco",
}

var sampleNouns = []string{
	"Desk Lamp", "Backpack", "Notebook", "Water Bottle", "Headphones",
	"Keyboard", "Chair Cushion", "Travel Mug", "Phone Stand", "Tool Kit",
	"Storage Box", "Wall Clock",
}

func seedProducts(ctx context.Context, catalog ports.CatalogService, rng *rand.Rand, count int, slogger *slog.Logger) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, count)

	for i := 0; i < count; i++ {
		adjective := sampleAdjectives[rng.Intn(len(sampleAdjectives))]
		noun := sampleNouns[rng.Intn(len(sampleNouns))]
		category := sampleCategories[rng.Intn(len(sampleCategories))]

		cost := decimal.NewFromInt(int64(rng.Intn(9000) + 100)).Div(decimal.NewFromInt(100))
		markup := decimal.NewFromFloat(1.2 + rng.Float64())

		product := &domain.Product{
			Name:        fmt.Sprintf("%s %s", adjective, noun),
			SKU:         fmt.Sprintf("%s-%04d", skuPrefix(category), i+1),
			Category:    category,
			Description: fmt.Sprintf("%s %s for everyday use.", adjective, strings.ToLower(noun)),
			CostPrice:   cost,
			SalePrice:   cost.Mul(markup).Round(2),
			Stock:       rng.Intn(40) + 10,
		}

		if err := catalog.Create(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to create product %q: %w", product.Name, err)
		}
		products = append(products, product)
	}

	slogger.Info("products created", slog.Int("count", len(products)))
	return products, nil
}

var sampleReasons = []string{
	"restock", "customer order", "damaged in transit", "stock count correction",
	"supplier return", "promotional giveaway", "",
}

func seedMovements(ctx context.Context, ledger ports.LedgerService, rng *rand.Rand, products []*domain.Product, count int, slogger *slog.Logger) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	recorded := 0
	for i := 0; i < count; i++ {
		product := products[rng.Intn(len(products))]

		cmd := ports.RecordMovement{
			ProductID: product.ID,
			Type:      domain.MovementIn,
			Qty:       rng.Intn(10) + 1,
			Reason:    sampleReasons[rng.Intn(len(sampleReasons))],
		}
		if rng.Intn(2) == 0 {
			cmd.Type = domain.MovementOut
		}

		receipt, err := ledger.Record(ctx, cmd)
		if err != nil {
			// OUT movements can legitimately exceed the current stock.
			// Skip those and keep seeding.
			if errors.Is(err, domain.ErrInsufficientStock) {
				continue
			}
			return recorded, fmt.Errorf("failed to record movement: %w", err)
		}

		slogger.Debug("movement recorded",
			slog.String("product", receipt.ProductName),
			slog.String("type", string(cmd.Type)),
			slog.Int("qty", cmd.Qty),
			slog.Int("stock", receipt.Stock))
		recorded++
	}

	slogger.Info("movements recorded", slog.Int("count", recorded))
	return recorded, nil
}

func skuPrefix(category string) string {
	if len(category) < 3 {
		return strings.ToUpper(category)
	}
	return strings.ToUpper(category[:3])
}
