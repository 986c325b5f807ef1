// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pviana/stockroom-be/internal/adapters/db"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/pkg/config"
	"github.com/pviana/stockroom-be/internal/pkg/logger"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// TestAppLogger returns an application logger for middleware tests
func TestAppLogger() *logger.Logger {
	level := "error"
	if testing.Verbose() {
		level = "debug"
	}
	return logger.NewLogger(&logger.LogConfig{
		Level:       level,
		Format:      "text",
		Output:      "stdout",
		ServiceName: "stockroom-test",
		Environment: "test",
	})
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_stockroom",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_stockroom",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for the database to accept connections
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	t.Cleanup(database.Close)

	// Run embedded migrations
	ctx := context.Background()
	databaseURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
		dbConfig.Database, dbConfig.SSLMode)

	migrator, err := db.NewMigrator(databaseURL, TestLogger())
	require.NoError(t, err, "Could not create migrator")
	require.NoError(t, migrator.Up(ctx), "Could not run migrations")
	require.NoError(t, migrator.Close(), "Could not close migrator")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "stockroom-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_stockroom",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Inventory: config.InventoryConfig{
			LowStockThreshold: 5,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestProduct creates a product with sane defaults for tests
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        "Compact Desk Lamp",
		SKU:         "ELE-0001",
		Category:    "electronics",
		Description: "Adjustable LED desk lamp",
		CostPrice:   decimal.NewFromFloat(12.50),
		SalePrice:   decimal.NewFromFloat(24.99),
		Stock:       10,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(product)
	}

	return product
}

// CreateTestProducts creates multiple distinct test products
func CreateTestProducts(count int) []domain.Product {
	categories := []string{"electronics", "apparel", "home", "toys", "office"}

	products := make([]domain.Product, count)
	for i := 0; i < count; i++ {
		products[i] = *CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Test Product %d", i+1)
			p.SKU = fmt.Sprintf("TST-%04d", i+1)
			p.Category = categories[i%len(categories)]
			p.CostPrice = decimal.NewFromInt(int64(10 + i))
			p.SalePrice = decimal.NewFromInt(int64(20 + i*2))
		})
	}

	return products
}

// CreateTestMovement creates a stock movement with sane defaults
func CreateTestMovement(productID uuid.UUID, overrides ...func(*domain.StockMovement)) *domain.StockMovement {
	movement := &domain.StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Type:      domain.MovementIn,
		Qty:       5,
		Reason:    "restock",
		CreatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(movement)
	}

	return movement
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, "TRUNCATE TABLE stock_movements, products CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// SeedTestProducts inserts products directly, bypassing the service layer
func SeedTestProducts(t *testing.T, pool *pgxpool.Pool, products []domain.Product) {
	t.Helper()

	ctx := context.Background()
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (
				id, name, sku, category, description, image_url,
				cost_price, sale_price, stock, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)`,
			p.ID, p.Name, p.SKU, p.Category, p.Description, p.ImageURL,
			p.CostPrice, p.SalePrice, p.Stock, p.CreatedAt, p.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed product %s", p.Name)
	}
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
