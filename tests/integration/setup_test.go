package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/chargechain/internal/adapter/cache"
	"github.com/seu-repo/chargechain/internal/adapter/storage/postgres"
	"github.com/seu-repo/chargechain/internal/ports"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB                *gorm.DB
	Cache             ports.Cache
	RedisURL          string
	PostgresContainer testcontainers.Container
	RedisContainer    testcontainers.Container
	Logger            *zap.Logger
	ctx               context.Context
}

var testEnv *TestEnv

// SetupTestEnvironment initializes the test environment with containers.
// External services (CI) take precedence when DATABASE_URL is set.
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	if os.Getenv("DATABASE_URL") != "" {
		return setupExternalServices(t, ctx)
	}

	return setupContainers(t, ctx)
}

func setupExternalServices(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	db, err := postgres.NewConnection(os.Getenv("DATABASE_URL"), logger)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := postgres.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	appCache, err := cache.NewRedisCache(redisURL, logger)
	if err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	testEnv = &TestEnv{
		DB:       db,
		Cache:    appCache,
		RedisURL: redisURL,
		Logger:   logger,
		ctx:      ctx,
	}

	return testEnv
}

func setupContainers(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	postgresContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("chargechain_test"),
		tcpostgres.WithUsername("chargechain"),
		tcpostgres.WithPassword("chargechain_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	pgHost, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get postgres host: %v", err)
	}
	pgPort, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get postgres port: %v", err)
	}
	pgConnStr := fmt.Sprintf("postgres://chargechain:chargechain_test@%s:%s/chargechain_test?sslmode=disable",
		pgHost, pgPort.Port())

	db, err := postgres.NewConnection(pgConnStr, logger)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	if err := postgres.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	redisContainer, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}
	redisURL := fmt.Sprintf("redis://%s:%s", redisHost, redisPort.Port())

	appCache, err := cache.NewRedisCache(redisURL, logger)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}

	testEnv = &TestEnv{
		DB:                db,
		Cache:             appCache,
		RedisURL:          redisURL,
		PostgresContainer: postgresContainer,
		RedisContainer:    redisContainer,
		Logger:            logger,
		ctx:               ctx,
	}

	return testEnv
}

// CleanIndex truncates the projection tables between tests.
func CleanIndex(t *testing.T, db *gorm.DB) {
	for _, table := range []string{"station_records", "user_records"} {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("Failed to truncate %s: %v", table, err)
		}
	}
}
