package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is shared by all tests in this package.
var testPool *pgxpool.Pool

// TestMain starts a PostgreSQL container and applies the migrations.
func TestMain(m *testing.M) {
	ctx := context.Background()

	log.Println("Setting up PostgreSQL container...")
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("reports-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("could not get connection string: %v", err)
	}

	// postgres -> secondary -> adapters -> internal -> module root
	log.Println("Running migrations...")
	if err := Migrate(connStr, "../../../../migrations", MigrateUp); err != nil {
		log.Fatalf("could not run migrations: %v", err)
	}
	log.Println("Migrations applied successfully.")

	testPool, err = NewPool(ctx, PoolConfig{URL: connStr, MaxConns: 4})
	if err != nil {
		log.Fatalf("could not create connection pool: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("could not terminate postgres container: %v", err)
	}
	os.Exit(code)
}
