package turso_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emiliopalmerini/hookguard/internal/adapters/turso"
)

// testDB opens a migrated decision store in a fresh local file.
func testDB(t *testing.T) *turso.DB {
	t.Helper()

	db, err := turso.Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"), "")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testServerDB starts a libsql-server container and connects to it over
// HTTP. It is skipped in short mode and unless HOOKGUARD_TEST_CONTAINERS is
// set, since it needs a Docker daemon.
func testServerDB(t *testing.T) *turso.DB {
	t.Helper()

	if testing.Short() || os.Getenv("HOOKGUARD_TEST_CONTAINERS") == "" {
		t.Skip("set HOOKGUARD_TEST_CONTAINERS=1 to run libsql-server tests")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "ghcr.io/tursodatabase/libsql-server:latest",
		ExposedPorts: []string{"8080/tcp"},
		WaitingFor:   wait.ForHTTP("/health").WithPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start libsql-server container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	mappedPort, err := container.MappedPort(ctx, "8080")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	db, err := turso.Open(ctx, fmt.Sprintf("http://%s:%s", host, mappedPort.Port()), "")
	if err != nil {
		t.Fatalf("Failed to connect to libsql-server: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
