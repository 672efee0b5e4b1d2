// Package testhelpers provides shared container infrastructure for
// integration tests.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SQLServerImage is the SQL Server image used for DDL deployment tests.
const SQLServerImage = "mcr.microsoft.com/mssql/server:2022-latest"

const saPassword = "Docshift!Test1"

// TestSQLServer holds a shared SQL Server container and connection pool.
type TestSQLServer struct {
	Container testcontainers.Container
	DB        *sql.DB
	Host      string
	Port      int
}

var (
	sharedSQLServer     *TestSQLServer
	sharedSQLServerOnce sync.Once
	sharedSQLServerErr  error
)

// GetSQLServer returns a shared SQL Server container for integration tests.
// The container is created once and reused across all tests in the run.
func GetSQLServer(t *testing.T) *TestSQLServer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedSQLServerOnce.Do(func() {
		sharedSQLServer, sharedSQLServerErr = setupSQLServer()
	})

	if sharedSQLServerErr != nil {
		t.Fatalf("Failed to setup SQL Server container: %v", sharedSQLServerErr)
	}

	return sharedSQLServer
}

// SAPassword returns the sysadmin password for the shared container.
func (s *TestSQLServer) SAPassword() string {
	return saPassword
}

func setupSQLServer() (*TestSQLServer, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        SQLServerImage,
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": saPassword,
			"MSSQL_PID":         "Developer",
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "1433")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("sqlserver://sa:%s@%s:%d?database=master&encrypt=false",
		saPassword, host, port.Int())

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	// Verify connection with retry; the engine accepts TCP before logins work.
	for i := 0; i < 20; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ping SQL Server: %w", err)
	}

	return &TestSQLServer{
		Container: container,
		DB:        db,
		Host:      host,
		Port:      port.Int(),
	}, nil
}

// CreateDatabase creates a scratch database on the shared container.
// Callers should use distinct names per test.
func (s *TestSQLServer) CreateDatabase(t *testing.T, name string) {
	t.Helper()
	if _, err := s.DB.Exec(fmt.Sprintf("IF DB_ID('%s') IS NULL CREATE DATABASE [%s]", name, name)); err != nil {
		t.Fatalf("Failed to create database %s: %v", name, err)
	}
}
