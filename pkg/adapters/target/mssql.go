// Package target validates connectivity to the target SQL platform and can
// deploy generated DDL against it for a dry run.
package target

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/adapters/datasource"
	"github.com/docshift-inc/docshift-engine/pkg/config"
)

// Validator checks a SQL Server target and optionally deploys DDL to it.
type Validator struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.ConnectionTester = (*Validator)(nil)

// NewValidator opens a connection pool against the configured target.
// The connection is not tested until TestConnection is called.
func NewValidator(cfg config.TargetConfig, logger *zap.Logger) (*Validator, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.Username == "" {
		return nil, fmt.Errorf("target host, database and username are required")
	}

	db, err := sql.Open("sqlserver", connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open target connection: %w", err)
	}
	return &Validator{db: db, logger: logger.Named("target")}, nil
}

func connectionString(cfg config.TargetConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}

// TestConnection returns nil if the target is reachable with valid credentials.
func (v *Validator) TestConnection(ctx context.Context) error {
	if err := v.db.PingContext(ctx); err != nil {
		return fmt.Errorf("target unreachable: %w", err)
	}

	var version string
	if err := v.db.QueryRowContext(ctx, "SELECT @@VERSION").Scan(&version); err != nil {
		return fmt.Errorf("query target version: %w", err)
	}
	if idx := strings.IndexByte(version, '\n'); idx > 0 {
		version = version[:idx]
	}
	v.logger.Info("Target connection validated", zap.String("version", strings.TrimSpace(version)))
	return nil
}

// DeployDDL executes a generated DDL script batch by batch. Batches are
// separated by lines containing only GO, which is a client-side construct the
// driver does not understand.
func (v *Validator) DeployDDL(ctx context.Context, script string) error {
	for i, batch := range SplitBatches(script) {
		if _, err := v.db.ExecContext(ctx, batch); err != nil {
			return fmt.Errorf("execute DDL batch %d: %w", i+1, err)
		}
	}
	return nil
}

// SplitBatches splits a T-SQL script on GO separator lines.
func SplitBatches(script string) []string {
	batches := make([]string, 0)
	var current strings.Builder

	flush := func() {
		if batch := strings.TrimSpace(current.String()); batch != "" {
			batches = append(batches, batch)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if strings.EqualFold(strings.TrimSpace(line), "GO") {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return batches
}

// Close releases the connection pool.
func (v *Validator) Close() error {
	return v.db.Close()
}
