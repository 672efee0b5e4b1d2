package datasource

import (
	"context"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// ContainerReader reads container metadata and document samples from a source
// account. Each implementation owns its connection and must be closed when
// done.
//
// SampleDocuments returns raw document payloads; the caller decodes each one
// and tolerates individual parse failures. Transient fetch failures are the
// reader's responsibility to retry - the assessment core never retries.
type ContainerReader interface {
	// ListDatabases returns the database names in the account.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListContainers returns metadata for every container in a database.
	ListContainers(ctx context.Context, database string) ([]models.ContainerInfo, error)

	// SampleDocuments returns up to limit raw documents from a container, in
	// arrival order.
	SampleDocuments(ctx context.Context, database, container string, limit int) ([][]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// ConnectionTester verifies a target platform is reachable with valid
// credentials before any artifacts are deployed against it.
type ConnectionTester interface {
	// TestConnection returns nil if the connection is healthy.
	TestConnection(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
