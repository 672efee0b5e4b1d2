package cosmos

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/adapters/datasource"
	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/retry"
)

// reader is the Cosmos DB (NoSQL API) implementation of ContainerReader.
// Page fetches go through the retry helper so throttling (429) and transient
// server errors are absorbed here, not surfaced to the assessment core.
type reader struct {
	client   *azcosmos.Client
	cfg      *Config
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ datasource.ContainerReader = (*reader)(nil)

// NewReader creates a ContainerReader over one Cosmos DB account.
func NewReader(cfg *Config, logger *zap.Logger) (datasource.ContainerReader, error) {
	cred, err := azcosmos.NewKeyCredential(cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create key credential: %w", err)
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create cosmos client: %w", err)
	}
	return &reader{
		client:   client,
		cfg:      cfg,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("cosmos"),
	}, nil
}

func (r *reader) ListDatabases(ctx context.Context) ([]string, error) {
	if len(r.cfg.Databases) > 0 {
		return r.cfg.Databases, nil
	}

	names := make([]string, 0)
	pager := r.client.NewQueryDatabasesPager("SELECT * FROM root", nil)
	for pager.More() {
		resp, err := retry.DoWithResult(ctx, r.retryCfg, func() (azcosmos.QueryDatabasesResponse, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("query databases: %w", err)
		}
		for _, db := range resp.Databases {
			names = append(names, db.ID)
		}
	}
	return names, nil
}

func (r *reader) ListContainers(ctx context.Context, database string) ([]models.ContainerInfo, error) {
	db, err := r.client.NewDatabase(database)
	if err != nil {
		return nil, fmt.Errorf("database client %s: %w", database, err)
	}

	infos := make([]models.ContainerInfo, 0)
	pager := db.NewQueryContainersPager("SELECT * FROM root", nil)
	for pager.More() {
		resp, err := retry.DoWithResult(ctx, r.retryCfg, func() (azcosmos.QueryContainersResponse, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("query containers in %s: %w", database, err)
		}
		for _, props := range resp.Containers {
			info, err := r.containerInfo(ctx, database, props)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (r *reader) containerInfo(ctx context.Context, database string, props azcosmos.ContainerProperties) (models.ContainerInfo, error) {
	info := models.ContainerInfo{
		Database:     database,
		Name:         props.ID,
		PartitionKey: strings.Join(props.PartitionKeyDefinition.Paths, ","),
	}

	if props.IndexingPolicy != nil {
		info.CompositeIndexes = len(props.IndexingPolicy.CompositeIndexes)
		for _, p := range props.IndexingPolicy.IncludedPaths {
			info.IndexedPaths = append(info.IndexedPaths, p.Path)
		}
	}

	container, err := r.client.NewContainer(database, props.ID)
	if err != nil {
		return info, fmt.Errorf("container client %s/%s: %w", database, props.ID, err)
	}

	count, err := r.countDocuments(ctx, container)
	if err != nil {
		return info, fmt.Errorf("count documents in %s/%s: %w", database, props.ID, err)
	}
	info.DocumentCount = count

	// Throughput is absent on serverless accounts and containers sharing
	// database throughput; treat that as zero rather than failing.
	if tp, err := container.ReadThroughput(ctx, nil); err == nil && tp.ThroughputProperties != nil {
		if max, ok := tp.ThroughputProperties.AutoscaleMaxThroughput(); ok {
			info.ThroughputRU = max
			info.Autoscale = true
		} else if manual, ok := tp.ThroughputProperties.ManualThroughput(); ok {
			info.ThroughputRU = manual
		}
	} else if err != nil {
		r.logger.Debug("Throughput not readable, assuming shared or serverless",
			zap.String("database", database),
			zap.String("container", props.ID),
			zap.Error(err))
	}

	return info, nil
}

func (r *reader) countDocuments(ctx context.Context, container *azcosmos.ContainerClient) (int64, error) {
	pager := container.NewQueryItemsPager("SELECT VALUE COUNT(1) FROM c", azcosmos.NewPartitionKey(), nil)

	var total int64
	for pager.More() {
		resp, err := retry.DoWithResult(ctx, r.retryCfg, func() (azcosmos.QueryItemsResponse, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return 0, err
		}
		// Cross-partition aggregate: one partial count item per page.
		for _, item := range resp.Items {
			n, err := strconv.ParseInt(strings.TrimSpace(string(item)), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse count result %q: %w", item, err)
			}
			total += n
		}
	}
	return total, nil
}

func (r *reader) SampleDocuments(ctx context.Context, database, containerName string, limit int) ([][]byte, error) {
	container, err := r.client.NewContainer(database, containerName)
	if err != nil {
		return nil, fmt.Errorf("container client %s/%s: %w", database, containerName, err)
	}

	opts := &azcosmos.QueryOptions{PageSizeHint: int32(limit)}
	pager := container.NewQueryItemsPager("SELECT * FROM c", azcosmos.NewPartitionKey(), opts)

	docs := make([][]byte, 0, limit)
	for pager.More() && len(docs) < limit {
		resp, err := retry.DoWithResult(ctx, r.retryCfg, func() (azcosmos.QueryItemsResponse, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("sample %s/%s: %w", database, containerName, err)
		}
		for _, item := range resp.Items {
			if len(docs) == limit {
				break
			}
			docs = append(docs, item)
		}
	}

	r.logger.Debug("Documents sampled",
		zap.String("database", database),
		zap.String("container", containerName),
		zap.Int("count", len(docs)))
	return docs, nil
}

// Close is a no-op; the underlying client is stateless HTTP.
func (r *reader) Close() error {
	return nil
}
