package cosmos

import (
	"context"

	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.ReaderRegistration{
		Info: datasource.ReaderInfo{
			Type:        "cosmos",
			DisplayName: "Azure Cosmos DB (NoSQL API)",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (datasource.ContainerReader, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewReader(cfg, logger)
		},
	})
}
