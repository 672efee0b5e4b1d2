package datasource

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ReaderFactory creates a ContainerReader from a generic config map.
type ReaderFactory func(ctx context.Context, config map[string]any, logger *zap.Logger) (ContainerReader, error)

// ReaderInfo describes a registered source adapter.
type ReaderInfo struct {
	Type        string // "cosmos"
	DisplayName string // "Azure Cosmos DB (NoSQL API)"
}

// ReaderRegistration contains info plus the factory for creating readers.
type ReaderRegistration struct {
	Info    ReaderInfo
	Factory ReaderFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ReaderRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg ReaderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredReaders returns info for all registered source adapters.
func RegisteredReaders() []ReaderInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ReaderInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// NewReader creates a ContainerReader of the given source type.
func NewReader(ctx context.Context, sourceType string, config map[string]any, logger *zap.Logger) (ContainerReader, error) {
	registryMu.RLock()
	reg, ok := registry[sourceType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
	return reg.Factory(ctx, config, logger)
}
