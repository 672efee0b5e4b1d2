package cosmos

import (
	"fmt"
)

// Config contains Cosmos DB-specific connection options.
type Config struct {
	// Endpoint is the account URI, e.g. https://acct.documents.azure.com:443/.
	Endpoint string

	// AccountKey is the primary or secondary account key.
	AccountKey string

	// Databases restricts the assessment to the named databases.
	// Empty means every database in the account.
	Databases []string
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{}

	if endpoint, ok := config["endpoint"].(string); ok && endpoint != "" {
		cfg.Endpoint = endpoint
	} else {
		return nil, fmt.Errorf("endpoint is required")
	}

	if key, ok := config["account_key"].(string); ok && key != "" {
		cfg.AccountKey = key
	} else {
		return nil, fmt.Errorf("account_key is required")
	}

	switch dbs := config["databases"].(type) {
	case []string:
		cfg.Databases = dbs
	case []any:
		for _, db := range dbs {
			if name, ok := db.(string); ok {
				cfg.Databases = append(cfg.Databases, name)
			}
		}
	case nil:
	}

	return cfg, nil
}
