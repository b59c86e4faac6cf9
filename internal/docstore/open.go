package docstore

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, url, database string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		return OpenPostgres(ctx, url)
	case DriverMongo:
		return OpenMongo(ctx, url, database)
	}
	return nil, fmt.Errorf("docstore: unknown driver %q", driver)
}
