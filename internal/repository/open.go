package repository

import (
	"context"
	"fmt"

	"fruitbid/utils"
)

// Open returns the store selected by driver. The memory driver ignores path.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverMemory:
		utils.Info("repository: using in-memory store", nil)
		return NewMemoryRepo(), nil
	case DriverMattn, DriverModernc:
		repo, err := OpenSQLite(ctx, driver, path)
		if err != nil {
			return nil, err
		}
		utils.Info("repository: store ready", map[string]any{"driver": driver, "path": path})
		return repo, nil
	default:
		return nil, fmt.Errorf("repository: unsupported driver %q", driver)
	}
}
