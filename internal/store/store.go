package store

import (
	"fmt"

	"termcal/config"
	"termcal/internal/events"
)

// Store is an events.Store backed by durable storage
type Store interface {
	events.Store
	// Path is the file or directory holding the data, watched for external edits
	Path() string
	Close() error
}

// Open opens the backend selected in cfg
func Open(cfg config.Config) (Store, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return OpenSQLite(path, DefaultSQLiteConfig())
	case config.BackendJSON, "":
		return NewJSON(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
