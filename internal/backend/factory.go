package backend

import (
	"fmt"

	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
)

// New creates a backend from config, selecting the driver.
func New(cfg config.BackendConfig, logger *logging.Logger) (Backend, error) {
	switch cfg.Driver {
	case "qdrant":
		return NewQdrantBackend(cfg, logger)
	case "chromem":
		return NewChromemBackend(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
