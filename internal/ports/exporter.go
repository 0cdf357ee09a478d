package ports

import "github.com/bowers/nest-simulator/internal/domain"

// Exporter persists a materialized dataset to some downstream system.
type Exporter interface {
	Export(ds *domain.Dataset) error
	Name() string
}
