package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindOne and Update for an unknown id.
var ErrNotFound = errors.New("record not found")

// Store persists catalog records.
type Store interface {
	FindAll(ctx context.Context) ([]Record, error)
	FindOne(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, record Record) error
	Update(ctx context.Context, id string, fields Fields) error
}
