package storage

import (
	"context"
	"errors"

	"raffle/internal/models"
)

// ErrNotFound is returned by Load when a tenant has no raffle.
var ErrNotFound = errors.New("raffle not stored")

// Store persists one raffle snapshot per tenant.
type Store interface {
	Load(ctx context.Context, tenantID string) (models.Raffle, error)
	Save(ctx context.Context, tenantID string, raffle models.Raffle) error
	Delete(ctx context.Context, tenantID string) error
	Close() error
}
