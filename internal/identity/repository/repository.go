package repository

import (
	"context"

	"linkerai/backend/internal/identity/domain"
)

// Repository defines persistence for local identities.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// MergeMetadata merges md into the stored metadata document, leaving other keys intact.
	MergeMetadata(ctx context.Context, id string, md domain.Metadata) error
}
