// internal/repo/repo.go
package repo

import (
	"context"
	"errors"

	"spectra-back/internal/models"
)

// ErrNotFound is returned by every store when the addressed record does not
// exist (or is soft-deleted).
var ErrNotFound = errors.New("record not found")

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateBalance persists a new token balance. Callers must have
	// verified the balance is non-negative before committing it.
	UpdateBalance(ctx context.Context, userID uint, balance float64) error
}

type DatasetStore interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	// GetByNameAndOwner scopes by (name, owner): the same name can exist
	// for different owners, and a caller can never address another
	// user's dataset by name.
	GetByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Dataset, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Dataset, error)
	Update(ctx context.Context, dataset *models.Dataset) error
	SoftDelete(ctx context.Context, dataset *models.Dataset) error
}

type SpectrogramStore interface {
	Create(ctx context.Context, spectrogram *models.Spectrogram) error
	ListByDataset(ctx context.Context, datasetID uint) ([]models.Spectrogram, error)
}

// Store aggregates the collaborator storage. Atomic runs fn against a store
// view whose writes commit together or not at all; the token-debit-plus-
// side-effect invariants all run through it.
type Store interface {
	Users() UserStore
	Datasets() DatasetStore
	Spectrograms() SpectrogramStore
	Atomic(ctx context.Context, fn func(Store) error) error
}
