// internal/datasets/guard.go
package datasets

import (
	"context"
	"errors"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/models"
	"spectra-back/internal/repo"
)

// Authorize resolves a dataset by (name, owner). Because lookup is scoped to
// the caller, another user's dataset of the same name is simply not found —
// there is no way to address it.
func Authorize(ctx context.Context, store repo.DatasetStore, name string, callerID uint) (*models.Dataset, error) {
	if name == "" {
		return nil, apperrors.MissingParameter("Missing required field (datasetName)")
	}
	dataset, err := store.GetByNameAndOwner(ctx, name, callerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperrors.NotFound("Dataset not found")
		}
		return nil, err
	}
	return dataset, nil
}

// RequireOwner re-checks ownership for datasets fetched by raw id, which is
// not implicitly owner-scoped the way name lookup is.
func RequireOwner(dataset *models.Dataset, callerID uint) error {
	if dataset.UserID != callerID {
		return apperrors.Unauthorized("User does not own the dataset")
	}
	return nil
}
