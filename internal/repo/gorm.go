// internal/repo/gorm.go
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"spectra-back/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserStore               { return (*gormUsers)(s) }
func (s *gormStore) Datasets() DatasetStore         { return (*gormDatasets)(s) }
func (s *gormStore) Spectrograms() SpectrogramStore { return (*gormSpectrograms)(s) }

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormUsers gormStore

func (s *gormUsers) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *gormUsers) UpdateBalance(ctx context.Context, userID uint, balance float64) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("token_balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormDatasets gormStore

func (s *gormDatasets) Create(ctx context.Context, dataset *models.Dataset) error {
	return s.db.WithContext(ctx).Create(dataset).Error
}

func (s *gormDatasets) GetByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Dataset, error) {
	var dataset models.Dataset
	if err := s.db.WithContext(ctx).Where("name = ? AND user_id = ?", name, ownerID).First(&dataset).Error; err != nil {
		return nil, mapErr(err)
	}
	return &dataset, nil
}

func (s *gormDatasets) ListByOwner(ctx context.Context, ownerID uint) ([]models.Dataset, error) {
	var datasets []models.Dataset
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&datasets).Error; err != nil {
		return nil, err
	}
	return datasets, nil
}

func (s *gormDatasets) Update(ctx context.Context, dataset *models.Dataset) error {
	return s.db.WithContext(ctx).Save(dataset).Error
}

func (s *gormDatasets) SoftDelete(ctx context.Context, dataset *models.Dataset) error {
	return s.db.WithContext(ctx).Delete(dataset).Error
}

type gormSpectrograms gormStore

func (s *gormSpectrograms) Create(ctx context.Context, spectrogram *models.Spectrogram) error {
	return s.db.WithContext(ctx).Create(spectrogram).Error
}

func (s *gormSpectrograms) ListByDataset(ctx context.Context, datasetID uint) ([]models.Spectrogram, error) {
	var spectrograms []models.Spectrogram
	if err := s.db.WithContext(ctx).Where("dataset_id = ?", datasetID).Order("id").Find(&spectrograms).Error; err != nil {
		return nil, err
	}
	return spectrograms, nil
}
