// internal/repo/memory.go
package repo

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"spectra-back/internal/models"
)

// memoryStore keeps everything in maps behind one mutex. It backs the test
// suites and any run without Postgres; semantics (not-found mapping,
// per-owner name scoping, soft-delete filtering, atomic rollback) match the
// gorm store.
type memoryStore struct {
	mu sync.Mutex

	users        map[uint]*models.User
	datasets     map[uint]*models.Dataset
	spectrograms map[uint]*models.Spectrogram

	nextUserID        uint
	nextDatasetID     uint
	nextSpectrogramID uint

	// Non-nil while inside Atomic; writes go to the same maps and the
	// snapshot restores them if fn fails.
	inTx bool
}

func NewMemoryStore() Store {
	return &memoryStore{
		users:             make(map[uint]*models.User),
		datasets:          make(map[uint]*models.Dataset),
		spectrograms:      make(map[uint]*models.Spectrogram),
		nextUserID:        1,
		nextDatasetID:     1,
		nextSpectrogramID: 1,
	}
}

func (s *memoryStore) Users() UserStore               { return (*memoryUsers)(s) }
func (s *memoryStore) Datasets() DatasetStore         { return (*memoryDatasets)(s) }
func (s *memoryStore) Spectrograms() SpectrogramStore { return (*memorySpectrograms)(s) }

func (s *memoryStore) snapshot() (map[uint]*models.User, map[uint]*models.Dataset, map[uint]*models.Spectrogram, uint, uint, uint) {
	users := make(map[uint]*models.User, len(s.users))
	for id, u := range s.users {
		copied := *u
		users[id] = &copied
	}
	datasets := make(map[uint]*models.Dataset, len(s.datasets))
	for id, d := range s.datasets {
		copied := *d
		datasets[id] = &copied
	}
	spectrograms := make(map[uint]*models.Spectrogram, len(s.spectrograms))
	for id, sp := range s.spectrograms {
		copied := *sp
		spectrograms[id] = &copied
	}
	return users, datasets, spectrograms, s.nextUserID, s.nextDatasetID, s.nextSpectrogramID
}

func (s *memoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	if s.inTx {
		// Nested Atomic joins the outer transaction, like gorm's default.
		s.mu.Unlock()
		return fn(s)
	}

	users, datasets, spectrograms, nu, nd, ns := s.snapshot()
	s.inTx = true
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	s.inTx = false
	if err != nil {
		s.users, s.datasets, s.spectrograms = users, datasets, spectrograms
		s.nextUserID, s.nextDatasetID, s.nextSpectrogramID = nu, nd, ns
	}
	s.mu.Unlock()
	return err
}

// lock is a no-op while inside Atomic, which already holds exclusivity via
// the single-goroutine transaction callback.
func (s *memoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memoryUsers memoryStore

func (s *memoryUsers) Create(ctx context.Context, user *models.User) error {
	defer (*memoryStore)(s).lock()()
	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer (*memoryStore)(s).lock()()
	user, ok := s.users[id]
	if !ok || user.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer (*memoryStore)(s).lock()()
	for _, user := range s.users {
		if user.Email == email && !user.DeletedAt.Valid {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryUsers) UpdateBalance(ctx context.Context, userID uint, balance float64) error {
	defer (*memoryStore)(s).lock()()
	user, ok := s.users[userID]
	if !ok || user.DeletedAt.Valid {
		return ErrNotFound
	}
	user.TokenBalance = balance
	user.UpdatedAt = time.Now()
	return nil
}

type memoryDatasets memoryStore

func (s *memoryDatasets) Create(ctx context.Context, dataset *models.Dataset) error {
	defer (*memoryStore)(s).lock()()
	dataset.ID = s.nextDatasetID
	s.nextDatasetID++
	dataset.CreatedAt = time.Now()
	copied := *dataset
	s.datasets[dataset.ID] = &copied
	return nil
}

func (s *memoryDatasets) GetByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Dataset, error) {
	defer (*memoryStore)(s).lock()()
	for _, dataset := range s.datasets {
		if dataset.Name == name && dataset.UserID == ownerID && !dataset.DeletedAt.Valid {
			copied := *dataset
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryDatasets) ListByOwner(ctx context.Context, ownerID uint) ([]models.Dataset, error) {
	defer (*memoryStore)(s).lock()()
	var datasets []models.Dataset
	for _, dataset := range s.datasets {
		if dataset.UserID == ownerID && !dataset.DeletedAt.Valid {
			datasets = append(datasets, *dataset)
		}
	}
	return datasets, nil
}

func (s *memoryDatasets) Update(ctx context.Context, dataset *models.Dataset) error {
	defer (*memoryStore)(s).lock()()
	if _, ok := s.datasets[dataset.ID]; !ok {
		return ErrNotFound
	}
	dataset.UpdatedAt = time.Now()
	copied := *dataset
	s.datasets[dataset.ID] = &copied
	return nil
}

func (s *memoryDatasets) SoftDelete(ctx context.Context, dataset *models.Dataset) error {
	defer (*memoryStore)(s).lock()()
	stored, ok := s.datasets[dataset.ID]
	if !ok {
		return ErrNotFound
	}
	stored.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

type memorySpectrograms memoryStore

func (s *memorySpectrograms) Create(ctx context.Context, spectrogram *models.Spectrogram) error {
	defer (*memoryStore)(s).lock()()
	spectrogram.ID = s.nextSpectrogramID
	s.nextSpectrogramID++
	spectrogram.CreatedAt = time.Now()
	copied := *spectrogram
	s.spectrograms[spectrogram.ID] = &copied
	return nil
}

func (s *memorySpectrograms) ListByDataset(ctx context.Context, datasetID uint) ([]models.Spectrogram, error) {
	defer (*memoryStore)(s).lock()()
	var spectrograms []models.Spectrogram
	for id := uint(1); id < s.nextSpectrogramID; id++ {
		if sp, ok := s.spectrograms[id]; ok && sp.DatasetID == datasetID {
			spectrograms = append(spectrograms, *sp)
		}
	}
	return spectrograms, nil
}
