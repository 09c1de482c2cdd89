// internal/ingest/ingestor.go
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/datasets"
	"spectra-back/internal/metrics"
	"spectra-back/internal/models"
	"spectra-back/internal/repo"
	"spectra-back/internal/tokens"
)

const (
	imageExt   = ".png"
	archiveExt = ".zip"
	// Conventional macOS resource-fork folder inside zips; its entries
	// are metadata, never spectrograms.
	macosPrefix = "__MACOSX/"
)

// UploadArchiver keeps the raw uploaded bytes in object storage. It is
// auxiliary to ingestion: the token debit and the spectrogram rows are the
// operation, the stored original is a convenience copy.
type UploadArchiver interface {
	StoreUpload(ctx context.Context, userID uint, filename string, data []byte, contentType string) (string, error)
}

type Ingestor struct {
	store   repo.Store
	uploads UploadArchiver
}

// NewIngestor builds the ingestion service. uploads may be nil, in which
// case originals are not archived.
func NewIngestor(store repo.Store, uploads UploadArchiver) *Ingestor {
	return &Ingestor{store: store, uploads: uploads}
}

// IngestSingle persists one uploaded .png as a spectrogram of the named
// dataset, debiting the upload cost and inserting the row as one unit.
func (g *Ingestor) IngestSingle(ctx context.Context, callerID uint, datasetName, filename string, data []byte) (*models.Spectrogram, error) {
	if filename == "" || datasetName == "" {
		return nil, apperrors.MissingParameter("Missing required fields (file, datasetName)")
	}
	if !strings.HasSuffix(filename, imageExt) {
		return nil, apperrors.UnsupportedMedia("Invalid file format. Expected .png")
	}

	dataset, err := datasets.Authorize(ctx, g.store.Datasets(), datasetName, callerID)
	if err != nil {
		return nil, err
	}

	spectrogram := &models.Spectrogram{
		DatasetID: dataset.ID,
		Name:      path.Base(filename),
		Data:      data,
	}

	err = g.store.Atomic(ctx, func(s repo.Store) error {
		if err := debit(ctx, s, callerID, tokens.UploadImage, 1); err != nil {
			return err
		}
		return s.Spectrograms().Create(ctx, spectrogram)
	})
	if err != nil {
		return nil, err
	}

	metrics.SpectrogramsIngestedTotal.WithLabelValues("single").Inc()
	g.archive(ctx, callerID, filename, data, "image/png")
	return spectrogram, nil
}

// IngestArchive expands a zip of spectrograms and persists every qualifying
// .png entry. The qualifying entries are counted first and the token debit
// for that count commits together with all the inserts, so the archive lands
// whole or not at all.
func (g *Ingestor) IngestArchive(ctx context.Context, callerID uint, datasetName, filename string, archive []byte) ([]models.Spectrogram, error) {
	if filename == "" || datasetName == "" {
		return nil, apperrors.MissingParameter("Missing required fields (file, datasetName)")
	}
	if !strings.HasSuffix(filename, archiveExt) {
		return nil, apperrors.UnsupportedMedia("Invalid file format. Expected .zip")
	}

	dataset, err := datasets.Authorize(ctx, g.store.Datasets(), datasetName, callerID)
	if err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Validation("Could not read zip archive"), err)
	}

	var entries []models.Spectrogram
	for _, file := range reader.File {
		if !qualifies(file) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal("Error reading archive entry"), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal("Error reading archive entry"), err)
		}
		entries = append(entries, models.Spectrogram{
			DatasetID: dataset.ID,
			Name:      path.Base(file.Name),
			Data:      data,
		})
	}

	err = g.store.Atomic(ctx, func(s repo.Store) error {
		if err := debit(ctx, s, callerID, tokens.UploadZip, len(entries)); err != nil {
			return err
		}
		for i := range entries {
			if err := s.Spectrograms().Create(ctx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SpectrogramsIngestedTotal.WithLabelValues("zip").Add(float64(len(entries)))
	g.archive(ctx, callerID, filename, archive, "application/zip")
	return entries, nil
}

func qualifies(file *zip.File) bool {
	if file.FileInfo().IsDir() {
		return false
	}
	name := file.Name
	return strings.HasSuffix(name, imageExt) && !strings.HasPrefix(name, macosPrefix)
}

// debit charges the operation inside the surrounding transaction, rejecting
// it whole when the balance would go negative.
func debit(ctx context.Context, s repo.Store, userID uint, kind tokens.Kind, count int) error {
	user, err := s.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}

	remaining := tokens.Remaining(user.TokenBalance, kind, count)
	if remaining < 0 {
		return apperrors.Token()
	}
	if err := s.Users().UpdateBalance(ctx, userID, remaining); err != nil {
		return err
	}
	metrics.TokensDebitedTotal.WithLabelValues(kind.String()).Add(tokens.Cost(kind, count))
	return nil
}

func (g *Ingestor) archive(ctx context.Context, userID uint, filename string, data []byte, contentType string) {
	if g.uploads == nil {
		return
	}
	// Best effort; the debit and rows are already committed.
	_, _ = g.uploads.StoreUpload(ctx, userID, filename, data, contentType)
}
