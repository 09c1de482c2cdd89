// internal/handlers/spectrograms.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/ingest"
)

func readUpload(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, apperrors.MissingParameter("Missing uploaded file (field 'file')")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.Internal("Failed to read uploaded file"), err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.Internal("Failed to read uploaded file"), err)
	}
	return fileHeader.Filename, data, nil
}

// UploadSpectrogram ingests one .png into the named dataset.
func UploadSpectrogram(ingestor *ingest.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		datasetName := c.PostForm("datasetName")

		filename, data, err := readUpload(c)
		if err != nil {
			c.Error(err)
			return
		}

		spectrogram, err := ingestor.IngestSingle(c.Request.Context(), userID, datasetName, filename, data)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         spectrogram.ID,
			"name":       spectrogram.Name,
			"dataset_id": spectrogram.DatasetID,
		})
	}
}

// UploadSpectrogramZip ingests every qualifying .png inside an uploaded zip.
func UploadSpectrogramZip(ingestor *ingest.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		datasetName := c.PostForm("datasetName")

		filename, data, err := readUpload(c)
		if err != nil {
			c.Error(err)
			return
		}

		spectrograms, err := ingestor.IngestArchive(c.Request.Context(), userID, datasetName, filename, data)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Spectrograms successfully uploaded",
			"count":   len(spectrograms),
		})
	}
}
