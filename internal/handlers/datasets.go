// internal/handlers/datasets.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/datasets"
	"spectra-back/internal/models"
	"spectra-back/internal/repo"
)

type CreateDatasetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

type UpdateDatasetRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Tags        *string `json:"tags"`

	// Identity fields are not updatable; their mere presence rejects the
	// request.
	ID     *uint `json:"id"`
	UserID *uint `json:"user_id"`
}

func CreateDataset(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")

		var req CreateDatasetRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Description == "" {
			c.Error(apperrors.MissingParameter("Missing required fields in body (name, description)"))
			return
		}

		// Name uniqueness is scoped to the owner.
		if _, err := store.Datasets().GetByNameAndOwner(c.Request.Context(), req.Name, userID); err == nil {
			c.Error(apperrors.Validation("A dataset with that name already exists"))
			return
		}

		dataset := models.Dataset{
			UserID:      userID,
			Name:        req.Name,
			Description: req.Description,
			Tags:        req.Tags,
		}

		if err := store.Datasets().Create(c.Request.Context(), &dataset); err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to create dataset"), err))
			return
		}

		c.JSON(http.StatusCreated, dataset)
	}
}

func ListDatasets(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")

		list, err := store.Datasets().ListByOwner(c.Request.Context(), userID)
		if err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to fetch datasets"), err))
			return
		}
		if list == nil {
			list = []models.Dataset{}
		}

		c.JSON(http.StatusOK, list)
	}
}

func UpdateDataset(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		datasetName := c.Param("name")

		var req UpdateDatasetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.MissingParameter("Missing fields to be updated"))
			return
		}
		if req.ID != nil || req.UserID != nil {
			c.Error(apperrors.FieldsNotUpdatable())
			return
		}
		if req.Name == nil && req.Description == nil && req.Tags == nil {
			c.Error(apperrors.MissingParameter("Missing fields to be updated"))
			return
		}

		dataset, err := datasets.Authorize(c.Request.Context(), store.Datasets(), datasetName, userID)
		if err != nil {
			c.Error(err)
			return
		}

		if req.Name != nil && *req.Name != dataset.Name {
			if *req.Name == "" {
				c.Error(apperrors.Validation("Dataset name cannot be empty"))
				return
			}
			if _, err := store.Datasets().GetByNameAndOwner(c.Request.Context(), *req.Name, userID); err == nil {
				c.Error(apperrors.Validation("A dataset with that name already exists"))
				return
			}
			dataset.Name = *req.Name
		}
		if req.Description != nil {
			dataset.Description = *req.Description
		}
		if req.Tags != nil {
			dataset.Tags = *req.Tags
		}

		if err := store.Datasets().Update(c.Request.Context(), dataset); err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to update dataset"), err))
			return
		}

		c.JSON(http.StatusOK, dataset)
	}
}

func CancelDataset(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		datasetName := c.Param("name")

		dataset, err := datasets.Authorize(c.Request.Context(), store.Datasets(), datasetName, userID)
		if err != nil {
			c.Error(err)
			return
		}

		if err := store.Datasets().SoftDelete(c.Request.Context(), dataset); err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to delete dataset"), err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Dataset deleted"})
	}
}
