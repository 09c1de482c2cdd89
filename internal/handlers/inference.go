// internal/handlers/inference.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/inference"
	"spectra-back/internal/queue"
)

type StartInferenceRequest struct {
	ModelID string `json:"modelId"`
	// Optional scheduling delay; the job reports DELAYED until due.
	DelaySeconds int `json:"delaySeconds"`
}

// StartInference enqueues a job and acknowledges immediately; the caller
// polls InferenceStatus for the outcome.
func StartInference(manager *inference.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		datasetName := c.Param("datasetName")

		var req StartInferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.MissingParameter("Missing required field (modelId)"))
			return
		}

		jobID, err := manager.Submit(c.Request.Context(), userID, datasetName, req.ModelID,
			time.Duration(req.DelaySeconds)*time.Second)
		if errors.Is(err, inference.ErrInsufficientTokens) {
			// The rejection still yields a pollable, already-aborted
			// job id.
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "insufficient tokens",
				"jobId":   jobID,
			})
			return
		}
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message": "Inference job enqueued",
			"jobId":   jobID,
		})
	}
}

func InferenceStatus(manager *inference.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		jobID := c.Param("jobId")

		job, err := manager.Status(c.Request.Context(), userID, jobID)
		if err != nil {
			c.Error(err)
			return
		}

		response := gin.H{"status": job.State}
		switch job.State {
		case queue.StateCompleted:
			response["result"] = string(job.Result)
			if job.ResultObject != "" {
				response["resultObject"] = job.ResultObject
			}
		case queue.StateFailed:
			response["failedReason"] = job.Reason
		case queue.StateAborted:
			response["reason"] = job.Reason
		}

		c.JSON(http.StatusOK, response)
	}
}

func AbortInference(manager *inference.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")
		jobID := c.Param("jobId")

		state, err := manager.Abort(c.Request.Context(), userID, jobID)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": state})
	}
}
