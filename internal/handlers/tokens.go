// internal/handlers/tokens.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/repo"
)

type RefillTokensRequest struct {
	UserEmail string  `json:"userEmail" binding:"required,email"`
	NewTokens float64 `json:"newTokens" binding:"required"`
}

// RemainingTokens reports the caller's balance; the balance is only ever
// mutated by the ingestion/inference debits and the admin refill.
func RemainingTokens(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userID")

		user, err := store.Users().GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				c.Error(apperrors.NotFound("User not found"))
				return
			}
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"numToken": user.TokenBalance})
	}
}

// RefillTokens credits a user's balance. Admin only; the explicit refill is
// the single way tokens replenish.
func RefillTokens(store repo.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefillTokensRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.MissingParameter("Missing required fields (userEmail, newTokens)"))
			return
		}
		if req.NewTokens <= 0 {
			c.Error(apperrors.Validation("newTokens must be positive"))
			return
		}

		ctx := c.Request.Context()
		var balance float64
		err := store.Atomic(ctx, func(s repo.Store) error {
			user, err := s.Users().GetByEmail(ctx, req.UserEmail)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return apperrors.NotFound("User not found")
				}
				return err
			}
			balance = user.TokenBalance + req.NewTokens
			return s.Users().UpdateBalance(ctx, user.ID, balance)
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":   "Token number updated",
			"userEmail": req.UserEmail,
			"numToken":  balance,
		})
	}
}
