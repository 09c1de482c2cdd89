// internal/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/auth"
	"spectra-back/internal/models"
	"spectra-back/internal/repo"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func Register(store repo.Store, jwtManager *auth.Manager, startingBalance float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.MissingParameter("Missing required fields (email, password, name)"))
			return
		}

		// Check if user exists
		if _, err := store.Users().GetByEmail(c.Request.Context(), req.Email); err == nil {
			c.Error(apperrors.Validation("Email already registered"))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to hash password"), err))
			return
		}

		user := models.User{
			Email:        req.Email,
			Password:     string(hashedPassword),
			Name:         req.Name,
			TokenBalance: startingBalance,
		}

		if err := store.Users().Create(c.Request.Context(), &user); err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to create user"), err))
			return
		}

		token, err := jwtManager.GenerateToken(user.ID, user.IsAdmin)
		if err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to generate token"), err))
			return
		}

		c.SetCookie("auth_token", token, 86400, "/", "localhost:3000", false, true)

		c.JSON(http.StatusCreated, AuthResponse{
			Token: token,
			User:  user,
		})
	}
}

func Login(store repo.Store, jwtManager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.MissingParameter("Missing required fields (email, password)"))
			return
		}

		user, err := store.Users().GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.Error(apperrors.Unauthorized("Invalid credentials"))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.Error(apperrors.Unauthorized("Invalid credentials"))
			return
		}

		token, err := jwtManager.GenerateToken(user.ID, user.IsAdmin)
		if err != nil {
			c.Error(apperrors.Wrap(apperrors.Internal("Failed to generate token"), err))
			return
		}

		c.SetCookie("auth_token", token, 86400, "/", "localhost:3000", false, true)

		c.JSON(http.StatusOK, AuthResponse{
			Token: token,
			User:  *user,
		})
	}
}

func GetProfile(store repo.Store) gin.HandlerFunc {
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

		c.JSON(http.StatusOK, user)
	}
}

func Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "localhost:3000", false, true)
	c.Status(http.StatusOK)
}
