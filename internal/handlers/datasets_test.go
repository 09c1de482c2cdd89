package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/models"
	"spectra-back/internal/repo"
)

func jsonBody(body interface{}) io.Reader {
	raw, _ := json.Marshal(body)
	return bytes.NewReader(raw)
}

func newDatasetRouter(t *testing.T) (repo.Store, func(uint) *gin.Engine, uint, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := repo.NewMemoryStore()

	alice := &models.User{Email: "alice@test.local", Password: "x"}
	require.NoError(t, store.Users().Create(ctx, alice))
	bob := &models.User{Email: "bob@test.local", Password: "x"}
	require.NoError(t, store.Users().Create(ctx, bob))

	build := func(callerID uint) *gin.Engine {
		router := gin.New()
		router.Use(apperrors.Middleware(), asUser(callerID))
		router.POST("/api/emptydataset", CreateDataset(store))
		router.GET("/api/datasets", ListDatasets(store))
		router.PATCH("/api/dataset/:name/update", UpdateDataset(store))
		router.PUT("/api/dataset/:name/cancel", CancelDataset(store))
		return router
	}

	return store, build, alice.ID, bob.ID
}

func TestDatasetNameScopedPerOwner(t *testing.T) {
	_, build, aliceID, bobID := newDatasetRouter(t)

	body := gin.H{"name": "exp1", "description": "first run"}
	assert.Equal(t, http.StatusCreated, postJSON(build(aliceID), "/api/emptydataset", body).Code)

	// Same name, same owner: rejected.
	assert.Equal(t, http.StatusBadRequest, postJSON(build(aliceID), "/api/emptydataset", body).Code)

	// Same name, different owner: fine.
	assert.Equal(t, http.StatusCreated, postJSON(build(bobID), "/api/emptydataset", body).Code)
}

func TestCreateDatasetMissingFields(t *testing.T) {
	_, build, aliceID, _ := newDatasetRouter(t)

	w := postJSON(build(aliceID), "/api/emptydataset", gin.H{"name": "exp1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateDatasetIdentityFieldsRejected(t *testing.T) {
	_, build, aliceID, _ := newDatasetRouter(t)
	router := build(aliceID)

	require.Equal(t, http.StatusCreated,
		postJSON(router, "/api/emptydataset", gin.H{"name": "exp1", "description": "d"}).Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPatch, "/api/dataset/exp1/update",
		jsonBody(gin.H{"user_id": 999}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelDatasetHidesItFromReads(t *testing.T) {
	store, build, aliceID, _ := newDatasetRouter(t)
	router := build(aliceID)

	require.Equal(t, http.StatusCreated,
		postJSON(router, "/api/emptydataset", gin.H{"name": "exp1", "description": "d"}).Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/api/dataset/exp1/cancel", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := store.Datasets().GetByNameAndOwner(context.Background(), "exp1", aliceID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	list := httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/datasets", nil)
	router.ServeHTTP(list, req)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.JSONEq(t, `[]`, list.Body.String())

	// A second cancel now 404s: the dataset is gone from the owner's view.
	again := httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/api/dataset/exp1/cancel", nil)
	router.ServeHTTP(again, req)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestUpdateDatasetRenameCollision(t *testing.T) {
	_, build, aliceID, _ := newDatasetRouter(t)
	router := build(aliceID)

	for _, name := range []string{"exp1", "exp2"} {
		require.Equal(t, http.StatusCreated,
			postJSON(router, "/api/emptydataset", gin.H{"name": name, "description": "d"}).Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPatch, "/api/dataset/exp2/update",
		jsonBody(gin.H{"name": "exp1"}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}
