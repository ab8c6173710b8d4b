package api

import (
	"context"
	"net/http"
	"testing"

	"storyboard-server/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePromptsEndpoint(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	id := createTestProject(t, r, "Demo")

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{"version": "v2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"shotCount":2`)

	w = doJSON(t, r, http.MethodGet, "/v1/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ProjectStatusPromptsReady)
	assert.Contains(t, w.Body.String(), `"promptVersion":"v2"`)
}

func TestGeneratePromptsBadVersion(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	id := createTestProject(t, r, "Demo")

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{"version": "v3"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGeneratePromptsNotFoundAndBackendFailure(t *testing.T) {
	r, _, backend := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/proj_missing00000/generate/prompts", gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := createTestProject(t, r, "Demo")
	backend.fail = true
	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "backend")
}

func TestGenerateImageEndpoint(t *testing.T) {
	r, store, _ := setupTestRouter(t)
	id := createTestProject(t, r, "Demo")

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{"shotIndex": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.GenerationTextToImage)

	// bad shot index is a 400, distinct from project not found
	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{"shotIndex": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "precondition")

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/proj_missing00000/generate/image", gin.H{"shotIndex": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// negative index takes the same 400 path as an index past the end
	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{"shotIndex": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "precondition")

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/video", gin.H{"shotIndex": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "precondition")

	// missing shotIndex fails binding
	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, p.Shots[0].Images, 1)
}

func TestGenerateImageWithRefsEndpoint(t *testing.T) {
	r, store, _ := setupTestRouter(t)
	id := createTestProject(t, r, "Demo")

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{
		"shotIndex": 0,
		"characterRefs": []gin.H{
			{"identifier": "A", "imageUrl": "https://refs/a.png"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.GenerationImageTextToImage)

	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, p.Shots[0].CharacterRefs)
}

func TestGenerateVideoEndpoint(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	id := createTestProject(t, r, "Demo")

	w := doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/prompts", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	// no selected image yet
	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/video", gin.H{"shotIndex": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "precondition")

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/image", gin.H{"shotIndex": 0})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+id+"/generate/video", gin.H{"shotIndex": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sourceImageIndex":0`)
}
