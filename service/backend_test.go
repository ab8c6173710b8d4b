package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storyboard-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerBackendAnalyzeSource(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"shots": []map[string]interface{}{
				{"index": 0, "prompt_to_image": "a", "prompt_to_video": "b"},
				{"index": 1, "prompt_to_image": "c", "prompt_to_video": "d"},
			},
		})
	}))
	defer srv.Close()

	b := NewWorkerBackend(srv.URL, time.Minute)
	seeds, err := b.AnalyzeSource(context.Background(), "https://youtube.com/watch?v=x", "focus on pacing", "")
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "a", seeds[0].PromptToImage)
	assert.Equal(t, "d", seeds[1].PromptToVideo)

	assert.Equal(t, "https://youtube.com/watch?v=x", gotBody["source_url"])
	assert.Equal(t, "focus on pacing", gotBody["instruction"])
	_, hasSystemPrompt := gotBody["system_prompt"]
	assert.False(t, hasSystemPrompt)
}

func TestWorkerBackendReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "quota exceeded",
		})
	}))
	defer srv.Close()

	b := NewWorkerBackend(srv.URL, time.Minute)
	var backendErr *models.BackendError
	_, err := b.GenerateImage(context.Background(), "", "prompt")
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestWorkerBackendBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewWorkerBackend(srv.URL, time.Minute)
	var backendErr *models.BackendError
	_, err := b.GenerateVideo(context.Background(), "https://img", "prompt")
	assert.ErrorAs(t, err, &backendErr)
}

// A timeout surfaces as a backend failure like any other.
func TestWorkerBackendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	b := NewWorkerBackend(srv.URL, 20*time.Millisecond)
	var backendErr *models.BackendError
	_, err := b.GenerateImage(context.Background(), "", "prompt")
	assert.ErrorAs(t, err, &backendErr)
}

func TestWorkerBackendGenerateCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "image_url": "https://cdn/img.png"})
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "video_url": "https://cdn/vid.mp4"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	b := NewWorkerBackend(srv.URL, time.Minute)

	imgURL, err := b.GenerateImage(context.Background(), "https://ref.png", "a forest")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/img.png", imgURL)

	vidURL, err := b.GenerateVideo(context.Background(), "https://cdn/img.png", "pan forward")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/vid.mp4", vidURL)
}
