package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storyboard-server/models"
)

// PromptSeed is one storyboard entry returned by the analysis backend.
type PromptSeed struct {
	Index         int    `json:"index"`
	PromptToImage string `json:"prompt_to_image"`
	PromptToVideo string `json:"prompt_to_video"`
}

// GenerationBackend 三个外部生成调用，成功/失败黑盒边界
type GenerationBackend interface {
	AnalyzeSource(ctx context.Context, sourceURL, instruction, systemPrompt string) ([]PromptSeed, error)
	GenerateImage(ctx context.Context, conditioningImageURL, prompt string) (string, error)
	GenerateVideo(ctx context.Context, conditioningImageURL, prompt string) (string, error)
}

// WorkerBackend calls the generation worker over HTTP. A non-2xx response,
// success=false, transport error or timeout all surface as BackendError.
type WorkerBackend struct {
	Addr   string
	Client *http.Client
}

func NewWorkerBackend(addr string, timeout time.Duration) *WorkerBackend {
	return &WorkerBackend{
		Addr:   addr,
		Client: &http.Client{Timeout: timeout},
	}
}

func (b *WorkerBackend) post(ctx context.Context, path string, reqBody, out interface{}) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return &models.BackendError{Msg: "marshal request failed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Addr+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return &models.BackendError{Msg: "create request failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return &models.BackendError{Msg: "worker request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &models.BackendError{Msg: fmt.Sprintf("worker status code: %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.BackendError{Msg: "decode response failed", Err: err}
	}
	return nil
}

func (b *WorkerBackend) AnalyzeSource(ctx context.Context, sourceURL, instruction, systemPrompt string) ([]PromptSeed, error) {
	reqBody := map[string]interface{}{
		"source_url": sourceURL,
	}
	if instruction != "" {
		reqBody["instruction"] = instruction
	}
	if systemPrompt != "" {
		reqBody["system_prompt"] = systemPrompt
	}

	var out struct {
		Success bool         `json:"success"`
		Shots   []PromptSeed `json:"shots"`
		Error   string       `json:"error"`
	}
	if err := b.post(ctx, "/v1/analyze", reqBody, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &models.BackendError{Msg: backendMsg(out.Error, "video analysis failed")}
	}
	return out.Shots, nil
}

func (b *WorkerBackend) GenerateImage(ctx context.Context, conditioningImageURL, prompt string) (string, error) {
	var out struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"image_url"`
		Error    string `json:"error"`
	}
	reqBody := map[string]interface{}{
		"image_url": conditioningImageURL,
		"prompt":    prompt,
	}
	if err := b.post(ctx, "/v1/images", reqBody, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &models.BackendError{Msg: backendMsg(out.Error, "image generation failed")}
	}
	return out.ImageURL, nil
}

func (b *WorkerBackend) GenerateVideo(ctx context.Context, conditioningImageURL, prompt string) (string, error) {
	var out struct {
		Success  bool   `json:"success"`
		VideoURL string `json:"video_url"`
		Error    string `json:"error"`
	}
	reqBody := map[string]interface{}{
		"image_url": conditioningImageURL,
		"prompt":    prompt,
	}
	if err := b.post(ctx, "/v1/videos", reqBody, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &models.BackendError{Msg: backendMsg(out.Error, "video generation failed")}
	}
	return out.VideoURL, nil
}

func backendMsg(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}
