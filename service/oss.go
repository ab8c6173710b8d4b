package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"storyboard-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinIO 初始化连接，在 main.go 中调用；endpoint 为空则跳过（直接使用后端 URL）
func InitMinIO() {
	cfg := config.AppConfig.MinIO
	if cfg.Endpoint == "" {
		log.Println("minio endpoint not configured, artifact mirroring disabled")
		return
	}
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("minio init failed: %v", err)
	}
	log.Println("minio connected")
}

// MinioMirror downloads a generated artifact and re-uploads it to MinIO,
// returning a presigned GET URL for storage on the shot record.
type MinioMirror struct {
	Client *minio.Client
	Bucket string
}

// NewMinioMirror returns nil when MinIO is not configured, which the
// coordinator treats as passthrough.
func NewMinioMirror() *MinioMirror {
	if MinioClient == nil {
		return nil
	}
	return &MinioMirror{Client: MinioClient, Bucket: config.AppConfig.MinIO.Bucket}
}

func (m *MinioMirror) Mirror(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket failed: %w", err)
	}
	if !exists {
		if err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket failed: %w", err)
		}
		log.Printf("bucket %q created", m.Bucket)
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".mp4":
		contentType = "video/mp4"
	}

	_, err = m.Client.PutObject(ctx, m.Bucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload to minio failed: %w", err)
	}

	expiry := 72 * time.Hour
	presignedURL, err := m.Client.PresignedGetObject(ctx, m.Bucket, objectName, expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign url failed: %w", err)
	}

	log.Printf("artifact mirrored: %s", objectName)
	return presignedURL.String(), nil
}
