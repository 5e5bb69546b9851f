package filestorage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"equipment-system/pkg/config"
)

type MinIOFileStorage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOFileStorage подключается к MinIO и создаёт бакет, если его ещё нет.
func NewMinIOFileStorage(cfg config.MinIOConfig, logger *zap.Logger) (FileStorageInterface, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент minio: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить бакет %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("не удалось создать бакет %s: %w", cfg.Bucket, err)
		}
		logger.Info("Бакет MinIO создан", zap.String("bucket", cfg.Bucket))
	}

	return &MinIOFileStorage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Save возвращает путь вида "/<bucket>/<object>".
func (s *MinIOFileStorage) Save(ctx context.Context, file io.Reader, size int64, originalFileName string, prefix string) (string, error) {
	name := objectName(prefix, originalFileName, time.Now())
	if size <= 0 {
		size = -1
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, file, size, minio.PutObjectOptions{
		ContentType: contentType(originalFileName),
	})
	if err != nil {
		return "", fmt.Errorf("не удалось загрузить файл: %w", err)
	}

	s.logger.Debug("Файл загружен в MinIO", zap.String("object", name))
	return "/" + s.bucket + "/" + name, nil
}

func (s *MinIOFileStorage) Delete(ctx context.Context, fileURL string) error {
	name := strings.TrimPrefix(strings.TrimPrefix(fileURL, "/"), s.bucket+"/")
	err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("не удалось удалить файл: %w", err)
	}
	return nil
}
