package filestorage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"equipment-system/pkg/config"
)

// FileStorageInterface определяет контракт для сервиса хранения изображений.
// Save возвращает публичный путь, по которому файл будет отдаваться клиенту.
type FileStorageInterface interface {
	Save(ctx context.Context, file io.Reader, size int64, originalFileName string, prefix string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// New выбирает реализацию по cfg.Driver.
func New(cfg config.StorageConfig, logger *zap.Logger) (FileStorageInterface, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalFileStorage(cfg.UploadDir, cfg.PublicURL)
	case "minio":
		return NewMinIOFileStorage(cfg.MinIO, logger)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %s", cfg.Driver)
	}
}

// objectName: <prefix>/2006/01/02/2006-01-02-<uuid>.<ext>
func objectName(prefix, originalFileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	name := fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), uuid.New().String(), ext)
	return filepath.ToSlash(filepath.Join(prefix, now.Format("2006/01/02"), name))
}

func contentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	}
	return "application/octet-stream"
}
