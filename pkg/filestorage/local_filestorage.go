// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type LocalFileStorage struct {
	basePath  string
	publicURL string
}

func NewLocalFileStorage(basePath, publicURL string) (FileStorageInterface, error) {
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию: %w", err)
		}
	}
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &LocalFileStorage{basePath: basePath, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalFileStorage) Save(_ context.Context, file io.Reader, _ int64, originalFileName string, prefix string) (string, error) {
	rel := objectName(prefix, originalFileName, time.Now())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return path.Join(s.publicURL, rel), nil
}

func (s *LocalFileStorage) Delete(_ context.Context, fileURL string) error {
	// fileURL приходит в виде "/uploads/prefix/2024/08/21/file.jpg"
	relativePath := strings.TrimPrefix(strings.TrimPrefix(fileURL, s.publicURL), "/")
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relativePath))

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(fullPath)
}
