package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"equipment-system/pkg/config"
	apperrors "equipment-system/pkg/errors"
)

// ValidateFile проверяет размер и MIME-тип загружаемого изображения.
// contextName - ключ из config.UploadContexts ("equipment_image", "group_image").
func ValidateFile(fileHeader *multipart.FileHeader, file io.ReadSeeker, contextName string) error {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 && fileHeader.Size > rules.MaxSizeMB*1024*1024 {
		return apperrors.NewDomainError(apperrors.ErrBadRequest,
			"Размер файла (%.2f MB) превышает лимит в %d MB", float64(fileHeader.Size)/1024/1024, rules.MaxSizeMB)
	}

	// Тип определяем по содержимому (первые 512 байт), а не по расширению.
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ошибка обработки файла: %w", err)
	}

	mimeType := http.DetectContentType(buffer[:n])
	if isPossibleXml(mimeType) && isSvgSignature(buffer[:n]) {
		mimeType = "image/svg+xml"
	}

	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return apperrors.NewDomainError(apperrors.ErrBadRequest, "Недопустимый формат файла: %s", mimeType)
	}
	return nil
}

func isPossibleXml(mime string) bool {
	return mime == "text/plain; charset=utf-8" ||
		mime == "text/xml; charset=utf-8" ||
		mime == "application/octet-stream"
}

func isSvgSignature(buf []byte) bool {
	return len(buf) > 5 && (string(buf[:4]) == "<svg" || string(buf[:5]) == "<?xml")
}
