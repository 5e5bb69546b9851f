package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/pkg/config"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/filestorage"
	"equipment-system/pkg/validation"
)

// bindAndValidate привязывает тело запроса к DTO и прогоняет валидатор.
func bindAndValidate(ctx echo.Context, payload interface{}, logger *zap.Logger, op string) error {
	if err := ctx.Bind(payload); err != nil {
		logger.Error(op+": ошибка привязки данных", zap.Error(err))
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil)
	}
	if err := ctx.Validate(payload); err != nil {
		logger.Debug(op+": ошибка валидации данных", zap.Error(err))
		return err
	}
	return nil
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindMultipartData читает JSON из поля формы "data" (multipart с файлом и данными).
func bindMultipartData(ctx echo.Context, payload interface{}, logger *zap.Logger, op string) error {
	raw := ctx.FormValue("data")
	if raw == "" {
		return apperrors.NewHttpError(http.StatusBadRequest, "Не передано поле 'data' с данными формы", nil, nil)
	}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		logger.Error(op+": ошибка разбора поля data", zap.Error(err))
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат JSON в поле 'data'", err, nil)
	}
	if err := ctx.Validate(payload); err != nil {
		return err
	}
	return nil
}

// discardImage удаляет загруженный файл, если запрос, ради которого он сохранён, не прошёл.
func discardImage(ctx echo.Context, storage filestorage.FileStorageInterface, image null.String, logger *zap.Logger) {
	if !image.Valid {
		return
	}
	if err := storage.Delete(ctx.Request().Context(), image.String); err != nil {
		logger.Warn("Не удалось удалить загруженное изображение", zap.String("path", image.String), zap.Error(err))
	}
}

// saveImage сохраняет файл из поля формы field. Если файла нет, возвращает пустой null.String.
func saveImage(ctx echo.Context, storage filestorage.FileStorageInterface, field, uploadContext string) (null.String, error) {
	fileHeader, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return null.String{}, nil
		}
		return null.String{}, apperrors.NewHttpError(http.StatusBadRequest, "Файл не был передан", err, nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return null.String{}, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка обработки файла", err, nil)
	}
	defer src.Close()

	if err := validation.ValidateFile(fileHeader, src, uploadContext); err != nil {
		return null.String{}, err
	}

	rules := config.UploadContexts[uploadContext]
	url, err := storage.Save(ctx.Request().Context(), src, fileHeader.Size, fileHeader.Filename, rules.PathPrefix)
	if err != nil {
		return null.String{}, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка сохранения файла", err, nil)
	}
	return null.StringFrom(url), nil
}
