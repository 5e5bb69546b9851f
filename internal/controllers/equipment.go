package controllers

import (
	"net/http"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/filestorage"
	"equipment-system/pkg/utils"
)

// EquipmentController обслуживает каталог моделей оборудования.
type EquipmentController struct {
	catalogService   services.CatalogServiceInterface
	attributeService services.AttributeServiceInterface
	fileStorage      filestorage.FileStorageInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	catalogService services.CatalogServiceInterface,
	attributeService services.AttributeServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		catalogService:   catalogService,
		attributeService: attributeService,
		fileStorage:      fileStorage,
		logger:           logger,
	}
}

func (c *EquipmentController) GetCatalog(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.catalogService.GetCatalog(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения каталога оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *EquipmentController) FindCatalogLine(ctx echo.Context) error {
	res, err := c.catalogService.FindCatalogLine(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Модель оборудования успешно найдена", http.StatusOK)
}

// CreateCatalogLine принимает JSON или multipart-форму: поле data с JSON и файл image.
func (c *EquipmentController) CreateCatalogLine(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	var uploaded null.String
	if isMultipart(ctx) {
		if err := bindMultipartData(ctx, &payload, c.logger, "CreateCatalogLine"); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		image, err := saveImage(ctx, c.fileStorage, "image", "equipment_image")
		if err != nil {
			c.logger.Error("CreateCatalogLine: ошибка загрузки изображения", zap.Error(err))
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		if image.Valid {
			payload.Image, uploaded = image, image
		}
	} else if err := bindAndValidate(ctx, &payload, c.logger, "CreateCatalogLine"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.catalogService.CreateCatalogLine(ctx.Request().Context(), payload)
	if err != nil {
		discardImage(ctx, c.fileStorage, uploaded, c.logger)
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Модель оборудования создана", http.StatusCreated)
}

func (c *EquipmentController) UpdateCatalogLine(ctx echo.Context) error {
	var payload dto.UpdateEquipmentDTO
	var uploaded null.String
	if isMultipart(ctx) {
		if err := bindMultipartData(ctx, &payload, c.logger, "UpdateCatalogLine"); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		image, err := saveImage(ctx, c.fileStorage, "image", "equipment_image")
		if err != nil {
			c.logger.Error("UpdateCatalogLine: ошибка загрузки изображения", zap.Error(err))
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		if image.Valid {
			payload.Image, uploaded = image, image
		}
	} else if err := bindAndValidate(ctx, &payload, c.logger, "UpdateCatalogLine"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.catalogService.UpdateCatalogLine(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		discardImage(ctx, c.fileStorage, uploaded, c.logger)
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Модель оборудования обновлена", http.StatusOK)
}

func (c *EquipmentController) SetAttributeValue(ctx echo.Context) error {
	attributeID, err := utils.ParseIDParam(ctx, "attributeId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.SetAttributeValueDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "SetAttributeValue"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.attributeService.SetAttributeValue(ctx.Request().Context(), ctx.Param("id"), attributeID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Значение характеристики сохранено", http.StatusOK)
}

// PreviewCatalogCode показывает код, который получит модель для пары тип+поставщик.
func (c *EquipmentController) PreviewCatalogCode(ctx echo.Context) error {
	typeID := ctx.QueryParam("type_id")
	vendorID := ctx.QueryParam("vendor_id")
	if typeID == "" || vendorID == "" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Параметры type_id и vendor_id обязательны", nil, nil),
			c.logger)
	}

	res, err := c.catalogService.PreviewCatalogCode(ctx.Request().Context(), typeID, vendorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK)
}
