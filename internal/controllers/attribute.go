package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type AttributeController struct {
	attributeService services.AttributeServiceInterface
	logger           *zap.Logger
}

func NewAttributeController(attributeService services.AttributeServiceInterface, logger *zap.Logger) *AttributeController {
	return &AttributeController{attributeService: attributeService, logger: logger}
}

func (c *AttributeController) GetAttributes(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.attributeService.GetAttributes(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка характеристик", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *AttributeController) CreateAttribute(ctx echo.Context) error {
	var payload dto.CreateAttributeDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateAttribute"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.attributeService.CreateAttribute(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Характеристика создана", http.StatusCreated)
}

func (c *AttributeController) GetTypeAttributes(ctx echo.Context) error {
	res, err := c.attributeService.GetTypeAttributes(ctx.Request().Context(), ctx.Param("typeId"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK)
}

func (c *AttributeController) BindAttributes(ctx echo.Context) error {
	var payload dto.BindAttributesDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "BindAttributes"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.attributeService.BindAttributes(ctx.Request().Context(), ctx.Param("typeId"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Схема характеристик обновлена", http.StatusOK)
}

func (c *AttributeController) UnbindAttribute(ctx echo.Context) error {
	attributeID, err := utils.ParseIDParam(ctx, "attributeId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.attributeService.UnbindAttribute(ctx.Request().Context(), ctx.Param("typeId"), attributeID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Характеристика убрана из схемы типа", http.StatusOK)
}
