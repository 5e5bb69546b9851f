package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type EquipmentUnitController struct {
	unitService services.UnitServiceInterface
	logger      *zap.Logger
}

func NewEquipmentUnitController(unitService services.UnitServiceInterface, logger *zap.Logger) *EquipmentUnitController {
	return &EquipmentUnitController{unitService: unitService, logger: logger}
}

func (c *EquipmentUnitController) GetUnits(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.unitService.GetUnits(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *EquipmentUnitController) FindUnit(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.unitService.FindUnit(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование успешно найдено", http.StatusOK)
}

func (c *EquipmentUnitController) ImportUnits(ctx echo.Context) error {
	var payload dto.ImportUnitsDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "ImportUnits"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.ImportUnits(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	message := "Оборудование принято на склад"
	if len(res.Warnings) > 0 {
		message = res.Warnings[0]
	}
	return utils.SuccessResponse(ctx, res, message, http.StatusCreated)
}

func (c *EquipmentUnitController) ActivateUnits(ctx echo.Context) error {
	var payload dto.ActivateUnitsDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "ActivateUnits"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.ActivateUnits(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование введено в эксплуатацию", http.StatusOK)
}
