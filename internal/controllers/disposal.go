package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type DisposalController struct {
	disposalService services.DisposalServiceInterface
	logger          *zap.Logger
}

func NewDisposalController(disposalService services.DisposalServiceInterface, logger *zap.Logger) *DisposalController {
	return &DisposalController{disposalService: disposalService, logger: logger}
}

func (c *DisposalController) GetDisposals(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.disposalService.GetDisposals(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка списаний", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *DisposalController) FindDisposal(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.disposalService.FindDisposal(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Списание успешно найдено", http.StatusOK)
}

func (c *DisposalController) CreateDisposal(ctx echo.Context) error {
	var payload dto.CreateDisposalDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateDisposal"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.disposalService.CreateDisposal(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование списано", http.StatusCreated)
}
