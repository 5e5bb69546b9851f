package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type TransferController struct {
	transferService services.TransferServiceInterface
	logger          *zap.Logger
}

func NewTransferController(transferService services.TransferServiceInterface, logger *zap.Logger) *TransferController {
	return &TransferController{transferService: transferService, logger: logger}
}

func (c *TransferController) CreateTransfer(ctx echo.Context) error {
	var payload dto.CreateTransferDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateTransfer"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.transferService.CreateTransfer(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Перемещение создано", http.StatusCreated)
}

func (c *TransferController) CompleteTransfer(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CompleteTransferDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CompleteTransfer"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.transferService.CompleteTransfer(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование принято в филиале", http.StatusOK)
}

func (c *TransferController) FindTransfer(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.transferService.FindTransfer(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Перемещение успешно найдено", http.StatusOK)
}

func (c *TransferController) GetTransfersByStatus(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.transferService.GetTransfersByStatus(ctx.Request().Context(), ctx.Param("status"), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}
