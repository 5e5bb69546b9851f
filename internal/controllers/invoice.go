package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type InvoiceController struct {
	invoiceService services.InvoiceServiceInterface
	logger         *zap.Logger
}

func NewInvoiceController(invoiceService services.InvoiceServiceInterface, logger *zap.Logger) *InvoiceController {
	return &InvoiceController{invoiceService: invoiceService, logger: logger}
}

func (c *InvoiceController) GetInvoices(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.invoiceService.GetInvoices(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *InvoiceController) FindInvoice(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.invoiceService.FindInvoice(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Накладная успешно найдена", http.StatusOK)
}
