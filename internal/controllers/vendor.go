package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type VendorController struct {
	vendorService services.VendorServiceInterface
	logger        *zap.Logger
}

func NewVendorController(vendorService services.VendorServiceInterface, logger *zap.Logger) *VendorController {
	return &VendorController{vendorService: vendorService, logger: logger}
}

func (c *VendorController) GetVendors(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.vendorService.GetVendors(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка поставщиков", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *VendorController) FindVendor(ctx echo.Context) error {
	res, err := c.vendorService.FindVendor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Поставщик успешно найден", http.StatusOK)
}

func (c *VendorController) CreateVendor(ctx echo.Context) error {
	var payload dto.CreateVendorDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateVendor"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.vendorService.CreateVendor(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Поставщик создан", http.StatusCreated)
}
