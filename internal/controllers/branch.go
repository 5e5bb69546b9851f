package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type BranchController struct {
	branchService services.BranchServiceInterface
	logger        *zap.Logger
}

func NewBranchController(branchService services.BranchServiceInterface, logger *zap.Logger) *BranchController {
	return &BranchController{branchService: branchService, logger: logger}
}

func (c *BranchController) GetBranches(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.branchService.GetBranches(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка филиалов", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *BranchController) FindBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.branchService.FindBranch(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Филиал успешно найден", http.StatusOK)
}

func (c *BranchController) CreateBranch(ctx echo.Context) error {
	var payload dto.CreateBranchDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateBranch"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.branchService.CreateBranch(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Филиал создан", http.StatusCreated)
}
