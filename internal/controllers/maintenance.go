package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/utils"
)

const defaultDueHorizonDays = 7

type MaintenanceController struct {
	maintenanceService services.MaintenanceServiceInterface
	logger             *zap.Logger
}

func NewMaintenanceController(maintenanceService services.MaintenanceServiceInterface, logger *zap.Logger) *MaintenanceController {
	return &MaintenanceController{maintenanceService: maintenanceService, logger: logger}
}

// ----- Заявки на ремонт -----

func (c *MaintenanceController) GetRecords(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.maintenanceService.GetRecords(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка заявок на ремонт", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *MaintenanceController) FindRecord(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.maintenanceService.FindRecord(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка успешно найдена", http.StatusOK)
}

func (c *MaintenanceController) CreateRequest(ctx echo.Context) error {
	var payload dto.CreateMaintenanceRequestDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateMaintenanceRequest"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.CreateRequest(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка на ремонт создана", http.StatusCreated)
}

func (c *MaintenanceController) StartMaintenance(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.StartMaintenanceDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "StartMaintenance"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.StartMaintenance(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Ремонт начат", http.StatusOK)
}

func (c *MaintenanceController) CompleteMaintenance(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CompleteMaintenanceDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CompleteMaintenance"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.CompleteMaintenance(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Ремонт завершён", http.StatusOK)
}

func (c *MaintenanceController) ApproveMaintenance(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ApproveMaintenanceDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "ApproveMaintenance"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.ApproveMaintenance(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Решение по ремонту принято", http.StatusOK)
}

func (c *MaintenanceController) CancelRequest(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.maintenanceService.CancelRequest(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка отменена", http.StatusOK)
}

// ----- План обслуживания -----

func (c *MaintenanceController) GetPlans(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.maintenanceService.GetPlans(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *MaintenanceController) CreatePlan(ctx echo.Context) error {
	var payload dto.CreateMaintenancePlanDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateMaintenancePlan"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.CreatePlan(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "План обслуживания создан", http.StatusCreated)
}

func (c *MaintenanceController) UpdatePlan(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateMaintenancePlanDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "UpdateMaintenancePlan"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.UpdatePlan(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "План обслуживания обновлён", http.StatusOK)
}

// DuePlans отдаёт планы со сроком до ?until=ГГГГ-ММ-ДД или на ?days= дней вперёд (по умолчанию неделя).
func (c *MaintenanceController) DuePlans(ctx echo.Context) error {
	until, err := parseDueHorizon(ctx.QueryParam("until"), ctx.QueryParam("days"), time.Now())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.maintenanceService.DuePlans(ctx.Request().Context(), until)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, uint64(len(res)))
}

func parseDueHorizon(untilRaw, daysRaw string, now time.Time) (time.Time, error) {
	if untilRaw != "" {
		until, err := time.Parse(utils.DateLayout, untilRaw)
		if err != nil {
			return time.Time{}, apperrors.NewDomainError(apperrors.ErrInvalidDate, "Неверный формат даты until, ожидается ГГГГ-ММ-ДД")
		}
		return until, nil
	}
	days := defaultDueHorizonDays
	if daysRaw != "" {
		parsed, err := strconv.Atoi(daysRaw)
		if err != nil || parsed < 0 {
			return time.Time{}, apperrors.NewDomainError(apperrors.ErrBadRequest, "Параметр days должен быть неотрицательным целым числом")
		}
		days = parsed
	}
	return utils.TruncateDate(now).AddDate(0, 0, days), nil
}
