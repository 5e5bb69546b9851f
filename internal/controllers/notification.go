package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/utils"
)

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationController(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: notificationService, logger: logger}
}

func (c *NotificationController) GetFeed(ctx echo.Context) error {
	var limit uint64
	if raw := ctx.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			limit = parsed
		}
	}

	res, err := c.notificationService.GetFeed(ctx.Request().Context(), ctx.QueryParam("user"), limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK)
}

func (c *NotificationController) MarkSeen(ctx echo.Context) error {
	var payload dto.MarkNotificationsSeenDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "MarkNotificationsSeen"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.notificationService.MarkSeen(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Уведомления отмечены как просмотренные", http.StatusOK)
}
