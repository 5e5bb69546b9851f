package controllers

import (
	"net/http"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/services"
	"equipment-system/pkg/filestorage"
	"equipment-system/pkg/utils"
)

type CategoryController struct {
	categoryService services.CategoryServiceInterface
	fileStorage     filestorage.FileStorageInterface
	logger          *zap.Logger
}

func NewCategoryController(
	categoryService services.CategoryServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *CategoryController {
	return &CategoryController{categoryService: categoryService, fileStorage: fileStorage, logger: logger}
}

// ----- Группы -----

func (c *CategoryController) GetGroups(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.categoryService.GetGroups(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка групп оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *CategoryController) FindGroup(ctx echo.Context) error {
	res, err := c.categoryService.FindGroup(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Группа оборудования успешно найдена", http.StatusOK)
}

// CreateGroup принимает JSON или multipart-форму с полями name, description и файлом image.
func (c *CategoryController) CreateGroup(ctx echo.Context) error {
	var payload dto.CreateGroupDTO
	if isMultipart(ctx) {
		payload.Name = ctx.FormValue("name")
		if description := ctx.FormValue("description"); description != "" {
			payload.Description = null.StringFrom(description)
		}
		if err := ctx.Validate(&payload); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		image, err := saveImage(ctx, c.fileStorage, "image", "group_image")
		if err != nil {
			c.logger.Error("CreateGroup: ошибка загрузки изображения", zap.Error(err))
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		payload.Image = image
	} else if err := bindAndValidate(ctx, &payload, c.logger, "CreateGroup"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.categoryService.CreateGroup(ctx.Request().Context(), payload)
	if err != nil {
		if isMultipart(ctx) {
			discardImage(ctx, c.fileStorage, payload.Image, c.logger)
		}
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Группа оборудования создана", http.StatusCreated)
}

func (c *CategoryController) UpdateGroup(ctx echo.Context) error {
	var payload dto.UpdateGroupDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "UpdateGroup"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.categoryService.UpdateGroup(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Группа оборудования обновлена", http.StatusOK)
}

// ----- Типы -----

func (c *CategoryController) GetTypes(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.categoryService.GetTypes(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка типов оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Успешно", http.StatusOK, total)
}

func (c *CategoryController) FindType(ctx echo.Context) error {
	res, err := c.categoryService.FindType(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Тип оборудования успешно найден", http.StatusOK)
}

func (c *CategoryController) CreateType(ctx echo.Context) error {
	var payload dto.CreateTypeDTO
	if err := bindAndValidate(ctx, &payload, c.logger, "CreateType"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.categoryService.CreateType(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Тип оборудования создан", http.StatusCreated)
}
