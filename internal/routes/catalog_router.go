package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-system/internal/controllers"
)

type CatalogControllers struct {
	Category  *controllers.CategoryController
	Attribute *controllers.AttributeController
	Vendor    *controllers.VendorController
	Branch    *controllers.BranchController
	Equipment *controllers.EquipmentController
}

func runCatalogRouter(api *echo.Group, ctrl CatalogControllers) {
	api.GET("/categoryMain", ctrl.Category.GetGroups)
	api.GET("/categoryMain/:id", ctrl.Category.FindGroup)
	api.POST("/categoryMain", ctrl.Category.CreateGroup)
	api.PUT("/categoryMain/:id", ctrl.Category.UpdateGroup)

	api.GET("/categoryType", ctrl.Category.GetTypes)
	api.GET("/categoryType/:id", ctrl.Category.FindType)
	api.POST("/categoryType", ctrl.Category.CreateType)

	api.GET("/attribute", ctrl.Attribute.GetAttributes)
	api.POST("/attribute", ctrl.Attribute.CreateAttribute)
	api.GET("/type-attribute/:typeId", ctrl.Attribute.GetTypeAttributes)
	api.POST("/type-attribute/:typeId", ctrl.Attribute.BindAttributes)
	api.DELETE("/type-attribute/:typeId/:attributeId", ctrl.Attribute.UnbindAttribute)

	api.GET("/vendor", ctrl.Vendor.GetVendors)
	api.GET("/vendor/:id", ctrl.Vendor.FindVendor)
	api.POST("/vendor", ctrl.Vendor.CreateVendor)

	api.GET("/branch", ctrl.Branch.GetBranches)
	api.GET("/branch/:id", ctrl.Branch.FindBranch)
	api.POST("/branch", ctrl.Branch.CreateBranch)

	// /equipment/code регистрируется до /equipment/:id
	api.GET("/equipment/code", ctrl.Equipment.PreviewCatalogCode)
	api.GET("/equipment", ctrl.Equipment.GetCatalog)
	api.GET("/equipment/:id", ctrl.Equipment.FindCatalogLine)
	api.POST("/equipment", ctrl.Equipment.CreateCatalogLine)
	api.PUT("/equipment/:id", ctrl.Equipment.UpdateCatalogLine)
	api.PUT("/equipment/:id/attributes/:attributeId", ctrl.Equipment.SetAttributeValue)
}
