package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-system/internal/controllers"
)

func runUnitRouter(api *echo.Group, unitCtrl *controllers.EquipmentUnitController, invoiceCtrl *controllers.InvoiceController) {
	units := api.Group("/equipmentUnit")
	units.GET("", unitCtrl.GetUnits)
	units.GET("/:id", unitCtrl.FindUnit)
	units.POST("/import", unitCtrl.ImportUnits)
	units.POST("/activate", unitCtrl.ActivateUnits)

	api.GET("/invoice", invoiceCtrl.GetInvoices)
	api.GET("/invoice/:id", invoiceCtrl.FindInvoice)
}
