package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-system/internal/controllers"
)

func runWorkflowRouter(
	api *echo.Group,
	transferCtrl *controllers.TransferController,
	disposalCtrl *controllers.DisposalController,
	maintenanceCtrl *controllers.MaintenanceController,
) {
	transfers := api.Group("/equipmentTransfer")
	transfers.POST("", transferCtrl.CreateTransfer)
	transfers.GET("/status/:status", transferCtrl.GetTransfersByStatus)
	transfers.GET("/:id", transferCtrl.FindTransfer)
	transfers.PUT("/:id/complete", transferCtrl.CompleteTransfer)

	api.GET("/disposal", disposalCtrl.GetDisposals)
	api.GET("/disposal/:id", disposalCtrl.FindDisposal)
	api.POST("/disposal", disposalCtrl.CreateDisposal)

	requests := api.Group("/maintenance-requests")
	requests.GET("", maintenanceCtrl.GetRecords)
	requests.GET("/:id", maintenanceCtrl.FindRecord)
	requests.POST("", maintenanceCtrl.CreateRequest)
	requests.PUT("/:id/start", maintenanceCtrl.StartMaintenance)
	requests.PUT("/:id/complete", maintenanceCtrl.CompleteMaintenance)
	requests.PUT("/:id/approve", maintenanceCtrl.ApproveMaintenance)
	requests.PUT("/:id/cancel", maintenanceCtrl.CancelRequest)

	plans := api.Group("/maintenance-plan")
	plans.GET("", maintenanceCtrl.GetPlans)
	plans.GET("/due", maintenanceCtrl.DuePlans)
	plans.POST("", maintenanceCtrl.CreatePlan)
	plans.PUT("/:id", maintenanceCtrl.UpdatePlan)
}

func runNotificationRouter(api *echo.Group, notificationCtrl *controllers.NotificationController) {
	api.GET("/notifications", notificationCtrl.GetFeed)
	api.PUT("/notifications/seen", notificationCtrl.MarkSeen)
}
