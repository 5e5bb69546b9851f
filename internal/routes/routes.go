package routes

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"equipment-system/internal/controllers"
	"equipment-system/internal/listeners"
	"equipment-system/internal/repositories"
	"equipment-system/internal/services"
	"equipment-system/pkg/config"
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/filestorage"
)

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	bus *eventbus.Bus,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
	cfg *config.Config,
) {
	logger.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	txManager := repositories.NewTxManager(dbConn)

	// --- 1. РЕПОЗИТОРИИ ---
	branchRepo := repositories.NewBranchRepository(dbConn, logger)
	categoryRepo := repositories.NewCategoryRepository(dbConn, logger)
	attributeRepo := repositories.NewAttributeRepository(dbConn, logger)
	vendorRepo := repositories.NewVendorRepository(dbConn, logger)
	catalogRepo := repositories.NewCatalogRepository(dbConn, logger)
	unitRepo := repositories.NewUnitRepository(dbConn, logger)
	invoiceRepo := repositories.NewInvoiceRepository(dbConn, logger)
	maintenanceRepo := repositories.NewMaintenanceRepository(dbConn, logger)
	transferRepo := repositories.NewTransferRepository(dbConn, logger)
	disposalRepo := repositories.NewDisposalRepository(dbConn, logger)
	notificationRepo := repositories.NewNotificationRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- 2. СЕРВИСЫ ---
	branchService := services.NewBranchService(txManager, branchRepo, logger)
	categoryService := services.NewCategoryService(txManager, categoryRepo, attributeRepo, logger)
	attributeService := services.NewAttributeService(txManager, attributeRepo, categoryRepo, catalogRepo, logger)
	vendorService := services.NewVendorService(txManager, vendorRepo, logger)
	catalogService := services.NewCatalogService(txManager, catalogRepo, categoryRepo, vendorRepo, attributeRepo, logger)
	unitService := services.NewUnitService(txManager, unitRepo, catalogRepo, branchRepo, invoiceRepo, bus, logger)
	invoiceService := services.NewInvoiceService(invoiceRepo, logger)
	disposalService := services.NewDisposalService(txManager, disposalRepo, unitRepo, maintenanceRepo, bus, logger)
	maintenanceService := services.NewMaintenanceService(txManager, maintenanceRepo, unitRepo, disposalService, bus, logger)
	transferService := services.NewTransferService(txManager, transferRepo, unitRepo, branchRepo, bus, logger)
	notificationService := services.NewNotificationService(notificationRepo, cacheRepo, logger)

	// --- 3. ПОДПИСЧИКИ СОБЫТИЙ ---
	listeners.NewNotificationListener(notificationService, logger).Register(bus)

	// --- 4. РОУТЕРЫ ---
	runCatalogRouter(api, CatalogControllers{
		Category:  controllers.NewCategoryController(categoryService, fileStorage, logger),
		Attribute: controllers.NewAttributeController(attributeService, logger),
		Vendor:    controllers.NewVendorController(vendorService, logger),
		Branch:    controllers.NewBranchController(branchService, logger),
		Equipment: controllers.NewEquipmentController(catalogService, attributeService, fileStorage, logger),
	})
	runUnitRouter(api,
		controllers.NewEquipmentUnitController(unitService, logger),
		controllers.NewInvoiceController(invoiceService, logger),
	)
	runWorkflowRouter(api,
		controllers.NewTransferController(transferService, logger),
		controllers.NewDisposalController(disposalService, logger),
		controllers.NewMaintenanceController(maintenanceService, logger),
	)
	runNotificationRouter(api, controllers.NewNotificationController(notificationService, logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": true, "message": "OK"})
	})
	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	logger.Info("INIT_ROUTER: Создание маршрутов завершено")
}
