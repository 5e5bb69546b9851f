package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/pkg/types"
)

// serviceEnv собирает все сервисы поверх общего хранилища в памяти.
type serviceEnv struct {
	store     *memStore
	publisher *recordingPublisher

	branches      BranchServiceInterface
	vendors       VendorServiceInterface
	categories    CategoryServiceInterface
	attributes    AttributeServiceInterface
	catalog       CatalogServiceInterface
	units         UnitServiceInterface
	invoices      InvoiceServiceInterface
	disposals     DisposalServiceInterface
	maintenance   MaintenanceServiceInterface
	transfers     TransferServiceInterface
	notifications NotificationServiceInterface
	cache         *fakeCache
}

func newServiceEnv() *serviceEnv {
	store := newMemStore()
	tx := &fakeTxManager{store: store}
	publisher := &recordingPublisher{}
	logger := zap.NewNop()
	cache := newFakeCache()

	branchRepo := fakeBranchRepo{store}
	categoryRepo := fakeCategoryRepo{store}
	attributeRepo := fakeAttributeRepo{store}
	vendorRepo := fakeVendorRepo{store}
	catalogRepo := fakeCatalogRepo{store}
	unitRepo := fakeUnitRepo{store}
	invoiceRepo := fakeInvoiceRepo{store}
	maintenanceRepo := fakeMaintenanceRepo{store}

	disposals := NewDisposalService(tx, fakeDisposalRepo{store}, unitRepo, maintenanceRepo, publisher, logger)
	return &serviceEnv{
		store:         store,
		publisher:     publisher,
		branches:      NewBranchService(tx, branchRepo, logger),
		vendors:       NewVendorService(tx, vendorRepo, logger),
		categories:    NewCategoryService(tx, categoryRepo, attributeRepo, logger),
		attributes:    NewAttributeService(tx, attributeRepo, categoryRepo, catalogRepo, logger),
		catalog:       NewCatalogService(tx, catalogRepo, categoryRepo, vendorRepo, attributeRepo, logger),
		units:         NewUnitService(tx, unitRepo, catalogRepo, branchRepo, invoiceRepo, publisher, logger),
		invoices:      NewInvoiceService(invoiceRepo, logger),
		disposals:     disposals,
		maintenance:   NewMaintenanceService(tx, maintenanceRepo, unitRepo, disposals, publisher, logger),
		transfers:     NewTransferService(tx, fakeTransferRepo{store}, unitRepo, branchRepo, publisher, logger),
		notifications: NewNotificationService(fakeNotificationRepo{store}, cache, logger),
		cache:         cache,
	}
}

// gymFixture - два филиала и модель "Cardio / Treadmill / Technogym" с шириной ленты 50cm.
type gymFixture struct {
	central   *dto.BranchDTO
	north     *dto.BranchDTO
	group     *dto.GroupDTO
	treadmill *dto.TypeDTO
	vendor    *dto.VendorDTO
	beltWidth *dto.AttributeDTO
	line      *dto.EquipmentDTO
}

func seedGym(t *testing.T, env *serviceEnv) gymFixture {
	t.Helper()
	ctx := context.Background()
	var f gymFixture
	var err error

	f.central, err = env.branches.CreateBranch(ctx, dto.CreateBranchDTO{Name: "Центральный"})
	require.NoError(t, err)
	f.north, err = env.branches.CreateBranch(ctx, dto.CreateBranchDTO{Name: "Северный"})
	require.NoError(t, err)

	f.group, err = env.categories.CreateGroup(ctx, dto.CreateGroupDTO{Name: "Cardio"})
	require.NoError(t, err)
	f.treadmill, err = env.categories.CreateType(ctx, dto.CreateTypeDTO{GroupID: f.group.ID, Name: "Treadmill"})
	require.NoError(t, err)
	f.vendor, err = env.vendors.CreateVendor(ctx, dto.CreateVendorDTO{Name: "Technogym", Origin: null.StringFrom("Italy")})
	require.NoError(t, err)

	f.beltWidth, err = env.attributes.CreateAttribute(ctx, dto.CreateAttributeDTO{Name: "Belt width"})
	require.NoError(t, err)
	_, err = env.attributes.BindAttributes(ctx, f.treadmill.ID, dto.BindAttributesDTO{AttributeIDs: []uint64{f.beltWidth.ID}})
	require.NoError(t, err)

	f.line, err = env.catalog.CreateCatalogLine(ctx, dto.CreateEquipmentDTO{
		TypeID:           f.treadmill.ID,
		VendorID:         f.vendor.ID,
		Name:             "Run 600",
		WarrantyDuration: 2,
		AttributeValues:  map[uint64]string{f.beltWidth.ID: "50cm"},
	})
	require.NoError(t, err)
	return f
}

func (f gymFixture) importPayload(quantity, price string, warrantyStart time.Time) dto.ImportUnitsDTO {
	return dto.ImportUnitsDTO{
		CatalogID:         f.line.ID,
		BranchID:          f.central.ID,
		VendorID:          f.vendor.ID,
		Quantity:          types.NewNumber(quantity),
		UnitPrice:         types.NewNumber(price),
		WarrantyStartDate: types.NewDate(warrantyStart),
		CreatedBy:         "warehouse",
	}
}

// importActive принимает единицы на склад и сразу вводит их в работу.
func importActive(t *testing.T, env *serviceEnv, payload dto.ImportUnitsDTO) []uint64 {
	t.Helper()
	ctx := context.Background()
	result, err := env.units.ImportUnits(ctx, payload)
	require.NoError(t, err)
	_, err = env.units.ActivateUnits(ctx, dto.ActivateUnitsDTO{UnitIDs: result.UnitIDs, Actor: "warehouse"})
	require.NoError(t, err)
	return result.UnitIDs
}

func date(year int, month time.Month, day int) types.Date {
	return types.NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func boolPtr(b bool) *bool { return &b }
