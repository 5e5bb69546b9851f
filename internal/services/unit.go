package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/events"
	"equipment-system/internal/lifecycle"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/metrics"
	"equipment-system/pkg/types"
)

type UnitServiceInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]dto.UnitDTO, uint64, error)
	FindUnit(ctx context.Context, id uint64) (*dto.UnitDTO, error)
	ImportUnits(ctx context.Context, payload dto.ImportUnitsDTO) (*dto.ImportResultDTO, error)
	ActivateUnits(ctx context.Context, payload dto.ActivateUnitsDTO) ([]dto.UnitDTO, error)
}

type UnitService struct {
	txManager         repositories.TxManagerInterface
	unitRepository    repositories.UnitRepositoryInterface
	catalogRepository repositories.CatalogRepositoryInterface
	branchRepository  repositories.BranchRepositoryInterface
	invoiceRepository repositories.InvoiceRepositoryInterface
	publisher         EventPublisher
	logger            *zap.Logger
}

func NewUnitService(
	txManager repositories.TxManagerInterface,
	unitRepository repositories.UnitRepositoryInterface,
	catalogRepository repositories.CatalogRepositoryInterface,
	branchRepository repositories.BranchRepositoryInterface,
	invoiceRepository repositories.InvoiceRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) UnitServiceInterface {
	return &UnitService{
		txManager:         txManager,
		unitRepository:    unitRepository,
		catalogRepository: catalogRepository,
		branchRepository:  branchRepository,
		invoiceRepository: invoiceRepository,
		publisher:         publisher,
		logger:            logger,
	}
}

func unitEntityToDTO(entity *entities.Unit, today time.Time) *dto.UnitDTO {
	if entity == nil {
		return nil
	}
	start := types.NewDate(entity.WarrantyStartDate)
	return &dto.UnitDTO{
		ID:                entity.ID,
		CatalogID:         entity.CatalogID,
		CatalogName:       entity.CatalogName,
		Group:             dto.ShortCodeDTO{ID: entity.GroupID, Name: entity.GroupName},
		Type:              dto.ShortCodeDTO{ID: entity.TypeID, Name: entity.TypeName},
		Vendor:            dto.ShortCodeDTO{ID: entity.VendorID, Name: entity.VendorName},
		Branch:            dto.ShortBranchDTO{ID: entity.BranchID, Name: entity.BranchName},
		Status:            string(entity.Status),
		StatusLabel:       entity.Status.Label(),
		WarrantyStartDate: start,
		WarrantyDuration:  entity.WarrantyDuration,
		WarrantyEndDate:   types.NewDate(start.AddDate(entity.WarrantyDuration, 0, 0)),
		InWarranty:        entity.InWarranty(today),
		ImportPrice:       entity.ImportPrice,
		InvoiceID:         entity.InvoiceID,
		CreatedAt:         formatTimestamp(entity.CreatedAt),
		UpdatedAt:         formatTimestamp(entity.UpdatedAt),
	}
}

func unitEventToDTO(e entities.UnitEvent) dto.UnitEventDTO {
	result := dto.UnitEventDTO{
		Event:     string(e.Event),
		ToStatus:  string(e.ToStatus),
		RefKind:   e.RefKind,
		RefID:     e.RefID,
		Actor:     e.Actor,
		CreatedAt: e.CreatedAt.Format(timestampLayout),
	}
	if e.FromStatus != nil {
		from := string(*e.FromStatus)
		result.FromStatus = &from
	}
	return result
}

func invoiceEntityToDTO(entity *entities.Invoice) *dto.InvoiceDTO {
	if entity == nil {
		return nil
	}
	result := &dto.InvoiceDTO{
		ID:        entity.ID,
		Kind:      entity.Kind,
		BranchID:  entity.BranchID,
		VendorID:  entity.VendorID,
		Subtotal:  entity.Subtotal,
		Tax:       entity.Tax,
		Total:     entity.Total,
		CreatedBy: entity.CreatedBy,
		CreatedAt: entity.CreatedAt.Format(timestampLayout),
		Lines:     make([]dto.InvoiceLineDTO, 0, len(entity.Lines)),
	}
	for _, l := range entity.Lines {
		result.Lines = append(result.Lines, dto.InvoiceLineDTO{
			CatalogID: l.CatalogID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount,
		})
	}
	return result
}

func (s *UnitService) GetUnits(ctx context.Context, filter types.Filter) ([]dto.UnitDTO, uint64, error) {
	units, total, err := s.unitRepository.GetUnits(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	today := time.Now()
	result := make([]dto.UnitDTO, 0, len(units))
	for i := range units {
		result = append(result, *unitEntityToDTO(&units[i], today))
	}
	return result, total, nil
}

// FindUnit возвращает единицу вместе с историей смены статусов.
func (s *UnitService) FindUnit(ctx context.Context, id uint64) (*dto.UnitDTO, error) {
	unit, err := s.unitRepository.FindUnit(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Оборудование #%d не найдено", id)
	}
	history, err := s.unitRepository.GetEvents(ctx, id)
	if err != nil {
		return nil, err
	}

	result := unitEntityToDTO(unit, time.Now())
	result.History = make([]dto.UnitEventDTO, 0, len(history))
	for _, e := range history {
		result.History = append(result.History, unitEventToDTO(e))
	}
	return result, nil
}

// CalculateTax считает налог накладной (8%, округление до целых) и итог.
func CalculateTax(subtotal decimal.Decimal) (tax decimal.Decimal, total decimal.Decimal) {
	tax = subtotal.Mul(decimal.NewFromInt(constants.ImportTaxPercent)).Div(decimal.NewFromInt(100)).Round(0)
	return tax, subtotal.Add(tax)
}

// parseQuantity разбирает количество. Больше лимита - урезается до лимита, clamped = true.
func parseQuantity(n types.Number) (quantity int, clamped bool, err error) {
	raw := strings.TrimSpace(n.String())
	if n.IsEmpty() || raw == "" {
		return 0, false, apperrors.NewDomainError(apperrors.ErrInvalidQuantity, "Не указано количество")
	}
	value, ok := parseDecimal(raw)
	if !ok {
		return 0, false, apperrors.NewDomainError(apperrors.ErrInvalidQuantity, "Количество должно быть числом в допустимом диапазоне, получено '%s'", raw)
	}
	if !value.IsPositive() {
		return 0, false, apperrors.NewDomainError(apperrors.ErrInvalidQuantity, "Количество должно быть больше нуля, получено '%s'", raw)
	}
	// при таком показателе число заведомо выше лимита
	if value.Exponent() > maxNumberLength {
		return constants.MaxImportQuantity, true, nil
	}
	if !exponentInRange(value) || !value.Equal(value.Truncate(0)) {
		return 0, false, apperrors.NewDomainError(apperrors.ErrInvalidQuantity, "Количество должно быть целым числом, получено '%s'", raw)
	}
	if value.GreaterThan(decimal.NewFromInt(constants.MaxImportQuantity)) {
		return constants.MaxImportQuantity, true, nil
	}
	return int(value.IntPart()), false, nil
}

func parsePrice(n types.Number) (decimal.Decimal, error) {
	if n.IsEmpty() {
		return decimal.Zero, apperrors.NewDomainError(apperrors.ErrInvalidPrice, "Не указана цена")
	}
	return parseMoney(n, apperrors.ErrInvalidPrice, "unit_price")
}

// ImportUnits принимает партию оборудования на склад: одна накладная, N единиц в статусе IN_STOCK.
func (s *UnitService) ImportUnits(ctx context.Context, payload dto.ImportUnitsDTO) (*dto.ImportResultDTO, error) {
	quantity, clamped, err := parseQuantity(payload.Quantity)
	if err != nil {
		countWorkflowError("import", err)
		return nil, err
	}
	price, err := parsePrice(payload.UnitPrice)
	if err != nil {
		countWorkflowError("import", err)
		return nil, err
	}
	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	tax, total := CalculateTax(subtotal)
	if err := checkMoney(total, apperrors.ErrInvalidPrice, "total"); err != nil {
		countWorkflowError("import", err)
		return nil, err
	}

	result := &dto.ImportResultDTO{Quantity: quantity}
	if clamped {
		warning := fmt.Sprintf("Количество %s превышает лимит в %d единиц: принято %d",
			strings.TrimSpace(payload.Quantity.String()), constants.MaxImportQuantity, quantity)
		result.Warnings = append(result.Warnings, warning)
		s.logger.Warn("Количество при импорте урезано до лимита",
			zap.String("requested", payload.Quantity.String()), zap.Int("accepted", quantity))
	}

	var invoice entities.Invoice
	var line *entities.CatalogLine
	var branch *entities.Branch
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		line, err = s.catalogRepository.FindCatalogLine(ctx, tx, payload.CatalogID)
		if err != nil {
			return notFoundAs(err, "Модель оборудования '%s' не найдена", payload.CatalogID)
		}
		if !strings.EqualFold(line.VendorID, payload.VendorID) {
			return apperrors.NewDomainError(apperrors.ErrBadRequest,
				"Поставщик '%s' не совпадает с поставщиком модели '%s' (%s)", payload.VendorID, line.ID, line.VendorID)
		}
		branch, err = s.branchRepository.FindBranch(ctx, tx, payload.BranchID)
		if err != nil {
			return notFoundAs(err, "Филиал #%d не найден", payload.BranchID)
		}

		warranty := line.WarrantyDuration
		if payload.WarrantyDuration.Valid {
			warranty = payload.WarrantyDuration.Int
		}

		invoice = entities.Invoice{
			Kind:      constants.InvoiceKindImport,
			BranchID:  &branch.ID,
			VendorID:  &line.VendorID,
			Subtotal:  subtotal,
			Tax:       tax,
			Total:     total,
			CreatedBy: optionalString(payload.CreatedBy),
			CreatedAt: time.Now(),
			Lines: []entities.InvoiceLine{{
				CatalogID: line.ID,
				Quantity:  quantity,
				UnitPrice: price,
				Amount:    subtotal,
			}},
		}
		invoice.ID, err = s.invoiceRepository.CreateInvoice(ctx, tx, invoice)
		if err != nil {
			return err
		}

		units := make([]entities.Unit, quantity)
		for i := range units {
			units[i] = entities.Unit{
				CatalogID:         line.ID,
				BranchID:          branch.ID,
				Status:            lifecycle.StatusInStock,
				WarrantyStartDate: payload.WarrantyStartDate.Time,
				WarrantyDuration:  warranty,
				ImportPrice:       price,
				InvoiceID:         &invoice.ID,
			}
		}
		ids, err := s.unitRepository.CreateUnits(ctx, tx, units)
		if err != nil {
			return err
		}

		refKind := "invoice"
		for _, id := range ids {
			err := s.unitRepository.AddEvent(ctx, tx, entities.UnitEvent{
				UnitID:   id,
				Event:    lifecycle.EventReceived,
				ToStatus: lifecycle.StatusInStock,
				RefKind:  &refKind,
				RefID:    &invoice.ID,
				Actor:    optionalString(payload.CreatedBy),
			})
			if err != nil {
				return err
			}
		}
		result.UnitIDs = ids
		return nil
	})
	if err != nil {
		countWorkflowError("import", err)
		return nil, err
	}

	metrics.UnitsImported.Add(float64(quantity))
	s.publisher.Publish(ctx, events.NewNotification(
		constants.NotificationInvoice,
		"Поступление оборудования",
		fmt.Sprintf("Принято %d ед. «%s» в филиал «%s». Сумма %s, налог %s, итого %s",
			quantity, line.Name, branch.Name, invoice.Subtotal.StringFixed(2), invoice.Tax.StringFixed(2), invoice.Total.StringFixed(2)),
		invoice.ID,
	))
	s.logger.Info("Оборудование принято на склад",
		zap.Uint64("invoice_id", invoice.ID),
		zap.String("catalog_id", line.ID),
		zap.Int("quantity", quantity),
	)

	result.Invoice = *invoiceEntityToDTO(&invoice)
	return result, nil
}

// ActivateUnits вводит единицы со склада в работу (IN_STOCK -> ACTIVE).
func (s *UnitService) ActivateUnits(ctx context.Context, payload dto.ActivateUnitsDTO) ([]dto.UnitDTO, error) {
	if err := uniqueIDs(payload.UnitIDs); err != nil {
		return nil, err
	}

	var units []entities.Unit
	err := runInTx(ctx, s.txManager, func(tx pgx.Tx, applied *transitionLog) error {
		var err error
		units, err = lockUnitsByIDs(ctx, tx, s.unitRepository, payload.UnitIDs)
		if err != nil {
			return err
		}
		for i := range units {
			err := applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
				unit:  &units[i],
				event: lifecycle.EventImportComplete,
				to:    lifecycle.StatusActive,
				actor: payload.Actor,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		countWorkflowError("import", err)
		return nil, err
	}

	today := time.Now()
	result := make([]dto.UnitDTO, 0, len(units))
	for i := range units {
		result = append(result, *unitEntityToDTO(&units[i], today))
	}
	return result, nil
}
