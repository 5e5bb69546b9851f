package services

import (
	"context"
	"fmt"
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
	"equipment-system/pkg/types"
)

// DisposalItem - единица к списанию и вырученная за неё сумма.
type DisposalItem struct {
	UnitID         uint64
	ValueRecovered decimal.Decimal
}

// DisposalRequest - списание внутри чужой транзакции. Event - событие перехода в DISPOSED:
// disposal_requested для обычного списания, approved при согласовании неудачного ремонта.
type DisposalRequest struct {
	Items     []DisposalItem
	CreatedBy string
	Note      *string
	Event     lifecycle.Event
}

type DisposalServiceInterface interface {
	CreateDisposal(ctx context.Context, payload dto.CreateDisposalDTO) (*dto.DisposalDTO, error)
	FindDisposal(ctx context.Context, id uint64) (*dto.DisposalDTO, error)
	GetDisposals(ctx context.Context, filter types.Filter) ([]dto.DisposalDTO, uint64, error)
	DisposeInTx(ctx context.Context, tx pgx.Tx, applied *transitionLog, req DisposalRequest) (*entities.Disposal, error)
}

type DisposalService struct {
	txManager             repositories.TxManagerInterface
	disposalRepository    repositories.DisposalRepositoryInterface
	unitRepository        repositories.UnitRepositoryInterface
	maintenanceRepository repositories.MaintenanceRepositoryInterface
	publisher             EventPublisher
	logger                *zap.Logger
}

func NewDisposalService(
	txManager repositories.TxManagerInterface,
	disposalRepository repositories.DisposalRepositoryInterface,
	unitRepository repositories.UnitRepositoryInterface,
	maintenanceRepository repositories.MaintenanceRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) DisposalServiceInterface {
	return &DisposalService{
		txManager:             txManager,
		disposalRepository:    disposalRepository,
		unitRepository:        unitRepository,
		maintenanceRepository: maintenanceRepository,
		publisher:             publisher,
		logger:                logger,
	}
}

func disposalEntityToDTO(entity *entities.Disposal) *dto.DisposalDTO {
	if entity == nil {
		return nil
	}
	result := &dto.DisposalDTO{
		ID:           entity.ID,
		CostOriginal: entity.CostOriginal,
		TotalValue:   entity.TotalValue,
		CreatedBy:    entity.CreatedBy,
		Note:         entity.Note,
		Units:        make([]dto.DisposalUnitDTO, 0, len(entity.Units)),
		CreatedAt:    entity.CreatedAt.Format(timestampLayout),
	}
	for _, u := range entity.Units {
		result.Units = append(result.Units, dto.DisposalUnitDTO{
			UnitID:         u.UnitID,
			CostOriginal:   u.CostOriginal,
			ValueRecovered: u.ValueRecovered,
		})
	}
	return result
}

func (s *DisposalService) CreateDisposal(ctx context.Context, payload dto.CreateDisposalDTO) (*dto.DisposalDTO, error) {
	if len(payload.UnitIDs) != len(payload.ValueRecovered) {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest,
			"Количество сумм value_recovered (%d) не совпадает с количеством единиц (%d)",
			len(payload.ValueRecovered), len(payload.UnitIDs))
	}
	if err := uniqueIDs(payload.UnitIDs); err != nil {
		return nil, err
	}

	items := make([]DisposalItem, 0, len(payload.UnitIDs))
	for i, id := range payload.UnitIDs {
		value, err := parseMoney(payload.ValueRecovered[i], apperrors.ErrInvalidPrice, fmt.Sprintf("value_recovered[%d]", i))
		if err != nil {
			return nil, err
		}
		items = append(items, DisposalItem{UnitID: id, ValueRecovered: value})
	}

	var disposal *entities.Disposal
	err := runInTx(ctx, s.txManager, func(tx pgx.Tx, applied *transitionLog) error {
		var err error
		disposal, err = s.DisposeInTx(ctx, tx, applied, DisposalRequest{
			Items:     items,
			CreatedBy: payload.CreatedBy,
			Note:      payload.Note.Ptr(),
			Event:     lifecycle.EventDisposalRequested,
		})
		return err
	})
	if err != nil {
		countWorkflowError(constants.WorkflowDisposal, err)
		return nil, err
	}

	s.publisher.Publish(ctx, disposalNotification(disposal))
	return disposalEntityToDTO(disposal), nil
}

func disposalNotification(d *entities.Disposal) events.NotificationEvent {
	return events.NewNotification(
		constants.NotificationInvoice,
		"Списание оборудования",
		fmt.Sprintf("Списано %d ед. оборудования. Балансовая стоимость %s, выручено %s",
			len(d.Units), d.CostOriginal.StringFixed(2), d.TotalValue.StringFixed(2)),
		d.ID,
	)
}

// DisposeInTx списывает единицы в рамках переданной транзакции. Открытая заявка на ремонт
// закрывается: для FAILED с результатом FAILED_DISPOSED, иначе CANCELLED.
func (s *DisposalService) DisposeInTx(ctx context.Context, tx pgx.Tx, applied *transitionLog, req DisposalRequest) (*entities.Disposal, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest, "Не указано оборудование для списания")
	}
	ids := make([]uint64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.UnitID)
	}

	units, err := lockUnitsByIDs(ctx, tx, s.unitRepository, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*entities.Unit, len(units))
	for i := range units {
		u := &units[i]
		if u.Status == lifecycle.StatusMoving || u.Status == lifecycle.StatusInProgress {
			return nil, apperrors.NewDomainError(apperrors.ErrUnitBusy,
				"Оборудование #%d сейчас в статусе «%s» и не может быть списано", u.ID, u.Status.Label())
		}
		if !lifecycle.Allowed(u.Status, req.Event, lifecycle.StatusDisposed) {
			return nil, apperrors.NewDomainError(apperrors.ErrInvalidTransition,
				"Оборудование #%d в статусе «%s» не может быть списано", u.ID, u.Status.Label())
		}
		byID[u.ID] = u
	}

	disposal := entities.Disposal{
		CostOriginal: decimal.Zero,
		TotalValue:   decimal.Zero,
		CreatedBy:    req.CreatedBy,
		Note:         req.Note,
		CreatedAt:    time.Now(),
		Units:        make([]entities.DisposalUnit, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		cost := byID[item.UnitID].ImportPrice
		disposal.Units = append(disposal.Units, entities.DisposalUnit{
			UnitID:         item.UnitID,
			CostOriginal:   cost,
			ValueRecovered: item.ValueRecovered,
		})
		disposal.CostOriginal = disposal.CostOriginal.Add(cost)
		disposal.TotalValue = disposal.TotalValue.Add(item.ValueRecovered)
	}
	if err := checkMoney(disposal.TotalValue, apperrors.ErrInvalidPrice, "total_value"); err != nil {
		return nil, err
	}
	if err := checkMoney(disposal.CostOriginal, apperrors.ErrInvalidPrice, "cost_original"); err != nil {
		return nil, err
	}

	disposal.ID, err = s.disposalRepository.CreateDisposal(ctx, tx, disposal)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		unit := byID[item.UnitID]
		if err := s.closeOpenMaintenance(ctx, tx, unit, req.CreatedBy); err != nil {
			return nil, err
		}
		if err := s.unitRepository.ReleaseLock(ctx, tx, unit.ID); err != nil {
			return nil, err
		}
		err := applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   req.Event,
			to:      lifecycle.StatusDisposed,
			refKind: constants.WorkflowDisposal,
			refID:   disposal.ID,
			actor:   req.CreatedBy,
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("Оборудование списано",
		zap.Uint64("disposal_id", disposal.ID),
		zap.Uint64s("unit_ids", ids),
		zap.String("total_value", disposal.TotalValue.String()),
	)
	return &disposal, nil
}

func (s *DisposalService) closeOpenMaintenance(ctx context.Context, tx pgx.Tx, unit *entities.Unit, actor string) error {
	record, err := s.maintenanceRepository.FindOpenRecordByUnit(ctx, tx, unit.ID)
	if err != nil || record == nil {
		return err
	}
	result := constants.ResultCancelled
	if unit.Status == lifecycle.StatusFailed {
		result = constants.ResultFailedDisposed
	}
	record.Status = constants.MaintenanceClosed
	if result == constants.ResultCancelled {
		record.Status = constants.MaintenanceCancelled
	}
	record.Result = &result
	record.ApprovedBy = optionalString(actor)
	return s.maintenanceRepository.UpdateRecord(ctx, tx, *record)
}

func (s *DisposalService) FindDisposal(ctx context.Context, id uint64) (*dto.DisposalDTO, error) {
	disposal, err := s.disposalRepository.FindDisposal(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Акт списания #%d не найден", id)
	}
	return disposalEntityToDTO(disposal), nil
}

func (s *DisposalService) GetDisposals(ctx context.Context, filter types.Filter) ([]dto.DisposalDTO, uint64, error) {
	disposals, total, err := s.disposalRepository.GetDisposals(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.DisposalDTO, 0, len(disposals))
	for i := range disposals {
		result = append(result, *disposalEntityToDTO(&disposals[i]))
	}
	return result, total, nil
}
