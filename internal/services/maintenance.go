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
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/types"
)

type MaintenanceServiceInterface interface {
	GetRecords(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRecordDTO, uint64, error)
	FindRecord(ctx context.Context, id uint64) (*dto.MaintenanceRecordDTO, error)
	CreateRequest(ctx context.Context, payload dto.CreateMaintenanceRequestDTO) (*dto.MaintenanceRecordDTO, error)
	CancelRequest(ctx context.Context, id uint64) (*dto.MaintenanceRecordDTO, error)
	StartMaintenance(ctx context.Context, id uint64, payload dto.StartMaintenanceDTO) (*dto.MaintenanceRecordDTO, error)
	CompleteMaintenance(ctx context.Context, id uint64, payload dto.CompleteMaintenanceDTO) (*dto.MaintenanceRecordDTO, error)
	ApproveMaintenance(ctx context.Context, id uint64, payload dto.ApproveMaintenanceDTO) (*dto.MaintenanceRecordDTO, error)

	GetPlans(ctx context.Context, filter types.Filter) ([]dto.MaintenancePlanDTO, uint64, error)
	CreatePlan(ctx context.Context, payload dto.CreateMaintenancePlanDTO) (*dto.MaintenancePlanDTO, error)
	UpdatePlan(ctx context.Context, id uint64, payload dto.UpdateMaintenancePlanDTO) (*dto.MaintenancePlanDTO, error)
	DuePlans(ctx context.Context, until time.Time) ([]dto.MaintenancePlanDTO, error)
}

type MaintenanceService struct {
	txManager             repositories.TxManagerInterface
	maintenanceRepository repositories.MaintenanceRepositoryInterface
	unitRepository        repositories.UnitRepositoryInterface
	disposalService       DisposalServiceInterface
	publisher             EventPublisher
	logger                *zap.Logger
}

func NewMaintenanceService(
	txManager repositories.TxManagerInterface,
	maintenanceRepository repositories.MaintenanceRepositoryInterface,
	unitRepository repositories.UnitRepositoryInterface,
	disposalService DisposalServiceInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) MaintenanceServiceInterface {
	return &MaintenanceService{
		txManager:             txManager,
		maintenanceRepository: maintenanceRepository,
		unitRepository:        unitRepository,
		disposalService:       disposalService,
		publisher:             publisher,
		logger:                logger,
	}
}

func maintenanceEntityToDTO(entity *entities.MaintenanceRecord) *dto.MaintenanceRecordDTO {
	if entity == nil {
		return nil
	}
	return &dto.MaintenanceRecordDTO{
		ID:          entity.ID,
		UnitID:      entity.UnitID,
		Status:      entity.Status,
		RequestedBy: entity.RequestedBy,
		Technician:  entity.Technician,
		DateStart:   datePtr(entity.DateStart),
		DateEnd:     datePtr(entity.DateEnd),
		Cost:        entity.Cost,
		Note:        entity.Note,
		Result:      entity.Result,
		ApprovedBy:  entity.ApprovedBy,
		CreatedAt:   formatTimestamp(entity.CreatedAt),
		UpdatedAt:   formatTimestamp(entity.UpdatedAt),
	}
}

func planEntityToDTO(entity *entities.MaintenancePlan) *dto.MaintenancePlanDTO {
	if entity == nil {
		return nil
	}
	return &dto.MaintenancePlanDTO{
		ID:                  entity.ID,
		UnitID:              entity.UnitID,
		Frequency:           string(entity.Frequency),
		NextMaintenanceDate: types.NewDate(entity.NextMaintenanceDate),
		LastMaintenanceDate: datePtr(entity.LastMaintenanceDate),
		Note:                entity.Note,
		CreatedBy:           entity.CreatedBy,
		CreatedAt:           formatTimestamp(entity.CreatedAt),
		UpdatedAt:           formatTimestamp(entity.UpdatedAt),
	}
}

func maintenanceNotification(record *entities.MaintenanceRecord, title string) events.NotificationEvent {
	return events.NewNotification(
		constants.NotificationMaintenance,
		title,
		fmt.Sprintf("Заявка на ремонт #%d, оборудование #%d, статус %s", record.ID, record.UnitID, record.Status),
		record.ID,
	)
}

func (s *MaintenanceService) GetRecords(ctx context.Context, filter types.Filter) ([]dto.MaintenanceRecordDTO, uint64, error) {
	records, total, err := s.maintenanceRepository.GetRecords(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.MaintenanceRecordDTO, 0, len(records))
	for i := range records {
		result = append(result, *maintenanceEntityToDTO(&records[i]))
	}
	return result, total, nil
}

func (s *MaintenanceService) FindRecord(ctx context.Context, id uint64) (*dto.MaintenanceRecordDTO, error) {
	record, err := s.maintenanceRepository.FindRecord(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Заявка на ремонт #%d не найдена", id)
	}
	return maintenanceEntityToDTO(record), nil
}

// findRecordInStatus блокирует заявку и проверяет её статус.
func (s *MaintenanceService) findRecordInStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) (*entities.MaintenanceRecord, error) {
	record, err := s.maintenanceRepository.FindRecord(ctx, tx, id)
	if err != nil {
		return nil, notFoundAs(err, "Заявка на ремонт #%d не найдена", id)
	}
	if record.Status != status {
		return nil, apperrors.NewDomainError(apperrors.ErrInvalidTransition,
			"Заявка на ремонт #%d в статусе %s, операция допустима только в статусе %s", id, record.Status, status)
	}
	return record, nil
}

// runWorkflow выполняет шаг процесса в транзакции и публикует события только после коммита.
func (s *MaintenanceService) runWorkflow(ctx context.Context, fn func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error)) error {
	var pending []eventbus.Event
	err := runInTx(ctx, s.txManager, func(tx pgx.Tx, applied *transitionLog) error {
		var err error
		pending, err = fn(tx, applied)
		return err
	})
	if err != nil {
		countWorkflowError(constants.WorkflowMaintenance, err)
		return err
	}
	for _, e := range pending {
		s.publisher.Publish(ctx, e)
	}
	return nil
}

// CreateRequest открывает заявку: ACTIVE -> TEMPORARY_URGENT, единица блокируется процессом ремонта.
func (s *MaintenanceService) CreateRequest(ctx context.Context, payload dto.CreateMaintenanceRequestDTO) (*dto.MaintenanceRecordDTO, error) {
	var record entities.MaintenanceRecord
	err := s.runWorkflow(ctx, func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error) {
		unit, err := lockUnit(ctx, tx, s.unitRepository, payload.UnitID)
		if err != nil {
			return nil, err
		}
		if err := ensureNotLocked(ctx, tx, s.unitRepository, unit); err != nil {
			return nil, err
		}
		if err := lifecycle.Transition(unit.Status, lifecycle.EventUrgentRaised, lifecycle.StatusTemporaryUrgent); err != nil {
			return nil, apperrors.NewDomainError(apperrors.ErrInvalidTransition,
				"Заявку на ремонт можно открыть только для оборудования в работе, статус #%d: «%s»", unit.ID, unit.Status.Label())
		}

		record = entities.MaintenanceRecord{
			UnitID:      unit.ID,
			Status:      constants.MaintenancePending,
			RequestedBy: optionalString(payload.RequestedBy),
			Note:        payload.Note.Ptr(),
		}
		record.ID, err = s.maintenanceRepository.CreateRecord(ctx, tx, record)
		if err != nil {
			return nil, err
		}
		lock := entities.WorkflowLock{UnitID: unit.ID, Workflow: constants.WorkflowMaintenance, RefID: record.ID}
		if err := s.unitRepository.AcquireLock(ctx, tx, lock); err != nil {
			return nil, err
		}
		err = applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   lifecycle.EventUrgentRaised,
			to:      lifecycle.StatusTemporaryUrgent,
			refKind: constants.WorkflowMaintenance,
			refID:   record.ID,
			actor:   payload.RequestedBy,
		})
		if err != nil {
			return nil, err
		}
		return []eventbus.Event{maintenanceNotification(&record, "Новая заявка на ремонт")}, nil
	})
	if err != nil {
		return nil, err
	}
	return maintenanceEntityToDTO(&record), nil
}

// CancelRequest отменяет ещё не начатый ремонт и возвращает единицу в работу.
func (s *MaintenanceService) CancelRequest(ctx context.Context, id uint64) (*dto.MaintenanceRecordDTO, error) {
	var record *entities.MaintenanceRecord
	err := s.runWorkflow(ctx, func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error) {
		var err error
		record, err = s.findRecordInStatus(ctx, tx, id, constants.MaintenancePending)
		if err != nil {
			return nil, err
		}
		unit, err := lockUnit(ctx, tx, s.unitRepository, record.UnitID)
		if err != nil {
			return nil, err
		}
		err = applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   lifecycle.EventUrgentCleared,
			to:      lifecycle.StatusActive,
			refKind: constants.WorkflowMaintenance,
			refID:   record.ID,
		})
		if err != nil {
			return nil, err
		}

		result := constants.ResultCancelled
		record.Status = constants.MaintenanceCancelled
		record.Result = &result
		if err := s.maintenanceRepository.UpdateRecord(ctx, tx, *record); err != nil {
			return nil, err
		}
		if err := s.unitRepository.ReleaseLock(ctx, tx, unit.ID); err != nil {
			return nil, err
		}
		return []eventbus.Event{maintenanceNotification(record, "Заявка на ремонт отменена")}, nil
	})
	if err != nil {
		return nil, err
	}
	return maintenanceEntityToDTO(record), nil
}

func (s *MaintenanceService) StartMaintenance(ctx context.Context, id uint64, payload dto.StartMaintenanceDTO) (*dto.MaintenanceRecordDTO, error) {
	var record *entities.MaintenanceRecord
	err := s.runWorkflow(ctx, func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error) {
		var err error
		record, err = s.findRecordInStatus(ctx, tx, id, constants.MaintenancePending)
		if err != nil {
			return nil, err
		}
		unit, err := lockUnit(ctx, tx, s.unitRepository, record.UnitID)
		if err != nil {
			return nil, err
		}

		locks, err := s.unitRepository.FindLocks(ctx, tx, []uint64{unit.ID})
		if err != nil {
			return nil, err
		}
		if lock, ok := locks[unit.ID]; ok && (lock.Workflow != constants.WorkflowMaintenance || lock.RefID != record.ID) {
			return nil, apperrors.NewDomainError(apperrors.ErrUnitBusy,
				"Оборудование #%d занято процессом %s #%d", unit.ID, lock.Workflow, lock.RefID)
		}

		err = applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   lifecycle.EventMaintenanceStarted,
			to:      lifecycle.StatusInProgress,
			refKind: constants.WorkflowMaintenance,
			refID:   record.ID,
			actor:   payload.Technician,
		})
		if err != nil {
			return nil, err
		}

		start := payload.DateStart.Time
		record.Status = constants.MaintenanceInProgress
		record.DateStart = &start
		record.Technician = optionalString(payload.Technician)
		if err := s.maintenanceRepository.UpdateRecord(ctx, tx, *record); err != nil {
			return nil, err
		}
		return []eventbus.Event{maintenanceNotification(record, "Ремонт начат")}, nil
	})
	if err != nil {
		return nil, err
	}
	return maintenanceEntityToDTO(record), nil
}

// CompleteMaintenance фиксирует итог ремонта. В гарантийный период стоимость всегда ноль,
// вне гарантии нужна положительная стоимость.
func (s *MaintenanceService) CompleteMaintenance(ctx context.Context, id uint64, payload dto.CompleteMaintenanceDTO) (*dto.MaintenanceRecordDTO, error) {
	var record *entities.MaintenanceRecord
	err := s.runWorkflow(ctx, func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error) {
		var err error
		record, err = s.findRecordInStatus(ctx, tx, id, constants.MaintenanceInProgress)
		if err != nil {
			return nil, err
		}
		if record.DateStart == nil {
			return nil, apperrors.NewDomainError(apperrors.ErrInvalidDate, "У заявки #%d не указана дата начала ремонта", id)
		}
		end := payload.DateEnd.Time
		if end.Before(types.NewDate(*record.DateStart).Time) {
			return nil, apperrors.NewDomainError(apperrors.ErrInvalidDate,
				"Дата окончания ремонта %s раньше даты начала %s",
				end.Format("2006-01-02"), record.DateStart.Format("2006-01-02"))
		}

		unit, err := lockUnit(ctx, tx, s.unitRepository, record.UnitID)
		if err != nil {
			return nil, err
		}

		cost := decimal.Zero
		if !unit.InWarranty(*record.DateStart) {
			cost, err = parseMoney(payload.Cost, apperrors.ErrInvalidPrice, "cost")
			if err != nil {
				return nil, err
			}
			if !cost.IsPositive() {
				return nil, apperrors.NewDomainError(apperrors.ErrWarrantyViolation,
					"Оборудование #%d вне гарантии: укажите стоимость ремонта", unit.ID)
			}
		}

		event, target := lifecycle.EventMaintenanceFailed, lifecycle.StatusFailed
		if *payload.Succeeded {
			event, target = lifecycle.EventMaintenanceSucceeded, lifecycle.StatusReady
		}
		err = applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   event,
			to:      target,
			refKind: constants.WorkflowMaintenance,
			refID:   record.ID,
		})
		if err != nil {
			return nil, err
		}

		record.Status = constants.MaintenanceAwaitingApproval
		record.DateEnd = &end
		record.Cost = &cost
		if payload.Note.Valid {
			record.Note = payload.Note.Ptr()
		}
		if err := s.maintenanceRepository.UpdateRecord(ctx, tx, *record); err != nil {
			return nil, err
		}
		return []eventbus.Event{maintenanceNotification(record, "Ремонт завершён, ожидает согласования")}, nil
	})
	if err != nil {
		return nil, err
	}
	return maintenanceEntityToDTO(record), nil
}

// ApproveMaintenance закрывает заявку. Для неудачного ремонта решение принимает оператор:
// RETURN возвращает единицу в работу, DISPOSE списывает её в той же транзакции.
func (s *MaintenanceService) ApproveMaintenance(ctx context.Context, id uint64, payload dto.ApproveMaintenanceDTO) (*dto.MaintenanceRecordDTO, error) {
	var record *entities.MaintenanceRecord
	err := s.runWorkflow(ctx, func(tx pgx.Tx, applied *transitionLog) ([]eventbus.Event, error) {
		var err error
		record, err = s.findRecordInStatus(ctx, tx, id, constants.MaintenanceAwaitingApproval)
		if err != nil {
			return nil, err
		}
		unit, err := lockUnit(ctx, tx, s.unitRepository, record.UnitID)
		if err != nil {
			return nil, err
		}

		var result string
		dispose := false
		switch unit.Status {
		case lifecycle.StatusReady:
			result = constants.ResultRepaired
		case lifecycle.StatusFailed:
			switch payload.Decision {
			case constants.DecisionReturn:
				result = constants.ResultFailedReturned
			case constants.DecisionDispose:
				result = constants.ResultFailedDisposed
				dispose = true
			default:
				return nil, apperrors.NewDomainError(apperrors.ErrBadRequest,
					"Ремонт оборудования #%d не удался: укажите решение %s или %s",
					unit.ID, constants.DecisionReturn, constants.DecisionDispose)
			}
		default:
			return nil, apperrors.NewDomainError(apperrors.ErrInvalidTransition,
				"Оборудование #%d в статусе «%s» не ожидает согласования ремонта", unit.ID, unit.Status.Label())
		}

		record.Status = constants.MaintenanceClosed
		record.Result = &result
		record.ApprovedBy = optionalString(payload.ApprovedBy)
		if err := s.maintenanceRepository.UpdateRecord(ctx, tx, *record); err != nil {
			return nil, err
		}
		if err := s.unitRepository.ReleaseLock(ctx, tx, unit.ID); err != nil {
			return nil, err
		}

		pending := []eventbus.Event{maintenanceNotification(record, "Ремонт согласован")}
		if dispose {
			value, err := parseMoney(payload.ValueRecovered, apperrors.ErrInvalidPrice, "value_recovered")
			if err != nil {
				return nil, err
			}
			disposal, err := s.disposalService.DisposeInTx(ctx, tx, applied, DisposalRequest{
				Items:     []DisposalItem{{UnitID: unit.ID, ValueRecovered: value}},
				CreatedBy: payload.ApprovedBy,
				Note:      record.Note,
				Event:     lifecycle.EventApproved,
			})
			if err != nil {
				return nil, err
			}
			return append(pending, disposalNotification(disposal)), nil
		}

		err = applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
			unit:    unit,
			event:   lifecycle.EventApproved,
			to:      lifecycle.StatusActive,
			refKind: constants.WorkflowMaintenance,
			refID:   record.ID,
			actor:   payload.ApprovedBy,
		})
		if err != nil {
			return nil, err
		}
		if err := s.advancePlan(ctx, tx, unit.ID, *record.DateEnd); err != nil {
			return nil, err
		}
		return pending, nil
	})
	if err != nil {
		return nil, err
	}
	return maintenanceEntityToDTO(record), nil
}

// advancePlan переносит плановое обслуживание после закрытого ремонта.
func (s *MaintenanceService) advancePlan(ctx context.Context, tx pgx.Tx, unitID uint64, done time.Time) error {
	plan, err := s.maintenanceRepository.FindPlanByUnit(ctx, tx, unitID)
	if err != nil || plan == nil {
		return err
	}
	plan.LastMaintenanceDate = &done
	plan.NextMaintenanceDate = plan.Frequency.Next(done)
	return s.maintenanceRepository.UpdatePlan(ctx, tx, *plan)
}

// ensureNotLocked - ErrUnitBusy, если у единицы уже открыт процесс.
func ensureNotLocked(ctx context.Context, tx pgx.Tx, repo repositories.UnitRepositoryInterface, unit *entities.Unit) error {
	locks, err := repo.FindLocks(ctx, tx, []uint64{unit.ID})
	if err != nil {
		return err
	}
	if lock, ok := locks[unit.ID]; ok {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy,
			"Оборудование #%d уже участвует в процессе %s #%d", unit.ID, lock.Workflow, lock.RefID)
	}
	if unit.Status == lifecycle.StatusMoving {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование #%d перемещается между филиалами", unit.ID)
	}
	return nil
}

// ----- План обслуживания -----

func (s *MaintenanceService) GetPlans(ctx context.Context, filter types.Filter) ([]dto.MaintenancePlanDTO, uint64, error) {
	plans, total, err := s.maintenanceRepository.GetPlans(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.MaintenancePlanDTO, 0, len(plans))
	for i := range plans {
		result = append(result, *planEntityToDTO(&plans[i]))
	}
	return result, total, nil
}

func (s *MaintenanceService) CreatePlan(ctx context.Context, payload dto.CreateMaintenancePlanDTO) (*dto.MaintenancePlanDTO, error) {
	frequency, ok := constants.ParseFrequency(payload.Frequency)
	if !ok {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest, "Неизвестная периодичность '%s'", payload.Frequency)
	}

	var plan entities.MaintenancePlan
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		unit, err := s.unitRepository.FindUnit(ctx, tx, payload.UnitID)
		if err != nil {
			return notFoundAs(err, "Оборудование #%d не найдено", payload.UnitID)
		}
		if unit.Status == lifecycle.StatusDisposed {
			return apperrors.NewDomainError(apperrors.ErrBadRequest, "Оборудование #%d списано", unit.ID)
		}
		existing, err := s.maintenanceRepository.FindPlanByUnit(ctx, tx, unit.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.NewDomainError(apperrors.ErrBadRequest,
				"Для оборудования #%d уже есть план обслуживания #%d", unit.ID, existing.ID)
		}

		plan = entities.MaintenancePlan{
			UnitID:              unit.ID,
			Frequency:           frequency,
			NextMaintenanceDate: payload.NextMaintenanceDate.Time,
			Note:                payload.Note.Ptr(),
			CreatedBy:           optionalString(payload.CreatedBy),
		}
		plan.ID, err = s.maintenanceRepository.CreatePlan(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	return planEntityToDTO(&plan), nil
}

func (s *MaintenanceService) UpdatePlan(ctx context.Context, id uint64, payload dto.UpdateMaintenancePlanDTO) (*dto.MaintenancePlanDTO, error) {
	var plan *entities.MaintenancePlan
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		plan, err = s.maintenanceRepository.FindPlan(ctx, tx, id)
		if err != nil {
			return notFoundAs(err, "План обслуживания #%d не найден", id)
		}
		if payload.Frequency.Valid {
			frequency, ok := constants.ParseFrequency(payload.Frequency.String)
			if !ok {
				return apperrors.NewDomainError(apperrors.ErrBadRequest, "Неизвестная периодичность '%s'", payload.Frequency.String)
			}
			plan.Frequency = frequency
		}
		if payload.NextMaintenanceDate != nil && !payload.NextMaintenanceDate.IsZero() {
			plan.NextMaintenanceDate = payload.NextMaintenanceDate.Time
		}
		if payload.Note.Valid {
			plan.Note = payload.Note.Ptr()
		}
		return s.maintenanceRepository.UpdatePlan(ctx, tx, *plan)
	})
	if err != nil {
		return nil, err
	}
	return planEntityToDTO(plan), nil
}

// DuePlans - планы, срок которых наступает не позже until.
func (s *MaintenanceService) DuePlans(ctx context.Context, until time.Time) ([]dto.MaintenancePlanDTO, error) {
	plans, err := s.maintenanceRepository.DuePlans(ctx, until)
	if err != nil {
		return nil, err
	}
	result := make([]dto.MaintenancePlanDTO, 0, len(plans))
	for i := range plans {
		result = append(result, *planEntityToDTO(&plans[i]))
	}
	return result, nil
}
