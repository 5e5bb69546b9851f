package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

type TransferServiceInterface interface {
	CreateTransfer(ctx context.Context, payload dto.CreateTransferDTO) (*dto.TransferDTO, error)
	CompleteTransfer(ctx context.Context, id uint64, payload dto.CompleteTransferDTO) (*dto.TransferDTO, error)
	FindTransfer(ctx context.Context, id uint64) (*dto.TransferDTO, error)
	GetTransfersByStatus(ctx context.Context, status string, filter types.Filter) ([]dto.TransferDTO, uint64, error)
}

type TransferService struct {
	txManager          repositories.TxManagerInterface
	transferRepository repositories.TransferRepositoryInterface
	unitRepository     repositories.UnitRepositoryInterface
	branchRepository   repositories.BranchRepositoryInterface
	publisher          EventPublisher
	logger             *zap.Logger
}

func NewTransferService(
	txManager repositories.TxManagerInterface,
	transferRepository repositories.TransferRepositoryInterface,
	unitRepository repositories.UnitRepositoryInterface,
	branchRepository repositories.BranchRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) TransferServiceInterface {
	return &TransferService{
		txManager:          txManager,
		transferRepository: transferRepository,
		unitRepository:     unitRepository,
		branchRepository:   branchRepository,
		publisher:          publisher,
		logger:             logger,
	}
}

func transferEntityToDTO(entity *entities.Transfer) *dto.TransferDTO {
	if entity == nil {
		return nil
	}
	result := &dto.TransferDTO{
		ID:              entity.ID,
		FromBranchID:    entity.FromBranchID,
		ToBranchID:      entity.ToBranchID,
		Status:          entity.Status,
		RequestedBy:     entity.RequestedBy,
		ReceivedBy:      entity.ReceivedBy,
		MoveStartDate:   types.NewDate(entity.MoveStartDate),
		MoveReceiveDate: datePtr(entity.MoveReceiveDate),
		Note:            entity.Note,
		Units:           make([]dto.TransferUnitDTO, 0, len(entity.Units)),
		CreatedAt:       formatTimestamp(entity.CreatedAt),
	}
	for _, u := range entity.Units {
		result.Units = append(result.Units, dto.TransferUnitDTO{UnitID: u.UnitID, PreviousStatus: string(u.PreviousStatus)})
	}
	return result
}

// CreateTransfer отправляет партию единиц в другой филиал. Любая непригодная единица отменяет всю партию.
func (s *TransferService) CreateTransfer(ctx context.Context, payload dto.CreateTransferDTO) (*dto.TransferDTO, error) {
	if payload.FromBranchID == payload.ToBranchID {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest, "Филиал отправителя и получателя совпадают")
	}
	if err := uniqueIDs(payload.UnitIDs); err != nil {
		return nil, err
	}

	var transfer entities.Transfer
	var from, to *entities.Branch
	err := runInTx(ctx, s.txManager, func(tx pgx.Tx, applied *transitionLog) error {
		var err error
		from, err = s.branchRepository.FindBranch(ctx, tx, payload.FromBranchID)
		if err != nil {
			return notFoundAs(err, "Филиал отправителя #%d не найден", payload.FromBranchID)
		}
		to, err = s.branchRepository.FindBranch(ctx, tx, payload.ToBranchID)
		if err != nil {
			return notFoundAs(err, "Филиал получателя #%d не найден", payload.ToBranchID)
		}

		units, err := lockUnitsByIDs(ctx, tx, s.unitRepository, payload.UnitIDs)
		if err != nil {
			return err
		}
		locks, err := s.unitRepository.FindLocks(ctx, tx, payload.UnitIDs)
		if err != nil {
			return err
		}
		for i := range units {
			if err := checkTransferable(&units[i], from, locks); err != nil {
				return err
			}
		}

		start := payload.MoveStartDate.Time
		if payload.MoveStartDate.IsZero() {
			start = types.NewDate(time.Now()).Time
		}
		now := time.Now()
		transfer = entities.Transfer{
			BaseEntity:    types.BaseEntity{CreatedAt: &now, UpdatedAt: &now},
			FromBranchID:  from.ID,
			ToBranchID:    to.ID,
			Status:        constants.TransferMoving,
			RequestedBy:   payload.RequestedBy,
			MoveStartDate: start,
			Note:          payload.Note.Ptr(),
			Units:         make([]entities.TransferUnit, 0, len(units)),
		}
		for _, u := range units {
			transfer.Units = append(transfer.Units, entities.TransferUnit{UnitID: u.ID, PreviousStatus: u.Status})
		}
		transfer.ID, err = s.transferRepository.CreateTransfer(ctx, tx, transfer)
		if err != nil {
			return err
		}

		for i := range units {
			lock := entities.WorkflowLock{UnitID: units[i].ID, Workflow: constants.WorkflowTransfer, RefID: transfer.ID}
			if err := s.unitRepository.AcquireLock(ctx, tx, lock); err != nil {
				return err
			}
			err := applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
				unit:    &units[i],
				event:   lifecycle.EventTransferRequested,
				to:      lifecycle.StatusMoving,
				refKind: constants.WorkflowTransfer,
				refID:   transfer.ID,
				actor:   payload.RequestedBy,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		countWorkflowError(constants.WorkflowTransfer, err)
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewNotification(
		constants.NotificationTransfer,
		"Перемещение оборудования",
		fmt.Sprintf("%d ед. оборудования отправлено из филиала «%s» в филиал «%s»", len(transfer.Units), from.Name, to.Name),
		transfer.ID,
	))
	s.logger.Info("Открыто перемещение",
		zap.Uint64("transfer_id", transfer.ID),
		zap.Uint64("from", from.ID),
		zap.Uint64("to", to.ID),
		zap.Uint64s("unit_ids", transfer.UnitIDs()),
	)
	return transferEntityToDTO(&transfer), nil
}

// checkTransferable: единица в филиале отправителя, не перемещается, не занята и в работе или на складе.
func checkTransferable(unit *entities.Unit, from *entities.Branch, locks map[uint64]entities.WorkflowLock) error {
	if unit.BranchID != from.ID {
		return apperrors.NewDomainError(apperrors.ErrBranchMismatch,
			"Оборудование #%d находится в филиале «%s», а не в филиале «%s»", unit.ID, unit.BranchName, from.Name)
	}
	if unit.Status == lifecycle.StatusMoving {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование #%d уже перемещается", unit.ID)
	}
	if lock, ok := locks[unit.ID]; ok {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy,
			"Оборудование #%d занято процессом %s #%d", unit.ID, lock.Workflow, lock.RefID)
	}
	if unit.Status == lifecycle.StatusInProgress {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование #%d находится в ремонте", unit.ID)
	}
	if !lifecycle.CanApply(unit.Status, lifecycle.EventTransferRequested) {
		return apperrors.NewDomainError(apperrors.ErrInvalidTransition,
			"Оборудование #%d в статусе «%s» нельзя переместить", unit.ID, unit.Status.Label())
	}
	return nil
}

// CompleteTransfer принимает партию в филиале получателя и возвращает единицам статус до отправки.
func (s *TransferService) CompleteTransfer(ctx context.Context, id uint64, payload dto.CompleteTransferDTO) (*dto.TransferDTO, error) {
	var transfer *entities.Transfer
	err := runInTx(ctx, s.txManager, func(tx pgx.Tx, applied *transitionLog) error {
		var err error
		transfer, err = s.transferRepository.FindTransfer(ctx, tx, id)
		if err != nil {
			return notFoundAs(err, "Перемещение #%d не найдено", id)
		}
		if transfer.Status != constants.TransferMoving {
			return apperrors.NewDomainError(apperrors.ErrInvalidTransition, "Перемещение #%d уже завершено", id)
		}
		received := payload.MoveReceiveDate.Time
		if received.Before(types.NewDate(transfer.MoveStartDate).Time) {
			return apperrors.NewDomainError(apperrors.ErrInvalidDate,
				"Дата получения %s раньше даты отправки %s",
				received.Format("2006-01-02"), transfer.MoveStartDate.Format("2006-01-02"))
		}

		units, err := lockUnitsByIDs(ctx, tx, s.unitRepository, transfer.UnitIDs())
		if err != nil {
			return err
		}
		previous := make(map[uint64]lifecycle.Status, len(transfer.Units))
		for _, u := range transfer.Units {
			previous[u.UnitID] = u.PreviousStatus
		}

		for i := range units {
			unit := &units[i]
			if err := s.unitRepository.UpdateBranch(ctx, tx, unit.ID, transfer.ToBranchID); err != nil {
				return err
			}
			err := applyTransition(ctx, tx, s.unitRepository, applied, unitTransition{
				unit:    unit,
				event:   lifecycle.EventTransferCompleted,
				to:      previous[unit.ID],
				refKind: constants.WorkflowTransfer,
				refID:   transfer.ID,
				actor:   payload.ReceivedBy,
			})
			if err != nil {
				return err
			}
			if err := s.unitRepository.ReleaseLock(ctx, tx, unit.ID); err != nil {
				return err
			}
		}

		transfer.Status = constants.TransferCompleted
		transfer.ReceivedBy = optionalString(payload.ReceivedBy)
		transfer.MoveReceiveDate = &received
		return s.transferRepository.CompleteTransfer(ctx, tx, *transfer)
	})
	if err != nil {
		countWorkflowError(constants.WorkflowTransfer, err)
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewNotification(
		constants.NotificationTransfer,
		"Перемещение завершено",
		fmt.Sprintf("Перемещение #%d получено, единиц: %d", transfer.ID, len(transfer.Units)),
		transfer.ID,
	))
	return transferEntityToDTO(transfer), nil
}

func (s *TransferService) FindTransfer(ctx context.Context, id uint64) (*dto.TransferDTO, error) {
	transfer, err := s.transferRepository.FindTransfer(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Перемещение #%d не найдено", id)
	}
	return transferEntityToDTO(transfer), nil
}

func (s *TransferService) GetTransfersByStatus(ctx context.Context, status string, filter types.Filter) ([]dto.TransferDTO, uint64, error) {
	if status != constants.TransferMoving && status != constants.TransferCompleted {
		return nil, 0, apperrors.NewDomainError(apperrors.ErrBadRequest, "Неизвестный статус перемещения '%s'", status)
	}
	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	filter.Filter["status"] = status

	transfers, total, err := s.transferRepository.GetTransfers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.TransferDTO, 0, len(transfers))
	for i := range transfers {
		result = append(result, *transferEntityToDTO(&transfers[i]))
	}
	return result, total, nil
}
