package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

type BranchServiceInterface interface {
	GetBranches(ctx context.Context, filter types.Filter) ([]dto.BranchDTO, uint64, error)
	FindBranch(ctx context.Context, id uint64) (*dto.BranchDTO, error)
	CreateBranch(ctx context.Context, payload dto.CreateBranchDTO) (*dto.BranchDTO, error)
}

type BranchService struct {
	txManager        repositories.TxManagerInterface
	branchRepository repositories.BranchRepositoryInterface
	logger           *zap.Logger
}

func NewBranchService(
	txManager repositories.TxManagerInterface,
	branchRepository repositories.BranchRepositoryInterface,
	logger *zap.Logger,
) BranchServiceInterface {
	return &BranchService{
		txManager:        txManager,
		branchRepository: branchRepository,
		logger:           logger,
	}
}

func branchEntityToDTO(entity *entities.Branch) *dto.BranchDTO {
	if entity == nil {
		return nil
	}
	return &dto.BranchDTO{
		ID:        entity.ID,
		Name:      entity.Name,
		Address:   entity.Address,
		CreatedAt: formatTimestamp(entity.CreatedAt),
		UpdatedAt: formatTimestamp(entity.UpdatedAt),
	}
}

func (s *BranchService) GetBranches(ctx context.Context, filter types.Filter) ([]dto.BranchDTO, uint64, error) {
	branches, total, err := s.branchRepository.GetBranches(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.BranchDTO, 0, len(branches))
	for i := range branches {
		result = append(result, *branchEntityToDTO(&branches[i]))
	}
	return result, total, nil
}

func (s *BranchService) FindBranch(ctx context.Context, id uint64) (*dto.BranchDTO, error) {
	branch, err := s.branchRepository.FindBranch(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Филиал #%d не найден", id)
	}
	return branchEntityToDTO(branch), nil
}

func (s *BranchService) CreateBranch(ctx context.Context, payload dto.CreateBranchDTO) (*dto.BranchDTO, error) {
	var created *entities.Branch
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		exists, err := s.branchRepository.ExistsByName(ctx, tx, payload.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Филиал '%s' уже существует", payload.Name)
		}

		id, err := s.branchRepository.CreateBranch(ctx, tx, entities.Branch{
			Name:    payload.Name,
			Address: payload.Address.Ptr(),
		})
		if err != nil {
			return err
		}
		created, err = s.branchRepository.FindBranch(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создан филиал", zap.Uint64("id", created.ID), zap.String("name", created.Name))
	return branchEntityToDTO(created), nil
}
