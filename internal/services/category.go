package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
	"equipment-system/pkg/utils"
)

const groupCodeSize = 2

type CategoryServiceInterface interface {
	GetGroups(ctx context.Context, filter types.Filter) ([]dto.GroupDTO, uint64, error)
	FindGroup(ctx context.Context, id string) (*dto.GroupDTO, error)
	CreateGroup(ctx context.Context, payload dto.CreateGroupDTO) (*dto.GroupDTO, error)
	UpdateGroup(ctx context.Context, id string, payload dto.UpdateGroupDTO) (*dto.GroupDTO, error)

	GetTypes(ctx context.Context, filter types.Filter) ([]dto.TypeDTO, uint64, error)
	FindType(ctx context.Context, id string) (*dto.TypeDTO, error)
	CreateType(ctx context.Context, payload dto.CreateTypeDTO) (*dto.TypeDTO, error)
}

type CategoryService struct {
	txManager           repositories.TxManagerInterface
	categoryRepository  repositories.CategoryRepositoryInterface
	attributeRepository repositories.AttributeRepositoryInterface
	logger              *zap.Logger
}

func NewCategoryService(
	txManager repositories.TxManagerInterface,
	categoryRepository repositories.CategoryRepositoryInterface,
	attributeRepository repositories.AttributeRepositoryInterface,
	logger *zap.Logger,
) CategoryServiceInterface {
	return &CategoryService{
		txManager:           txManager,
		categoryRepository:  categoryRepository,
		attributeRepository: attributeRepository,
		logger:              logger,
	}
}

func groupEntityToDTO(entity *entities.EquipmentGroup) *dto.GroupDTO {
	if entity == nil {
		return nil
	}
	return &dto.GroupDTO{
		ID:          entity.ID,
		Name:        entity.Name,
		Description: entity.Description,
		Image:       entity.Image,
		CreatedAt:   formatTimestamp(entity.CreatedAt),
		UpdatedAt:   formatTimestamp(entity.UpdatedAt),
	}
}

func typeEntityToDTO(entity *entities.EquipmentType) *dto.TypeDTO {
	if entity == nil {
		return nil
	}
	result := &dto.TypeDTO{
		ID:          entity.ID,
		Code:        entity.Code(),
		Name:        entity.Name,
		Description: entity.Description,
		Group:       dto.ShortCodeDTO{ID: entity.GroupID},
		CreatedAt:   formatTimestamp(entity.CreatedAt),
		UpdatedAt:   formatTimestamp(entity.UpdatedAt),
	}
	if entity.Group != nil {
		result.Group.Name = entity.Group.Name
	}
	return result
}

// ----- Группы -----

func (s *CategoryService) GetGroups(ctx context.Context, filter types.Filter) ([]dto.GroupDTO, uint64, error) {
	groups, total, err := s.categoryRepository.GetGroups(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.GroupDTO, 0, len(groups))
	for i := range groups {
		result = append(result, *groupEntityToDTO(&groups[i]))
	}
	return result, total, nil
}

// FindGroup возвращает группу вместе с её типами.
func (s *CategoryService) FindGroup(ctx context.Context, id string) (*dto.GroupDTO, error) {
	group, err := s.categoryRepository.FindGroup(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Группа оборудования '%s' не найдена", id)
	}

	typeFilter := types.Filter{Filter: map[string]interface{}{"group_id": group.ID}, Sort: map[string]string{"id": "asc"}}
	equipmentTypes, _, err := s.categoryRepository.GetTypes(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	result := groupEntityToDTO(group)
	result.Types = make([]dto.TypeDTO, 0, len(equipmentTypes))
	for i := range equipmentTypes {
		result.Types = append(result.Types, *typeEntityToDTO(&equipmentTypes[i]))
	}
	return result, nil
}

// CreateGroup создаёт группу. Код - две буквы из названия, при совпадении добавляется цифра.
func (s *CategoryService) CreateGroup(ctx context.Context, payload dto.CreateGroupDTO) (*dto.GroupDTO, error) {
	base := utils.GenerateShortCode(payload.Name, groupCodeSize)
	if base == "" {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest,
			"Не удалось сформировать код группы из названия '%s'", payload.Name)
	}

	var created *entities.EquipmentGroup
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		exists, err := s.categoryRepository.GroupExistsByName(ctx, tx, payload.Name, "")
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Группа '%s' уже существует", payload.Name)
		}

		code, err := uniqueCode(base, func(code string) (bool, error) {
			return s.categoryRepository.GroupCodeExists(ctx, tx, code)
		})
		if err != nil {
			return err
		}

		group := entities.EquipmentGroup{
			ID:          code,
			Name:        payload.Name,
			Description: payload.Description.Ptr(),
			Image:       payload.Image.Ptr(),
		}
		if err := s.categoryRepository.CreateGroup(ctx, tx, group); err != nil {
			return err
		}
		created, err = s.categoryRepository.FindGroup(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создана группа оборудования", zap.String("code", created.ID), zap.String("name", created.Name))
	return groupEntityToDTO(created), nil
}

// UpdateGroup меняет название, описание и изображение. Код группы не меняется.
func (s *CategoryService) UpdateGroup(ctx context.Context, id string, payload dto.UpdateGroupDTO) (*dto.GroupDTO, error) {
	var updated *entities.EquipmentGroup
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		group, err := s.categoryRepository.FindGroup(ctx, tx, id)
		if err != nil {
			return notFoundAs(err, "Группа оборудования '%s' не найдена", id)
		}

		if payload.Name.Valid && !strings.EqualFold(payload.Name.String, group.Name) {
			exists, err := s.categoryRepository.GroupExistsByName(ctx, tx, payload.Name.String, group.ID)
			if err != nil {
				return err
			}
			if exists {
				return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Группа '%s' уже существует", payload.Name.String)
			}
		}
		if payload.Name.Valid {
			group.Name = payload.Name.String
		}
		if payload.Description.Valid {
			group.Description = payload.Description.Ptr()
		}
		if payload.Image.Valid {
			group.Image = payload.Image.Ptr()
		}

		if err := s.categoryRepository.UpdateGroup(ctx, tx, *group); err != nil {
			return err
		}
		updated, err = s.categoryRepository.FindGroup(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return groupEntityToDTO(updated), nil
}

// ----- Типы -----

func (s *CategoryService) GetTypes(ctx context.Context, filter types.Filter) ([]dto.TypeDTO, uint64, error) {
	equipmentTypes, total, err := s.categoryRepository.GetTypes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.TypeDTO, 0, len(equipmentTypes))
	for i := range equipmentTypes {
		result = append(result, *typeEntityToDTO(&equipmentTypes[i]))
	}
	return result, total, nil
}

// FindType возвращает тип вместе со схемой характеристик.
func (s *CategoryService) FindType(ctx context.Context, id string) (*dto.TypeDTO, error) {
	equipmentType, err := s.categoryRepository.FindType(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Тип оборудования '%s' не найден", id)
	}
	attributes, err := s.attributeRepository.GetTypeAttributes(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	result := typeEntityToDTO(equipmentType)
	result.Attributes = attributesToDTO(attributes)
	return result, nil
}

// CreateType создаёт тип внутри группы. ID = код группы + двузначный номер ("CA01"), номер не переиспользуется.
func (s *CategoryService) CreateType(ctx context.Context, payload dto.CreateTypeDTO) (*dto.TypeDTO, error) {
	var created *entities.EquipmentType
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		group, err := s.categoryRepository.FindGroup(ctx, tx, payload.GroupID)
		if err != nil {
			return notFoundAs(err, "Группа оборудования '%s' не найдена", payload.GroupID)
		}
		if err := s.categoryRepository.LockGroup(ctx, tx, group.ID); err != nil {
			return err
		}

		exists, err := s.categoryRepository.TypeExistsByName(ctx, tx, payload.Name, "")
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Тип '%s' уже существует", payload.Name)
		}

		ids, err := s.categoryRepository.GetTypeIDsByGroup(ctx, tx, group.ID)
		if err != nil {
			return err
		}

		equipmentType := entities.EquipmentType{
			ID:          nextTypeID(group.ID, ids),
			GroupID:     group.ID,
			Name:        payload.Name,
			Description: payload.Description.Ptr(),
		}
		if err := s.categoryRepository.CreateType(ctx, tx, equipmentType); err != nil {
			return err
		}
		created, err = s.categoryRepository.FindType(ctx, tx, equipmentType.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создан тип оборудования", zap.String("id", created.ID), zap.String("name", created.Name))
	return typeEntityToDTO(created), nil
}

// nextTypeID берёт максимальный номер среди типов группы и прибавляет единицу.
func nextTypeID(groupID string, existing []string) string {
	maxSeq := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, groupID) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(id, groupID))
		if err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%s%02d", groupID, maxSeq+1)
}
