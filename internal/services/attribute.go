package services

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

type AttributeServiceInterface interface {
	GetAttributes(ctx context.Context, filter types.Filter) ([]dto.AttributeDTO, uint64, error)
	CreateAttribute(ctx context.Context, payload dto.CreateAttributeDTO) (*dto.AttributeDTO, error)

	GetTypeAttributes(ctx context.Context, typeID string) ([]dto.AttributeDTO, error)
	BindAttributes(ctx context.Context, typeID string, payload dto.BindAttributesDTO) ([]dto.AttributeDTO, error)
	UnbindAttribute(ctx context.Context, typeID string, attributeID uint64) error

	SetAttributeValue(ctx context.Context, catalogID string, attributeID uint64, payload dto.SetAttributeValueDTO) ([]dto.AttributeValueDTO, error)
}

type AttributeService struct {
	txManager           repositories.TxManagerInterface
	attributeRepository repositories.AttributeRepositoryInterface
	categoryRepository  repositories.CategoryRepositoryInterface
	catalogRepository   repositories.CatalogRepositoryInterface
	logger              *zap.Logger
}

func NewAttributeService(
	txManager repositories.TxManagerInterface,
	attributeRepository repositories.AttributeRepositoryInterface,
	categoryRepository repositories.CategoryRepositoryInterface,
	catalogRepository repositories.CatalogRepositoryInterface,
	logger *zap.Logger,
) AttributeServiceInterface {
	return &AttributeService{
		txManager:           txManager,
		attributeRepository: attributeRepository,
		categoryRepository:  categoryRepository,
		catalogRepository:   catalogRepository,
		logger:              logger,
	}
}

func attributesToDTO(attributes []entities.Attribute) []dto.AttributeDTO {
	result := make([]dto.AttributeDTO, 0, len(attributes))
	for _, a := range attributes {
		result = append(result, dto.AttributeDTO{ID: a.ID, Name: a.Name})
	}
	return result
}

func attributeValuesToDTO(values []entities.AttributeValue) []dto.AttributeValueDTO {
	result := make([]dto.AttributeValueDTO, 0, len(values))
	for _, v := range values {
		result = append(result, dto.AttributeValueDTO{AttributeID: v.AttributeID, Name: v.Name, Value: v.Value})
	}
	return result
}

func (s *AttributeService) GetAttributes(ctx context.Context, filter types.Filter) ([]dto.AttributeDTO, uint64, error) {
	attributes, total, err := s.attributeRepository.GetAttributes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return attributesToDTO(attributes), total, nil
}

func (s *AttributeService) CreateAttribute(ctx context.Context, payload dto.CreateAttributeDTO) (*dto.AttributeDTO, error) {
	name := strings.TrimSpace(payload.Name)
	var created *entities.Attribute
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		exists, err := s.attributeRepository.ExistsByName(ctx, tx, name, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError(apperrors.ErrDuplicateAttribute, "Характеристика '%s' уже существует", name)
		}
		created, err = s.attributeRepository.CreateAttribute(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.AttributeDTO{ID: created.ID, Name: created.Name}, nil
}

func (s *AttributeService) GetTypeAttributes(ctx context.Context, typeID string) ([]dto.AttributeDTO, error) {
	if _, err := s.categoryRepository.FindType(ctx, nil, typeID); err != nil {
		return nil, notFoundAs(err, "Тип оборудования '%s' не найден", typeID)
	}
	attributes, err := s.attributeRepository.GetTypeAttributes(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}
	return attributesToDTO(attributes), nil
}

// BindAttributes добавляет характеристики в схему типа. Уже привязанные пропускаются.
func (s *AttributeService) BindAttributes(ctx context.Context, typeID string, payload dto.BindAttributesDTO) ([]dto.AttributeDTO, error) {
	ids := dedupe(payload.AttributeIDs)
	var schema []entities.Attribute
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.categoryRepository.FindType(ctx, tx, typeID); err != nil {
			return notFoundAs(err, "Тип оборудования '%s' не найден", typeID)
		}

		found, err := s.attributeRepository.FindAttributes(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			known := make(map[uint64]struct{}, len(found))
			for _, a := range found {
				known[a.ID] = struct{}{}
			}
			for _, id := range ids {
				if _, ok := known[id]; !ok {
					return apperrors.NewDomainError(apperrors.ErrNotFound, "Характеристика #%d не найдена", id)
				}
			}
		}

		if err := s.attributeRepository.BindToType(ctx, tx, typeID, ids); err != nil {
			return err
		}
		schema, err = s.attributeRepository.GetTypeAttributes(ctx, tx, typeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Обновлена схема характеристик типа", zap.String("type_id", typeID), zap.Int("attributes", len(schema)))
	return attributesToDTO(schema), nil
}

// UnbindAttribute убирает характеристику из схемы, если у моделей типа нет её значений.
func (s *AttributeService) UnbindAttribute(ctx context.Context, typeID string, attributeID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.categoryRepository.FindType(ctx, tx, typeID); err != nil {
			return notFoundAs(err, "Тип оборудования '%s' не найден", typeID)
		}

		inUse, err := s.attributeRepository.CountValuesForType(ctx, tx, typeID, attributeID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return apperrors.NewDomainError(apperrors.ErrAttributeInUse,
				"Характеристика #%d заполнена у %d моделей типа '%s'", attributeID, inUse, typeID)
		}

		err = s.attributeRepository.UnbindFromType(ctx, tx, typeID, attributeID)
		return notFoundAs(err, "Характеристика #%d не привязана к типу '%s'", attributeID, typeID)
	})
}

func (s *AttributeService) SetAttributeValue(ctx context.Context, catalogID string, attributeID uint64, payload dto.SetAttributeValueDTO) ([]dto.AttributeValueDTO, error) {
	var values []entities.AttributeValue
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		line, err := s.catalogRepository.FindCatalogLine(ctx, tx, catalogID)
		if err != nil {
			return notFoundAs(err, "Модель оборудования '%s' не найдена", catalogID)
		}

		if err := writeAttributeValues(ctx, tx, s.attributeRepository, line, map[uint64]string{attributeID: payload.Value}); err != nil {
			return err
		}
		values, err = s.attributeRepository.GetValues(ctx, tx, catalogID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return attributeValuesToDTO(values), nil
}

// checkApplicable проверяет, что каждая характеристика входит в схему типа.
func checkApplicable(ctx context.Context, tx pgx.Tx, repo repositories.AttributeRepositoryInterface, typeID string, values map[uint64]string) error {
	if len(values) == 0 {
		return nil
	}
	schema, err := repo.GetTypeAttributes(ctx, tx, typeID)
	if err != nil {
		return err
	}
	bound := make(map[uint64]struct{}, len(schema))
	for _, a := range schema {
		bound[a.ID] = struct{}{}
	}

	ids := make([]uint64, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if _, ok := bound[id]; !ok {
			return apperrors.NewDomainError(apperrors.ErrAttributeNotApplicable,
				"Характеристика #%d не входит в схему типа '%s'", id, typeID)
		}
	}
	return nil
}

func writeAttributeValues(ctx context.Context, tx pgx.Tx, repo repositories.AttributeRepositoryInterface, line *entities.CatalogLine, values map[uint64]string) error {
	if err := checkApplicable(ctx, tx, repo, line.TypeID, values); err != nil {
		return err
	}
	for attributeID, value := range values {
		if err := repo.UpsertValue(ctx, tx, line.ID, attributeID, strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	result := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
