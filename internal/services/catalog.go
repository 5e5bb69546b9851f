package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

type CatalogServiceInterface interface {
	GetCatalog(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindCatalogLine(ctx context.Context, id string) (*dto.EquipmentDTO, error)
	CreateCatalogLine(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateCatalogLine(ctx context.Context, id string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
	PreviewCatalogCode(ctx context.Context, typeID, vendorID string) (*dto.CatalogCodeDTO, error)
}

type CatalogService struct {
	txManager           repositories.TxManagerInterface
	catalogRepository   repositories.CatalogRepositoryInterface
	categoryRepository  repositories.CategoryRepositoryInterface
	vendorRepository    repositories.VendorRepositoryInterface
	attributeRepository repositories.AttributeRepositoryInterface
	logger              *zap.Logger
}

func NewCatalogService(
	txManager repositories.TxManagerInterface,
	catalogRepository repositories.CatalogRepositoryInterface,
	categoryRepository repositories.CategoryRepositoryInterface,
	vendorRepository repositories.VendorRepositoryInterface,
	attributeRepository repositories.AttributeRepositoryInterface,
	logger *zap.Logger,
) CatalogServiceInterface {
	return &CatalogService{
		txManager:           txManager,
		catalogRepository:   catalogRepository,
		categoryRepository:  categoryRepository,
		vendorRepository:    vendorRepository,
		attributeRepository: attributeRepository,
		logger:              logger,
	}
}

// DeriveCatalogCode собирает код модели: группа + номер типа + поставщик, без пробелов, в верхнем регистре.
// ("CA", "01", "TEC") -> "CA01TEC"
func DeriveCatalogCode(groupCode, typeCode, vendorCode string) string {
	var sb strings.Builder
	for _, part := range []string{groupCode, typeCode, vendorCode} {
		for _, r := range part {
			if !unicode.IsSpace(r) {
				sb.WriteRune(unicode.ToUpper(r))
			}
		}
	}
	return sb.String()
}

func catalogEntityToDTO(entity *entities.CatalogLine) *dto.EquipmentDTO {
	if entity == nil {
		return nil
	}
	return &dto.EquipmentDTO{
		ID:               entity.ID,
		Name:             entity.Name,
		Description:      entity.Description,
		WarrantyDuration: entity.WarrantyDuration,
		Image:            entity.Image,
		Group:            dto.ShortCodeDTO{ID: entity.GroupID, Name: entity.GroupName},
		Type:             dto.ShortCodeDTO{ID: entity.TypeID, Name: entity.TypeName},
		Vendor:           dto.ShortCodeDTO{ID: entity.VendorID, Name: entity.VendorName},
		Attributes:       attributeValuesToDTO(entity.Attributes),
		CreatedAt:        formatTimestamp(entity.CreatedAt),
		UpdatedAt:        formatTimestamp(entity.UpdatedAt),
	}
}

func (s *CatalogService) GetCatalog(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	lines, total, err := s.catalogRepository.GetCatalog(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.EquipmentDTO, 0, len(lines))
	for i := range lines {
		result = append(result, *catalogEntityToDTO(&lines[i]))
	}
	return result, total, nil
}

func (s *CatalogService) FindCatalogLine(ctx context.Context, id string) (*dto.EquipmentDTO, error) {
	line, err := s.loadLine(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return catalogEntityToDTO(line), nil
}

func (s *CatalogService) loadLine(ctx context.Context, tx pgx.Tx, id string) (*entities.CatalogLine, error) {
	line, err := s.catalogRepository.FindCatalogLine(ctx, tx, id)
	if err != nil {
		return nil, notFoundAs(err, "Модель оборудования '%s' не найдена", id)
	}
	line.Attributes, err = s.attributeRepository.GetValues(ctx, tx, line.ID)
	if err != nil {
		return nil, err
	}
	return line, nil
}

// deriveCode находит тип и поставщика и вычисляет код модели.
func (s *CatalogService) deriveCode(ctx context.Context, tx pgx.Tx, typeID, vendorID string) (string, error) {
	equipmentType, err := s.categoryRepository.FindType(ctx, tx, typeID)
	if err != nil {
		return "", notFoundAs(err, "Тип оборудования '%s' не найден", typeID)
	}
	vendor, err := s.vendorRepository.FindVendor(ctx, tx, vendorID)
	if err != nil {
		return "", notFoundAs(err, "Поставщик '%s' не найден", vendorID)
	}
	return DeriveCatalogCode(equipmentType.GroupID, equipmentType.Code(), vendor.ID), nil
}

func (s *CatalogService) ensureCodeFree(ctx context.Context, tx pgx.Tx, code string) error {
	exists, err := s.catalogRepository.CodeExists(ctx, tx, code)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewDomainError(apperrors.ErrDuplicateCatalogCode,
			"Модель с кодом '%s' уже существует: для пары тип/поставщик допускается одна модель", code)
	}
	return nil
}

func (s *CatalogService) CreateCatalogLine(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	var created *entities.CatalogLine
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		code, err := s.deriveCode(ctx, tx, payload.TypeID, payload.VendorID)
		if err != nil {
			return err
		}
		if err := s.ensureCodeFree(ctx, tx, code); err != nil {
			return err
		}
		if err := checkApplicable(ctx, tx, s.attributeRepository, payload.TypeID, payload.AttributeValues); err != nil {
			return err
		}

		line := entities.CatalogLine{
			ID:               code,
			TypeID:           payload.TypeID,
			VendorID:         payload.VendorID,
			Name:             payload.Name,
			Description:      payload.Description.Ptr(),
			WarrantyDuration: payload.WarrantyDuration,
			Image:            payload.Image.Ptr(),
		}
		if err := s.catalogRepository.CreateCatalogLine(ctx, tx, line); err != nil {
			return err
		}
		if err := writeAttributeValues(ctx, tx, s.attributeRepository, &line, payload.AttributeValues); err != nil {
			return err
		}
		created, err = s.loadLine(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создана модель оборудования", zap.String("code", created.ID), zap.String("name", created.Name))
	return catalogEntityToDTO(created), nil
}

// UpdateCatalogLine сохраняет изменения модели. При смене типа или поставщика код выводится заново,
// а уже заполненные характеристики проверяются по схеме нового типа.
func (s *CatalogService) UpdateCatalogLine(ctx context.Context, id string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	var updated *entities.CatalogLine
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		line, err := s.loadLine(ctx, tx, id)
		if err != nil {
			return err
		}

		if payload.TypeID.Valid {
			line.TypeID = payload.TypeID.String
		}
		if payload.VendorID.Valid {
			line.VendorID = payload.VendorID.String
		}
		if payload.Name.Valid {
			line.Name = payload.Name.String
		}
		if payload.Description.Valid {
			line.Description = payload.Description.Ptr()
		}
		if payload.WarrantyDuration.Valid {
			line.WarrantyDuration = payload.WarrantyDuration.Int
		}
		if payload.Image.Valid {
			line.Image = payload.Image.Ptr()
		}

		code, err := s.deriveCode(ctx, tx, line.TypeID, line.VendorID)
		if err != nil {
			return err
		}
		if code != id {
			if err := s.ensureCodeFree(ctx, tx, code); err != nil {
				return err
			}
		}

		values := make(map[uint64]string, len(line.Attributes)+len(payload.AttributeValues))
		for _, v := range line.Attributes {
			values[v.AttributeID] = v.Value
		}
		for attributeID, value := range payload.AttributeValues {
			values[attributeID] = value
		}
		if err := checkApplicable(ctx, tx, s.attributeRepository, line.TypeID, values); err != nil {
			return err
		}

		line.ID = code
		if err := s.catalogRepository.UpdateCatalogLine(ctx, tx, id, *line); err != nil {
			return notFoundAs(err, "Модель оборудования '%s' не найдена", id)
		}
		if err := writeAttributeValues(ctx, tx, s.attributeRepository, line, payload.AttributeValues); err != nil {
			return err
		}
		updated, err = s.loadLine(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated.ID != id {
		s.logger.Info("Код модели оборудования изменён", zap.String("old", id), zap.String("new", updated.ID))
	}
	return catalogEntityToDTO(updated), nil
}

// PreviewCatalogCode показывает, какой код получит модель, и свободен ли он.
func (s *CatalogService) PreviewCatalogCode(ctx context.Context, typeID, vendorID string) (*dto.CatalogCodeDTO, error) {
	code, err := s.deriveCode(ctx, nil, typeID, vendorID)
	if err != nil {
		return nil, err
	}
	exists, err := s.catalogRepository.CodeExists(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	return &dto.CatalogCodeDTO{Code: code, Available: !exists}, nil
}
