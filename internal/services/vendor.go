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
	"equipment-system/pkg/utils"
)

const vendorCodeSize = 3

type VendorServiceInterface interface {
	GetVendors(ctx context.Context, filter types.Filter) ([]dto.VendorDTO, uint64, error)
	FindVendor(ctx context.Context, id string) (*dto.VendorDTO, error)
	CreateVendor(ctx context.Context, payload dto.CreateVendorDTO) (*dto.VendorDTO, error)
}

type VendorService struct {
	txManager        repositories.TxManagerInterface
	vendorRepository repositories.VendorRepositoryInterface
	logger           *zap.Logger
}

func NewVendorService(
	txManager repositories.TxManagerInterface,
	vendorRepository repositories.VendorRepositoryInterface,
	logger *zap.Logger,
) VendorServiceInterface {
	return &VendorService{
		txManager:        txManager,
		vendorRepository: vendorRepository,
		logger:           logger,
	}
}

func vendorEntityToDTO(entity *entities.Vendor) *dto.VendorDTO {
	if entity == nil {
		return nil
	}
	return &dto.VendorDTO{
		ID:          entity.ID,
		Name:        entity.Name,
		Origin:      entity.Origin,
		Description: entity.Description,
		CreatedAt:   formatTimestamp(entity.CreatedAt),
		UpdatedAt:   formatTimestamp(entity.UpdatedAt),
	}
}

func (s *VendorService) GetVendors(ctx context.Context, filter types.Filter) ([]dto.VendorDTO, uint64, error) {
	vendors, total, err := s.vendorRepository.GetVendors(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.VendorDTO, 0, len(vendors))
	for i := range vendors {
		result = append(result, *vendorEntityToDTO(&vendors[i]))
	}
	return result, total, nil
}

func (s *VendorService) FindVendor(ctx context.Context, id string) (*dto.VendorDTO, error) {
	vendor, err := s.vendorRepository.FindVendor(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, "Поставщик '%s' не найден", id)
	}
	return vendorEntityToDTO(vendor), nil
}

// CreateVendor регистрирует поставщика. Код - три буквы из названия ("Technogym" -> "TEC").
func (s *VendorService) CreateVendor(ctx context.Context, payload dto.CreateVendorDTO) (*dto.VendorDTO, error) {
	base := utils.GenerateShortCode(payload.Name, vendorCodeSize)
	if base == "" {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest,
			"Не удалось сформировать код поставщика из названия '%s'", payload.Name)
	}

	var created *entities.Vendor
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		exists, err := s.vendorRepository.ExistsByName(ctx, tx, payload.Name, "")
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Поставщик '%s' уже существует", payload.Name)
		}

		code, err := uniqueCode(base, func(code string) (bool, error) {
			return s.vendorRepository.CodeExists(ctx, tx, code)
		})
		if err != nil {
			return err
		}

		vendor := entities.Vendor{
			ID:          code,
			Name:        payload.Name,
			Origin:      payload.Origin.Ptr(),
			Description: payload.Description.Ptr(),
		}
		if err := s.vendorRepository.CreateVendor(ctx, tx, vendor); err != nil {
			return err
		}
		created, err = s.vendorRepository.FindVendor(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создан поставщик", zap.String("code", created.ID), zap.String("name", created.Name))
	return vendorEntityToDTO(created), nil
}
