package services

import (
	"context"

	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/types"
)

type InvoiceServiceInterface interface {
	GetInvoices(ctx context.Context, filter types.Filter) ([]dto.InvoiceDTO, uint64, error)
	FindInvoice(ctx context.Context, id uint64) (*dto.InvoiceDTO, error)
}

type InvoiceService struct {
	invoiceRepository repositories.InvoiceRepositoryInterface
	logger            *zap.Logger
}

func NewInvoiceService(invoiceRepository repositories.InvoiceRepositoryInterface, logger *zap.Logger) InvoiceServiceInterface {
	return &InvoiceService{invoiceRepository: invoiceRepository, logger: logger}
}

func (s *InvoiceService) GetInvoices(ctx context.Context, filter types.Filter) ([]dto.InvoiceDTO, uint64, error) {
	invoices, total, err := s.invoiceRepository.GetInvoices(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		result = append(result, *invoiceEntityToDTO(&invoices[i]))
	}
	return result, total, nil
}

func (s *InvoiceService) FindInvoice(ctx context.Context, id uint64) (*dto.InvoiceDTO, error) {
	invoice, err := s.invoiceRepository.FindInvoice(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Накладная #%d не найдена", id)
	}
	return invoiceEntityToDTO(invoice), nil
}
