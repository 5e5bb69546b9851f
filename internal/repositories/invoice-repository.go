package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-system/internal/entities"
	"equipment-system/internal/infrastructure/bd"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

const invoiceTable = "invoices"

var invoiceMap = map[string]string{
	"id":         "i.id",
	"kind":       "i.kind",
	"branch_id":  "i.branch_id",
	"vendor_id":  "i.vendor_id",
	"created_at": "i.created_at",
}

type InvoiceRepositoryInterface interface {
	CreateInvoice(ctx context.Context, tx pgx.Tx, invoice entities.Invoice) (uint64, error)
	FindInvoice(ctx context.Context, id uint64) (*entities.Invoice, error)
	GetInvoices(ctx context.Context, filter types.Filter) ([]entities.Invoice, uint64, error)
}

type InvoiceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewInvoiceRepository(storage *pgxpool.Pool, logger *zap.Logger) InvoiceRepositoryInterface {
	return &InvoiceRepository{storage: storage, logger: logger}
}

func scanInvoice(row pgx.Row) (*entities.Invoice, error) {
	var i entities.Invoice
	err := row.Scan(&i.ID, &i.Kind, &i.BranchID, &i.VendorID, &i.Subtotal, &i.Tax, &i.Total, &i.CreatedBy, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования накладной: %w", err)
	}
	return &i, nil
}

func (r *InvoiceRepository) CreateInvoice(ctx context.Context, tx pgx.Tx, inv entities.Invoice) (uint64, error) {
	q := querierFor(r.storage, tx)
	var id uint64
	err := q.QueryRow(ctx, `
		INSERT INTO invoices (kind, branch_id, vendor_id, subtotal, tax, total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, inv.Kind, inv.BranchID, inv.VendorID, inv.Subtotal, inv.Tax, inv.Total, inv.CreatedBy, inv.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, line := range inv.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, catalog_id, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5)
		`, id, line.CatalogID, line.Quantity, line.UnitPrice, line.Amount)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *InvoiceRepository) FindInvoice(ctx context.Context, id uint64) (*entities.Invoice, error) {
	inv, err := scanInvoice(r.storage.QueryRow(ctx, `
		SELECT id, kind, branch_id, vendor_id, subtotal, tax, total, created_by, created_at
		FROM invoices WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, `
		SELECT id, invoice_id, catalog_id, quantity, unit_price, amount
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l entities.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.CatalogID, &l.Quantity, &l.UnitPrice, &l.Amount); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func (r *InvoiceRepository) GetInvoices(ctx context.Context, filter types.Filter) ([]entities.Invoice, uint64, error) {
	countBuilder := psql.Select("COUNT(i.id)").From(invoiceTable + " AS i")
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), invoiceMap))
	if err != nil || total == 0 {
		return []entities.Invoice{}, 0, err
	}

	builder := psql.Select(
		"i.id", "i.kind", "i.branch_id", "i.vendor_id", "i.subtotal", "i.tax", "i.total", "i.created_by", "i.created_at",
	).From(invoiceTable + " AS i")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("i.id DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, invoiceMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *inv)
	}
	return list, total, rows.Err()
}

