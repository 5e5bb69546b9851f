package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-system/internal/entities"
	"equipment-system/internal/infrastructure/bd"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

const vendorTable = "vendors"

var vendorMap = map[string]string{
	"id":         "v.id",
	"name":       "v.name",
	"origin":     "v.origin",
	"created_at": "v.created_at",
}

type VendorRepositoryInterface interface {
	GetVendors(ctx context.Context, filter types.Filter) ([]entities.Vendor, uint64, error)
	FindVendor(ctx context.Context, tx pgx.Tx, id string) (*entities.Vendor, error)
	ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error)
	CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error)
	CreateVendor(ctx context.Context, tx pgx.Tx, vendor entities.Vendor) error
}

type VendorRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewVendorRepository(storage *pgxpool.Pool, logger *zap.Logger) VendorRepositoryInterface {
	return &VendorRepository{storage: storage, logger: logger}
}

func scanVendor(row pgx.Row) (*entities.Vendor, error) {
	var v entities.Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Origin, &v.Description, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования поставщика: %w", err)
	}
	return &v, nil
}

func (r *VendorRepository) GetVendors(ctx context.Context, filter types.Filter) ([]entities.Vendor, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"v.name": pat}, sq.ILike{"v.origin": pat}})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(v.id)").From(vendorTable + " AS v"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), vendorMap))
	if err != nil || total == 0 {
		return []entities.Vendor{}, 0, err
	}

	builder := applySearch(psql.Select("v.id", "v.name", "v.origin", "v.description", "v.created_at", "v.updated_at").
		From(vendorTable + " AS v"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("v.name")
	}
	query, args, err := bd.ApplyListParams(builder, filter, vendorMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vendors := make([]entities.Vendor, 0)
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, *v)
	}
	return vendors, total, rows.Err()
}

func (r *VendorRepository) FindVendor(ctx context.Context, tx pgx.Tx, id string) (*entities.Vendor, error) {
	query := `SELECT id, name, origin, description, created_at, updated_at FROM vendors WHERE id = $1`
	return scanVendor(querierFor(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *VendorRepository) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM vendors WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *VendorRepository) CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM vendors WHERE id = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *VendorRepository) CreateVendor(ctx context.Context, tx pgx.Tx, vendor entities.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, origin, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query, vendor.ID, vendor.Name, vendor.Origin, vendor.Description)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Поставщик '%s' уже существует", vendor.Name)
	}
	return err
}
