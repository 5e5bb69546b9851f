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

const catalogTable = "equipment_catalog"

var catalogMap = map[string]string{
	"id":         "c.id",
	"name":       "c.name",
	"type_id":    "c.type_id",
	"vendor_id":  "c.vendor_id",
	"group_id":   "t.group_id",
	"created_at": "c.created_at",
}

var catalogColumns = []string{
	"c.id", "c.type_id", "c.vendor_id", "c.name", "c.description", "c.warranty_duration", "c.image",
	"c.created_at", "c.updated_at",
	"t.group_id", "g.name", "t.name", "v.name",
}

// CatalogRepositoryInterface - модели оборудования (строки каталога).
type CatalogRepositoryInterface interface {
	GetCatalog(ctx context.Context, filter types.Filter) ([]entities.CatalogLine, uint64, error)
	FindCatalogLine(ctx context.Context, tx pgx.Tx, id string) (*entities.CatalogLine, error)
	CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error)
	CreateCatalogLine(ctx context.Context, tx pgx.Tx, line entities.CatalogLine) error
	// UpdateCatalogLine сохраняет модель; если код изменился, ссылки переезжают каскадно.
	UpdateCatalogLine(ctx context.Context, tx pgx.Tx, oldID string, line entities.CatalogLine) error
}

type CatalogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCatalogRepository(storage *pgxpool.Pool, logger *zap.Logger) CatalogRepositoryInterface {
	return &CatalogRepository{storage: storage, logger: logger}
}

func catalogSelect() sq.SelectBuilder {
	return psql.Select(catalogColumns...).
		From(catalogTable + " AS c").
		Join(typeTable + " t ON t.id = c.type_id").
		Join(groupTable + " g ON g.id = t.group_id").
		Join(vendorTable + " v ON v.id = c.vendor_id")
}

func scanCatalogLine(row pgx.Row) (*entities.CatalogLine, error) {
	var c entities.CatalogLine
	err := row.Scan(
		&c.ID, &c.TypeID, &c.VendorID, &c.Name, &c.Description, &c.WarrantyDuration, &c.Image,
		&c.CreatedAt, &c.UpdatedAt,
		&c.GroupID, &c.GroupName, &c.TypeName, &c.VendorName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования модели оборудования: %w", err)
	}
	return &c, nil
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, filter types.Filter) ([]entities.CatalogLine, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"c.name": pat}, sq.ILike{"c.id": pat}})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(c.id)").
		From(catalogTable + " AS c").
		Join(typeTable + " t ON t.id = c.type_id"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), catalogMap))
	if err != nil || total == 0 {
		return []entities.CatalogLine{}, 0, err
	}

	builder := applySearch(catalogSelect())
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("c.created_at DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, catalogMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lines := make([]entities.CatalogLine, 0)
	for rows.Next() {
		line, err := scanCatalogLine(rows)
		if err != nil {
			return nil, 0, err
		}
		lines = append(lines, *line)
	}
	return lines, total, rows.Err()
}

func (r *CatalogRepository) FindCatalogLine(ctx context.Context, tx pgx.Tx, id string) (*entities.CatalogLine, error) {
	query, args, err := catalogSelect().Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanCatalogLine(querierFor(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *CatalogRepository) CodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM equipment_catalog WHERE id = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *CatalogRepository) CreateCatalogLine(ctx context.Context, tx pgx.Tx, line entities.CatalogLine) error {
	query := `
		INSERT INTO equipment_catalog (id, type_id, vendor_id, name, description, warranty_duration, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query,
		line.ID, line.TypeID, line.VendorID, line.Name, line.Description, line.WarrantyDuration, line.Image,
	)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateCatalogCode, "Код модели '%s' уже используется", line.ID)
	}
	return err
}

func (r *CatalogRepository) UpdateCatalogLine(ctx context.Context, tx pgx.Tx, oldID string, line entities.CatalogLine) error {
	query := `
		UPDATE equipment_catalog
		SET id = $1, type_id = $2, vendor_id = $3, name = $4, description = $5,
		    warranty_duration = $6, image = $7, updated_at = NOW()
		WHERE id = $8
	`
	result, err := querierFor(r.storage, tx).Exec(ctx, query,
		line.ID, line.TypeID, line.VendorID, line.Name, line.Description, line.WarrantyDuration, line.Image, oldID,
	)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateCatalogCode, "Код модели '%s' уже используется", line.ID)
	}
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
