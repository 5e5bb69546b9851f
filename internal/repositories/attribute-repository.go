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

const attributeTable = "attributes"

var attributeMap = map[string]string{
	"id":         "a.id",
	"name":       "a.name",
	"created_at": "a.created_at",
}

// AttributeRepositoryInterface - справочник характеристик, их привязка к типам и значения у моделей.
type AttributeRepositoryInterface interface {
	GetAttributes(ctx context.Context, filter types.Filter) ([]entities.Attribute, uint64, error)
	FindAttributes(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Attribute, error)
	ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error)
	CreateAttribute(ctx context.Context, tx pgx.Tx, name string) (*entities.Attribute, error)

	BindToType(ctx context.Context, tx pgx.Tx, typeID string, attributeIDs []uint64) error
	UnbindFromType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) error
	GetTypeAttributes(ctx context.Context, tx pgx.Tx, typeID string) ([]entities.Attribute, error)
	CountValuesForType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) (int, error)

	UpsertValue(ctx context.Context, tx pgx.Tx, catalogID string, attributeID uint64, value string) error
	GetValues(ctx context.Context, tx pgx.Tx, catalogID string) ([]entities.AttributeValue, error)
}

type AttributeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAttributeRepository(storage *pgxpool.Pool, logger *zap.Logger) AttributeRepositoryInterface {
	return &AttributeRepository{storage: storage, logger: logger}
}

func scanAttribute(row pgx.Row) (*entities.Attribute, error) {
	var a entities.Attribute
	err := row.Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования характеристики: %w", err)
	}
	return &a, nil
}

func collectAttributes(rows pgx.Rows) ([]entities.Attribute, error) {
	defer rows.Close()
	list := make([]entities.Attribute, 0)
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (r *AttributeRepository) GetAttributes(ctx context.Context, filter types.Filter) ([]entities.Attribute, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"a.name": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(a.id)").From(attributeTable + " AS a"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), attributeMap))
	if err != nil || total == 0 {
		return []entities.Attribute{}, 0, err
	}

	builder := applySearch(psql.Select("a.id", "a.name", "a.created_at").From(attributeTable + " AS a"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("a.name")
	}
	query, args, err := bd.ApplyListParams(builder, filter, attributeMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectAttributes(rows)
	return list, total, err
}

// FindAttributes возвращает найденные характеристики; отсутствующие id просто не попадают в результат.
func (r *AttributeRepository) FindAttributes(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Attribute, error) {
	if len(ids) == 0 {
		return []entities.Attribute{}, nil
	}
	query, args, err := psql.Select("id", "name", "created_at").From(attributeTable).
		Where(sq.Eq{"id": ids}).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := querierFor(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectAttributes(rows)
}

func (r *AttributeRepository) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM attributes WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *AttributeRepository) CreateAttribute(ctx context.Context, tx pgx.Tx, name string) (*entities.Attribute, error) {
	query := `INSERT INTO attributes (name, created_at) VALUES ($1, NOW()) RETURNING id, name, created_at`
	attr, err := scanAttribute(querierFor(r.storage, tx).QueryRow(ctx, query, name))
	if isUniqueViolation(err) {
		return nil, apperrors.NewDomainError(apperrors.ErrDuplicateAttribute, "Характеристика '%s' уже существует", name)
	}
	return attr, err
}

// BindToType добавляет привязки; уже существующие пары пропускаются.
func (r *AttributeRepository) BindToType(ctx context.Context, tx pgx.Tx, typeID string, attributeIDs []uint64) error {
	if len(attributeIDs) == 0 {
		return nil
	}
	builder := psql.Insert("type_attributes").Columns("type_id", "attribute_id")
	for _, id := range attributeIDs {
		builder = builder.Values(typeID, id)
	}
	query, args, err := builder.Suffix("ON CONFLICT (type_id, attribute_id) DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	_, err = querierFor(r.storage, tx).Exec(ctx, query, args...)
	return err
}

func (r *AttributeRepository) UnbindFromType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) error {
	result, err := querierFor(r.storage, tx).Exec(ctx,
		`DELETE FROM type_attributes WHERE type_id = $1 AND attribute_id = $2`, typeID, attributeID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AttributeRepository) GetTypeAttributes(ctx context.Context, tx pgx.Tx, typeID string) ([]entities.Attribute, error) {
	query := `
		SELECT a.id, a.name, a.created_at
		FROM type_attributes ta
		JOIN attributes a ON a.id = ta.attribute_id
		WHERE ta.type_id = $1
		ORDER BY a.name
	`
	rows, err := querierFor(r.storage, tx).Query(ctx, query, typeID)
	if err != nil {
		return nil, err
	}
	return collectAttributes(rows)
}

func (r *AttributeRepository) CountValuesForType(ctx context.Context, tx pgx.Tx, typeID string, attributeID uint64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM catalog_attribute_values v
		JOIN equipment_catalog c ON c.id = v.catalog_id
		WHERE c.type_id = $1 AND v.attribute_id = $2
	`
	var count int
	err := querierFor(r.storage, tx).QueryRow(ctx, query, typeID, attributeID).Scan(&count)
	return count, err
}

func (r *AttributeRepository) UpsertValue(ctx context.Context, tx pgx.Tx, catalogID string, attributeID uint64, value string) error {
	query := `
		INSERT INTO catalog_attribute_values (catalog_id, attribute_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (catalog_id, attribute_id) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query, catalogID, attributeID, value)
	if isForeignKeyViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrNotFound, "Модель или характеристика не найдена")
	}
	return err
}

func (r *AttributeRepository) GetValues(ctx context.Context, tx pgx.Tx, catalogID string) ([]entities.AttributeValue, error) {
	query := `
		SELECT v.attribute_id, a.name, v.value
		FROM catalog_attribute_values v
		JOIN attributes a ON a.id = v.attribute_id
		WHERE v.catalog_id = $1
		ORDER BY a.name
	`
	rows, err := querierFor(r.storage, tx).Query(ctx, query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]entities.AttributeValue, 0)
	for rows.Next() {
		var v entities.AttributeValue
		if err := rows.Scan(&v.AttributeID, &v.Name, &v.Value); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
