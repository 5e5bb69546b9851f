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

const (
	groupTable = "equipment_groups"
	typeTable  = "equipment_types"
)

var groupMap = map[string]string{
	"id":         "g.id",
	"name":       "g.name",
	"created_at": "g.created_at",
}

var typeMap = map[string]string{
	"id":         "t.id",
	"name":       "t.name",
	"group_id":   "t.group_id",
	"created_at": "t.created_at",
}

var typeColumns = []string{
	"t.id", "t.group_id", "t.name", "t.description", "t.created_at", "t.updated_at",
	"g.id", "g.name", "g.description", "g.image", "g.created_at", "g.updated_at",
}

// CategoryRepositoryInterface - группы и типы оборудования.
type CategoryRepositoryInterface interface {
	GetGroups(ctx context.Context, filter types.Filter) ([]entities.EquipmentGroup, uint64, error)
	FindGroup(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentGroup, error)
	LockGroup(ctx context.Context, tx pgx.Tx, id string) error
	GroupExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error)
	GroupCodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error)
	CreateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error
	UpdateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error

	GetTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error)
	FindType(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentType, error)
	TypeExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error)
	GetTypeIDsByGroup(ctx context.Context, tx pgx.Tx, groupID string) ([]string, error)
	CreateType(ctx context.Context, tx pgx.Tx, equipmentType entities.EquipmentType) error
}

type CategoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCategoryRepository(storage *pgxpool.Pool, logger *zap.Logger) CategoryRepositoryInterface {
	return &CategoryRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// GROUPS
// -----------------------------------------------------------

func scanGroup(row pgx.Row) (*entities.EquipmentGroup, error) {
	var g entities.EquipmentGroup
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Image, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования группы оборудования: %w", err)
	}
	return &g, nil
}

func (r *CategoryRepository) GetGroups(ctx context.Context, filter types.Filter) ([]entities.EquipmentGroup, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"g.name": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(g.id)").From(groupTable + " AS g"))
	countBuilder = bd.ApplyListParams(countBuilder, filter.ForCount(), groupMap)
	total, err := countRows(ctx, r.storage, countBuilder)
	if err != nil || total == 0 {
		return []entities.EquipmentGroup{}, 0, err
	}

	builder := applySearch(psql.Select("g.id", "g.name", "g.description", "g.image", "g.created_at", "g.updated_at").
		From(groupTable + " AS g"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("g.name")
	}
	builder = bd.ApplyListParams(builder, filter, groupMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := make([]entities.EquipmentGroup, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		groups = append(groups, *g)
	}
	return groups, total, rows.Err()
}

func (r *CategoryRepository) FindGroup(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentGroup, error) {
	query := `SELECT id, name, description, image, created_at, updated_at FROM equipment_groups WHERE id = $1`
	return scanGroup(querierFor(r.storage, tx).QueryRow(ctx, query, id))
}

// LockGroup блокирует строку группы до конца транзакции, чтобы номера типов выдавались последовательно.
func (r *CategoryRepository) LockGroup(ctx context.Context, tx pgx.Tx, id string) error {
	var locked string
	err := querierFor(r.storage, tx).QueryRow(ctx, `SELECT id FROM equipment_groups WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return err
}

func (r *CategoryRepository) GroupExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM equipment_groups WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *CategoryRepository) GroupCodeExists(ctx context.Context, tx pgx.Tx, code string) (bool, error) {
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM equipment_groups WHERE id = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *CategoryRepository) CreateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error {
	query := `
		INSERT INTO equipment_groups (id, name, description, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query, group.ID, group.Name, group.Description, group.Image)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Группа оборудования '%s' уже существует", group.Name)
	}
	return err
}

func (r *CategoryRepository) UpdateGroup(ctx context.Context, tx pgx.Tx, group entities.EquipmentGroup) error {
	query := `
		UPDATE equipment_groups
		SET name = $1, description = $2, image = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := querierFor(r.storage, tx).Exec(ctx, query, group.Name, group.Description, group.Image, group.ID)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Группа оборудования '%s' уже существует", group.Name)
	}
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------
// TYPES
// -----------------------------------------------------------

func scanType(row pgx.Row) (*entities.EquipmentType, error) {
	var t entities.EquipmentType
	var g entities.EquipmentGroup
	err := row.Scan(
		&t.ID, &t.GroupID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt,
		&g.ID, &g.Name, &g.Description, &g.Image, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования типа оборудования: %w", err)
	}
	t.Group = &g
	return &t, nil
}

func (r *CategoryRepository) GetTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"t.name": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(t.id)").From(typeTable + " AS t"))
	countBuilder = bd.ApplyListParams(countBuilder, filter.ForCount(), typeMap)
	total, err := countRows(ctx, r.storage, countBuilder)
	if err != nil || total == 0 {
		return []entities.EquipmentType{}, 0, err
	}

	builder := applySearch(psql.Select(typeColumns...).
		From(typeTable + " AS t").
		Join(groupTable + " g ON g.id = t.group_id"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("t.id")
	}
	builder = bd.ApplyListParams(builder, filter, typeMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.EquipmentType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *t)
	}
	return list, total, rows.Err()
}

func (r *CategoryRepository) FindType(ctx context.Context, tx pgx.Tx, id string) (*entities.EquipmentType, error) {
	query, args, err := psql.Select(typeColumns...).
		From(typeTable + " AS t").
		Join(groupTable + " g ON g.id = t.group_id").
		Where(sq.Eq{"t.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanType(querierFor(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *CategoryRepository) TypeExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM equipment_types WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *CategoryRepository) GetTypeIDsByGroup(ctx context.Context, tx pgx.Tx, groupID string) ([]string, error) {
	rows, err := querierFor(r.storage, tx).Query(ctx, `SELECT id FROM equipment_types WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CategoryRepository) CreateType(ctx context.Context, tx pgx.Tx, t entities.EquipmentType) error {
	query := `
		INSERT INTO equipment_types (id, group_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query, t.ID, t.GroupID, t.Name, t.Description)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrDuplicateName, "Тип оборудования '%s' уже существует", t.Name)
	}
	return err
}
