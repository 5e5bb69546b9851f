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

const disposalTable = "disposals"

var disposalMap = map[string]string{
	"id":         "d.id",
	"created_by": "d.created_by",
	"created_at": "d.created_at",
}

type DisposalRepositoryInterface interface {
	CreateDisposal(ctx context.Context, tx pgx.Tx, disposal entities.Disposal) (uint64, error)
	FindDisposal(ctx context.Context, id uint64) (*entities.Disposal, error)
	GetDisposals(ctx context.Context, filter types.Filter) ([]entities.Disposal, uint64, error)
}

type DisposalRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDisposalRepository(storage *pgxpool.Pool, logger *zap.Logger) DisposalRepositoryInterface {
	return &DisposalRepository{storage: storage, logger: logger}
}

func scanDisposal(row pgx.Row) (*entities.Disposal, error) {
	var d entities.Disposal
	err := row.Scan(&d.ID, &d.CostOriginal, &d.TotalValue, &d.CreatedBy, &d.Note, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования акта списания: %w", err)
	}
	return &d, nil
}

func (r *DisposalRepository) CreateDisposal(ctx context.Context, tx pgx.Tx, d entities.Disposal) (uint64, error) {
	q := querierFor(r.storage, tx)
	var id uint64
	err := q.QueryRow(ctx, `
		INSERT INTO disposals (cost_original, total_value, created_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.CostOriginal, d.TotalValue, d.CreatedBy, d.Note, d.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}

	builder := psql.Insert("disposal_units").Columns("disposal_id", "unit_id", "cost_original", "value_recovered")
	for _, u := range d.Units {
		builder = builder.Values(id, u.UnitID, u.CostOriginal, u.ValueRecovered)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.NewDomainError(apperrors.ErrUnitBusy, "Оборудование уже списано")
		}
		return 0, err
	}
	return id, nil
}

func (r *DisposalRepository) FindDisposal(ctx context.Context, id uint64) (*entities.Disposal, error) {
	d, err := scanDisposal(r.storage.QueryRow(ctx,
		`SELECT id, cost_original, total_value, created_by, note, created_at FROM disposals WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	units, err := r.loadUnits(ctx, []uint64{d.ID})
	if err != nil {
		return nil, err
	}
	d.Units = units[d.ID]
	return d, nil
}

func (r *DisposalRepository) GetDisposals(ctx context.Context, filter types.Filter) ([]entities.Disposal, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"d.created_by": pat}, sq.ILike{"d.note": pat}})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(d.id)").From(disposalTable + " AS d"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), disposalMap))
	if err != nil || total == 0 {
		return []entities.Disposal{}, 0, err
	}

	builder := applySearch(psql.Select("d.id", "d.cost_original", "d.total_value", "d.created_by", "d.note", "d.created_at").
		From(disposalTable + " AS d"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("d.id DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, disposalMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Disposal, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		d, err := scanDisposal(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	units, err := r.loadUnits(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Units = units[list[i].ID]
	}
	return list, total, nil
}

func (r *DisposalRepository) loadUnits(ctx context.Context, ids []uint64) (map[uint64][]entities.DisposalUnit, error) {
	result := make(map[uint64][]entities.DisposalUnit, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := psql.Select("disposal_id", "unit_id", "cost_original", "value_recovered").
		From("disposal_units").
		Where(sq.Eq{"disposal_id": ids}).
		OrderBy("unit_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var disposalID uint64
		var u entities.DisposalUnit
		if err := rows.Scan(&disposalID, &u.UnitID, &u.CostOriginal, &u.ValueRecovered); err != nil {
			return nil, err
		}
		result[disposalID] = append(result[disposalID], u)
	}
	return result, rows.Err()
}
