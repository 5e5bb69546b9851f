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
	"equipment-system/internal/lifecycle"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

const transferTable = "transfers"

var transferMap = map[string]string{
	"id":              "tr.id",
	"status":          "tr.status",
	"from_branch_id":  "tr.from_branch_id",
	"to_branch_id":    "tr.to_branch_id",
	"move_start_date": "tr.move_start_date",
	"created_at":      "tr.created_at",
}

const transferColumns = "id, from_branch_id, to_branch_id, status, requested_by, received_by, move_start_date, move_receive_date, note, created_at, updated_at"

type TransferRepositoryInterface interface {
	CreateTransfer(ctx context.Context, tx pgx.Tx, transfer entities.Transfer) (uint64, error)
	FindTransfer(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Transfer, error)
	CompleteTransfer(ctx context.Context, tx pgx.Tx, transfer entities.Transfer) error
	GetTransfers(ctx context.Context, filter types.Filter) ([]entities.Transfer, uint64, error)
}

type TransferRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTransferRepository(storage *pgxpool.Pool, logger *zap.Logger) TransferRepositoryInterface {
	return &TransferRepository{storage: storage, logger: logger}
}

func scanTransfer(row pgx.Row) (*entities.Transfer, error) {
	var t entities.Transfer
	err := row.Scan(
		&t.ID, &t.FromBranchID, &t.ToBranchID, &t.Status, &t.RequestedBy, &t.ReceivedBy,
		&t.MoveStartDate, &t.MoveReceiveDate, &t.Note, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования перемещения: %w", err)
	}
	return &t, nil
}

// CreateTransfer сохраняет запись перемещения вместе со списком единиц.
func (r *TransferRepository) CreateTransfer(ctx context.Context, tx pgx.Tx, t entities.Transfer) (uint64, error) {
	q := querierFor(r.storage, tx)
	query := `
		INSERT INTO transfers (from_branch_id, to_branch_id, status, requested_by, move_start_date, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id uint64
	if err := q.QueryRow(ctx, query,
		t.FromBranchID, t.ToBranchID, t.Status, t.RequestedBy, t.MoveStartDate, t.Note, t.CreatedAt, t.UpdatedAt,
	).Scan(&id); err != nil {
		return 0, err
	}

	if len(t.Units) == 0 {
		return id, nil
	}
	builder := psql.Insert("transfer_units").Columns("transfer_id", "unit_id", "previous_status")
	for _, u := range t.Units {
		builder = builder.Values(id, u.UnitID, string(u.PreviousStatus))
	}
	unitsQuery, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := q.Exec(ctx, unitsQuery, args...); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TransferRepository) FindTransfer(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Transfer, error) {
	q := querierFor(r.storage, tx)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", transferColumns, transferTable)
	if tx != nil {
		query += " FOR UPDATE"
	}
	t, err := scanTransfer(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	units, err := r.loadUnits(ctx, q, []uint64{t.ID})
	if err != nil {
		return nil, err
	}
	t.Units = units[t.ID]
	return t, nil
}

func (r *TransferRepository) CompleteTransfer(ctx context.Context, tx pgx.Tx, t entities.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $1, received_by = $2, move_receive_date = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := querierFor(r.storage, tx).Exec(ctx, query, t.Status, t.ReceivedBy, t.MoveReceiveDate, t.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TransferRepository) GetTransfers(ctx context.Context, filter types.Filter) ([]entities.Transfer, uint64, error) {
	countBuilder := psql.Select("COUNT(tr.id)").From(transferTable + " AS tr")
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), transferMap))
	if err != nil || total == 0 {
		return []entities.Transfer{}, 0, err
	}

	builder := psql.Select(prefixColumns("tr", transferColumns)...).From(transferTable + " AS tr")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("tr.id DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, transferMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transfers := make([]entities.Transfer, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		transfers = append(transfers, *t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	units, err := r.loadUnits(ctx, r.storage, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range transfers {
		transfers[i].Units = units[transfers[i].ID]
	}
	return transfers, total, nil
}

func (r *TransferRepository) loadUnits(ctx context.Context, q Querier, transferIDs []uint64) (map[uint64][]entities.TransferUnit, error) {
	result := make(map[uint64][]entities.TransferUnit, len(transferIDs))
	if len(transferIDs) == 0 {
		return result, nil
	}
	query, args, err := psql.Select("transfer_id", "unit_id", "previous_status").
		From("transfer_units").
		Where(sq.Eq{"transfer_id": transferIDs}).
		OrderBy("unit_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var transferID uint64
		var u entities.TransferUnit
		var prev string
		if err := rows.Scan(&transferID, &u.UnitID, &prev); err != nil {
			return nil, err
		}
		u.PreviousStatus = lifecycle.Status(prev)
		result[transferID] = append(result[transferID], u)
	}
	return result, rows.Err()
}
