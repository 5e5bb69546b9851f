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

const unitTable = "equipment_units"

var unitMap = map[string]string{
	"id":                  "u.id",
	"status":              "u.status",
	"branch_id":           "u.branch_id",
	"catalog_id":          "u.catalog_id",
	"type_id":             "c.type_id",
	"group_id":            "t.group_id",
	"vendor_id":           "c.vendor_id",
	"invoice_id":          "u.invoice_id",
	"warranty_start_date": "u.warranty_start_date",
	"created_at":          "u.created_at",
}

var unitColumns = []string{
	"u.id", "u.catalog_id", "u.branch_id", "u.status", "u.warranty_start_date", "u.warranty_duration",
	"u.import_price", "u.invoice_id", "u.created_at", "u.updated_at",
	"c.name", "c.type_id", "t.name", "t.group_id", "g.name", "c.vendor_id", "v.name", "b.name",
}

// UnitRepositoryInterface - единицы оборудования, их история и блокировки процессов.
type UnitRepositoryInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error)
	FindUnit(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Unit, error)
	// LockUnits читает единицы с блокировкой строк (FOR UPDATE) в порядке id.
	LockUnits(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Unit, error)
	CreateUnits(ctx context.Context, tx pgx.Tx, units []entities.Unit) ([]uint64, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status lifecycle.Status) error
	UpdateBranch(ctx context.Context, tx pgx.Tx, id uint64, branchID uint64) error

	AddEvent(ctx context.Context, tx pgx.Tx, event entities.UnitEvent) error
	GetEvents(ctx context.Context, unitID uint64) ([]entities.UnitEvent, error)

	// AcquireLock открывает процесс на единице; если он уже открыт - ErrUnitBusy.
	AcquireLock(ctx context.Context, tx pgx.Tx, lock entities.WorkflowLock) error
	ReleaseLock(ctx context.Context, tx pgx.Tx, unitID uint64) error
	FindLocks(ctx context.Context, tx pgx.Tx, unitIDs []uint64) (map[uint64]entities.WorkflowLock, error)
}

type UnitRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUnitRepository(storage *pgxpool.Pool, logger *zap.Logger) UnitRepositoryInterface {
	return &UnitRepository{storage: storage, logger: logger}
}

func unitSelect() sq.SelectBuilder {
	return psql.Select(unitColumns...).
		From(unitTable + " AS u").
		Join(catalogTable + " c ON c.id = u.catalog_id").
		Join(typeTable + " t ON t.id = c.type_id").
		Join(groupTable + " g ON g.id = t.group_id").
		Join(vendorTable + " v ON v.id = c.vendor_id").
		Join(branchTable + " b ON b.id = u.branch_id")
}

func scanUnit(row pgx.Row) (*entities.Unit, error) {
	var u entities.Unit
	err := row.Scan(
		&u.ID, &u.CatalogID, &u.BranchID, &u.Status, &u.WarrantyStartDate, &u.WarrantyDuration,
		&u.ImportPrice, &u.InvoiceID, &u.CreatedAt, &u.UpdatedAt,
		&u.CatalogName, &u.TypeID, &u.TypeName, &u.GroupID, &u.GroupName, &u.VendorID, &u.VendorName, &u.BranchName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования единицы оборудования: %w", err)
	}
	return &u, nil
}

func collectUnits(rows pgx.Rows) ([]entities.Unit, error) {
	defer rows.Close()
	units := make([]entities.Unit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

func (r *UnitRepository) GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"c.name": pat}, sq.ILike{"u.catalog_id": pat}})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(u.id)").
		From(unitTable + " AS u").
		Join(catalogTable + " c ON c.id = u.catalog_id").
		Join(typeTable + " t ON t.id = c.type_id"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), unitMap))
	if err != nil || total == 0 {
		return []entities.Unit{}, 0, err
	}

	builder := applySearch(unitSelect())
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("u.id DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, unitMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	units, err := collectUnits(rows)
	return units, total, err
}

func (r *UnitRepository) FindUnit(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Unit, error) {
	query, args, err := unitSelect().Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUnit(querierFor(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *UnitRepository) LockUnits(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Unit, error) {
	if len(ids) == 0 {
		return []entities.Unit{}, nil
	}
	query, args, err := unitSelect().
		Where(sq.Eq{"u.id": ids}).
		OrderBy("u.id").
		Suffix("FOR UPDATE OF u").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := querierFor(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectUnits(rows)
}

func (r *UnitRepository) CreateUnits(ctx context.Context, tx pgx.Tx, units []entities.Unit) ([]uint64, error) {
	if len(units) == 0 {
		return []uint64{}, nil
	}
	builder := psql.Insert(unitTable).Columns(
		"catalog_id", "branch_id", "status", "warranty_start_date", "warranty_duration",
		"import_price", "invoice_id", "created_at", "updated_at",
	)
	for _, u := range units {
		builder = builder.Values(
			u.CatalogID, u.BranchID, string(u.Status), u.WarrantyStartDate, u.WarrantyDuration,
			u.ImportPrice, u.InvoiceID, sq.Expr("NOW()"), sq.Expr("NOW()"),
		)
	}
	query, args, err := builder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querierFor(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0, len(units))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UnitRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status lifecycle.Status) error {
	result, err := querierFor(r.storage, tx).Exec(ctx,
		`UPDATE equipment_units SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UnitRepository) UpdateBranch(ctx context.Context, tx pgx.Tx, id uint64, branchID uint64) error {
	result, err := querierFor(r.storage, tx).Exec(ctx,
		`UPDATE equipment_units SET branch_id = $1, updated_at = NOW() WHERE id = $2`, branchID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UnitRepository) AddEvent(ctx context.Context, tx pgx.Tx, e entities.UnitEvent) error {
	query := `
		INSERT INTO unit_events (unit_id, event, from_status, to_status, ref_kind, ref_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}
	_, err := querierFor(r.storage, tx).Exec(ctx, query,
		e.UnitID, string(e.Event), from, string(e.ToStatus), e.RefKind, e.RefID, e.Actor,
	)
	return err
}

func (r *UnitRepository) GetEvents(ctx context.Context, unitID uint64) ([]entities.UnitEvent, error) {
	query := `
		SELECT id, unit_id, event, from_status, to_status, ref_kind, ref_id, actor, created_at
		FROM unit_events
		WHERE unit_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.storage.Query(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]entities.UnitEvent, 0)
	for rows.Next() {
		var e entities.UnitEvent
		var event, to string
		var from *string
		if err := rows.Scan(&e.ID, &e.UnitID, &event, &from, &to, &e.RefKind, &e.RefID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Event = lifecycle.Event(event)
		e.ToStatus = lifecycle.Status(to)
		if from != nil {
			st := lifecycle.Status(*from)
			e.FromStatus = &st
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *UnitRepository) AcquireLock(ctx context.Context, tx pgx.Tx, lock entities.WorkflowLock) error {
	query := `
		INSERT INTO unit_workflow_locks (unit_id, workflow, ref_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := querierFor(r.storage, tx).Exec(ctx, query, lock.UnitID, lock.Workflow, lock.RefID)
	if isUniqueViolation(err) {
		return apperrors.NewDomainError(apperrors.ErrUnitBusy,
			"Оборудование #%d уже участвует в другом процессе", lock.UnitID)
	}
	return err
}

func (r *UnitRepository) ReleaseLock(ctx context.Context, tx pgx.Tx, unitID uint64) error {
	_, err := querierFor(r.storage, tx).Exec(ctx, `DELETE FROM unit_workflow_locks WHERE unit_id = $1`, unitID)
	return err
}

func (r *UnitRepository) FindLocks(ctx context.Context, tx pgx.Tx, unitIDs []uint64) (map[uint64]entities.WorkflowLock, error) {
	locks := make(map[uint64]entities.WorkflowLock, len(unitIDs))
	if len(unitIDs) == 0 {
		return locks, nil
	}
	query, args, err := psql.Select("unit_id", "workflow", "ref_id", "created_at").
		From("unit_workflow_locks").
		Where(sq.Eq{"unit_id": unitIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := querierFor(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l entities.WorkflowLock
		if err := rows.Scan(&l.UnitID, &l.Workflow, &l.RefID, &l.CreatedAt); err != nil {
			return nil, err
		}
		locks[l.UnitID] = l
	}
	return locks, rows.Err()
}
