package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-system/internal/entities"
	"equipment-system/internal/infrastructure/bd"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
)

const (
	maintenanceTable = "maintenance_records"
	planTable        = "maintenance_plans"
)

var maintenanceMap = map[string]string{
	"id":         "m.id",
	"unit_id":    "m.unit_id",
	"status":     "m.status",
	"result":     "m.result",
	"technician": "m.technician",
	"date_start": "m.date_start",
	"created_at": "m.created_at",
}

var planMap = map[string]string{
	"id":                    "p.id",
	"unit_id":               "p.unit_id",
	"frequency":             "p.frequency",
	"next_maintenance_date": "p.next_maintenance_date",
	"created_at":            "p.created_at",
}

const maintenanceColumns = "id, unit_id, status, requested_by, technician, date_start, date_end, cost, note, result, approved_by, created_at, updated_at"
const planColumns = "id, unit_id, frequency, next_maintenance_date, last_maintenance_date, note, created_by, created_at, updated_at"

type MaintenanceRepositoryInterface interface {
	GetRecords(ctx context.Context, filter types.Filter) ([]entities.MaintenanceRecord, uint64, error)
	FindRecord(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRecord, error)
	// FindOpenRecordByUnit возвращает nil, nil, если открытой заявки нет.
	FindOpenRecordByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenanceRecord, error)
	CreateRecord(ctx context.Context, tx pgx.Tx, record entities.MaintenanceRecord) (uint64, error)
	UpdateRecord(ctx context.Context, tx pgx.Tx, record entities.MaintenanceRecord) error

	GetPlans(ctx context.Context, filter types.Filter) ([]entities.MaintenancePlan, uint64, error)
	FindPlan(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenancePlan, error)
	// FindPlanByUnit возвращает nil, nil, если плана нет.
	FindPlanByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenancePlan, error)
	CreatePlan(ctx context.Context, tx pgx.Tx, plan entities.MaintenancePlan) (uint64, error)
	UpdatePlan(ctx context.Context, tx pgx.Tx, plan entities.MaintenancePlan) error
	DuePlans(ctx context.Context, until time.Time) ([]entities.MaintenancePlan, error)
}

type MaintenanceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMaintenanceRepository(storage *pgxpool.Pool, logger *zap.Logger) MaintenanceRepositoryInterface {
	return &MaintenanceRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// RECORDS
// -----------------------------------------------------------

func scanMaintenanceRecord(row pgx.Row) (*entities.MaintenanceRecord, error) {
	var m entities.MaintenanceRecord
	err := row.Scan(
		&m.ID, &m.UnitID, &m.Status, &m.RequestedBy, &m.Technician, &m.DateStart, &m.DateEnd,
		&m.Cost, &m.Note, &m.Result, &m.ApprovedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования заявки на ремонт: %w", err)
	}
	return &m, nil
}

func (r *MaintenanceRepository) GetRecords(ctx context.Context, filter types.Filter) ([]entities.MaintenanceRecord, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{sq.ILike{"m.technician": pat}, sq.ILike{"m.note": pat}, sq.ILike{"m.requested_by": pat}})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(m.id)").From(maintenanceTable + " AS m"))
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), maintenanceMap))
	if err != nil || total == 0 {
		return []entities.MaintenanceRecord{}, 0, err
	}

	builder := applySearch(psql.Select(prefixColumns("m", maintenanceColumns)...).From(maintenanceTable + " AS m"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("m.id DESC")
	}
	query, args, err := bd.ApplyListParams(builder, filter, maintenanceMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]entities.MaintenanceRecord, 0)
	for rows.Next() {
		m, err := scanMaintenanceRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *m)
	}
	return records, total, rows.Err()
}

func (r *MaintenanceRepository) FindRecord(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", maintenanceColumns, maintenanceTable)
	if tx != nil {
		query += " FOR UPDATE"
	}
	return scanMaintenanceRecord(querierFor(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *MaintenanceRepository) FindOpenRecordByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenanceRecord, error) {
	query, args, err := psql.Select(maintenanceColumns).From(maintenanceTable).
		Where(sq.Eq{
			"unit_id": unitID,
			"status": []string{
				constants.MaintenancePending, constants.MaintenanceInProgress, constants.MaintenanceAwaitingApproval,
			},
		}).
		OrderBy("id DESC").Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	rec, err := scanMaintenanceRecord(querierFor(r.storage, tx).QueryRow(ctx, query, args...))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (r *MaintenanceRepository) CreateRecord(ctx context.Context, tx pgx.Tx, m entities.MaintenanceRecord) (uint64, error) {
	query := `
		INSERT INTO maintenance_records (unit_id, status, requested_by, technician, date_start, date_end, cost, note, result, approved_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`
	var id uint64
	err := querierFor(r.storage, tx).QueryRow(ctx, query,
		m.UnitID, m.Status, m.RequestedBy, m.Technician, m.DateStart, m.DateEnd, m.Cost, m.Note, m.Result, m.ApprovedBy,
	).Scan(&id)
	return id, err
}

func (r *MaintenanceRepository) UpdateRecord(ctx context.Context, tx pgx.Tx, m entities.MaintenanceRecord) error {
	query := `
		UPDATE maintenance_records
		SET status = $1, technician = $2, date_start = $3, date_end = $4, cost = $5, note = $6,
		    result = $7, approved_by = $8, updated_at = NOW()
		WHERE id = $9
	`
	result, err := querierFor(r.storage, tx).Exec(ctx, query,
		m.Status, m.Technician, m.DateStart, m.DateEnd, m.Cost, m.Note, m.Result, m.ApprovedBy, m.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------
// PLANS
// -----------------------------------------------------------

func scanPlan(row pgx.Row) (*entities.MaintenancePlan, error) {
	var p entities.MaintenancePlan
	var frequency string
	err := row.Scan(
		&p.ID, &p.UnitID, &frequency, &p.NextMaintenanceDate, &p.LastMaintenanceDate,
		&p.Note, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования плана обслуживания: %w", err)
	}
	p.Frequency = constants.Frequency(frequency)
	return &p, nil
}

func collectPlans(rows pgx.Rows) ([]entities.MaintenancePlan, error) {
	defer rows.Close()
	plans := make([]entities.MaintenancePlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *MaintenanceRepository) GetPlans(ctx context.Context, filter types.Filter) ([]entities.MaintenancePlan, uint64, error) {
	countBuilder := psql.Select("COUNT(p.id)").From(planTable + " AS p")
	total, err := countRows(ctx, r.storage, bd.ApplyListParams(countBuilder, filter.ForCount(), planMap))
	if err != nil || total == 0 {
		return []entities.MaintenancePlan{}, 0, err
	}

	builder := psql.Select(prefixColumns("p", planColumns)...).From(planTable + " AS p")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("p.next_maintenance_date")
	}
	query, args, err := bd.ApplyListParams(builder, filter, planMap).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	plans, err := collectPlans(rows)
	return plans, total, err
}

func (r *MaintenanceRepository) FindPlan(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenancePlan, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", planColumns, planTable)
	return scanPlan(querierFor(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *MaintenanceRepository) FindPlanByUnit(ctx context.Context, tx pgx.Tx, unitID uint64) (*entities.MaintenancePlan, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE unit_id = $1", planColumns, planTable)
	plan, err := scanPlan(querierFor(r.storage, tx).QueryRow(ctx, query, unitID))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return plan, err
}

func (r *MaintenanceRepository) CreatePlan(ctx context.Context, tx pgx.Tx, p entities.MaintenancePlan) (uint64, error) {
	query := `
		INSERT INTO maintenance_plans (unit_id, frequency, next_maintenance_date, last_maintenance_date, note, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`
	var id uint64
	err := querierFor(r.storage, tx).QueryRow(ctx, query,
		p.UnitID, string(p.Frequency), p.NextMaintenanceDate, p.LastMaintenanceDate, p.Note, p.CreatedBy,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, apperrors.NewDomainError(apperrors.ErrBadRequest, "План обслуживания для оборудования #%d уже существует", p.UnitID)
	}
	return id, err
}

func (r *MaintenanceRepository) UpdatePlan(ctx context.Context, tx pgx.Tx, p entities.MaintenancePlan) error {
	query := `
		UPDATE maintenance_plans
		SET frequency = $1, next_maintenance_date = $2, last_maintenance_date = $3, note = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := querierFor(r.storage, tx).Exec(ctx, query,
		string(p.Frequency), p.NextMaintenanceDate, p.LastMaintenanceDate, p.Note, p.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DuePlans - планы, срок которых наступает не позже until. Списанное оборудование пропускается.
func (r *MaintenanceRepository) DuePlans(ctx context.Context, until time.Time) ([]entities.MaintenancePlan, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s p
		JOIN equipment_units u ON u.id = p.unit_id
		WHERE p.next_maintenance_date <= $1 AND u.status <> 'DISPOSED'
		ORDER BY p.next_maintenance_date, p.id
	`, joinColumns(prefixColumns("p", planColumns)), planTable)
	rows, err := r.storage.Query(ctx, query, until)
	if err != nil {
		return nil, err
	}
	return collectPlans(rows)
}
