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

const branchTable = "branches"

var branchMap = map[string]string{
	"id":         "b.id",
	"name":       "b.name",
	"created_at": "b.created_at",
}

type BranchRepositoryInterface interface {
	GetBranches(ctx context.Context, filter types.Filter) ([]entities.Branch, uint64, error)
	FindBranch(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Branch, error)
	ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error)
	CreateBranch(ctx context.Context, tx pgx.Tx, branch entities.Branch) (uint64, error)
}

type BranchRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBranchRepository(storage *pgxpool.Pool, logger *zap.Logger) BranchRepositoryInterface {
	return &BranchRepository{storage: storage, logger: logger}
}

func scanBranch(row pgx.Row) (*entities.Branch, error) {
	var b entities.Branch
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования branch: %w", err)
	}
	return &b, nil
}

func (r *BranchRepository) GetBranches(ctx context.Context, filter types.Filter) ([]entities.Branch, uint64, error) {
	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"b.name": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(b.id)").From(branchTable + " AS b"))
	countBuilder = bd.ApplyListParams(countBuilder, filter.ForCount(), branchMap)

	total, err := countRows(ctx, r.storage, countBuilder)
	if err != nil || total == 0 {
		return []entities.Branch{}, 0, err
	}

	builder := applySearch(psql.Select("b.id", "b.name", "b.address", "b.created_at", "b.updated_at").
		From(branchTable + " AS b"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("b.id")
	}
	builder = bd.ApplyListParams(builder, filter, branchMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	branches := make([]entities.Branch, 0)
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, 0, err
		}
		branches = append(branches, *branch)
	}
	return branches, total, rows.Err()
}

func (r *BranchRepository) FindBranch(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Branch, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM branches WHERE id = $1`
	return scanBranch(querierFor(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *BranchRepository) ExistsByName(ctx context.Context, tx pgx.Tx, name string, excludeID uint64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM branches WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := querierFor(r.storage, tx).QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *BranchRepository) CreateBranch(ctx context.Context, tx pgx.Tx, branch entities.Branch) (uint64, error) {
	query := `
		INSERT INTO branches (name, address, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id
	`
	var id uint64
	err := querierFor(r.storage, tx).QueryRow(ctx, query, branch.Name, branch.Address).Scan(&id)
	if isUniqueViolation(err) {
		return 0, apperrors.NewDomainError(apperrors.ErrDuplicateName, "Филиал '%s' уже существует", branch.Name)
	}
	return id, err
}
