package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-system/internal/entities"
)

type NotificationRepositoryInterface interface {
	CreateNotification(ctx context.Context, n entities.Notification) (uint64, error)
	// GetNotifications - последние уведомления; since == nil означает "все".
	GetNotifications(ctx context.Context, since *time.Time, limit uint64) ([]entities.Notification, error)
	CountByTypeSince(ctx context.Context, since *time.Time) (map[string]int, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n entities.Notification) (uint64, error) {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO notifications (type, title, message, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, n.Type, n.Title, n.Message, n.RefID, createdAt).Scan(&id)
	return id, err
}

func (r *NotificationRepository) GetNotifications(ctx context.Context, since *time.Time, limit uint64) ([]entities.Notification, error) {
	builder := psql.Select("id", "type", "title", "message", "ref_id", "created_at").
		From("notifications").
		OrderBy("created_at DESC", "id DESC")
	if since != nil {
		builder = builder.Where(sq.Gt{"created_at": *since})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]entities.Notification, 0)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RefID, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NotificationRepository) CountByTypeSince(ctx context.Context, since *time.Time) (map[string]int, error) {
	builder := psql.Select("type", "COUNT(*)").From("notifications").GroupBy("type")
	if since != nil {
		builder = builder.Where(sq.Gt{"created_at": *since})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}
