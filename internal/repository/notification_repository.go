package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/service-desk/internal/domain"
)

// NotificationFilter narrows a recipient's inbox.
type NotificationFilter struct {
	IsRead *bool
	Limit  int
	Offset int
}

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id string) error
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

var notificationColumns = []string{"id", "recipient_id", "ticket_id", "kind", "title", "message", "is_read", "created_at"}

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query, args, err := psql.Insert("notifications").Columns(notificationColumns...).
		Values(n.ID, n.RecipientID, n.TicketID, n.Kind, n.Title, n.Message, n.IsRead, n.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return mapError(err)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query, args, err := psql.Select(notificationColumns...).From("notifications").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	n, err := scanNotification(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.RecipientID, &n.TicketID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	query, args, err := psql.Update("notifications").Set("is_read", true).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query, args, err := psql.Update("notifications").Set("is_read", true).
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).ToSql()
	if err != nil {
		return 0, err
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("notifications").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error) {
	limit, offset := Page(filter.Limit, filter.Offset)
	builder := psql.Select(notificationColumns...).From("notifications").
		Where(sq.Eq{"recipient_id": recipientID})
	if filter.IsRead != nil {
		builder = builder.Where(sq.Eq{"is_read": *filter.IsRead})
	}
	query, args, err := builder.OrderBy("created_at DESC").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}
