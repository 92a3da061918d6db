package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/service-desk/internal/domain"
)

// FeedbackFilter narrows the admin feedback listing.
type FeedbackFilter struct {
	Rating *int
	Limit  int
	Offset int
}

// FeedbackRepository persists requester feedback. ticket_id is unique.
type FeedbackRepository interface {
	Create(ctx context.Context, f *domain.Feedback) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error)
	List(ctx context.Context, filter FeedbackFilter) ([]domain.Feedback, error)
	Stats(ctx context.Context) (*domain.FeedbackStats, error)
}

var feedbackColumns = []string{
	"id", "ticket_id", "author_id", "rating", "service_quality", "response_time",
	"overall_satisfaction", "comments", "created_at",
}

type feedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create returns ErrDuplicate when the ticket already has feedback.
func (r *feedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	query, args, err := psql.Insert("feedback").Columns(feedbackColumns...).
		Values(f.ID, f.TicketID, f.AuthorID, f.Rating, f.ServiceQuality, f.ResponseTime,
			f.OverallSatisfaction, f.Comments, f.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return mapError(err)
}

func (r *feedbackRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error) {
	query, args, err := psql.Select(feedbackColumns...).From("feedback").Where(sq.Eq{"ticket_id": ticketID}).ToSql()
	if err != nil {
		return nil, err
	}
	f, err := scanFeedback(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var f domain.Feedback
	if err := row.Scan(&f.ID, &f.TicketID, &f.AuthorID, &f.Rating, &f.ServiceQuality,
		&f.ResponseTime, &f.OverallSatisfaction, &f.Comments, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepository) List(ctx context.Context, filter FeedbackFilter) ([]domain.Feedback, error) {
	limit, offset := Page(filter.Limit, filter.Offset)
	builder := psql.Select(feedbackColumns...).From("feedback")
	if filter.Rating != nil {
		builder = builder.Where(sq.Eq{"rating": *filter.Rating})
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

	var result []domain.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

func (r *feedbackRepository) Stats(ctx context.Context) (*domain.FeedbackStats, error) {
	stats := &domain.FeedbackStats{RatingDistribution: map[int]int{}}
	const averages = `
        SELECT COUNT(*),
               COALESCE(AVG(rating), 0),
               COALESCE(AVG(service_quality), 0),
               COALESCE(AVG(response_time), 0),
               COALESCE(AVG(overall_satisfaction), 0)
        FROM feedback`
	if err := r.db.QueryRow(ctx, averages).Scan(
		&stats.TotalFeedback,
		&stats.AvgRating,
		&stats.AvgServiceQuality,
		&stats.AvgResponseTime,
		&stats.AvgSatisfaction,
	); err != nil {
		return nil, mapError(err)
	}

	query, args, err := psql.Select("rating", "COUNT(*)").From("feedback").GroupBy("rating").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		stats.RatingDistribution[rating] = count
	}
	return stats, rows.Err()
}
