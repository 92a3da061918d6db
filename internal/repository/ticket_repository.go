package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/campusdesk/service-desk/internal/domain"
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	OwnerID     *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Categories  []domain.TicketCategory
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByHumanID(ctx context.Context, humanID string) (*domain.Ticket, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	Aggregate(ctx context.Context) (*domain.DashboardStats, error)
}

var ticketColumns = []string{
	"id", "human_id", "owner_id", "assignee_id", "title", "description", "location",
	"category", "priority", "status", "suggestion", "attachments", "admin_remarks",
	"resolution_notes", "is_locked", "resolved_at", "closed_at", "resolution_time_minutes",
	"reopened_count", "work_notes", "proof_of_work", "activity_log", "created_at", "updated_at",
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates a Postgres-backed repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

type ticketDocuments struct {
	suggestion  []byte
	attachments []byte
	workNotes   []byte
	proofOfWork []byte
	activityLog []byte
}

func encodeTicketDocuments(ticket *domain.Ticket) (ticketDocuments, error) {
	var docs ticketDocuments
	var err error
	if ticket.Suggestion != nil {
		if docs.suggestion, err = toJSON(ticket.Suggestion); err != nil {
			return docs, err
		}
	}
	if docs.attachments, err = toJSON(nonNil(ticket.Attachments)); err != nil {
		return docs, err
	}
	if docs.workNotes, err = toJSON(nonNil(ticket.WorkNotes)); err != nil {
		return docs, err
	}
	if docs.proofOfWork, err = toJSON(nonNil(ticket.ProofOfWork)); err != nil {
		return docs, err
	}
	if docs.activityLog, err = toJSON(nonNil(ticket.ActivityLog)); err != nil {
		return docs, err
	}
	return docs, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	docs, err := encodeTicketDocuments(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	query, args, err := psql.Insert("tickets").Columns(ticketColumns...).Values(
		ticket.ID,
		ticket.HumanID,
		ticket.OwnerID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Location,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		docs.suggestion,
		docs.attachments,
		ticket.AdminRemarks,
		ticket.ResolutionNotes,
		ticket.IsLocked,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ResolutionTimeMinutes,
		ticket.ReopenedCount,
		docs.workNotes,
		docs.proofOfWork,
		docs.activityLog,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return mapError(err)
}

// Update writes every mutable column in one statement.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	docs, err := encodeTicketDocuments(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	query, args, err := psql.Update("tickets").SetMap(map[string]any{
		"assignee_id":             ticket.AssigneeID,
		"priority":                ticket.Priority,
		"status":                  ticket.Status,
		"admin_remarks":           ticket.AdminRemarks,
		"resolution_notes":        ticket.ResolutionNotes,
		"is_locked":               ticket.IsLocked,
		"resolved_at":             ticket.ResolvedAt,
		"closed_at":               ticket.ClosedAt,
		"resolution_time_minutes": ticket.ResolutionTimeMinutes,
		"reopened_count":          ticket.ReopenedCount,
		"work_notes":              docs.workNotes,
		"proof_of_work":           docs.proofOfWork,
		"activity_log":            docs.activityLog,
		"updated_at":              ticket.UpdatedAt,
	}).Where(sq.Eq{"id": ticket.ID}).ToSql()
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

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("tickets").Where(sq.Eq{"id": id}).ToSql()
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

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, sq.Eq{"id": id})
}

func (r *ticketRepository) GetByHumanID(ctx context.Context, humanID string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, sq.Eq{"human_id": humanID})
}

// GetByIDs returns the tickets that exist among ids, in no particular order.
func (r *ticketRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select(ticketColumns...).From("tickets").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTickets(ctx, query, args)
}

func (r *ticketRepository) queryTickets(ctx context.Context, query string, args []any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, where sq.Eq) (*domain.Ticket, error) {
	query, args, err := psql.Select(ticketColumns...).From("tickets").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var suggestion, attachments, workNotes, proofOfWork, activityLog []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.HumanID,
		&ticket.OwnerID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Location,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&suggestion,
		&attachments,
		&ticket.AdminRemarks,
		&ticket.ResolutionNotes,
		&ticket.IsLocked,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ResolutionTimeMinutes,
		&ticket.ReopenedCount,
		&workNotes,
		&proofOfWork,
		&activityLog,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(suggestion) > 0 && string(suggestion) != "null" {
		ticket.Suggestion = &domain.Suggestion{}
		if err := fromJSON(suggestion, ticket.Suggestion); err != nil {
			return nil, fmt.Errorf("decode suggestion: %w", err)
		}
	}
	if err := fromJSON(attachments, &ticket.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := fromJSON(workNotes, &ticket.WorkNotes); err != nil {
		return nil, fmt.Errorf("decode work notes: %w", err)
	}
	if err := fromJSON(proofOfWork, &ticket.ProofOfWork); err != nil {
		return nil, fmt.Errorf("decode proof of work: %w", err)
	}
	if err := fromJSON(activityLog, &ticket.ActivityLog); err != nil {
		return nil, fmt.Errorf("decode activity log: %w", err)
	}
	return &ticket, nil
}

func applyTicketFilter(b sq.SelectBuilder, filter TicketFilter) sq.SelectBuilder {
	if filter.OwnerID != nil {
		b = b.Where(sq.Eq{"owner_id": *filter.OwnerID})
	}
	if filter.AssigneeID != nil {
		b = b.Where(sq.Eq{"assignee_id": *filter.AssigneeID})
	}
	if len(filter.Statuses) > 0 {
		b = b.Where(sq.Eq{"status": filter.Statuses})
	}
	if len(filter.Categories) > 0 {
		b = b.Where(sq.Eq{"category": filter.Categories})
	}
	if len(filter.Priorities) > 0 {
		b = b.Where(sq.Eq{"priority": filter.Priorities})
	}
	if filter.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		b = b.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.TrimSpace(*filter.SearchTerm) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"title": search},
			sq.ILike{"human_id": search},
			sq.ILike{"location": search},
		})
	}
	return b
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	limit, offset := Page(filter.Limit, filter.Offset)
	builder := applyTicketFilter(psql.Select(ticketColumns...).From("tickets"), filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTickets(ctx, query, args)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	query, args, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// Aggregate computes the dashboard distributions in the database.
func (r *ticketRepository) Aggregate(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		StatusDistribution:   map[domain.TicketStatus]int{},
		CategoryDistribution: map[domain.TicketCategory]int{},
		PriorityDistribution: map[domain.TicketPriority]int{},
	}

	const totals = `
        SELECT COUNT(*), COALESCE(SUM(reopened_count), 0), COALESCE(AVG(resolution_time_minutes), 0)
        FROM tickets`
	if err := r.db.QueryRow(ctx, totals).Scan(&stats.TotalTickets, &stats.TotalReopens, &stats.AvgResolutionMinutes); err != nil {
		return nil, mapError(err)
	}

	groups := []struct {
		column string
		add    func(key string, n int)
	}{
		{"status", func(k string, n int) { stats.StatusDistribution[domain.TicketStatus(k)] = n }},
		{"category", func(k string, n int) { stats.CategoryDistribution[domain.TicketCategory(k)] = n }},
		{"priority", func(k string, n int) { stats.PriorityDistribution[domain.TicketPriority(k)] = n }},
	}
	for _, g := range groups {
		query, args, err := psql.Select(g.column, "COUNT(*)").From("tickets").GroupBy(g.column).ToSql()
		if err != nil {
			return nil, err
		}
		if err := r.scanGroup(ctx, query, args, g.add); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *ticketRepository) scanGroup(ctx context.Context, query string, args []any, add func(string, int)) error {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		add(key, count)
	}
	return rows.Err()
}
