package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	CustomerID *int64
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *int64
	AssignedTo *int64
	Unassigned bool
	TicketIDs  []int64
	Limit      int
	Offset     int
}

const ticketDetailColumns = `
        t.id, t.ticket_number, t.subject, t.description, t.status, t.priority,
        t.category_id, t.subcategory_id, t.assignment_group_id, t.customer_id,
        t.assigned_to, t.resolution, t.created_at, t.updated_at, t.resolved_at,
        cu.name, c.name, sc.name, g.name, a.name`

const ticketDetailJoins = `
        FROM tickets t
        JOIN users cu ON cu.id = t.customer_id
        LEFT JOIN categories c ON c.id = t.category_id
        LEFT JOIN subcategories sc ON sc.id = t.subcategory_id
        LEFT JOIN assignment_groups g ON g.id = t.assignment_group_id
        LEFT JOIN users a ON a.id = t.assigned_to`

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	WithQuerier(q Querier) TicketRepository
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetDetailByID(ctx context.Context, id int64) (*domain.TicketDetail, error)
	LatestTicketNumber(ctx context.Context, prefix string) (string, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketDetail, int, error)
	TouchUpdatedAt(ctx context.Context, id int64) error
}

type ticketRepository struct {
	q Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) WithQuerier(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, description, status, priority,
            category_id, subcategory_id, assignment_group_id, customer_id, assigned_to, resolution)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.AssignmentGroupID,
		ticket.CustomerID,
		ticket.AssignedTo,
		ticket.Resolution,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, status=$3, priority=$4,
            category_id=$5, subcategory_id=$6, assignment_group_id=$7,
            assigned_to=$8, resolution=$9, resolved_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.q.Exec(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.AssignmentGroupID,
		ticket.AssignedTo,
		ticket.Resolution,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, subject, description, status, priority,
               category_id, subcategory_id, assignment_group_id, customer_id,
               assigned_to, resolution, created_at, updated_at, resolved_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.AssignmentGroupID,
		&ticket.CustomerID,
		&ticket.AssignedTo,
		&ticket.Resolution,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetDetailByID(ctx context.Context, id int64) (*domain.TicketDetail, error) {
	query := `SELECT` + ticketDetailColumns + ticketDetailJoins + ` WHERE t.id=$1`
	var detail domain.TicketDetail
	if err := scanTicketDetail(r.q.QueryRow(ctx, query, id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LatestTicketNumber returns the most recently created ticket number with
// the given prefix. Runs on the same querier as the surrounding insert, so
// inside a transaction the read and the write are serialized by the unique
// index on ticket_number.
func (r *ticketRepository) LatestTicketNumber(ctx context.Context, prefix string) (string, error) {
	const query = `
        SELECT ticket_number FROM tickets
        WHERE ticket_number LIKE $1 || '%'
        ORDER BY id DESC LIMIT 1`
	var number string
	if err := r.q.QueryRow(ctx, query, prefix).Scan(&number); err != nil {
		return "", err
	}
	return number, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketDetail, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("t.customer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "t.assigned_to IS NULL")
	}
	if len(filter.TicketIDs) > 0 {
		placeholders := make([]string, len(filter.TicketIDs))
		for i, id := range filter.TicketIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.id IN (%s)", strings.Join(placeholders, ",")))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM tickets t WHERE ` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT%s%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketDetailColumns, ticketDetailJoins, where, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.TicketDetail
	for rows.Next() {
		var detail domain.TicketDetail
		if err := scanTicketDetail(rows, &detail); err != nil {
			return nil, 0, err
		}
		result = append(result, detail)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) TouchUpdatedAt(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicketDetail(row pgx.Row, detail *domain.TicketDetail) error {
	return row.Scan(
		&detail.ID,
		&detail.TicketNumber,
		&detail.Subject,
		&detail.Description,
		&detail.Status,
		&detail.Priority,
		&detail.CategoryID,
		&detail.SubcategoryID,
		&detail.AssignmentGroupID,
		&detail.CustomerID,
		&detail.AssignedTo,
		&detail.Resolution,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.ResolvedAt,
		&detail.CustomerName,
		&detail.CategoryName,
		&detail.SubcategoryName,
		&detail.AssignmentGroupName,
		&detail.AssigneeName,
	)
}
