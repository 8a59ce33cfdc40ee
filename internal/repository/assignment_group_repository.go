package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AssignmentGroupRepository defines persistence access for triage groups.
type AssignmentGroupRepository interface {
	WithQuerier(q Querier) AssignmentGroupRepository
	Create(ctx context.Context, group *domain.AssignmentGroup) error
	List(ctx context.Context) ([]domain.AssignmentGroup, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type assignmentGroupRepository struct {
	q Querier
}

// NewAssignmentGroupRepository builds repository.
func NewAssignmentGroupRepository(q Querier) AssignmentGroupRepository {
	return &assignmentGroupRepository{q: q}
}

func (r *assignmentGroupRepository) WithQuerier(q Querier) AssignmentGroupRepository {
	return &assignmentGroupRepository{q: q}
}

func (r *assignmentGroupRepository) Create(ctx context.Context, group *domain.AssignmentGroup) error {
	const query = `
        INSERT INTO assignment_groups (name, description)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, group.Name, group.Description).
		Scan(&group.ID, &group.CreatedAt)
}

func (r *assignmentGroupRepository) List(ctx context.Context) ([]domain.AssignmentGroup, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, name, description, created_at FROM assignment_groups ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AssignmentGroup
	for rows.Next() {
		var group domain.AssignmentGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, group)
	}
	return result, rows.Err()
}

func (r *assignmentGroupRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM assignment_groups WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}
