package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CategoryRepository defines persistence access for categories and
// subcategories.
type CategoryRepository interface {
	WithQuerier(q Querier) CategoryRepository
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateSubcategory(ctx context.Context, sub *domain.Subcategory) error
	ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
	SubcategoryExists(ctx context.Context, id int64) (bool, error)
}

type categoryRepository struct {
	q Querier
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(q Querier) CategoryRepository {
	return &categoryRepository{q: q}
}

func (r *categoryRepository) WithQuerier(q Querier) CategoryRepository {
	return &categoryRepository{q: q}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, description)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, category.Name, category.Description).
		Scan(&category.ID, &category.CreatedAt)
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE categories SET name=$1, description=$2 WHERE id=$3`,
		category.Name, category.Description, category.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

func (r *categoryRepository) CreateSubcategory(ctx context.Context, sub *domain.Subcategory) error {
	const query = `
        INSERT INTO subcategories (category_id, name)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, sub.CategoryID, sub.Name).
		Scan(&sub.ID, &sub.CreatedAt)
}

func (r *categoryRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, category_id, name, created_at FROM subcategories WHERE category_id=$1 ORDER BY name ASC`,
		categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subcategory
	for rows.Next() {
		var sub domain.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *categoryRepository) SubcategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM subcategories WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}
