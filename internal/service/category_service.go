package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// CategoryService manages categories, subcategories and assignment
// groups. Writes are admin-only, enforced by the routing layer.
type CategoryService struct {
	categories repository.CategoryRepository
	groups     repository.AssignmentGroupRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, groups repository.AssignmentGroupRepository) *CategoryService {
	return &CategoryService{categories: categories, groups: groups}
}

// ListCategories returns all categories with their subcategories.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range categories {
		subs, err := s.categories.ListSubcategories(ctx, categories[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		categories[i].Subcategories = subs
	}
	return categories, nil
}

// CreateCategory adds a category; duplicate names conflict.
func (s *CategoryService) CreateCategory(ctx context.Context, name string, description *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	category := &domain.Category{Name: name, Description: description}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory renames or re-describes a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name string, description *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	category := &domain.Category{ID: id, Name: name, Description: description}
	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": id})
		}
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// DeleteCategory removes a category and, via cascade, its subcategories.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// CreateSubcategory adds a subcategory under an existing category.
func (s *CategoryService) CreateSubcategory(ctx context.Context, categoryID int64, name string) (*domain.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	sub := &domain.Subcategory{CategoryID: categoryID, Name: name}
	if err := s.categories.CreateSubcategory(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// ListAssignmentGroups returns all triage groups.
func (s *CategoryService) ListAssignmentGroups(ctx context.Context) ([]domain.AssignmentGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return groups, nil
}

// CreateAssignmentGroup adds a triage group; duplicate names conflict.
func (s *CategoryService) CreateAssignmentGroup(ctx context.Context, name string, description *string) (*domain.AssignmentGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	group := &domain.AssignmentGroup{Name: name, Description: description}
	if err := s.groups.Create(ctx, group); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("assignment group name already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return group, nil
}
