package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// CategoriesHandler manages category, subcategory and assignment group
// endpoints. Writes are routed through the admin gate.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// ListCategories GET /api/categories.
func (h *CategoriesHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return respond(c, http.StatusOK, "categories retrieved", items)
}

// CreateCategory POST /api/categories.
func (h *CategoriesHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.categories.CreateCategory(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "category created", categoryResponse(category))
}

// UpdateCategory PUT /api/categories/:id.
func (h *CategoriesHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.categories.UpdateCategory(c.UserContext(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "category updated", categoryResponse(category))
}

// DeleteCategory DELETE /api/categories/:id.
func (h *CategoriesHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.categories.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "category deleted", nil)
}

// CreateSubcategory POST /api/categories/:id/subcategories.
func (h *CategoriesHandler) CreateSubcategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.SubcategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.categories.CreateSubcategory(c.UserContext(), id, req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "subcategory created", subcategoryResponse(sub))
}

// ListAssignmentGroups GET /api/assignment-groups.
func (h *CategoriesHandler) ListAssignmentGroups(c *fiber.Ctx) error {
	groups, err := h.categories.ListAssignmentGroups(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentGroupResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, dto.AssignmentGroupResponse{
			ID:          group.ID,
			Name:        group.Name,
			Description: group.Description,
			CreatedAt:   group.CreatedAt,
		})
	}
	return respond(c, http.StatusOK, "assignment groups retrieved", items)
}

// CreateAssignmentGroup POST /api/assignment-groups.
func (h *CategoriesHandler) CreateAssignmentGroup(c *fiber.Ctx) error {
	var req dto.AssignmentGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	group, err := h.categories.CreateAssignmentGroup(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "assignment group created", dto.AssignmentGroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedAt:   group.CreatedAt,
	})
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	subs := make([]dto.SubcategoryResponse, 0, len(category.Subcategories))
	for i := range category.Subcategories {
		subs = append(subs, subcategoryResponse(&category.Subcategories[i]))
	}
	return dto.CategoryResponse{
		ID:            category.ID,
		Name:          category.Name,
		Description:   category.Description,
		CreatedAt:     category.CreatedAt,
		Subcategories: subs,
	}
}

func subcategoryResponse(sub *domain.Subcategory) dto.SubcategoryResponse {
	return dto.SubcategoryResponse{
		ID:         sub.ID,
		CategoryID: sub.CategoryID,
		Name:       sub.Name,
		CreatedAt:  sub.CreatedAt,
	}
}
