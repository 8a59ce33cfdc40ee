package service

import (
	"fmt"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// Update field names as they appear in request bodies.
const (
	FieldSubject     = "subject"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssignedTo  = "assigned_to"
	FieldResolution  = "resolution"
)

var staffOnlyUpdateFields = map[string]struct{}{
	FieldStatus:     {},
	FieldPriority:   {},
	FieldAssignedTo: {},
	FieldResolution: {},
}

// FilterUpdate decides which requested update fields the actor's role may
// change. A customer request containing any staff-only field is rejected
// wholesale; nothing is partially applied. An empty field set after
// filtering is a no-op error.
func FilterUpdate(role domain.Role, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, apperrors.NewNoFieldsToUpdate()
	}
	if !role.IsStaff() {
		for _, field := range requested {
			if _, staffOnly := staffOnlyUpdateFields[field]; staffOnly {
				return nil, apperrors.NewForbidden(
					fmt.Sprintf("field %q can only be changed by staff", field))
			}
		}
	}
	return requested, nil
}
