package employee

import "time"

// Employee is a business-directory entry. Role is the job title, not an
// authorization role.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Avatar     string    `json:"avatar,omitempty"`
	Email      string    `json:"email,omitempty"`
	JoinedDate time.Time `json:"joinedDate"`
	Active     bool      `json:"active"`
}

// CreateInput holds the fields for a new employee.
type CreateInput struct {
	Name       string    `json:"name" validate:"required"`
	Role       string    `json:"role" validate:"required"`
	Department string    `json:"department" validate:"required"`
	Avatar     string    `json:"avatar,omitempty"`
	Email      string    `json:"email,omitempty" validate:"omitempty,email"`
	JoinedDate time.Time `json:"joinedDate"`
}

// UpdateInput holds optional fields for a partial update.
type UpdateInput struct {
	Name       *string    `json:"name,omitempty"`
	Role       *string    `json:"role,omitempty"`
	Department *string    `json:"department,omitempty"`
	Avatar     *string    `json:"avatar,omitempty"`
	Email      *string    `json:"email,omitempty"`
	JoinedDate *time.Time `json:"joinedDate,omitempty"`
	Active     *bool      `json:"active,omitempty"`
}

func (in UpdateInput) fields() map[string]any {
	f := map[string]any{}
	if in.Name != nil {
		f["name"] = *in.Name
	}
	if in.Role != nil {
		f["role"] = *in.Role
	}
	if in.Department != nil {
		f["department"] = *in.Department
	}
	if in.Avatar != nil {
		f["avatar"] = *in.Avatar
	}
	if in.Email != nil {
		f["email"] = *in.Email
	}
	if in.JoinedDate != nil {
		f["joinedDate"] = in.JoinedDate.UTC()
	}
	if in.Active != nil {
		f["active"] = *in.Active
	}
	return f
}
