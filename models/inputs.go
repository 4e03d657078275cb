// ABOUTME: Partial entity payloads for inserts and updates
// ABOUTME: Only non-nil fields are sent; Validate enforces required fields before submission
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrRequired     = errors.New("required field missing")
	ErrInvalidValue = errors.New("invalid value")
)

// MinPasswordLength is the shortest password the register form accepts.
const MinPasswordLength = 8

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OptionalString returns nil for blank input, matching how forms send empty fields.
func OptionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func required(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fmt.Errorf("%s: %w", field, ErrRequired)
	}
	return nil
}

func oneOf(field string, v *string, options []Option) error {
	if v != nil && !HasOption(options, *v) {
		return fmt.Errorf("%s %q: %w", field, *v, ErrInvalidValue)
	}
	return nil
}

type ContactInput struct {
	FirstName      *string    `json:"first_name,omitempty"`
	LastName       *string    `json:"last_name,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	JobTitle       *string    `json:"job_title,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Status         *string    `json:"status,omitempty"`
	LeadSource     *string    `json:"lead_source,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	OwnerID        *uuid.UUID `json:"owner_id,omitempty"`
}

func (in ContactInput) Validate() error {
	if err := required("first_name", in.FirstName); err != nil {
		return err
	}
	if err := required("last_name", in.LastName); err != nil {
		return err
	}
	return oneOf("status", in.Status, ContactStatuses)
}

type CompanyInput struct {
	Name     *string    `json:"name,omitempty"`
	Industry *string    `json:"industry,omitempty"`
	Size     *string    `json:"size,omitempty"`
	Website  *string    `json:"website,omitempty"`
	Phone    *string    `json:"phone,omitempty"`
	Address  *string    `json:"address,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
}

func (in CompanyInput) Validate() error {
	return required("name", in.Name)
}

type DealInput struct {
	Title             *string    `json:"title,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	Stage             *string    `json:"stage,omitempty"`
	Probability       *int       `json:"probability,omitempty"`
	ContactID         *uuid.UUID `json:"contact_id,omitempty"`
	CompanyID         *uuid.UUID `json:"company_id,omitempty"`
	ExpectedCloseDate *string    `json:"expected_close_date,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	OwnerID           *uuid.UUID `json:"owner_id,omitempty"`
}

func (in DealInput) Validate() error {
	if err := required("title", in.Title); err != nil {
		return err
	}
	if in.Value != nil && *in.Value < 0 {
		return fmt.Errorf("value %v: %w", *in.Value, ErrInvalidValue)
	}
	if in.Stage != nil && !IsValidStage(*in.Stage) {
		return fmt.Errorf("stage %q: %w", *in.Stage, ErrInvalidValue)
	}
	return nil
}

// WithStage sets stage and the matching probability together.
func (in DealInput) WithStage(stage string) DealInput {
	in.Stage = &stage
	in.Probability = Ptr(StageProbability(stage))
	return in
}

type ProjectInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	StartDate   *string    `json:"start_date,omitempty"`
	EndDate     *string    `json:"end_date,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
}

func (in ProjectInput) Validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	return oneOf("status", in.Status, ProjectStatuses)
}

type ProjectTaskInput struct {
	ProjectID      *uuid.UUID `json:"project_id,omitempty"`
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	AssigneeID     *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate        *string    `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
}

func (in ProjectTaskInput) Validate() error {
	if in.ProjectID == nil || *in.ProjectID == uuid.Nil {
		return fmt.Errorf("project_id: %w", ErrRequired)
	}
	if err := required("title", in.Title); err != nil {
		return err
	}
	if err := oneOf("status", in.Status, TaskStatuses); err != nil {
		return err
	}
	return oneOf("priority", in.Priority, TaskPriorities)
}

type ActivityInput struct {
	Type        *string    `json:"type,omitempty"`
	Subject     *string    `json:"subject,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *string    `json:"due_date,omitempty"`
	CompletedAt *string    `json:"completed_at,omitempty"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty"`
	DealID      *uuid.UUID `json:"deal_id,omitempty"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
}

func (in ActivityInput) Validate() error {
	if err := required("subject", in.Subject); err != nil {
		return err
	}
	return oneOf("type", in.Type, ActivityTypes)
}

// ValidateRegistration applies the register form rules.
func ValidateRegistration(email, password, confirm, fullName string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email: %w", ErrRequired)
	}
	if strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("full_name: %w", ErrRequired)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
