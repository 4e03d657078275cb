// ABOUTME: Data models for CRM entities mirrored from the remote tables
// ABOUTME: Defines Profile, Contact, Company, Deal, Project, ProjectTask, Activity and their enums
package models

import (
	"time"

	"github.com/google/uuid"
)

// Table names on the remote gateway.
const (
	TableProfiles      = "profiles"
	TableOrganizations = "organizations"
	TableContacts      = "contacts"
	TableCompanies     = "companies"
	TableDeals         = "deals"
	TableProjects      = "projects"
	TableProjectTasks  = "project_tasks"
	TableActivities    = "activities"
)

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the profile's full name, falling back to the email.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}

type Organization struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	ParentID  *uuid.UUID `json:"parent_id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

type Contact struct {
	ID             uuid.UUID  `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	JobTitle       *string    `json:"job_title"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	Status         string     `json:"status"`
	LeadSource     *string    `json:"lead_source"`
	Notes          *string    `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Company is embedded by the gateway when requested.
	Company *Company `json:"company,omitempty"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Company struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Industry       *string    `json:"industry"`
	Size           *string    `json:"size"`
	Website        *string    `json:"website"`
	Phone          *string    `json:"phone"`
	Address        *string    `json:"address"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	Notes          *string    `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Deal struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Stage             string     `json:"stage"`
	Probability       int        `json:"probability"`
	ContactID         *uuid.UUID `json:"contact_id"`
	CompanyID         *uuid.UUID `json:"company_id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	ExpectedCloseDate *string    `json:"expected_close_date"`
	Notes             *string    `json:"notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Contact *Contact `json:"contact,omitempty"`
	Company *Company `json:"company,omitempty"`
}

type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	StartDate   *string    `json:"start_date"`
	EndDate     *string    `json:"end_date"`
	Budget      *float64   `json:"budget"`
	ContactID   *uuid.UUID `json:"contact_id"`
	CompanyID   *uuid.UUID `json:"company_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Contact *Contact `json:"contact,omitempty"`
	Company *Company `json:"company,omitempty"`
}

type ProjectTask struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssigneeID     *uuid.UUID `json:"assignee_id"`
	DueDate        *string    `json:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Activity struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description *string    `json:"description"`
	DueDate     *string    `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	ContactID   *uuid.UUID `json:"contact_id"`
	CompanyID   *uuid.UUID `json:"company_id"`
	DealID      *uuid.UUID `json:"deal_id"`
	ProjectID   *uuid.UUID `json:"project_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Profile roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

// Organization types.
const (
	OrganizationHolding    = "holding"
	OrganizationCompany    = "company"
	OrganizationDepartment = "department"
)

// Contact statuses.
const (
	ContactLead     = "lead"
	ContactProspect = "prospect"
	ContactCustomer = "customer"
	ContactInactive = "inactive"
)

// Project statuses.
const (
	ProjectPlanning   = "planning"
	ProjectInProgress = "in_progress"
	ProjectOnHold     = "on_hold"
	ProjectCompleted  = "completed"
	ProjectCancelled  = "cancelled"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskReview     = "review"
	TaskDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Activity types.
const (
	ActivityCall    = "call"
	ActivityEmail   = "email"
	ActivityMeeting = "meeting"
	ActivityTask    = "task"
	ActivityNote    = "note"
)

// Option is a selectable enum value with its display label.
type Option struct {
	ID    string
	Label string
}

var (
	ContactStatuses = []Option{
		{ContactLead, "Lead"},
		{ContactProspect, "Prospect"},
		{ContactCustomer, "Customer"},
		{ContactInactive, "Inactive"},
	}

	ProjectStatuses = []Option{
		{ProjectPlanning, "Planning"},
		{ProjectInProgress, "In Progress"},
		{ProjectOnHold, "On Hold"},
		{ProjectCompleted, "Completed"},
		{ProjectCancelled, "Cancelled"},
	}

	TaskStatuses = []Option{
		{TaskTodo, "To Do"},
		{TaskInProgress, "In Progress"},
		{TaskReview, "Review"},
		{TaskDone, "Done"},
	}

	TaskPriorities = []Option{
		{PriorityLow, "Low"},
		{PriorityMedium, "Medium"},
		{PriorityHigh, "High"},
		{PriorityUrgent, "Urgent"},
	}

	ActivityTypes = []Option{
		{ActivityCall, "Call"},
		{ActivityEmail, "Email"},
		{ActivityMeeting, "Meeting"},
		{ActivityTask, "Task"},
		{ActivityNote, "Note"},
	}

	Roles = []Option{
		{RoleAdmin, "Admin"},
		{RoleManager, "Manager"},
		{RoleMember, "Member"},
		{RoleViewer, "Viewer"},
	}
)

// HasOption reports whether id is one of the options.
func HasOption(options []Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// OptionLabel returns the label for id, or id itself when unknown.
func OptionLabel(options []Option, id string) string {
	for _, o := range options {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}
