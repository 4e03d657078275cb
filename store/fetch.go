// ABOUTME: Collection fetches for the domain record cache
// ABOUTME: A successful read replaces the collection; a failed one keeps the previous rows
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"go.uber.org/zap"
)

// ActivityFilter narrows an activity fetch. Set fields are combined with AND.
type ActivityFilter struct {
	ContactID *uuid.UUID
	CompanyID *uuid.UUID
	DealID    *uuid.UUID
	ProjectID *uuid.UUID
}

// activityScope builds the filter an activity belongs to from its links.
func activityScope(contactID, companyID, dealID, projectID *uuid.UUID) ActivityFilter {
	return ActivityFilter{
		ContactID: contactID,
		CompanyID: companyID,
		DealID:    dealID,
		ProjectID: projectID,
	}
}

func (f ActivityFilter) apply(q *gateway.Query) *gateway.Query {
	if f.ContactID != nil {
		q = q.Eq("contact_id", *f.ContactID)
	}
	if f.CompanyID != nil {
		q = q.Eq("company_id", *f.CompanyID)
	}
	if f.DealID != nil {
		q = q.Eq("deal_id", *f.DealID)
	}
	if f.ProjectID != nil {
		q = q.Eq("project_id", *f.ProjectID)
	}
	return q
}

func contactsQuery() *gateway.Query {
	return gateway.From(models.TableContacts).
		Embed("company", models.TableCompanies, "organization_id").
		Order("created_at", false)
}

func companiesQuery() *gateway.Query {
	return gateway.From(models.TableCompanies).Order("name", true)
}

func dealsQuery() *gateway.Query {
	return gateway.From(models.TableDeals).
		Embed("contact", models.TableContacts, "contact_id").
		Embed("company", models.TableCompanies, "company_id").
		Order("created_at", false)
}

func projectsQuery() *gateway.Query {
	return gateway.From(models.TableProjects).
		Embed("contact", models.TableContacts, "contact_id").
		Embed("company", models.TableCompanies, "company_id").
		Order("created_at", false)
}

// FetchContacts reloads contacts with their company, newest first. It is
// the only fetch that raises Loading.
func (s *Store) FetchContacts(ctx context.Context) {
	s.update(func(st *State) { st.Loading = true })

	var rows []models.Contact
	err := s.tables.Select(ctx, contactsQuery(), &rows)
	if err != nil {
		s.warnFetch(models.TableContacts, err)
	}

	s.update(func(st *State) {
		if err == nil {
			st.Contacts = rows
		}
		st.Loading = false
	})
}

// FetchCompanies reloads companies sorted by name.
func (s *Store) FetchCompanies(ctx context.Context) {
	var rows []models.Company
	if err := s.tables.Select(ctx, companiesQuery(), &rows); err != nil {
		s.warnFetch(models.TableCompanies, err)
		return
	}
	s.update(func(st *State) { st.Companies = rows })
}

// FetchDeals reloads deals with their contact and company, newest first.
func (s *Store) FetchDeals(ctx context.Context) {
	var rows []models.Deal
	if err := s.tables.Select(ctx, dealsQuery(), &rows); err != nil {
		s.warnFetch(models.TableDeals, err)
		return
	}
	s.update(func(st *State) { st.Deals = rows })
}

// FetchProjects reloads projects with their contact and company, newest first.
func (s *Store) FetchProjects(ctx context.Context) {
	var rows []models.Project
	if err := s.tables.Select(ctx, projectsQuery(), &rows); err != nil {
		s.warnFetch(models.TableProjects, err)
		return
	}
	s.update(func(st *State) { st.Projects = rows })
}

// FetchActivities reloads activities matching filter, newest first. The
// zero filter loads every activity.
func (s *Store) FetchActivities(ctx context.Context, filter ActivityFilter) {
	q := filter.apply(gateway.From(models.TableActivities)).Order("created_at", false)

	var rows []models.Activity
	if err := s.tables.Select(ctx, q, &rows); err != nil {
		s.warnFetch(models.TableActivities, err)
		return
	}
	s.update(func(st *State) { st.Activities = rows })
}

// FetchProjectTasks replaces the task collection with the tasks of one project.
func (s *Store) FetchProjectTasks(ctx context.Context, projectID uuid.UUID) {
	q := gateway.From(models.TableProjectTasks).
		Eq("project_id", projectID).
		Order("created_at", false)

	var rows []models.ProjectTask
	if err := s.tables.Select(ctx, q, &rows); err != nil {
		s.logger.Warn("fetch failed, keeping cached rows",
			zap.String("table", models.TableProjectTasks),
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return
	}
	s.update(func(st *State) { st.ProjectTasks = rows })
}

// FetchAll loads every top-level collection and all activities.
func (s *Store) FetchAll(ctx context.Context) {
	s.FetchContacts(ctx)
	s.FetchCompanies(ctx)
	s.FetchDeals(ctx)
	s.FetchProjects(ctx)
	s.FetchActivities(ctx, ActivityFilter{})
}

func (s *Store) warnFetch(table string, err error) {
	s.logger.Warn("fetch failed, keeping cached rows", zap.String("table", table), zap.Error(err))
}
