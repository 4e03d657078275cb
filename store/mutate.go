// ABOUTME: Insert, update and delete operations for the domain record cache
// ABOUTME: Each successful write re-fetches the affected collection; failures are logged and returned
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/models"
	"go.uber.org/zap"
)

func (s *Store) warnWrite(op, table string, id uuid.UUID, err error) {
	fields := []zap.Field{zap.String("op", op), zap.String("table", table), zap.Error(err)}
	if id != uuid.Nil {
		fields = append(fields, zap.String("id", id.String()))
	}
	s.logger.Warn("write failed", fields...)
}

func (s *Store) insert(ctx context.Context, table string, row any) error {
	if err := s.tables.Insert(ctx, table, row); err != nil {
		s.warnWrite("insert", table, uuid.Nil, err)
		return err
	}
	return nil
}

func (s *Store) patch(ctx context.Context, table string, id uuid.UUID, patch any) error {
	if err := s.tables.Update(ctx, table, id, patch); err != nil {
		s.warnWrite("update", table, id, err)
		return err
	}
	return nil
}

func (s *Store) remove(ctx context.Context, table string, id uuid.UUID) error {
	if err := s.tables.Delete(ctx, table, id); err != nil {
		s.warnWrite("delete", table, id, err)
		return err
	}
	return nil
}

func (s *Store) AddContact(ctx context.Context, in models.ContactInput) error {
	if err := s.insert(ctx, models.TableContacts, in); err != nil {
		return err
	}
	s.FetchContacts(ctx)
	return nil
}

func (s *Store) UpdateContact(ctx context.Context, id uuid.UUID, in models.ContactInput) error {
	if err := s.patch(ctx, models.TableContacts, id, in); err != nil {
		return err
	}
	s.FetchContacts(ctx)
	return nil
}

func (s *Store) DeleteContact(ctx context.Context, id uuid.UUID) error {
	if err := s.remove(ctx, models.TableContacts, id); err != nil {
		return err
	}
	s.FetchContacts(ctx)
	return nil
}

func (s *Store) AddCompany(ctx context.Context, in models.CompanyInput) error {
	if err := s.insert(ctx, models.TableCompanies, in); err != nil {
		return err
	}
	s.FetchCompanies(ctx)
	return nil
}

func (s *Store) UpdateCompany(ctx context.Context, id uuid.UUID, in models.CompanyInput) error {
	if err := s.patch(ctx, models.TableCompanies, id, in); err != nil {
		return err
	}
	s.FetchCompanies(ctx)
	return nil
}

func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	if err := s.remove(ctx, models.TableCompanies, id); err != nil {
		return err
	}
	s.FetchCompanies(ctx)
	return nil
}

// EnsureCompany returns the id of the company named name, matching case
// insensitively, and creates it when none exists. A blank name yields nil.
func (s *Store) EnsureCompany(ctx context.Context, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	s.FetchCompanies(ctx)
	if c, ok := s.companyNamed(name); ok {
		return &c.ID, nil
	}

	if err := s.AddCompany(ctx, models.CompanyInput{Name: &name}); err != nil {
		return nil, err
	}
	if c, ok := s.companyNamed(name); ok {
		return &c.ID, nil
	}
	return nil, fmt.Errorf("company %q missing after insert: %w", name, gateway.ErrNotFound)
}

func (s *Store) companyNamed(name string) (models.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.Companies {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.Company{}, false
}

// AddDeal inserts a deal. A supplied stage always carries its probability.
func (s *Store) AddDeal(ctx context.Context, in models.DealInput) error {
	if in.Stage != nil {
		in = in.WithStage(*in.Stage)
	}
	if err := s.insert(ctx, models.TableDeals, in); err != nil {
		return err
	}
	s.FetchDeals(ctx)
	return nil
}

// UpdateDeal patches a deal. A supplied stage always carries its probability.
func (s *Store) UpdateDeal(ctx context.Context, id uuid.UUID, in models.DealInput) error {
	if in.Stage != nil {
		in = in.WithStage(*in.Stage)
	}
	if err := s.patch(ctx, models.TableDeals, id, in); err != nil {
		return err
	}
	s.FetchDeals(ctx)
	return nil
}

// MoveDeal changes only a deal's stage, as the pipeline board does.
func (s *Store) MoveDeal(ctx context.Context, id uuid.UUID, stage string) error {
	return s.UpdateDeal(ctx, id, models.DealInput{}.WithStage(stage))
}

func (s *Store) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	if err := s.remove(ctx, models.TableDeals, id); err != nil {
		return err
	}
	s.FetchDeals(ctx)
	return nil
}

func (s *Store) AddProject(ctx context.Context, in models.ProjectInput) error {
	if err := s.insert(ctx, models.TableProjects, in); err != nil {
		return err
	}
	s.FetchProjects(ctx)
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, in models.ProjectInput) error {
	if err := s.patch(ctx, models.TableProjects, id, in); err != nil {
		return err
	}
	s.FetchProjects(ctx)
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.remove(ctx, models.TableProjects, id); err != nil {
		return err
	}
	s.FetchProjects(ctx)
	return nil
}

// AddActivity inserts an activity and re-fetches the activities sharing
// its links.
func (s *Store) AddActivity(ctx context.Context, in models.ActivityInput) error {
	if err := s.insert(ctx, models.TableActivities, in); err != nil {
		return err
	}
	s.FetchActivities(ctx, activityScope(in.ContactID, in.CompanyID, in.DealID, in.ProjectID))
	return nil
}

// UpdateActivity patches an activity. The re-fetch uses the links of the
// cached row, or loads every activity when the row is not cached.
func (s *Store) UpdateActivity(ctx context.Context, id uuid.UUID, in models.ActivityInput) error {
	scope := s.cachedActivityScope(id)
	if err := s.patch(ctx, models.TableActivities, id, in); err != nil {
		return err
	}
	s.FetchActivities(ctx, scope)
	return nil
}

// DeleteActivity removes an activity. The scope is read from the cache
// before the delete since the row cannot supply it afterwards.
func (s *Store) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	scope := s.cachedActivityScope(id)
	if err := s.remove(ctx, models.TableActivities, id); err != nil {
		return err
	}
	s.FetchActivities(ctx, scope)
	return nil
}

func (s *Store) cachedActivityScope(id uuid.UUID) ActivityFilter {
	a, ok := s.GetActivity(id)
	if !ok {
		return ActivityFilter{}
	}
	return activityScope(a.ContactID, a.CompanyID, a.DealID, a.ProjectID)
}

// AddProjectTask inserts a task and re-fetches its project's tasks.
func (s *Store) AddProjectTask(ctx context.Context, in models.ProjectTaskInput) error {
	if err := s.insert(ctx, models.TableProjectTasks, in); err != nil {
		return err
	}
	if in.ProjectID != nil {
		s.FetchProjectTasks(ctx, *in.ProjectID)
	}
	return nil
}

// UpdateProjectTask patches a task. Tasks are re-fetched for the cached
// row's project, else for the project named in the patch.
func (s *Store) UpdateProjectTask(ctx context.Context, id uuid.UUID, in models.ProjectTaskInput) error {
	projectID, known := s.cachedTaskProject(id)
	if err := s.patch(ctx, models.TableProjectTasks, id, in); err != nil {
		return err
	}
	switch {
	case known:
		s.FetchProjectTasks(ctx, projectID)
	case in.ProjectID != nil:
		s.FetchProjectTasks(ctx, *in.ProjectID)
	}
	return nil
}

// SetTaskStatus changes only a task's status.
func (s *Store) SetTaskStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.UpdateProjectTask(ctx, id, models.ProjectTaskInput{Status: &status})
}

// DeleteProjectTask removes a task. Nothing is re-fetched when the task
// is not cached, since its project is unknown.
func (s *Store) DeleteProjectTask(ctx context.Context, id uuid.UUID) error {
	projectID, known := s.cachedTaskProject(id)
	if err := s.remove(ctx, models.TableProjectTasks, id); err != nil {
		return err
	}
	if known {
		s.FetchProjectTasks(ctx, projectID)
	}
	return nil
}

func (s *Store) cachedTaskProject(id uuid.UUID) (uuid.UUID, bool) {
	t, ok := s.GetProjectTask(id)
	if !ok {
		return uuid.Nil, false
	}
	return t.ProjectID, true
}
