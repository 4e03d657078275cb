// ABOUTME: Activity CLI commands
// ABOUTME: Log calls, emails, meetings, tasks and notes against CRM records
package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/viz"
)

func formatMoney(v float64) string {
	return viz.FormatMoney(v)
}

func storeFilter(contact, company, deal, project *uuid.UUID) store.ActivityFilter {
	return store.ActivityFilter{
		ContactID: contact,
		CompanyID: company,
		DealID:    deal,
		ProjectID: project,
	}
}

func printActivities(activities []models.Activity) {
	printf("\nActivities (%d)\n", len(activities))
	for _, act := range activities {
		done := ""
		if act.CompletedAt != nil {
			done = " ✓"
		}
		printf("  [%s] %s%s  %s\n", models.OptionLabel(models.ActivityTypes, act.Type),
			act.Subject, done, act.CreatedAt.Format("2006-01-02"))
	}
}

// LogActivityCommand records an activity linked to any of contact,
// company, deal or project.
func LogActivityCommand(a *app.App, args []string) error {
	fs := newFlagSet("log-activity")
	typ := fs.String("type", models.ActivityNote, "Type (call, email, meeting, task, note)")
	subject := fs.String("subject", "", "Subject (required)")
	description := fs.String("description", "", "Description")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	contact := fs.String("contact", "", "Contact ID")
	company := fs.String("company", "", "Company ID")
	deal := fs.String("deal", "", "Deal ID")
	project := fs.String("project", "", "Project ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	in := models.ActivityInput{
		Type:        typ,
		Subject:     subject,
		Description: models.OptionalString(*description),
		DueDate:     models.OptionalString(*due),
	}
	var err error
	if in.ContactID, err = optionalID(*contact, "contact"); err != nil {
		return err
	}
	if in.CompanyID, err = optionalID(*company, "company"); err != nil {
		return err
	}
	if in.DealID, err = optionalID(*deal, "deal"); err != nil {
		return err
	}
	if in.ProjectID, err = optionalID(*project, "project"); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if err := a.Records.AddActivity(context.Background(), in); err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	printf("✓ Logged %s: %s\n", models.OptionLabel(models.ActivityTypes, *typ), *subject)
	return nil
}

// ListActivitiesCommand lists activities, optionally narrowed to a record.
func ListActivitiesCommand(a *app.App, args []string) error {
	fs := newFlagSet("list-activities")
	contact := fs.String("contact", "", "Contact ID")
	company := fs.String("company", "", "Company ID")
	deal := fs.String("deal", "", "Deal ID")
	project := fs.String("project", "", "Project ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ids := make([]*uuid.UUID, 4)
	for i, arg := range []struct{ v, what string }{
		{*contact, "contact"}, {*company, "company"}, {*deal, "deal"}, {*project, "project"},
	} {
		id, err := optionalID(arg.v, arg.what)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	a.Records.FetchActivities(context.Background(), storeFilter(ids[0], ids[1], ids[2], ids[3]))
	activities := a.Records.Snapshot().Activities
	if len(activities) == 0 {
		printf("No activities found\n")
		return nil
	}
	printActivities(activities)
	return nil
}
