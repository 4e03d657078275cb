// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts
package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/views"
)

// resolveCompany finds a company by name, creating it when missing.
func resolveCompany(ctx context.Context, a *app.App, name string) (*uuid.UUID, error) {
	known := len(a.Records.Snapshot().Companies)
	id, err := a.Records.EnsureCompany(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}
	if id != nil && len(a.Records.Snapshot().Companies) > known {
		printf("  Created company: %s\n", name)
	}
	return id, nil
}

// AddContactCommand adds a new contact.
func AddContactCommand(a *app.App, args []string) error {
	fs := newFlagSet("add-contact")
	first := fs.String("first", "", "First name (required)")
	last := fs.String("last", "", "Last name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	title := fs.String("title", "", "Job title")
	company := fs.String("company", "", "Company name")
	status := fs.String("status", models.ContactLead, "Status (lead, prospect, customer, inactive)")
	source := fs.String("source", "", "Lead source")
	notes := fs.String("notes", "", "Notes about the contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	in := models.ContactInput{
		FirstName:  first,
		LastName:   last,
		Email:      models.OptionalString(*email),
		Phone:      models.OptionalString(*phone),
		JobTitle:   models.OptionalString(*title),
		Status:     status,
		LeadSource: models.OptionalString(*source),
		Notes:      models.OptionalString(*notes),
	}
	if err := in.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	orgID, err := resolveCompany(ctx, a, *company)
	if err != nil {
		return err
	}
	in.OrganizationID = orgID

	if err := a.Records.AddContact(ctx, in); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	printf("✓ Contact created: %s %s\n", *first, *last)
	if *email != "" {
		printf("  Email: %s\n", *email)
	}
	if *company != "" {
		printf("  Company: %s\n", *company)
	}
	return nil
}

// ListContactsCommand lists contacts, newest first.
func ListContactsCommand(a *app.App, args []string) error {
	fs := newFlagSet("list-contacts")
	query := fs.String("query", "", "Search by name or email")
	status := fs.String("status", views.All, "Filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	a.Records.FetchContacts(context.Background())
	contacts := views.FilterContacts(a.Records.Snapshot().Contacts, *query, *status)

	if len(contacts) == 0 {
		printf("No contacts found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-------\t--")
	for _, c := range contacts {
		companyName := "-"
		if c.Company != nil {
			companyName = c.Company.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.FullName(), dash(c.Email), models.OptionLabel(models.ContactStatuses, c.Status), companyName, c.ID)
	}
	_ = w.Flush()

	printf("\nTotal: %d contact(s)\n", len(contacts))
	return nil
}

// ShowContactCommand prints a contact with its deals, projects and activities.
func ShowContactCommand(a *app.App, args []string) error {
	fs := newFlagSet("show-contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "contact")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	a.Records.FetchContacts(ctx)
	a.Records.FetchDeals(ctx)
	a.Records.FetchProjects(ctx)
	a.Records.FetchActivities(ctx, storeFilter(&id, nil, nil, nil))

	contact, ok := a.Records.GetContact(id)
	if !ok {
		printf("Contact not found\n")
		return nil
	}

	st := a.Records.Snapshot()
	printf("%s\n", contact.FullName())
	printf("  Status:  %s\n", models.OptionLabel(models.ContactStatuses, contact.Status))
	printf("  Email:   %s\n", dash(contact.Email))
	printf("  Phone:   %s\n", dash(contact.Phone))
	printf("  Title:   %s\n", dash(contact.JobTitle))
	if contact.Company != nil {
		printf("  Company: %s\n", contact.Company.Name)
	}
	printf("  Source:  %s\n", dash(contact.LeadSource))

	deals := views.DealsForContact(st.Deals, id)
	printf("\nDeals (%d)\n", len(deals))
	for _, d := range deals {
		printf("  • %s  %s  %s\n", d.Title, formatMoney(d.Value), models.StageLabel(d.Stage))
	}

	projects := views.ProjectsForContact(st.Projects, id)
	printf("\nProjects (%d)\n", len(projects))
	for _, p := range projects {
		printf("  • %s  %s\n", p.Name, models.OptionLabel(models.ProjectStatuses, p.Status))
	}

	printActivities(views.ActivitiesForContact(st.Activities, id))
	return nil
}

// UpdateContactCommand updates the fields given as flags.
func UpdateContactCommand(a *app.App, args []string) error {
	fs := newFlagSet("update-contact")
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	title := fs.String("title", "", "Job title")
	company := fs.String("company", "", "Company name")
	status := fs.String("status", "", "Status")
	notes := fs.String("notes", "", "Notes about the contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "contact")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	set := setFlags(fs)
	in := models.ContactInput{
		FirstName: stringIfSet(set, "first", first),
		LastName:  stringIfSet(set, "last", last),
		Email:     stringIfSet(set, "email", email),
		Phone:     stringIfSet(set, "phone", phone),
		JobTitle:  stringIfSet(set, "title", title),
		Status:    stringIfSet(set, "status", status),
		Notes:     stringIfSet(set, "notes", notes),
	}
	if in.Status != nil && !models.HasOption(models.ContactStatuses, *in.Status) {
		return fmt.Errorf("invalid status %q", *in.Status)
	}

	ctx := context.Background()
	if set["company"] {
		if in.OrganizationID, err = resolveCompany(ctx, a, *company); err != nil {
			return err
		}
	}

	if err := a.Records.UpdateContact(ctx, id, in); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	printf("✓ Contact updated: %s\n", id)
	return nil
}

// DeleteContactCommand deletes a contact.
func DeleteContactCommand(a *app.App, args []string) error {
	fs := newFlagSet("delete-contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "contact")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	if err := a.Records.DeleteContact(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	printf("✓ Contact deleted: %s\n", id)
	return nil
}
