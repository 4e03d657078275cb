// ABOUTME: Company CLI commands
// ABOUTME: Human-friendly commands for managing companies
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/views"
)

// AddCompanyCommand adds a new company.
func AddCompanyCommand(a *app.App, args []string) error {
	fs := newFlagSet("add-company")
	name := fs.String("name", "", "Company name (required)")
	industry := fs.String("industry", "", "Industry")
	size := fs.String("size", "", "Company size")
	website := fs.String("website", "", "Website")
	phone := fs.String("phone", "", "Phone number")
	address := fs.String("address", "", "Address")
	notes := fs.String("notes", "", "Notes about the company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	in := models.CompanyInput{
		Name:     name,
		Industry: models.OptionalString(*industry),
		Size:     models.OptionalString(*size),
		Website:  models.OptionalString(*website),
		Phone:    models.OptionalString(*phone),
		Address:  models.OptionalString(*address),
		Notes:    models.OptionalString(*notes),
	}
	if err := in.Validate(); err != nil {
		return err
	}

	if err := a.Records.AddCompany(context.Background(), in); err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}

	printf("✓ Company created: %s\n", *name)
	if *industry != "" {
		printf("  Industry: %s\n", *industry)
	}
	return nil
}

// ListCompaniesCommand lists companies by name with their contact counts.
func ListCompaniesCommand(a *app.App, args []string) error {
	fs := newFlagSet("list-companies")
	query := fs.String("query", "", "Search by name")
	industry := fs.String("industry", views.All, "Filter by industry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	a.Records.FetchCompanies(ctx)
	a.Records.FetchContacts(ctx)
	st := a.Records.Snapshot()
	companies := views.FilterCompanies(st.Companies, *query, *industry)

	if len(companies) == 0 {
		printf("No companies found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tINDUSTRY\tCONTACTS\tWEBSITE\tID")
	_, _ = fmt.Fprintln(w, "----\t--------\t--------\t-------\t--")
	for _, c := range companies {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.Name, dash(c.Industry), views.CompanyContactCount(st.Contacts, c.ID), dash(c.Website), c.ID)
	}
	_ = w.Flush()

	printf("\nTotal: %d company(ies)\n", len(companies))
	if industries := views.Industries(st.Companies); len(industries) > 0 {
		printf("Industries: %v\n", industries)
	}
	return nil
}

// ShowCompanyCommand prints a company with its contacts, deals and projects.
func ShowCompanyCommand(a *app.App, args []string) error {
	fs := newFlagSet("show-company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "company")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	a.Records.FetchCompanies(ctx)
	a.Records.FetchContacts(ctx)
	a.Records.FetchDeals(ctx)
	a.Records.FetchProjects(ctx)
	a.Records.FetchActivities(ctx, storeFilter(nil, &id, nil, nil))

	company, ok := a.Records.GetCompany(id)
	if !ok {
		printf("Company not found\n")
		return nil
	}

	st := a.Records.Snapshot()
	printf("%s\n", company.Name)
	printf("  Industry: %s\n", dash(company.Industry))
	printf("  Size:     %s\n", dash(company.Size))
	printf("  Website:  %s\n", dash(company.Website))
	printf("  Phone:    %s\n", dash(company.Phone))

	contacts := views.ContactsForCompany(st.Contacts, id)
	printf("\nContacts (%d)\n", len(contacts))
	for _, c := range contacts {
		printf("  • %s  %s\n", c.FullName(), dash(c.Email))
	}

	deals := views.DealsForCompany(st.Deals, id)
	printf("\nDeals (%d) · %s\n", len(deals), formatMoney(views.TotalValue(deals)))
	for _, d := range deals {
		printf("  • %s  %s  %s\n", d.Title, formatMoney(d.Value), models.StageLabel(d.Stage))
	}

	projects := views.ProjectsForCompany(st.Projects, id)
	printf("\nProjects (%d)\n", len(projects))
	for _, p := range projects {
		printf("  • %s  %s\n", p.Name, models.OptionLabel(models.ProjectStatuses, p.Status))
	}

	printActivities(views.ActivitiesForCompany(st.Activities, id))
	return nil
}

// UpdateCompanyCommand updates the fields given as flags.
func UpdateCompanyCommand(a *app.App, args []string) error {
	fs := newFlagSet("update-company")
	name := fs.String("name", "", "Company name")
	industry := fs.String("industry", "", "Industry")
	size := fs.String("size", "", "Company size")
	website := fs.String("website", "", "Website")
	phone := fs.String("phone", "", "Phone number")
	notes := fs.String("notes", "", "Notes about the company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "company")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	set := setFlags(fs)
	in := models.CompanyInput{
		Name:     stringIfSet(set, "name", name),
		Industry: stringIfSet(set, "industry", industry),
		Size:     stringIfSet(set, "size", size),
		Website:  stringIfSet(set, "website", website),
		Phone:    stringIfSet(set, "phone", phone),
		Notes:    stringIfSet(set, "notes", notes),
	}

	if err := a.Records.UpdateCompany(context.Background(), id, in); err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	printf("✓ Company updated: %s\n", id)
	return nil
}

// DeleteCompanyCommand deletes a company. Linked contacts, deals and
// projects keep existing without it.
func DeleteCompanyCommand(a *app.App, args []string) error {
	fs := newFlagSet("delete-company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "company")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	if err := a.Records.DeleteCompany(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	printf("✓ Company deleted: %s\n", id)
	return nil
}
