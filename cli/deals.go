// ABOUTME: Deal CLI commands
// ABOUTME: Pipeline management with stage moves, weighted value and ranking
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/views"
)

func checkStage(stage string) error {
	if !models.IsValidStage(stage) {
		return fmt.Errorf("invalid stage %q (valid: prospecting, qualification, proposal, negotiation, closed_won, closed_lost)", stage)
	}
	return nil
}

// AddDealCommand adds a new deal. The probability follows the stage.
func AddDealCommand(a *app.App, args []string) error {
	fs := newFlagSet("add-deal")
	title := fs.String("title", "", "Deal title (required)")
	value := fs.Float64("value", 0, "Deal value")
	stage := fs.String("stage", models.StageProspecting, "Pipeline stage")
	company := fs.String("company", "", "Company name")
	contact := fs.String("contact", "", "Contact ID")
	closeDate := fs.String("close", "", "Expected close date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}
	if err := checkStage(*stage); err != nil {
		return err
	}

	contactID, err := optionalID(*contact, "contact")
	if err != nil {
		return err
	}

	in := models.DealInput{
		Title:             title,
		Value:             value,
		ContactID:         contactID,
		ExpectedCloseDate: models.OptionalString(*closeDate),
		Notes:             models.OptionalString(*notes),
	}.WithStage(*stage)
	if err := in.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	if in.CompanyID, err = resolveCompany(ctx, a, *company); err != nil {
		return err
	}

	if err := a.Records.AddDeal(ctx, in); err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	printf("✓ Deal created: %s\n", *title)
	printf("  Value: %s  Stage: %s (%d%%)\n", formatMoney(*value), models.StageLabel(*stage), models.StageProbability(*stage))
	return nil
}

// ListDealsCommand lists deals, or the open pipeline board with --board.
func ListDealsCommand(a *app.App, args []string) error {
	fs := newFlagSet("list-deals")
	query := fs.String("query", "", "Search by title")
	stage := fs.String("stage", views.All, "Filter by stage")
	board := fs.Bool("board", false, "Group open deals by stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	a.Records.FetchDeals(context.Background())
	deals := views.FilterDeals(a.Records.Snapshot().Deals, *query, *stage)

	if *board {
		for _, col := range views.PipelineBoard(deals) {
			printf("%s · %d deals · %s\n", col.Stage.Label, col.Count, formatMoney(col.Value))
			for _, d := range col.Deals {
				printf("  • %s  %s  %s\n", d.Title, formatMoney(d.Value), short(d.ID))
			}
		}
		return nil
	}

	if len(deals) == 0 {
		printf("No deals found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "TITLE\tVALUE\tSTAGE\tPROB\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t----\t-------\t--")
	for _, d := range deals {
		companyName := "-"
		if d.Company != nil {
			companyName = d.Company.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\t%s\n",
			d.Title, formatMoney(d.Value), models.StageLabel(d.Stage), d.Probability, companyName, d.ID)
	}
	_ = w.Flush()

	printf("\n%d deals · %s total · %s weighted", len(deals),
		formatMoney(views.TotalValue(deals)), formatMoney(views.WeightedPipeline(deals)))
	if avg, ok := views.AverageDealValue(deals); ok {
		printf(" · %s average", formatMoney(avg))
	}
	printf("\n")
	return nil
}

// ShowDealCommand prints a deal with its weighted value, pipeline rank,
// stage progress and activities.
func ShowDealCommand(a *app.App, args []string) error {
	fs := newFlagSet("show-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "deal")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	ctx := context.Background()
	a.Records.FetchDeals(ctx)
	a.Records.FetchActivities(ctx, storeFilter(nil, nil, &id, nil))

	deal, ok := a.Records.GetDeal(id)
	if !ok {
		printf("Deal not found\n")
		return nil
	}

	st := a.Records.Snapshot()
	printf("%s\n", deal.Title)
	printf("  Value:    %s\n", formatMoney(deal.Value))
	printf("  Weighted: %s (%d%%)\n", formatMoney(views.WeightedValue(deal)), deal.Probability)
	if rank := views.PipelineRank(st.Deals, deal.ID); rank > 0 {
		printf("  Rank:     #%d of %d open deals\n", rank, len(views.ActiveDeals(st.Deals)))
	}
	if deal.Contact != nil {
		printf("  Contact:  %s\n", deal.Contact.FullName())
	}
	if deal.Company != nil {
		printf("  Company:  %s\n", deal.Company.Name)
	}
	printf("  Closes:   %s\n", dash(deal.ExpectedCloseDate))

	printf("\nPipeline progress\n")
	for _, step := range views.StageProgress(deal.Stage) {
		marker := "○"
		switch step.State {
		case views.StepCurrent:
			marker = "●"
		case views.StepPassed:
			marker = "✓"
		}
		printf("  %s %s (%d%%)\n", marker, step.Stage.Label, step.Stage.Probability)
	}

	printActivities(views.ActivitiesForDeal(st.Activities, id))
	return nil
}

// MoveDealCommand changes a deal's stage: move-deal <id> <stage>.
func MoveDealCommand(a *app.App, args []string) error {
	fs := newFlagSet("move-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "deal")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("stage is required")
	}
	stage := fs.Arg(1)
	if err := checkStage(stage); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	if err := a.Records.MoveDeal(context.Background(), id, stage); err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}

	printf("✓ Deal moved to %s (%d%%)\n", models.StageLabel(stage), models.StageProbability(stage))
	return nil
}

// DeleteDealCommand deletes a deal.
func DeleteDealCommand(a *app.App, args []string) error {
	fs := newFlagSet("delete-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "deal")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	if err := a.Records.DeleteDeal(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	printf("✓ Deal deleted: %s\n", id)
	return nil
}

// UpdateDealCommand updates the fields given as flags. A stage change
// also sets the matching probability.
func UpdateDealCommand(a *app.App, args []string) error {
	fs := newFlagSet("update-deal")
	title := fs.String("title", "", "Deal title")
	value := fs.Float64("value", 0, "Deal value")
	stage := fs.String("stage", "", "Pipeline stage")
	closeDate := fs.String("close", "", "Expected close date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "deal")
	if err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	set := setFlags(fs)
	in := models.DealInput{
		Title:             stringIfSet(set, "title", title),
		ExpectedCloseDate: stringIfSet(set, "close", closeDate),
		Notes:             stringIfSet(set, "notes", notes),
	}
	if set["value"] {
		in.Value = value
	}
	if set["stage"] {
		if err := checkStage(*stage); err != nil {
			return err
		}
		in = in.WithStage(*stage)
	}

	if err := a.Records.UpdateDeal(context.Background(), id, in); err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	printf("✓ Deal updated: %s\n", id)
	return nil
}
