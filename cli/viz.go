// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the dashboard and Graphviz graph generation commands
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/viz"
)

// loadAll refreshes every collection and returns a graph generator over
// the result.
func loadAll(a *app.App) *viz.GraphGenerator {
	a.Records.FetchAll(context.Background())
	return viz.NewGraphGenerator(a.Records.Snapshot())
}

func writeGraph(dot, output string) error {
	if output != "" {
		return os.WriteFile(output, []byte(dot), 0644)
	}
	printf("%s\n", dot)
	return nil
}

// VizGraphPipelineCommand generates a deal pipeline graph.
func VizGraphPipelineCommand(a *app.App, args []string) error {
	fs := newFlagSet("viz graph pipeline")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	dot, err := loadAll(a).GeneratePipelineGraph()
	if err != nil {
		return err
	}
	return writeGraph(dot, *output)
}

// VizGraphAllCommand generates a complete graph with all entities.
func VizGraphAllCommand(a *app.App, args []string) error {
	fs := newFlagSet("viz graph all")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	dot, err := loadAll(a).GenerateCompleteGraph()
	if err != nil {
		return err
	}
	return writeGraph(dot, *output)
}

// VizGraphContactCommand generates the graph around one contact.
func VizGraphContactCommand(a *app.App, args []string) error {
	fs := newFlagSet("viz graph contact")
	output := fs.String("output", "", "Output file (default: stdout)")
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

	dot, err := loadAll(a).GenerateContactGraph(id)
	if err != nil {
		return err
	}
	return writeGraph(dot, *output)
}

// VizGraphCompanyCommand generates the graph around one company.
func VizGraphCompanyCommand(a *app.App, args []string) error {
	fs := newFlagSet("viz graph company")
	output := fs.String("output", "", "Output file (default: stdout)")
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

	dot, err := loadAll(a).GenerateCompanyGraph(id)
	if err != nil {
		return err
	}
	return writeGraph(dot, *output)
}

// DashboardCommand prints the terminal dashboard.
func DashboardCommand(a *app.App, args []string) error {
	fs := newFlagSet("dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := requireUser(a); err != nil {
		return err
	}

	a.Records.FetchAll(context.Background())
	stats := viz.GenerateDashboardStats(a.Records.Snapshot())
	_, err := fmt.Fprint(stdout, viz.RenderDashboard(stats))
	return err
}
