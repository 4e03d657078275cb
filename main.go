// ABOUTME: Entry point for the ancora CRM client
// ABOUTME: Builds the app from config and routes to CLI, TUI or MCP server commands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/cli"
	"github.com/harperreed/ancora/config"
	"github.com/harperreed/ancora/session"
	"github.com/harperreed/ancora/tui"
	"go.uber.org/zap"
)

const version = "0.2.0"

type command func(a *app.App, args []string) error

var commands = map[string]map[string]command{
	"auth": {
		"login":    cli.LoginCommand,
		"register": cli.RegisterCommand,
		"confirm":  cli.ConfirmCommand,
		"logout":   cli.LogoutCommand,
		"whoami":   cli.WhoamiCommand,
	},
	"contact": {
		"add":    cli.AddContactCommand,
		"list":   cli.ListContactsCommand,
		"show":   cli.ShowContactCommand,
		"update": cli.UpdateContactCommand,
		"delete": cli.DeleteContactCommand,
	},
	"company": {
		"add":    cli.AddCompanyCommand,
		"list":   cli.ListCompaniesCommand,
		"show":   cli.ShowCompanyCommand,
		"update": cli.UpdateCompanyCommand,
		"delete": cli.DeleteCompanyCommand,
	},
	"deal": {
		"add":    cli.AddDealCommand,
		"list":   cli.ListDealsCommand,
		"show":   cli.ShowDealCommand,
		"move":   cli.MoveDealCommand,
		"update": cli.UpdateDealCommand,
		"delete": cli.DeleteDealCommand,
	},
	"project": {
		"add":    cli.AddProjectCommand,
		"list":   cli.ListProjectsCommand,
		"show":   cli.ShowProjectCommand,
		"update": cli.UpdateProjectCommand,
		"delete": cli.DeleteProjectCommand,
	},
	"task": {
		"add":    cli.AddTaskCommand,
		"toggle": cli.ToggleTaskCommand,
		"delete": cli.DeleteTaskCommand,
	},
	"activity": {
		"log":  cli.LogActivityCommand,
		"list": cli.ListActivitiesCommand,
	},
	"viz": {
		"pipeline": cli.VizGraphPipelineCommand,
		"all":      cli.VizGraphAllCommand,
		"contact":  cli.VizGraphContactCommand,
		"company":  cli.VizGraphCompanyCommand,
	},
}

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("ancora version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	name, rest := args[0], args[1:]
	var run func(ctx context.Context, a *app.App) error
	var opts []app.Option

	switch name {
	case "mcp":
		run = func(ctx context.Context, a *app.App) error { return cli.MCPCommand(a, version) }
	case "tui":
		nav := &tui.Navigator{}
		opts = append(opts, app.WithNavigator(nav))
		run = func(ctx context.Context, a *app.App) error { return cli.TUICommand(ctx, a, nav, rest) }
	case "dashboard":
		run = func(ctx context.Context, a *app.App) error { return cli.DashboardCommand(a, rest) }
	default:
		group, ok := commands[name]
		if !ok {
			fmt.Printf("Unknown command: %s\n\n", name)
			printUsage()
			os.Exit(1)
		}
		if len(rest) == 0 {
			fmt.Printf("Error: %s requires a subcommand\n\n", name)
			printUsage()
			os.Exit(1)
		}
		cmd, ok := group[rest[0]]
		if !ok {
			fmt.Printf("Unknown %s command: %s\n\n", name, rest[0])
			printUsage()
			os.Exit(1)
		}
		subArgs := rest[1:]
		run = func(ctx context.Context, a *app.App) error { return cmd(a, subArgs) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	a, err := app.New(cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if !a.Bootstrap(ctx, bootstrapTimeout(name)) {
		a.Logger.Warn("session check timed out, continuing with cached user")
	}
	a.ServeMetrics()
	a.Logger.Debug("ancora starting", zap.String("command", name), zap.String("backend", cfg.Backend))

	err = run(ctx, a)
	if closeErr := a.Close(); closeErr != nil {
		log.Printf("Warning: shutdown: %v", closeErr)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// bootstrapTimeout is the guard window for the top-level UI and the
// shorter hydration window for one-shot commands.
func bootstrapTimeout(name string) time.Duration {
	if name == "tui" {
		return session.GuardTimeout
	}
	return session.HydrationTimeout
}

func printUsage() {
	fmt.Printf(`ancora v%s - CRM client

USAGE:
  ancora [--version] <command> [subcommand] [flags]

CONFIGURATION (environment or .env):
  SUPABASE_URL, SUPABASE_ANON_KEY   Hosted backend (selects the rest backend)
  ANCORA_BACKEND                    rest or local (default: local without SUPABASE_URL)
  ANCORA_DB_PATH                    Local backend database
  ANCORA_KV_PATH                    Session cache directory
  ANCORA_CHARM_HOST                 Charm server for session sync
  ANCORA_LOG_LEVEL, ANCORA_LOG_FORMAT
  ANCORA_METRICS_ADDR               Serve Prometheus metrics on this address
  ANCORA_CONFIRM_EMAIL              Local backend holds sign-ups until confirmed

COMMANDS:
  auth login --email <email>                Sign in (password is prompted)
  auth register --email <email> --name <n>  Create an account
  auth confirm <email>                      Confirm a pending sign-up (local backend)
  auth logout                               Sign out
  auth whoami [--sync]                      Show the signed-in user

  contact add|list|show|update|delete       Manage contacts
  company add|list|show|update|delete       Manage companies
  deal add|list|show|move|update|delete     Manage deals
    deal list --board                         Show the pipeline board
    deal move <id> <stage>                    Move a deal to a stage
  project add|list|show|update|delete       Manage projects
  task add|toggle|delete --project <id>     Manage project tasks
  activity log|list                         Log and list activities

  dashboard                                 Print the CRM dashboard
  viz pipeline|all|contact <id>|company <id>  Graphviz DOT output
    --output <file>                           Write to a file instead of stdout

  tui                                       Interactive terminal UI
  mcp                                       MCP server over stdio

Run '<command> <subcommand> -h' for the flags of a command.

STAGES:
  prospecting (10%%), qualification (25%%), proposal (50%%),
  negotiation (75%%), closed_won (100%%), closed_lost (0%%)

EXAMPLES:
  ancora auth login --email jane@example.com
  ancora company add --name "Acme Corp" --industry Manufacturing
  ancora deal add --title "Enterprise License" --company "Acme Corp" --value 50000
  ancora deal move <id> negotiation
  ancora viz pipeline --output pipeline.dot

`, version)
}
