package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"text/tabwriter"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/models/store"
	"github.com/de-tools/costpilot/pkg/providers/azure"
	"github.com/de-tools/costpilot/pkg/repohost/github"
	"github.com/de-tools/costpilot/pkg/services/cycle"
	"github.com/de-tools/costpilot/pkg/services/iacmap"
	"github.com/de-tools/costpilot/pkg/services/ingest"
	"github.com/de-tools/costpilot/pkg/services/pullrequest"
	"github.com/de-tools/costpilot/pkg/services/recommend"
	"github.com/de-tools/costpilot/pkg/services/rules"
	"github.com/de-tools/costpilot/pkg/store/duckdb"
	duckdbconnection "github.com/de-tools/costpilot/pkg/store/duckdb/connection"
	duckdbprevent "github.com/de-tools/costpilot/pkg/store/duckdb/prevent"
	duckdbrecommendation "github.com/de-tools/costpilot/pkg/store/duckdb/recommendation"
	duckdbresource "github.com/de-tools/costpilot/pkg/store/duckdb/resource"
	duckdbruleconfig "github.com/de-tools/costpilot/pkg/store/duckdb/ruleconfig"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	githubPath string
	orgID      string
)

type app struct {
	db              *sql.DB
	resources       duckdbresource.Store
	recommendations duckdbrecommendation.Store
	overrides       duckdbruleconfig.Store
	events          duckdbprevent.Store
	connections     duckdbconnection.Store
}

func openApp() (*app, error) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	resources, err := duckdbresource.NewStore(db)
	if err != nil {
		return nil, err
	}
	recommendations, err := duckdbrecommendation.NewStore(db)
	if err != nil {
		return nil, err
	}
	overrides, err := duckdbruleconfig.NewStore(db)
	if err != nil {
		return nil, err
	}
	events, err := duckdbprevent.NewStore(db)
	if err != nil {
		return nil, err
	}
	connections, err := duckdbconnection.NewStore(db)
	if err != nil {
		return nil, err
	}

	return &app{
		db:              db,
		resources:       resources,
		recommendations: recommendations,
		overrides:       overrides,
		events:          events,
		connections:     connections,
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

func (a *app) cycleController() *cycle.Controller {
	factory := azure.NewFactory()
	reconciler := recommend.NewReconciler(a.recommendations, a.resources)
	engine := rules.NewEngine(
		rules.Catalog(),
		a.connections,
		a.overrides,
		a.resources,
		azure.RuleProviders{Factory: factory},
		reconciler,
	)
	syncer := ingest.NewSyncer(a.connections, azure.IngestProviders{Factory: factory}, a.resources)
	return cycle.NewController(syncer, engine)
}

func loggerContext() context.Context {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "costpilot",
		Short: "CostPilot turns cloud cost findings into pull requests",
	}

	usr, _ := user.Current()
	defaultGithubPath := fmt.Sprintf("%s/.costpilot/github.yaml", usr.HomeDir)

	root.PersistentFlags().StringVar(&dbPath, "db", "costpilot.db", "Path to the DuckDB database file")
	root.PersistentFlags().StringVar(&githubPath, "github-config", defaultGithubPath, "Path to the GitHub profile")
	root.PersistentFlags().StringVar(&orgID, "org", "", "Organization id")

	root.AddCommand(newCycleCmd(), newRecsCmd(), newPRCmd(), newConnectionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run the ingest-and-evaluate cycle",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Sync resources and evaluate the rule catalog for one org",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summary := a.cycleController().RunDailyCycle(loggerContext(), orgID)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tOK\tDURATION\tERROR")
			for _, step := range summary.Steps {
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", step.Name, step.OK, step.Duration, step.Error)
			}
			return w.Flush()
		},
	})

	return cmd
}

func newRecsCmd() *cobra.Command {
	var status, rule string
	var limit int

	cmd := &cobra.Command{
		Use:   "recs",
		Short: "Inspect persisted recommendations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recommendations for one org",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			filter := domain.RecommendationFilter{OrgID: orgID, RuleID: rule}
			if status != "" {
				filter.Statuses = []domain.RecommendationStatus{domain.RecommendationStatus(status)}
			}

			recs, err := recommend.NewService(a.recommendations).List(loggerContext(), filter, domain.Page{Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tRULE\tRESOURCE\tIMPACT/MO\tSTATUS")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%s\n", rec.ID, rec.RuleID, rec.ResourceID, rec.ImpactMonthly, rec.Status)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "Filter by status (open, in_pr, merged, closed, dismissed)")
	list.Flags().StringVar(&rule, "rule", "", "Filter by rule id")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum rows to return")

	cmd.AddCommand(list)
	return cmd
}

func newPRCmd() *cobra.Command {
	var recID, title string

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Open fix pull requests",
	}

	open := &cobra.Command{
		Use:   "open",
		Short: "Open a pull request for one recommendation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if orgID == "" || recID == "" {
				return fmt.Errorf("--org and --rec are required")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := loggerContext()

			githubCfg, err := github.LoadConfig(githubPath)
			if err != nil {
				return fmt.Errorf("failed to load github config: %w", err)
			}
			host, err := github.NewClient(ctx, *githubCfg)
			if err != nil {
				return fmt.Errorf("failed to create github client: %w", err)
			}

			orchestrator := pullrequest.NewOrchestrator(
				a.recommendations, a.resources, iacmap.NewMapper(host), host, a.events)

			pr, err := orchestrator.OpenFixPR(ctx, orgID, recID, pullrequest.Options{Title: title})
			if err != nil {
				return err
			}

			fmt.Printf("Opened PR #%d on branch %s\n%s\n", pr.Number, pr.HeadRef, pr.URL)
			return nil
		},
	}
	open.Flags().StringVar(&recID, "rec", "", "Recommendation id")
	open.Flags().StringVar(&title, "title", "", "Override the PR title")

	cmd.AddCommand(open)
	return cmd
}

func newConnectionCmd() *cobra.Command {
	var profile string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Manage provider connections",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Link an org to an Azure subscription from a CLI profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			cfg, err := azure.LoadConfig(profile)
			if err != nil {
				return fmt.Errorf("failed to load Azure profile: %w", err)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			conn := cfg.Connection(orgID)
			err = a.connections.Upsert(loggerContext(), store.ConnectionRecord{
				ID:             uuid.NewString(),
				OrgID:          conn.OrgID,
				SubscriptionID: conn.SubscriptionID,
				TenantID:       conn.TenantID,
				ClientID:       conn.ClientID,
				Enabled:        !disabled,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Linked org %s to subscription %s\n", orgID, conn.SubscriptionID)
			return nil
		},
	}
	add.Flags().StringVar(&profile, "profile", azure.DefaultProfile, "Azure CLI profile name")
	add.Flags().BoolVar(&disabled, "disabled", false, "Create the connection disabled")

	cmd.AddCommand(add)
	return cmd
}
