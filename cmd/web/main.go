package main

import (
	"fmt"
	"net"
	"os"
	"os/user"

	"github.com/de-tools/costpilot/pkg/providers/azure"
	"github.com/de-tools/costpilot/pkg/repohost/github"
	"github.com/de-tools/costpilot/pkg/server"
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	githubPath string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the CostPilot web server",
		RunE:  runServer,
	}

	usr, _ := user.Current()
	defaultGithubPath := fmt.Sprintf("%s/.costpilot/github.yaml", usr.HomeDir)

	rootCmd.Flags().StringVar(&dbPath, "db", "costpilot.db", "Path to the DuckDB database file")
	rootCmd.Flags().StringVar(&githubPath, "github-config", defaultGithubPath,
		"Path to the GitHub profile (default is $HOME/.costpilot/github.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	resourceStore, err := duckdbresource.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create resource store: %w", err)
	}
	recommendationStore, err := duckdbrecommendation.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create recommendation store: %w", err)
	}
	overrideStore, err := duckdbruleconfig.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create rule override store: %w", err)
	}
	eventStore, err := duckdbprevent.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create pr event store: %w", err)
	}
	connectionStore, err := duckdbconnection.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create connection store: %w", err)
	}

	githubCfg, err := github.LoadConfig(githubPath)
	if err != nil {
		return fmt.Errorf("failed to load github config: %w", err)
	}
	host, err := github.NewClient(ctx, *githubCfg)
	if err != nil {
		return fmt.Errorf("failed to create github client: %w", err)
	}

	factory := azure.NewFactory()
	reconciler := recommend.NewReconciler(recommendationStore, resourceStore)
	engine := rules.NewEngine(
		rules.Catalog(),
		connectionStore,
		overrideStore,
		resourceStore,
		azure.RuleProviders{Factory: factory},
		reconciler,
	)
	syncer := ingest.NewSyncer(connectionStore, azure.IngestProviders{Factory: factory}, resourceStore)
	cycleCtrl := cycle.NewController(syncer, engine)

	mapper := iacmap.NewMapper(host)
	orchestrator := pullrequest.NewOrchestrator(recommendationStore, resourceStore, mapper, host, eventStore)

	serverHost := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if serverHost == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(server.Config{
		Addr: net.JoinHostPort(serverHost, port),
		Dependencies: server.Dependencies{
			Recommendations: recommend.NewService(recommendationStore),
			PullRequests:    orchestrator,
			Cycle:           cycleCtrl,
			Events:          eventStore,
			Logger:          logger,
		},
	})

	return api.Start()
}
