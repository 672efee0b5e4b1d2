package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/docshift-inc/docshift-engine/pkg/adapters/datasource"
	_ "github.com/docshift-inc/docshift-engine/pkg/adapters/datasource/cosmos" // register cosmos reader
	"github.com/docshift-inc/docshift-engine/pkg/adapters/target"
	"github.com/docshift-inc/docshift-engine/pkg/artifacts"
	"github.com/docshift-inc/docshift-engine/pkg/config"
	"github.com/docshift-inc/docshift-engine/pkg/logging"
	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/reports"
	"github.com/docshift-inc/docshift-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "docshift-engine",
		Short:         "Assess a Cosmos DB account for migration to relational SQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAssessCmd(), newReportCmd(), newVersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func newAssessCmd() *cobra.Command {
	var (
		configPath     string
		validateTarget bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Sample the source account and generate the migration assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(configPath, Version)
			if err != nil {
				return err
			}
			return runAssess(cmd.Context(), cfg, validateTarget)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	cmd.Flags().BoolVar(&validateTarget, "validate-target", false, "test target SQL connectivity before assessing")
	return cmd
}

// newReportCmd re-renders all artifacts for a previous run from its YAML
// mapping snapshot, without touching the source account. Useful after
// hand-editing the mapping.
func newReportCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "report <run-dir>",
		Short: "Re-render report artifacts from a run directory's mapping snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0], logLevel)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func runReport(runDir, logLevel string) error {
	logger, err := logging.New(logLevel, false)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	snapshotPath := filepath.Join(runDir, "mapping.yaml")
	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read mapping snapshot: %w", err)
	}
	var assessment models.Assessment
	if err := yaml.Unmarshal(raw, &assessment); err != nil {
		return fmt.Errorf("decode mapping snapshot %s: %w", snapshotPath, err)
	}

	// WriteAll lays artifacts out under <outputDir>/<runID>; rooting the
	// writer at the run directory's parent regenerates in place.
	writer := reports.NewWriter(filepath.Dir(filepath.Clean(runDir)), logger)
	paths, err := writer.WriteAll(&assessment)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runAssess(ctx context.Context, cfg *config.Config, validateTarget bool) error {
	logger, err := logging.New(cfg.LogLevel, cfg.Env == "local")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("docshift-engine starting",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("source", logging.SanitizeConnectionString(cfg.Source.Endpoint)))

	if validateTarget {
		validator, err := target.NewValidator(cfg.Target, logger)
		if err != nil {
			return fmt.Errorf("target validation: %w", err)
		}
		defer validator.Close()
		if err := validator.TestConnection(ctx); err != nil {
			return fmt.Errorf("target validation: %w", err)
		}
	}

	reader, err := datasource.NewReader(ctx, "cosmos", map[string]any{
		"endpoint":    cfg.Source.Endpoint,
		"account_key": cfg.Source.AccountKey,
		"databases":   cfg.Source.Databases,
	}, logger)
	if err != nil {
		return fmt.Errorf("create source reader: %w", err)
	}
	defer reader.Close()

	svc := services.NewAssessmentService(reader, accountName(cfg.Source.Endpoint), cfg.Sampling, cfg.Recommendation, cfg.Target.SchemaName, logger)
	assessment, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s", logging.SanitizeError(err))
	}

	writer := reports.NewWriter(cfg.Reports.OutputDir, logger)
	paths, err := writer.WriteAll(assessment)
	if err != nil {
		return err
	}

	if cfg.Artifacts.Enabled {
		uploader, err := artifacts.NewUploader(cfg.Artifacts, logger)
		if err != nil {
			return err
		}
		if err := uploader.Upload(ctx, assessment.RunID.String(), paths); err != nil {
			return fmt.Errorf("%s", logging.SanitizeError(err))
		}
	}

	logger.Info("Assessment finished",
		zap.String("run_id", assessment.RunID.String()),
		zap.String("platform", string(assessment.Recommendation.Platform)),
		zap.String("tier", string(assessment.Recommendation.Tier)),
		zap.String("complexity", string(assessment.Recommendation.Complexity)))
	return nil
}

// accountName extracts the account host from the endpoint URI for report
// labels.
func accountName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Hostname()
}
