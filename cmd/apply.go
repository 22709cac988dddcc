package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/withobsrvr/crawlersetup/internal/config"
	"github.com/withobsrvr/crawlersetup/internal/elastic"
	"github.com/withobsrvr/crawlersetup/internal/pipelines"
	"github.com/withobsrvr/crawlersetup/internal/provision"
	"github.com/withobsrvr/crawlersetup/internal/secrets"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create missing pipelines and the inference endpoint",
	Long: `Create the self-served crawler resources that do not exist yet:

  1. es-crawler-normalizer-pipeline
  2. vertexai_embeddings inference endpoint (credential from Secret Manager)
  3. es-crawler-embedding-pipeline
  4. self-served-crawler-pipeline

Each step runs only if the previous one succeeded. Existing resources are
never updated.`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger.Info("Setting up self-served crawler pipelines")

	cluster, err := config.LoadCluster(viper.GetViper())
	if err != nil {
		return err
	}

	client, err := elastic.New(ctx, cluster, runID)
	if err != nil {
		return err
	}

	fetcher, err := secrets.NewGCPFetcher(ctx, secrets.DefaultRef())
	if err != nil {
		return err
	}
	defer fetcher.Close()

	assembler := pipelines.NewAssembler(client, fetcher, pipelines.DefaultSettings())
	results, err := assembler.Provision(ctx)
	printResults(cmd.OutOrStdout(), results)
	if err != nil {
		return fmt.Errorf("failed to set up self-served crawler pipelines: %w", err)
	}

	logger.Info("Self-served crawler pipelines have been set up successfully",
		zap.Int("created", countCreated(results)),
		zap.Int("existing", len(results)-countCreated(results)))
	return nil
}

func printResults(w io.Writer, results []provision.Result) {
	created := color.New(color.FgGreen, color.Bold)
	existing := color.New(color.FgCyan)

	for _, r := range results {
		switch r.Outcome {
		case provision.OutcomeCreated:
			created.Fprintf(w, "  + %-8s", r.Outcome)
		default:
			existing.Fprintf(w, "  = %-8s", r.Outcome)
		}
		fmt.Fprintf(w, " %s %s\n", r.Kind, r.ID)
	}
}

func countCreated(results []provision.Result) int {
	n := 0
	for _, r := range results {
		if r.Outcome == provision.OutcomeCreated {
			n++
		}
	}
	return n
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
