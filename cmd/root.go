package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/withobsrvr/crawlersetup/internal/config"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

var (
	logLevel string

	// runID identifies one invocation in logs and in cluster side request logs
	runID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crawlersetup",
	Short: "Provision Elasticsearch resources for the self-served crawler",
	Long: `crawlersetup makes sure the ingest pipelines and the Vertex AI inference
endpoint used by the self-served crawler exist on an Elasticsearch cluster.
Resources that already exist are left untouched, so it is safe to run again.

The cluster is read from ES_HOST, ES_PORT and ES_API_KEY. Running the command
without a subcommand is the same as running "crawlersetup apply".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApply,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	_ = viper.BindPFlag(config.EnvLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads ENV variables and sets up logging for this run.
func initConfig() {
	config.BindEnv(viper.GetViper())
	viper.AutomaticEnv()

	if err := logger.Init(viper.GetString(config.EnvLogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	runID = uuid.NewString()
	logger.With(zap.String("run_id", runID))
}
