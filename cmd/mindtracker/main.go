package main

import (
	"fmt"
	"os"

	"mindtracker/internal/config"
	"mindtracker/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose  bool
	addr     string
	dataFile string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mindtracker",
	Short: "AI-powered mental health journal",
	Long: `mindtracker is a single-user journaling service.

Each entry gets a reflective reply from the configured LLM, an emotion
trigger label and a score, and is appended to a CSV log (or Postgres).

Run without arguments to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.New()
		if addr != "" {
			cfg.HTTPAddr = addr
		}
		if dataFile != "" {
			cfg.DataFile = dataFile
		}

		var err error
		log, err = logger.New(logger.Options{Level: cfg.LogLevel, Verbose: verbose, File: cfg.LogFile})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the journal web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "HTTP listen address (default from HTTP_ADDR or :8080)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "CSV journal path (default from DATA_FILE)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
