package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/config"
	"github.com/garyjia/settlement-converter/internal/pipeline"
	"github.com/garyjia/settlement-converter/internal/storage"
	"github.com/garyjia/settlement-converter/pkg/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// errInconsistent makes the process exit with status 2 after the
// difference report has been printed.
var errInconsistent = errors.New("offer and reply do not match")

// app carries the state shared by all commands of one invocation.
type app struct {
	// Global flags
	configPath string
	logLevel   string
	format     string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "settlement",
		Short: "Convert and reconcile bank batch settlement files",
		Long: `settlement turns fixed-width batch payment offers (报盘) into the
spreadsheets expected by the paying bank, and reconciles the bank's reply
spreadsheet (回盘) with the original offer, writing an annotated copy of the
offer text with a per-line success or failure code.

Two variants exist: "local" for accounts at the paying bank (本行) and
"other" for interbank accounts (他行).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.format, "format", formatText, "Report format: text, json or yaml")

	rootCmd.AddCommand(
		a.offerCmd(pipeline.VariantLocal),
		a.offerCmd(pipeline.VariantOther),
		a.replyCmd(pipeline.VariantLocal),
		a.replyCmd(pipeline.VariantOther),
		a.serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := validateFormat(a.format); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) service(baseDir string) (*pipeline.Service, error) {
	return pipeline.NewService(a.cfg, storage.NewLocalFileStorage(baseDir, a.logger), a.logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errInconsistent) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
