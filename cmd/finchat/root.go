package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/infra/config"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
	"github.com/matiasleandrokruk/finchat/internal/infra/logging"
	"github.com/matiasleandrokruk/finchat/internal/infra/sqlite"
	"github.com/matiasleandrokruk/finchat/internal/version"
)

// app is the state shared by every subcommand. Config and logger are
// resolved in the root PersistentPreRunE.
type app struct {
	out        io.Writer
	configFile string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "finchat",
		Short:         "Personal-finance chat assistant",
		Long:          "finchat answers personal-finance questions through a chain of answer backends and analyses monthly budgets.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file (default $FINCHAT_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default $LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newAskCmd(a),
		newBudgetCmd(a),
		newTaxCmd(a),
		newMCPCmd(a),
		newSecretCmd(a),
	)
	return root
}

func (a *app) setup() error {
	var (
		cfg config.Config
		err error
	)
	if a.configFile != "" {
		cfg, err = config.LoadFrom(a.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return usageError{err}
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// orchestratorConfig maps the flat configuration onto the backend configs.
func (a *app) orchestratorConfig() llm.OrchestratorConfig {
	return llm.OrchestratorConfig{
		Session: llm.SessionConfig{
			APIKey:      a.cfg.WatsonAPIKey,
			URL:         a.cfg.WatsonURL,
			AssistantID: a.cfg.WatsonAssistantID,
			IAMURL:      a.cfg.WatsonIAMURL,
			Version:     a.cfg.WatsonVersion,
		},
		Generation: llm.GenerationConfig{
			URL:    a.cfg.GraniteAPIURL,
			APIKey: a.cfg.GraniteAPIKey,
		},
		Extractive: llm.ExtractiveConfig{
			Endpoint: a.cfg.QAEndpoint,
			Token:    a.cfg.HFToken,
		},
	}
}

func (a *app) orchestrator(ctx context.Context) *llm.Orchestrator {
	return llm.NewOrchestratorFromConfig(ctx, a.orchestratorConfig(), a.logger)
}

// openDB opens the configured database and brings its schema up to date.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sqlite.NewDB(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqlite.MigrateUp(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("migrate %s: %w", a.cfg.DBPath, err)
	}
	return db, nil
}
