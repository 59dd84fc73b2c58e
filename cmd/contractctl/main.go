package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glimte/contractgate/internal/config"
	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/validation"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// app carries state shared by all commands
type app struct {
	cfg    config.Config
	logger *slog.Logger

	schemaDir    string
	logLevel     string
	unknownFatal bool
	strictUUID   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "contractctl",
		Short: "Validate records and govern schema contracts",
		Long: `contractctl validates records against versioned schema contracts,
classifies schema changes and runs a gated RabbitMQ consumer.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&a.schemaDir, "schema-dir", "d", "", "Directory of schema documents (env CONTRACT_SCHEMA_DIR)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (env CONTRACT_LOG_LEVEL)")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newCompareCmd(a),
		newReleaseCheckCmd(a),
		newVersionsCmd(a),
		newExportCmd(a),
		newConsumeCmd(a),
		newPublishCmd(a),
	)

	return rootCmd
}

// load reads the environment configuration; flags that were set win
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("schema-dir") {
		a.schemaDir = cfg.SchemaDir
	}
	if !flags.Changed("log-level") {
		a.logLevel = cfg.LogLevel
	}
	if !flags.Changed("unknown-fatal") {
		a.unknownFatal = cfg.UnknownFieldsFatal
	}
	if !flags.Changed("strict-uuid") {
		a.strictUUID = cfg.StrictUUIDVersion
	}

	level, err := config.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) validator() *validation.Validator {
	return validation.New(
		validation.WithUnknownFieldsFatal(a.unknownFatal),
		validation.WithStrictUUIDVersion(a.strictUUID),
	)
}

// registry loads every document in the schema directory
func (a *app) registry() (*schema.Registry, error) {
	registry := schema.NewRegistry(schema.WithLogger(a.logger))
	if _, err := registry.LoadDir(a.schemaDir); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	if registry.Len() == 0 {
		return nil, fmt.Errorf("no schema documents found in %s", a.schemaDir)
	}
	return registry, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("-", n))
}
