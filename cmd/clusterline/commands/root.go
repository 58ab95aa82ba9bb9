package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterline/clusterline/pkg/config"
	"github.com/clusterline/clusterline/pkg/stores"
	"github.com/clusterline/clusterline/pkg/telemetry"
)

var (
	// Global flags
	varFlags     []string
	varsFilePath string
	regionFlag   string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clusterline",
		Short: "Clusterline - cluster configuration resolution and validation",
		Long: `Clusterline resolves parameterized cluster configuration templates into
submission-ready INI configurations and validates them before anything
reaches a provisioning API.

Resolution binds ${variable} markers, selects %if branches by region
class and feature toggles, and assembles the final sections; validation
accumulates every referential, enum, range, and format problem into one
report instead of stopping at the first.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringArrayVar(&varFlags, "var", nil, "template variable as name=value (repeatable)")
	rootCmd.PersistentFlags().StringVar(&varsFilePath, "vars-file", "", "YAML variables profile")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "target region (binds the 'region' variable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newValidateCommand(version))
	rootCmd.AddCommand(newBatchCommand(version))
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// gatherVars merges variable sources in precedence order: vars-file
// defaults, vars-file variables, CLUSTERLINE_VAR_* environment, --var and
// --region flags.
func gatherVars() (map[string]string, error) {
	flags := make(map[string]string)
	for _, kv := range varFlags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", kv)
		}
		flags[name] = value
	}
	if regionFlag != "" {
		flags[config.VarRegion] = regionFlag
	}

	var vf *config.VarsFile
	if varsFilePath != "" {
		loaded, err := config.LoadVarsFile(varsFilePath)
		if err != nil {
			return nil, err
		}
		vf = loaded
	}

	return config.MergeRawVars(vf, config.EnvVars(os.Environ()), flags), nil
}

// newTelemetry builds per-command telemetry honoring the global flags.
func newTelemetry(version, metricsListen string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsListen
	}
	tel, err := telemetry.New(cfg)
	if err != nil {
		return nil, err
	}
	if verbose {
		tel.Events.Subscribe(telemetry.LogSubscriber(tel.Logger))
	}
	return tel, nil
}

// openStore opens the run-history database, creating and migrating it on
// first use.
func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
