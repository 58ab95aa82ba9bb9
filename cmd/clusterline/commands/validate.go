package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterline/clusterline/pkg/config"
	"github.com/clusterline/clusterline/pkg/engine"
	"github.com/clusterline/clusterline/pkg/policy"
	"github.com/clusterline/clusterline/pkg/stores"
	"github.com/clusterline/clusterline/pkg/validate"
)

func newValidateCommand(version string) *cobra.Command {
	var (
		builtin      bool
		policyPaths  []string
		withPolicies bool
		record       bool
		dbPath       string
		strict       bool
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "validate [template]",
		Short: "Validate a resolved cluster configuration",
		Long: `Validate resolves the template for the target region and runs the full
validation pass over the result.

Every finding is accumulated into one report: dangling cross-section
references, enum and range violations, malformed resource IDs and ARNs,
invalid URIs and embedded JSON. Organizational policies (OPA/Rego) are
evaluated on top when enabled, and their violations appear in the same
report.`,
		Example: `  # Validate a template for two partitions
  clusterline validate cluster.tmpl --region us-east-1 --var key_name=ops
  clusterline validate cluster.tmpl --region cn-north-1 --var key_name=ops

  # Validate with site policies, recording the run
  clusterline validate cluster.tmpl --region eu-west-1 --policy ./policies --record

  # Re-validate on every save, hot-reloading site policies
  clusterline validate cluster.tmpl --region us-east-1 --policy ./policies --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !builtin && len(args) == 0 {
				return fmt.Errorf("a template path or --builtin is required")
			}

			vars, err := gatherVars()
			if err != nil {
				return err
			}

			tel, err := newTelemetry(version, "")
			if err != nil {
				return err
			}
			defer func() { _ = tel.Shutdown(cmd.Context()) }()

			pipeline := engine.NewPipeline(engine.Options{Telemetry: tel})

			var polEngine *policy.Engine
			if withPolicies || len(policyPaths) > 0 {
				polEngine, err = policy.NewEngine(tel.Logger)
				if err != nil {
					return err
				}
				if len(policyPaths) > 0 {
					if err := polEngine.LoadPolicies(cmd.Context(), policyPaths); err != nil {
						return err
					}
				}
			}

			var store *stores.SQLiteStore
			if record {
				store, err = openStore(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
			}

			input := engine.Input{Builtin: builtin, RawVars: vars}
			if len(args) > 0 {
				input.TemplatePath = args[0]
				input.Builtin = false
			}

			runOnce := func(ctx context.Context) error {
				result, runErr := pipeline.Run(ctx, input)
				if store != nil {
					if err := recordRun(ctx, store, result); err != nil {
						log.Warn().Err(err).Msg("Failed to record run")
					}
				}
				if runErr != nil {
					return runErr
				}

				if polEngine != nil {
					polResult, err := polEngine.Evaluate(ctx, result.Config, &policy.Context{Source: result.Source})
					if err != nil {
						return err
					}
					mergePolicyFindings(result.Report, polResult)
				}

				if err := printReport(result.Report); err != nil {
					return err
				}
				if !result.Report.Valid() {
					return fmt.Errorf("configuration is invalid: %d errors", len(result.Report.Errors))
				}
				if strict && len(result.Report.Warnings) > 0 {
					return fmt.Errorf("strict mode: %d warnings treated as errors", len(result.Report.Warnings))
				}
				return nil
			}

			if !watch {
				return runOnce(cmd.Context())
			}
			if input.TemplatePath == "" {
				return fmt.Errorf("--watch requires a template file")
			}
			if polEngine != nil && len(policyPaths) > 0 {
				loader := policy.NewLoader(tel.Logger)
				err := loader.Watch(cmd.Context(), policyPaths, func(policies []policy.Policy) error {
					return polEngine.ReplacePolicies(policies)
				})
				if err != nil {
					return err
				}
				defer func() { _ = loader.StopWatching() }()
			}
			return watchAndValidate(cmd.Context(), input.TemplatePath, runOnce)
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "validate the embedded reference template")
	cmd.Flags().StringArrayVar(&policyPaths, "policy", nil, "policy file or directory (repeatable, implies policy evaluation)")
	cmd.Flags().BoolVar(&withPolicies, "builtin-policies", false, "evaluate the built-in policy set")
	cmd.Flags().BoolVar(&record, "record", false, "record the run in the history database")
	cmd.Flags().StringVar(&dbPath, "db", defaultHistoryPath, "history database path")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever the template changes")

	return cmd
}

const defaultHistoryPath = ".clusterline/history.db"

// watchAndValidate re-runs validation on every template write until the
// context is cancelled. Validation failures are reported, not fatal.
func watchAndValidate(ctx context.Context, path string, runOnce func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if err := runOnce(ctx); err != nil {
		log.Error().Err(err).Msg("Validation failed")
	}
	log.Info().Str("path", path).Msg("Watching template for changes")

	var rerunTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors fire several events per save.
			if rerunTimer != nil {
				rerunTimer.Stop()
			}
			rerunTimer = time.AfterFunc(300*time.Millisecond, func() {
				if err := runOnce(ctx); err != nil {
					log.Error().Err(err).Msg("Validation failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// recordRun persists one pipeline result, findings included.
func recordRun(ctx context.Context, store *stores.SQLiteStore, result *engine.Result) error {
	run := &stores.ValidationRun{
		ID:        result.RunID,
		Source:    result.Source,
		StartedAt: time.Now().UTC().Add(-result.Duration),
	}
	completed := time.Now().UTC()
	run.CompletedAt = &completed

	switch {
	case result.Err != nil:
		run.Status = stores.RunStatusFailed
		msg := result.Err.Error()
		run.Error = &msg
	case result.Report.Valid():
		run.Status = stores.RunStatusValid
	default:
		run.Status = stores.RunStatusInvalid
	}

	if result.Config != nil {
		if aws := result.Config.Section(config.SectionAWS, ""); aws != nil {
			run.Region, _ = aws.Get(config.KeyRegionName)
			run.Partition = string(config.ClassifyRegion(run.Region))
		}
	}
	if result.Report != nil {
		run.ErrorCount = len(result.Report.Errors)
		run.WarningCount = len(result.Report.Warnings)
	}

	if err := store.CreateRun(ctx, run); err != nil {
		return err
	}
	if result.Report != nil {
		return store.RecordReport(ctx, run.ID, result.Report)
	}
	return nil
}

// mergePolicyFindings folds policy violations into the validation report.
func mergePolicyFindings(report *validate.Report, res *policy.Result) {
	for _, v := range res.Violations {
		report.Errors = append(report.Errors, validate.Finding{
			Kind:     validate.KindPolicy,
			Severity: validate.SeverityError,
			Section:  v.Section,
			Message:  fmt.Sprintf("%s: %s", v.Policy, v.Message),
		})
	}
	for _, v := range res.Warnings {
		sev := validate.SeverityWarning
		if v.Severity == policy.SeverityInfo {
			sev = validate.SeverityInfo
		}
		report.Warnings = append(report.Warnings, validate.Finding{
			Kind:     validate.KindPolicy,
			Severity: sev,
			Section:  v.Section,
			Message:  fmt.Sprintf("%s: %s", v.Policy, v.Message),
		})
	}
}
