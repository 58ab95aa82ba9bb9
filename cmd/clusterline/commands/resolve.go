package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterline/clusterline/pkg/engine"
)

func newResolveCommand() *cobra.Command {
	var (
		builtin        bool
		outPath        string
		skipValidation bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [template]",
		Short: "Resolve a template into a submission-ready configuration",
		Long: `Resolve binds variables, evaluates %if branches for the target region,
assembles the sections, and prints the final INI configuration.

The resolved configuration is validated before it is printed; a
configuration with validation errors is not emitted unless
--skip-validation is set.`,
		Example: `  # Resolve a template for a GovCloud deployment
  clusterline resolve cluster.tmpl --region us-gov-west-1 --var key_name=ops

  # Resolve the embedded reference template with a variables profile
  clusterline resolve --builtin --vars-file prod.yaml --out cluster.ini`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !builtin && len(args) == 0 {
				return fmt.Errorf("a template path or --builtin is required")
			}

			vars, err := gatherVars()
			if err != nil {
				return err
			}

			input := engine.Input{Builtin: builtin, RawVars: vars}
			if len(args) > 0 {
				input.TemplatePath = args[0]
				input.Builtin = false
			}

			pipeline := engine.NewPipeline(engine.Options{})
			result, err := pipeline.Run(cmd.Context(), input)
			if err != nil {
				return err
			}

			if !result.Report.Valid() && !skipValidation {
				if err := printReport(result.Report); err != nil {
					return err
				}
				return fmt.Errorf("configuration has %d validation errors", len(result.Report.Errors))
			}
			for _, f := range result.Report.Warnings {
				log.Warn().Str("finding", f.String()).Msg("validation warning")
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, result.Rendered, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outPath, err)
				}
				log.Info().Str("path", outPath).Msg("Configuration written")
				return nil
			}

			_, err = os.Stdout.Write(result.Rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "resolve the embedded reference template")
	cmd.Flags().StringVar(&outPath, "out", "", "write the configuration to a file instead of stdout")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "emit the configuration even when validation fails")

	return cmd
}
