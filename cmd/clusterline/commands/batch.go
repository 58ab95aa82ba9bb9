package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterline/clusterline/pkg/engine"
)

func newBatchCommand(version string) *cobra.Command {
	var (
		parallel      int
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "batch <template>...",
		Short: "Validate many templates concurrently",
		Long: `Batch validates each template independently with a bounded worker pool.
One template's failure never suppresses another's report.

With --metrics-listen, run counters and finding histograms are served on
/metrics for the duration of the batch.`,
		Example: `  # Validate a fleet of templates, eight at a time
  clusterline batch configs/*.tmpl --region us-east-1 --parallel 8

  # Expose Prometheus metrics while validating
  clusterline batch configs/*.tmpl --region us-east-1 --metrics-listen :9090`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := gatherVars()
			if err != nil {
				return err
			}

			tel, err := newTelemetry(version, metricsListen)
			if err != nil {
				return err
			}
			defer func() { _ = tel.Shutdown(cmd.Context()) }()

			if metricsListen != "" {
				go func() {
					if err := tel.Metrics.Serve(); err != nil {
						log.Error().Err(err).Msg("Metrics endpoint failed")
					}
				}()
			}

			inputs := make([]engine.Input, len(args))
			for i, path := range args {
				inputs[i] = engine.Input{TemplatePath: path, RawVars: vars}
			}

			pipeline := engine.NewPipeline(engine.Options{Telemetry: tel})
			scheduler := engine.NewBatchScheduler(pipeline, parallel, tel.Logger)
			results := scheduler.Run(cmd.Context(), inputs)

			var failed, invalid int
			for _, result := range results {
				switch {
				case result.Err != nil:
					failed++
					fmt.Printf("%s: failed: %v\n", result.Source, result.Err)
				case !result.Report.Valid():
					invalid++
					fmt.Printf("%s: invalid (%d errors, %d warnings)\n",
						result.Source, len(result.Report.Errors), len(result.Report.Warnings))
				default:
					fmt.Printf("%s: valid (%d warnings)\n", result.Source, len(result.Report.Warnings))
				}
			}

			if failed > 0 || invalid > 0 {
				return fmt.Errorf("batch finished: %d failed, %d invalid of %d templates",
					failed, invalid, len(results))
			}
			log.Info().Int("templates", len(results)).Msg("Batch finished, all valid")
			return nil
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 4, "maximum concurrent validations")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")

	return cmd
}
