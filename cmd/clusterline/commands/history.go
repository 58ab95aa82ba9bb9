package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded validation runs",
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", defaultHistoryPath, "history database path")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSOURCE\tREGION\tSTATUS\tERRORS\tWARNINGS\tSTARTED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					run.ID, run.Source, run.Region, run.Status,
					run.ErrorCount, run.WarningCount,
					run.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	list.Flags().Int("limit", 20, "maximum runs to list")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run and its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			findings, err := store.ListFindings(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Run      interface{} `json:"run"`
					Findings interface{} `json:"findings"`
				}{run, findings})
			}

			fmt.Printf("run:      %s\n", run.ID)
			fmt.Printf("source:   %s\n", run.Source)
			if run.Region != "" {
				fmt.Printf("region:   %s (%s)\n", run.Region, run.Partition)
			}
			fmt.Printf("status:   %s\n", run.Status)
			if run.Error != nil {
				fmt.Printf("error:    %s\n", *run.Error)
			}
			fmt.Printf("started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			if run.CompletedAt != nil {
				fmt.Printf("finished: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
			}

			for _, f := range findings {
				loc := f.Field
				if f.Section != "" {
					loc = fmt.Sprintf("[%s] %s", f.Section, f.Field)
				}
				fmt.Printf("  %s %s: %s: %s\n", f.Severity, f.Kind, loc, f.Message)
			}
			return nil
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(show)

	return cmd
}
