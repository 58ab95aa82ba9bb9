package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clusterline/clusterline/pkg/validate"
)

// printReport writes a validation report to stdout, as text or JSON
// depending on the global --json flag.
func printReport(report *validate.Report) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, f := range report.Errors {
		fmt.Printf("error: %s\n", f.String())
	}
	for _, f := range report.Warnings {
		fmt.Printf("%s: %s\n", f.Severity, f.String())
	}

	if report.Valid() {
		fmt.Printf("%s: valid (%d warnings)\n", report.Source, len(report.Warnings))
	} else {
		fmt.Printf("%s: invalid (%d errors, %d warnings)\n",
			report.Source, len(report.Errors), len(report.Warnings))
	}
	return nil
}
