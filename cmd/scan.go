package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/policyscope/policyscan/internal/model"
)

var (
	scanName string
	scanJSON bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <domain>",
	Short: "Run a full scan: discover, scrape, and enrich one company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.ProcessCompany(cmd.Context(), model.Company{
			Domain: args[0],
			Name:   scanName,
		})
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("run %s: %s\n", result.RunID, result.Company.Domain)
		for _, p := range result.Policies {
			fmt.Printf("  %-8s %.2f  %s\n", p.DocType, p.Confidence, p.URL)
		}
		for field, outcome := range result.Enrichment.Fields {
			if outcome.Error != "" {
				fmt.Printf("  %-12s error: %s\n", field, outcome.Error)
				continue
			}
			fmt.Printf("  %-12s %q (%.2f via %s)\n", field, outcome.Value, outcome.Confidence, outcome.Source)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanName, "name", "", "company display name")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit JSON output")
	rootCmd.AddCommand(scanCmd)
}
