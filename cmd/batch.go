package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
)

var batchCmd = &cobra.Command{
	Use:   "batch <companies.csv>",
	Short: "Scan companies from a CSV file (columns: domain[,name])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		companies, err := readCompaniesCSV(args[0])
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			return eris.Errorf("no companies in %s", args[0])
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		// Seed the roster up front so companies whose scan later fails are
		// still on record.
		if err := env.Store.UpsertCompanies(cmd.Context(), companies); err != nil {
			return eris.Wrap(err, "seed company roster")
		}

		zap.L().Info("starting batch scan", zap.Int("companies", len(companies)))
		results := env.Pipeline.ProcessCompanies(cmd.Context(), companies)

		enrichedFields := 0
		for _, r := range results {
			enrichedFields += len(r.Enrichment.Fields)
		}
		fmt.Printf("scanned %d/%d companies, %d field outcomes recorded\n",
			len(results), len(companies), enrichedFields)
		return nil
	},
}

// readCompaniesCSV parses a CSV of domains with an optional name column. A
// header row is skipped when its first cell reads like a column label.
func readCompaniesCSV(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var companies []model.Company
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "parse %s", path)
		}
		if len(record) == 0 {
			continue
		}

		domain := strings.TrimSpace(record[0])
		if first {
			first = false
			if strings.EqualFold(domain, "domain") || strings.EqualFold(domain, "url") {
				continue
			}
		}
		if domain == "" {
			continue
		}

		company := model.Company{Domain: domain}
		if len(record) > 1 {
			company.Name = strings.TrimSpace(record[1])
		}
		companies = append(companies, company)
	}
	return companies, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
