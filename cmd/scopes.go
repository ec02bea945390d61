package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/policyscope/policyscan/internal/template"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List the scope definitions from the template workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Template.Path == "" {
			return eris.New("no template path configured (set POLICYSCAN_TEMPLATE_PATH)")
		}

		loader := template.NewLoader(cfg.Template.Path, cfg.Template.Sheet)
		scopes, err := loader.LoadScopes()
		if err != nil {
			return err
		}

		for _, s := range scopes {
			if s.Category != "" {
				fmt.Printf("%-30s [%s] %s\n", s.Name, s.Category, s.Description)
			} else {
				fmt.Printf("%-30s %s\n", s.Name, s.Description)
			}
		}
		fmt.Printf("%d scopes\n", len(scopes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scopesCmd)
}
