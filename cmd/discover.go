package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var discoverJSON bool

var discoverCmd = &cobra.Command{
	Use:   "discover <domain>",
	Short: "Discover policy page URLs for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		policies, err := env.Pipeline.Discover(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		if discoverJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(policies)
		}

		if len(policies) == 0 {
			fmt.Println("no policy pages found")
			return nil
		}
		for _, p := range policies {
			fmt.Printf("%-8s %.2f  %-10s %s\n", p.DocType, p.Confidence, p.DiscoveredVia, p.URL)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "emit JSON output")
	rootCmd.AddCommand(discoverCmd)
}
