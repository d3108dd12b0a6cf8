package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists the registry sites that can be queried.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := loadSites()
		if err != nil {
			return err
		}
		renderSites(cmd.OutOrStdout(), sites.List())
		return nil
	},
}
