package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/captcha/tesseract"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/services"
)

var (
	retrieveSite        string
	retrieveMaxAttempts int
	retrieveJSON        bool
)

func init() {
	retrieveCmd.Flags().StringVar(&retrieveSite, "site", "sigef", "The registry site to query.")
	retrieveCmd.Flags().IntVar(&retrieveMaxAttempts, "max-attempts", 0, "Captcha attempts before giving up (0 uses RETRIEVAL_MAX_ATTEMPTS).")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "Print the result as JSON instead of a table.")
	rootCmd.AddCommand(retrieveCmd)
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve --site <site> <document>",
	Short: "Solves the site's captcha and prints the records registered for a document.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if retrieveMaxAttempts > 0 {
			cfg.Retrieval.MaxAttempts = retrieveMaxAttempts
		}

		sites, err := loadSites()
		if err != nil {
			return err
		}
		site, err := sites.Get(retrieveSite)
		if err != nil {
			return err
		}

		decoder := captcha.NewDecoder(tesseract.New(), log)
		flow := retrieval.NewFlow(decoder, nil, services.FlowOptions(cfg), log)

		result, err := flow.Retrieve(cmd.Context(), args[0], site)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}

		log.WithFields(logrus.Fields{
			"site":     site.Name,
			"document": result.Document,
			"attempt":  result.Attempts,
		}).Info("retrieval finished")

		if retrieveJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		renderResult(cmd.OutOrStdout(), result)
		return nil
	},
}
