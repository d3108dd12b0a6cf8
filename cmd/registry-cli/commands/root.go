package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/registry-api/internal/logger"
	"github.com/nexconsult/registry-api/internal/retrieval"
)

var (
	logLevel  string
	sitesFile string
)

var rootCmd = &cobra.Command{
	Use:           "registry-cli",
	Short:         "registry-cli validates CPF/CNPJ numbers and queries captcha-gated public registries.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error).")
	rootCmd.PersistentFlags().StringVar(&sitesFile, "sites", os.Getenv("RETRIEVAL_SITES_FILE"), "YAML/JSON/TOML file with extra site definitions.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	return logger.NewWithOutput(logLevel, "nested", cmd.ErrOrStderr())
}

func loadSites() (*retrieval.Registry, error) {
	return retrieval.DefaultRegistry(sitesFile)
}
