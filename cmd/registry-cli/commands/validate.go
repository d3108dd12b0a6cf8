package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexconsult/registry-api/internal/utils"
)

var fromText bool

func init() {
	validateCmd.Flags().BoolVar(&fromText, "from-text", false, "Treat the arguments as free text and validate every CPF/CNPJ found in it.")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <document...>",
	Short: "Validates CPF/CNPJ numbers and prints their formatted form.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		documents := args
		if fromText {
			documents = utils.ExtractDocumentsFromText(strings.Join(args, " "))
			if len(documents) == 0 {
				return errors.New("no valid CPF or CNPJ found in text")
			}
		}

		infos := make([]utils.DocumentInfo, 0, len(documents))
		for _, doc := range documents {
			infos = append(infos, utils.ValidateDocument(doc))
		}
		renderValidation(cmd.OutOrStdout(), infos)
		return nil
	},
}
