package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flashgen/internal/services"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and their models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			yellow := color.New(color.FgYellow)

			printHighlight(out, "--- Providers ---")
			for _, p := range services.Providers() {
				fmt.Fprintf(out, "%-12s %s\n", p, yellow.Sprint(p.DisplayName()))
				fmt.Fprintf(out, "  default: %s\n", services.DefaultModelFor(p))
				fmt.Fprintf(out, "  models:  %s\n", strings.Join(services.ModelOptions(p), ", "))
			}
			return nil
		},
	}
}
