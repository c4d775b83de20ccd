// Package cli implements the flashgen command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the flashgen command tree. Each call gets its own
// viper instance so commands can be built repeatedly in tests.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("flashgen")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "flashgen",
		Short:        "flashgen - turn study text into flashcards with an LLM provider.",
		SilenceUsage: true,
	}

	root.AddCommand(newGenerateCommand(v))
	root.AddCommand(newProvidersCommand())
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func printSuccess(w io.Writer, format string, a ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintln(w, green(fmt.Sprintf(format, a...)))
}

func printWarning(w io.Writer, format string, a ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintln(w, yellow(fmt.Sprintf(format, a...)))
}

func printError(w io.Writer, format string, a ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintln(w, red(fmt.Sprintf(format, a...)))
}

func printHighlight(w io.Writer, format string, a ...interface{}) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	fmt.Fprintln(w, magenta(fmt.Sprintf(format, a...)))
}
