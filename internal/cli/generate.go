package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flashgen/internal/config"
	"flashgen/internal/services"
)

func newGenerateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from a text or PDF file, or from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringP("provider", "p", "", "provider id (openai, anthropic, perplexity, gemini)")
	flags.StringP("model", "m", "", "model name; defaults to the provider's default model")
	flags.String("api-key", "", "provider API key; without one, simulated flashcards are generated")
	flags.StringP("file", "f", "-", "input file (.pdf or text); - reads stdin")
	flags.Bool("json", false, "print the result as JSON")

	for _, name := range []string{"provider", "model", "api-key", "file", "json"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return cmd
}

func runGenerate(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	providerName := v.GetString("provider")
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	provider, err := services.ParseProvider(providerName)
	if err != nil {
		return err
	}

	text, err := readInput(cmd.InOrStdin(), v.GetString("file"), cfg.UploadDir)
	if err != nil {
		return err
	}

	credential := v.GetString("api-key")
	if credential == "" {
		credential = cfg.Credential(string(provider))
	}

	generator := services.NewGenerator(services.GeneratorConfig{
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		AnthropicBaseURL:  cfg.AnthropicBaseURL,
		PerplexityBaseURL: cfg.PerplexityBaseURL,
		GeminiBaseURL:     cfg.GeminiBaseURL,
		RequestTimeout:    cfg.RequestTimeout,
	})

	asJSON := v.GetBool("json")
	var progress services.ProgressCallback
	if !asJSON {
		errOut := cmd.ErrOrStderr()
		progress = func(step, message string, current, total int) {
			fmt.Fprintf(errOut, "\r%3d%% %s", current*100/max(total, 1), message)
			if step == "complete" {
				fmt.Fprintln(errOut)
			}
		}
	}

	result, err := generator.Generate(cmd.Context(), services.Request{
		Text:       text,
		Provider:   provider,
		Model:      v.GetString("model"),
		Credential: credential,
	}, progress)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	return nil
}

func readInput(stdin io.Reader, path, uploadDir string) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc, err := services.NewPDFService(uploadDir).ExtractText(path)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(raw), nil
}

func printResult(w io.Writer, result *services.Result) {
	if result.Simulated() {
		printWarning(w, "%s", result.Message)
		if result.Diagnostic != "" {
			printError(w, "%s", result.Diagnostic)
		}
	} else {
		printSuccess(w, "%s", result.Message)
	}

	for i, card := range result.Flashcards {
		fmt.Fprintf(w, "\n%d. [%s] %s\n   %s\n", i+1, card.Category, card.Front, card.Back)
	}
}
