package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/timelineai/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupStep asks for one setting.
type setupStep struct {
	key   string
	label string
}

var setupSteps = []setupStep{
	{key: "llm.base_url", label: "LLM base URL"},
	{key: "llm.api_key", label: "LLM API key"},
	{key: "llm.model", label: "LLM model name"},
	{key: "llm.max_tokens", label: "Max output tokens"},
	{key: "http.listen", label: "HTTP listen address"},
	{key: "brave.api_key", label: "Brave API key for event images (optional)"},
	{key: "brave.requests_per_second", label: "Brave requests per second"},
	{key: "telegram.token", label: "Telegram bot token (optional)"},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		fmt.Println("TimelineAI Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		if err := runSetup(cfg, os.Stdin, os.Stdout); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Println()
			fmt.Println("Warning:", err)
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// runSetup walks setupSteps, reading one line per step from in. An empty
// line keeps the current value; a value of the wrong type is reported and
// the step is asked again.
func runSetup(cfg *config.Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for _, step := range setupSteps {
		s, ok := cfg.Lookup(step.key)
		if !ok {
			return fmt.Errorf("unknown config key: %s", step.key)
		}
		for {
			if current := s.Display(); current != "" {
				fmt.Fprintf(out, "%s [%s]: ", step.label, current)
			} else {
				fmt.Fprintf(out, "%s: ", step.label)
			}
			if !scanner.Scan() {
				return scanner.Err()
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				break
			}
			if err := cfg.Set(step.key, input); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			break
		}
	}
	return nil
}
