package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/timelineai/internal/config"
)

var revealSecret bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	configGetCmd.Flags().BoolVar(&revealSecret, "reveal", false, "print credentials unmasked")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		for _, s := range config.Settings(cfg) {
			fmt.Fprintf(os.Stdout, "%s = %s\n", s.Key, s.Display())
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		if revealSecret {
			fmt.Fprintln(os.Stdout, s.String())
			return nil
		}
		fmt.Fprintln(os.Stdout, s.Display())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetValue(cfgPath, args[0], args[1]); err != nil {
			return err
		}
		display := args[1]
		if config.IsSecretKey(args[0]) {
			display = "***"
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], display)
		return nil
	},
}
