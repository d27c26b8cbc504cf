package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the analysis backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer application.Shutdown()

		if !application.Health.Check(cmd.Context()) {
			return fmt.Errorf("backend %s is unreachable", application.Cfg.Backend.BaseURL)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backend %s is reachable\n", application.Cfg.Backend.BaseURL)
		return nil
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the demo scenarios served in mock mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer application.Shutdown()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(application.Fallback.Scenarios())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, scenariosCmd)
}
