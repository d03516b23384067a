package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tpgship/tpgsim/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file without running",
	RunE:  validate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(cfgPath); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
	return nil
}
