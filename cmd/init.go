package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pulsehealth/pulse/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pulse configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure pulse and generates a .pulse.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
