package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sketchlog/internal/config"
)

var initForce bool

// initCmd writes a starter config file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default sketchlog configuration to the path given by
--config (sketchlog.yaml by default). Refuses to overwrite an existing
file unless --force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}

		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		logger.Info("wrote default config", zap.String("path", configPath))
		fmt.Printf("Wrote default config to %s\n", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
