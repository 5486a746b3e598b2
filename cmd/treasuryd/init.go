package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app_config "github.com/dotlake/treasuryd/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "write a default config file into the home directory",
	Run:   initRun,
}

func init() {
	initCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func initRun(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.treasuryd")
	}
	cfg := app_config.DefaultConfig(homeDir)
	if err := os.MkdirAll(filepath.Dir(cfg.ConfigFile()), app_config.DefaultDirPerm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app_config.WriteConfigFile(cfg.ConfigFile(), cfg)
	fmt.Println("wrote", cfg.ConfigFile())
}
