package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotlake/treasuryd/chain"
	app_config "github.com/dotlake/treasuryd/config"
	"github.com/dotlake/treasuryd/indexer"
	"github.com/dotlake/treasuryd/state"
)

var homeDir string

var clCmd = &cobra.Command{
	Use:   "treasuryd",
	Short: "treasuryd indexes the on-chain treasury",
	Long: `Replays treasury events and extrinsics from an archive dump and
serves the resulting balance timeline and proposal lifecycle over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	clCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.treasuryd")
	}

	appConfig := app_config.DefaultConfig(homeDir)
	viper.SetConfigFile(appConfig.ConfigFile())

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}
	if err := appConfig.ValidateBasic(); err != nil {
		log.Fatalf("Invalid configuration data: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err := cmtflags.ParseLogLevel(appConfig.LogLevel, logger, "info")
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	stateDB, err := state.NewStateDB(appConfig.StateDir(), logger)
	if err != nil {
		log.Fatalf("open state db: %v", err)
	}
	defer stateDB.Close()

	source, err := chain.NewFileSource(logger, appConfig.SourcePath, appConfig.BatchSize)
	if err != nil {
		log.Fatalf("open block source: %v", err)
	}

	ix, err := indexer.NewIndexer(logger, appConfig.IndexDBPath(), source, stateDB, appConfig.SS58Prefix)
	if err != nil {
		log.Fatalf("new indexer: %v", err)
	}

	service := indexer.NewService(appConfig.ListenAddr, ix)
	go service.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ix.Start(ctx)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case err = <-done:
		if err != nil {
			log.Fatalf("indexer stopped: %v", err)
		}
		logger.Info("replay complete, serving queries")
		<-c
	case <-c:
		cancel()
		<-done
	}
	cancel()
}
