package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	initiator "fixsession/internal/fix-initiator"
	"fixsession/pkg/config"
	"fixsession/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "fixsession",
	Short: "FIX session layer engine",
	Long: `fixsession runs one FIX session over TCP, either dialing the counterparty
(initiate) or waiting for it (accept). Settings come from a session file and the
environment; a .env file in the working directory is loaded first.`,
	SilenceUsage: true,
}

func init() {
	if err := config.LoadEnv(".env"); err != nil {
		utils.Logger.Fatal().Err(err).Msg("failed to load .env file")
	}

	switch os.Getenv("NODE_ENV") {
	case "development":
		gin.SetMode(gin.DebugMode)
	case "staging":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	rootCmd.AddCommand(initiator.Cmd, initiator.AcceptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
