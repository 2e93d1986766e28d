// cmd/vettlyctl/main.go
// Operator CLI for one-off maintenance against the Vettly database

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/logger"
	"github.com/vettly/vettly-backend/internal/config"
)

const app = "vettlyctl"

// Actual version can be specified in build command.
var version = "unknown"

var (
	envFile string
	debug   bool

	cfg *config.Config
	log *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "vettlyctl runs matchmaking maintenance tasks outside the API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load(envFile)

			cfg = config.Load()
			level := cfg.LogLevel
			if debug {
				level = "debug"
			}
			l, err := logger.New("console", level)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")

	root.AddCommand(
		newVersionCmd(),
		newCheckCmd(),
		newScoreCmd(),
		newTokenCmd(),
		newTipsCmd(),
		newMatchesCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
