// cmd/bot: nexus7 (bot de discord + server de estado)
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jose-valero/nexus7-bot/internal/infra/config"
	"github.com/jose-valero/nexus7-bot/internal/infra/logging"
)

type app struct {
	cfg config.Config
	log *zap.Logger
}

func main() {
	var (
		envFile  string
		logLevel string
	)
	a := &app{}

	root := &cobra.Command{
		Use:           "nexus7",
		Short:         "Nexus-7 discord bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load (missing is fine)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(envFile)
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		a.cfg, a.log = cfg, log
		return nil
	}
	root.PersistentPostRun = func(*cobra.Command, []string) {
		if a.log != nil {
			_ = a.log.Sync()
		}
	}

	run := runCommand(a)
	root.RunE = run.RunE
	root.AddCommand(run, commandsCommand(a), migrateCommand(a))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nexus7:", err)
		os.Exit(1)
	}
}
