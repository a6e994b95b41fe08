package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	discordrouter "github.com/jose-valero/nexus7-bot/internal/adapters/discord"
	"github.com/jose-valero/nexus7-bot/internal/infra/logging"
	"github.com/jose-valero/nexus7-bot/internal/infra/metrics"
)

// commands sync|clear: registra o borra los slash commands sin levantar el bot.
func commandsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage application commands",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "sync",
			Short: "Overwrite the registered commands with the current set",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withRouter(cmd.Context(), func(r *discordrouter.Router) error { return r.Register() })
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every registered command",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withRouter(cmd.Context(), func(r *discordrouter.Router) error { return r.Clear() })
			},
		},
	)
	return cmd
}

func (a *app) withRouter(ctx context.Context, fn func(*discordrouter.Router) error) error {
	dg, err := newDiscord(a.cfg)
	if err != nil {
		return err
	}
	if err := dg.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	defer dg.Close()

	// sólo hace falta saber si /spotify va o no
	catalog := newCatalog(ctx, a.cfg, metrics.MustNew(nil))
	r := discordrouter.NewRouter(dg, discordrouter.Deps{Catalog: catalog}, routerOptions(a.cfg), logging.Module(a.log, "router"))
	return fn(r)
}

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}
