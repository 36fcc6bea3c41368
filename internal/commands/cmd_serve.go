package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/core/todo"
	"github.com/colonyops/todod/internal/profiler"
	"github.com/colonyops/todod/internal/server"
)

type ServeCmd struct {
	flags     *Flags
	addr      string
	pprofAddr string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the todo HTTP server",
		UsageText: "todod serve [--addr host:port]",
		Description: `Serves the todo API until interrupted.

Todos live in memory only and are lost when the process exits.

Endpoints:
  GET    /                  greeting
  GET    /getTodos          list todos as JSON
  POST   /addTodo           {"todo": "<text>"}
  PUT    /updateTodo/{id}   toggle completion
  DELETE /deleteTodo/{id}   remove a todo`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (overrides server.addr)",
				Sources:     cli.EnvVars("TODOD_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "pprof-addr",
				Usage:       "serve pprof handlers on this address (overrides debug.pprof_addr)",
				Sources:     cli.EnvVars("TODOD_PPROF_ADDR"),
				Destination: &cmd.pprofAddr,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	appCfg := *cmd.flags.Config
	if cmd.addr != "" {
		appCfg.Server.Addr = cmd.addr
	}
	if cmd.pprofAddr != "" {
		appCfg.Debug.PprofAddr = cmd.pprofAddr
	}
	if err := appCfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg := appCfg.Server

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := todo.NewStore(appCfg.Store.IDPolicy)
	srv := server.New(cfg, store)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	var prof *profiler.Server
	if appCfg.Debug.PprofAddr != "" {
		prof = profiler.New(appCfg.Debug.PprofAddr)
		if err := prof.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("profiler disabled")
			prof = nil
		}
	}

	_, _ = fmt.Fprintf(c.Root().ErrWriter, "todod listening on http://%s\n", srv.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-srv.Err():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if prof != nil {
		if err := prof.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("profiler shutdown")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if serveErr != nil {
		return fmt.Errorf("todo server stopped: %w", serveErr)
	}

	log.Info().Int("todos", store.Len()).Msg("server stopped; in-memory todos discarded")
	return nil
}
