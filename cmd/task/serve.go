package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/db"
	"github.com/metalagman/tasks/internal/notify"
	"github.com/metalagman/tasks/internal/task"
	"github.com/metalagman/tasks/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and task page",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fxApp := fx.New(serveOptions(a.cfg, a.v)...)
			if err := fxApp.Err(); err != nil {
				return err
			}
			if err := fxApp.Start(ctx); err != nil {
				return fmt.Errorf("start server: %w", err)
			}
			select {
			case <-ctx.Done():
			case sig := <-fxApp.Done():
				log.Info().Str("signal", sig.String()).Msg("shutdown requested")
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			return fxApp.Stop(stopCtx)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides server.addr")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}
		return nil
	}
	return cmd
}

// serveOptions assembles the dependency graph of the serve command.
func serveOptions(cfg config.Config, v *viper.Viper) []fx.Option {
	return []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxLogger{logger: log.Logger}
		}),
		fx.Supply(cfg, v),
		fx.Provide(
			newServeDB,
			newServeStore,
			func(cfg config.Config) *notify.Trigger { return newTrigger(cfg) },
			newWebServer,
			newHTTPServer,
		),
		fx.Invoke(serverLifecycle, watchConfig),
	}
}

func newServeDB(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	storeDB, err := db.OpenContext(context.Background(), cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return storeDB.Close()
		},
	})
	return storeDB, nil
}

func newServeStore(storeDB *sql.DB) task.Tracker {
	return task.NewStore(storeDB)
}

func newWebServer(tracker task.Tracker, trigger *notify.Trigger) (*web.Server, error) {
	return web.NewServer(tracker, trigger)
}

func newHTTPServer(cfg config.Config, srv *web.Server) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

type serverParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Server     *http.Server
}

func serverLifecycle(p serverParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", p.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", p.Server.Addr, err)
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
			go func() {
				if err := p.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server failed")
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("http server shutting down")
			return p.Server.Shutdown(ctx)
		},
	})
}

// watchConfig reapplies notification settings when the config file changes.
// Other settings need a restart.
func watchConfig(v *viper.Viper, trigger *notify.Trigger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := validateFile(e.Name); err != nil {
			log.Warn().Err(err).Str("path", e.Name).Msg("config reload rejected")
			return
		}
		cfg, err := decodeConfig(v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			log.Warn().Err(err).Str("path", e.Name).Msg("config reload rejected")
			return
		}
		trigger.Reconfigure(cfg.Notification)
		log.Info().Str("path", e.Name).Msg("notification settings reloaded; telegram credential changes apply after restart")
	})
	v.WatchConfig()
}

// fxLogger forwards fx lifecycle events to zerolog.
type fxLogger struct {
	logger zerolog.Logger
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		l.result(e.Err).Str("callee", e.FunctionName).Str("runtime", e.Runtime.String()).Msg("OnStart hook executed")
	case *fxevent.OnStopExecuted:
		l.result(e.Err).Str("callee", e.FunctionName).Str("runtime", e.Runtime.String()).Msg("OnStop hook executed")
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("constructor", e.ConstructorName).Msg("provide failed")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("function", e.FunctionName).Msg("invoke failed")
		}
	case *fxevent.RollingBack:
		l.logger.Error().Err(e.StartErr).Msg("start failed, rolling back")
	case *fxevent.Started:
		l.result(e.Err).Msg("started")
	case *fxevent.Stopped:
		l.result(e.Err).Msg("stopped")
	}
}

func (l *fxLogger) result(err error) *zerolog.Event {
	if err != nil {
		return l.logger.Error().Err(err)
	}
	return l.logger.Debug()
}
