package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/aura-ops/aura/internal/bot"
	"github.com/aura-ops/aura/internal/engine"
	"github.com/aura-ops/aura/internal/kpi"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/internal/setup"
	"github.com/aura-ops/aura/internal/web"
)

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cmd := &cli.Command{
		Name:   "aura",
		Usage:  "Community caretaker: moderation engine, permanent record, and staff dashboard",
		Action: runService,
	}

	return cmd.Run(context.Background(), os.Args)
}

// runService wires the event consumer and the web responder around the
// shared ledger and metrics accumulator, then runs both until a shutdown
// signal arrives.
func runService(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp()
	if err != nil {
		return err
	}
	defer app.CleanupApp()

	discordBot, err := bot.New(&app.Config.Discord, app.Logger)
	if err != nil {
		return err
	}

	moderation := engine.New(engine.Config{
		CommandPrefix:         app.Config.Discord.CommandPrefix,
		VerificationChannelID: app.Config.Discord.VerificationChannelID,
		VerificationEmoji:     app.Config.Discord.VerificationEmoji,
		MemberRole:            app.Config.Discord.MemberRole,
		MutedRole:             app.Config.Discord.MutedRole,
		LinkDenylist:          app.Config.Filters.Links,
		KeywordDenylist:       app.Config.Filters.Keywords,
	}, app.Ledger, app.Metrics, discordBot, app.Logger)
	discordBot.AttachEngine(moderation)

	handler := web.NewServer(
		app.Config,
		kpi.New(app.Ledger, app.Metrics),
		app.Metrics,
		discordBot.Connected,
		app.Uptime,
		app.WebLogger,
	)

	srv := &http.Server{
		Addr:         app.Config.Web.ListenAddr,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	reporter := metrics.NewReporter(
		app.Metrics,
		time.Duration(app.Config.Metrics.CheckpointInterval())*time.Second,
		app.Logger,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := discordBot.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info("Aura is running",
		zap.String("listen_addr", app.Config.Web.ListenAddr))

	workers := pool.New().WithErrors()

	workers.Go(func() error {
		reporter.Run(ctx)
		return nil
	})

	workers.Go(func() error {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// A dead responder takes the whole process down.
			cancel()
			return err
		}
		return nil
	})

	workers.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancelShutdown()

		discordBot.Close(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	err = workers.Wait()
	app.Logger.Info("Aura stopped")
	return err
}
