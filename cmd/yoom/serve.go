package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yoomapp/yoom-web/internal/api"
	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/config"
	"github.com/yoomapp/yoom-web/internal/jobs"
	"github.com/yoomapp/yoom-web/internal/logging"
	"github.com/yoomapp/yoom-web/internal/meeting"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/store"
	"github.com/yoomapp/yoom-web/internal/telemetry"
	"github.com/yoomapp/yoom-web/internal/video"
	"github.com/yoomapp/yoom-web/internal/web"
)

const serviceName = "yoom-web"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and run the session sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logging.New(logging.Config{
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
				Service: serviceName,
				Output:  cmd.ErrOrStderr(),
			}))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	client, calls, err := newVideoClient(cfg, log)
	if err != nil {
		return fmt.Errorf("init video client: %w", err)
	}
	verifier, err := auth.NewVerifier(auth.VerifierOptions{
		Secret:       cfg.AuthJWTSecret,
		PublicKeyPEM: cfg.AuthJWTPublicKey,
		Issuer:       cfg.AuthIssuer,
	})
	if err != nil {
		return fmt.Errorf("init session verifier: %w", err)
	}
	sessions := store.New(newMachineFactory(cfg, client, log), store.Options{
		IdleTTL: cfg.SessionIdleTTL,
		Logger:  log,
	})
	handler, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Sessions: sessions,
		Verifier: verifier,
		Calls:    calls,
		Static:   web.Static(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Meeting creation may retry the video provider before responding.
		WriteTimeout: time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	runner := jobs.NewRunner(sessions, log)
	runner.Start(gctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Str("video_provider", cfg.VideoProvider).Msg("yoom-web listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	runner.Wait()
	log.Info().Msg("yoom-web stopped")
	return err
}

// newVideoClient returns the configured provider. The directory is only
// available for the in-process fake.
func newVideoClient(cfg config.Config, log zerolog.Logger) (video.Client, api.CallDirectory, error) {
	switch cfg.VideoProvider {
	case "stream":
		c, err := video.NewStreamClient(video.StreamOptions{
			APIKey:    cfg.StreamAPIKey,
			APISecret: cfg.StreamAPISecret,
			BaseURL:   cfg.StreamBaseURL,
			Logger:    log,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case "fake", "":
		fake := video.NewFakeClient()
		return fake, fake, nil
	default:
		return nil, nil, fmt.Errorf("unknown video provider %q", cfg.VideoProvider)
	}
}

func newMachineFactory(cfg config.Config, client video.Client, log zerolog.Logger) store.MachineFactory {
	return func(user model.User, out *store.Outbox) *meeting.Machine {
		return meeting.NewMachine(meeting.Deps{
			Video:     client,
			User:      &user,
			Notifier:  out,
			Clipboard: out,
			Navigator: out,
			Logger:    log.With().Str("user_id", user.ID).Logger(),
		}, meeting.Options{
			BaseURL:  cfg.BaseURL,
			CallType: cfg.VideoCallType,
			AutoJoinInstantMeetingWithoutDescription: cfg.AutoJoinInstant,
		})
	}
}
