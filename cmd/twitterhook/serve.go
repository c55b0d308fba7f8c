package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitter-api"
	"github.com/anatolykoptev/go-twitter-api/metrics"
	"github.com/anatolykoptev/go-twitter-api/webhook"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the webhook endpoint and Prometheus metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	clientCfg, err := cfg.clientConfig()
	if err != nil {
		return err
	}
	clientCfg.Metrics = m
	client, err := twitter.NewClient(clientCfg)
	if err != nil {
		return err
	}
	for _, ch := range twitter.Channels {
		client.On(ch, logEvent)
	}

	consumerSecret := clientCfg.Credentials.ConsumerSecret
	if consumerSecret == "" {
		slog.Warn("no consumer secret: webhook signatures are not checked")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(m.Middleware())
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	wh := echo.WrapHandler(webhook.NewHandler(consumerSecret, client))
	e.GET(cfg.WebhookPath, wh)
	e.POST(cfg.WebhookPath, wh)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", cfg.Listen), slog.Int64("self_id", client.SelfID()))
		errCh <- e.Start(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func logEvent(_ context.Context, ev twitter.Event) error {
	slog.Info("event",
		slog.String("channel", ev.Channel()),
		slog.String("kind", string(ev.Kind())),
		slog.String("delivery_id", ev.DeliveryID()),
		slog.Time("created_at", ev.CreatedAt()))
	return nil
}
