// Main entry point: loads config, connects the database, wires the relay,
// integrations and HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vrno/tokenmarket/internal/api"
	"github.com/vrno/tokenmarket/internal/auth"
	"github.com/vrno/tokenmarket/internal/config"
	"github.com/vrno/tokenmarket/internal/db"
	"github.com/vrno/tokenmarket/internal/notify"
	"github.com/vrno/tokenmarket/internal/relay"
)

const shutdownTimeout = 10 * time.Second

// checkOrigin guards websocket upgrades with the same origin list CORS uses.
func checkOrigin(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close()

	authService := auth.NewService(cfg.APIKey, database, cfg.TokenTTL)

	email := notify.DisabledEmail()
	if cfg.Mailgun.Enabled() {
		email = notify.NewMailgunSender(cfg.Mailgun.Domain, cfg.Mailgun.APIKey, cfg.Mailgun.Sender)
		log.Info().Str("domain", cfg.Mailgun.Domain).Msg("mailgun enabled")
	}
	sms := notify.DisabledSMS()
	if cfg.Twilio.Enabled() {
		sms = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
		log.Info().Msg("twilio enabled")
	}
	payments := notify.DisabledPayments()
	if cfg.PayPal.Enabled() {
		pp, err := notify.NewPayPalClient(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.Environment)
		if err != nil {
			log.Fatal().Err(err).Msg("init paypal")
		}
		payments = pp
		log.Info().Str("env", cfg.PayPal.Environment).Msg("paypal enabled")
	}

	// Change feed: database notifications out to websocket subscribers.
	hub := relay.NewHub(log.With().Str("component", "relay").Logger(), checkOrigin(cfg.AllowedOrigins))
	feed := relay.NewFeed(cfg.DatabaseURL, hub, log.With().Str("component", "feed").Logger())
	go feed.Run(ctx)

	// Expired one-time tokens are dead rows; sweep them periodically.
	sched := cron.New()
	if _, err := sched.AddFunc("@every 6h", func() {
		n, err := database.DeleteExpiredTokens(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("token sweep failed")
			return
		}
		log.Info().Int64("deleted", n).Msg("token sweep")
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule token sweep")
	}
	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(database, authService, email, sms, payments, log)
	router := api.NewRouter(handler, hub, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
