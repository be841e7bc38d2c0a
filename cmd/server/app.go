package main

import (
	"log"
	"net/http"
	"time"

	"github.com/diewo77/haulage/internal/config"
	"github.com/diewo77/haulage/internal/events"
	"github.com/diewo77/haulage/internal/middleware"
	"github.com/diewo77/haulage/internal/notify"
	"github.com/diewo77/haulage/internal/server"
	"gorm.io/gorm"
)

// App is the API handler plus the background resources it owns.
type App struct {
	handler http.Handler
	kafka   *events.KafkaPublisher
	stop    chan struct{}
}

// NewApp wires the optional integrations: Kafka when KAFKA_BROKERS is set,
// SMTP when SMTP_HOST is set, and the per-client rate limit.
func NewApp(cfg *config.Config, db *gorm.DB) *App {
	app := &App{stop: make(chan struct{})}
	opts := server.Options{Company: cfg.App.CompanyName}

	if cfg.Kafka.Enabled() {
		app.kafka = events.NewKafkaPublisher(cfg.Kafka.Brokers)
		opts.Events = app.kafka
		log.Printf("Publishing events to kafka %v", cfg.Kafka.Brokers)
	}
	if cfg.SMTP.Enabled() {
		s := cfg.SMTP
		opts.Mailer = notify.NewMailer(s.Host, s.Port, s.User, s.Password, s.FromName, s.FromAddr)
		log.Printf("Statement email enabled via %s:%d", s.Host, s.Port)
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		go rl.Run(10*time.Minute, app.stop)
		opts.RateLimiter = rl
	}

	app.handler = server.New(db, opts)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Close stops the limiter cleanup and flushes the event writer.
func (a *App) Close() {
	close(a.stop)
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			log.Printf("Error closing kafka writer: %v", err)
		}
	}
}
