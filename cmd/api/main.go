package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/oakline/staffdesk/internal/http/handlers"
	authmw "github.com/oakline/staffdesk/internal/http/middleware"
	"github.com/oakline/staffdesk/internal/platform/cache"
	"github.com/oakline/staffdesk/internal/platform/mailer"
	"github.com/oakline/staffdesk/internal/repo/postgres"
	"github.com/oakline/staffdesk/pkg/config"
	"github.com/oakline/staffdesk/pkg/database"
	"github.com/oakline/staffdesk/pkg/events"
	"github.com/oakline/staffdesk/pkg/logger"
	mw "github.com/oakline/staffdesk/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Event bus
	var bus events.EventBus
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	} else {
		logger.Warn("NATS_URL not set, events disabled")
		bus = events.NewNoopEventBus()
	}
	defer bus.Close()

	// Mailer: MailerSend in front, direct SMTP next, log stub when neither
	// is fully configured.
	var emailSvc mailer.Service
	switch {
	case cfg.Email.MailerSendKey != "":
		emailSvc = mailer.NewMailer(cfg.Email.MailerSendKey, "Staffdesk", cfg.Email.SMTPFrom)
		logger.Info("email delivery via MailerSend")
	case cfg.Email.SMTPConfigured():
		emailSvc = mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS,
		)
		logger.Info("email delivery via SMTP", "host", cfg.Email.SMTPHost)
	default:
		emailSvc = mailer.NewDevMailer()
		logger.Warn("SMTP not fully configured, emails will be logged only")
	}

	// Decided once here, from the explicit environment flag. Never inferred
	// from missing SMTP configuration.
	exposeReset := !cfg.IsProduction()
	if exposeReset {
		logger.Warn("non-production environment: reset tokens are echoed in API responses")
	}

	// Notify consumer: email the staff inbox about new guest inquiries.
	if cfg.App.StaffInbox != "" {
		err := bus.QueueSubscribe(events.InquiryCreated, "staffdesk-notify", func(msg *events.Message) {
			var ev events.InquiryCreatedEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				logger.Error("bad inquiry event payload", "error", err)
				return
			}
			if err := emailSvc.SendInquiryNotice(cfg.App.StaffInbox, ev.GuestName, ev.Subject, ev.InquiryID); err != nil {
				logger.Error("failed to send inquiry notice", "error", err, "inquiry_id", ev.InquiryID)
			}
		})
		if err != nil {
			logger.Error("Failed to subscribe to inquiry events", "error", err)
			os.Exit(1)
		}
	}

	// Repositories
	usersRepo := postgres.NewUsersRepo(pool)
	resetRepo := postgres.NewResetRepo(pool)
	requestsRepo := postgres.NewRequestsRepo(pool)
	inquiriesRepo := postgres.NewInquiriesRepo(pool)
	ledgerRepo := postgres.NewLedgerRepo(pool)

	// Periodic cleanup of long-dead reset tokens.
	go postgres.StartResetJanitor(ctx, resetRepo, time.Hour)

	// Handlers
	authHandler := handlers.NewAuthHandler(
		usersRepo, resetRepo, emailSvc, bus,
		cfg.Auth.JWTSecret, cfg.App.BaseURL, cfg.Auth.AccessTokenTTL, cfg.Auth.ResetTokenTTL, exposeReset,
	)
	adminUsersHandler := handlers.NewAdminUsersHandler(usersRepo)
	requestsHandler := handlers.NewRequestsHandler(requestsRepo, bus)
	inquiriesHandler := handlers.NewInquiriesHandler(inquiriesRepo, bus)
	ledgerHandler := handlers.NewLedgerHandler(ledgerRepo)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("staffdesk"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"Link", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole("admin", cfg.Auth.JWTSecret))
			r.Mount("/admin/users", adminUsersHandler.Routes())
		})

		r.Group(func(r chi.Router) {
			if cfg.Redis.URL != "" {
				store, err := cache.NewRedisStore(cfg.Redis.URL)
				if err != nil {
					logger.Error("Failed to connect to Redis", "error", err)
					os.Exit(1)
				}
				r.Use(mw.IdempotencyMiddleware(store))
			} else {
				logger.Warn("REDIS_URL not set, request idempotency disabled")
			}
			r.Mount("/requests", requestsHandler.Routes())
		})

		r.Mount("/guest-inquiries", inquiriesHandler.DashboardRoutes())
		r.Mount("/guest/inquiry", inquiriesHandler.GuestRoutes())
		r.Mount("/company-ledger", ledgerHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down staffdesk...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting staffdesk", "port", cfg.Server.Port, "env", cfg.App.Environment)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
