package main

import (
	"escala-service/internal/config"
	districtCreate "escala-service/internal/http-server/handlers/districts/create"
	districtGet "escala-service/internal/http-server/handlers/districts/get"
	churchCreate "escala-service/internal/http-server/handlers/churches/create"
	churchGet "escala-service/internal/http-server/handlers/churches/get"
	userCreate "escala-service/internal/http-server/handlers/users/create"
	userGet "escala-service/internal/http-server/handlers/users/get"
	userRoster "escala-service/internal/http-server/handlers/users/roster"
	scheduleGenerate "escala-service/internal/http-server/handlers/schedules/generate"
	scheduleCreate "escala-service/internal/http-server/handlers/schedules/create"
	scheduleGet "escala-service/internal/http-server/handlers/schedules/get"
	scheduleConfirm "escala-service/internal/http-server/handlers/schedules/confirm"
	scheduleDelete "escala-service/internal/http-server/handlers/schedules/delete"
	slotGet "escala-service/internal/http-server/handlers/slots/get"
	slotUpdate "escala-service/internal/http-server/handlers/slots/update"
	slotConfirm "escala-service/internal/http-server/handlers/slots/confirm"
	slotRefuse "escala-service/internal/http-server/handlers/slots/refuse"
	slotCancel "escala-service/internal/http-server/handlers/slots/cancel"
	slotVolunteer "escala-service/internal/http-server/handlers/slots/volunteer"
	subCreate "escala-service/internal/http-server/handlers/substitutions/create"
	subAccept "escala-service/internal/http-server/handlers/substitutions/accept"
	subReject "escala-service/internal/http-server/handlers/substitutions/reject"
	subPending "escala-service/internal/http-server/handlers/substitutions/pending"
	evalCreate "escala-service/internal/http-server/handlers/evaluations/create"
	evalGet "escala-service/internal/http-server/handlers/evaluations/get"
	notifGet "escala-service/internal/http-server/handlers/notifications/get"
	notifRead "escala-service/internal/http-server/handlers/notifications/read"
	delegationCreate "escala-service/internal/http-server/handlers/delegations/create"
	delegationGet "escala-service/internal/http-server/handlers/delegations/get"
	"escala-service/internal/lock"
	"escala-service/internal/notify"
	svc "escala-service/internal/service"
	"escala-service/internal/storage/postgres"
	"escala-service/pkg/handlers/slogpretty"
	"escala-service/pkg/middleware/identity"
	"escala-service/pkg/middleware/mwlogger"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	notifier := notify.NewSender(storage, log)

	service := svc.NewService(storage, locker, notifier)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Open org surface: user registration needs no prior identity.
	router.Post("/users", userCreate.New(log, service))

	router.Group(func(r chi.Router) {
		r.Use(identity.New(log, storage))

		// Districts
		r.Post("/districts", districtCreate.New(log, service))
		r.Get("/districts/{id}", districtGet.New(log, service))

		// Churches
		r.Post("/churches", churchCreate.New(log, service))
		r.Get("/churches/{id}", churchGet.New(log, service))

		// Users
		r.Get("/users/roster", userRoster.New(log, service))
		r.Get("/users/{id}", userGet.New(log, service))

		// Schedules
		r.Post("/schedules/generate", scheduleGenerate.New(log, service))
		r.Post("/schedules", scheduleCreate.New(log, service))
		r.Get("/schedules", scheduleGet.New(log, service))
		r.Get("/schedules/{id}", scheduleGet.New(log, service))
		r.Post("/schedules/{id}/confirm", scheduleConfirm.New(log, service))
		r.Delete("/schedules/{id}", scheduleDelete.New(log, service))

		// Slots
		r.Get("/slots/{id}", slotGet.New(log, service))
		r.Put("/slots/{id}", slotUpdate.New(log, service))
		r.Post("/slots/{id}/confirm", slotConfirm.New(log, service))
		r.Post("/slots/{id}/refuse", slotRefuse.New(log, service))
		r.Post("/slots/{id}/cancel", slotCancel.New(log, service))
		r.Post("/slots/{id}/volunteer", slotVolunteer.New(log, service))

		// Substitutions
		r.Post("/substitutions", subCreate.New(log, service))
		r.Get("/substitutions/pending", subPending.New(log, service))
		r.Post("/substitutions/{id}/accept", subAccept.New(log, service))
		r.Post("/substitutions/{id}/reject", subReject.New(log, service))

		// Evaluations
		r.Post("/evaluations", evalCreate.New(log, service))
		r.Get("/evaluations", evalGet.New(log, service))

		// Notifications
		r.Get("/notifications", notifGet.New(log, service))
		r.Post("/notifications/read_all", notifRead.NewAll(log, service))
		r.Post("/notifications/{id}/read", notifRead.New(log, service))

		// Delegations
		r.Post("/delegations", delegationCreate.New(log, service))
		r.Get("/delegations", delegationGet.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
