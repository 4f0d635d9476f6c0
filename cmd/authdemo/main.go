package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/relnotes/go-auth-client/attempts"
	"github.com/relnotes/go-auth-client/backend"
	"github.com/relnotes/go-auth-client/httpauth"
	"github.com/relnotes/go-auth-client/internal/config"
	"github.com/relnotes/go-auth-client/logging"
	"github.com/relnotes/go-auth-client/session"
	"github.com/relnotes/go-auth-client/storage"
	"github.com/relnotes/go-auth-client/storage/filestore"
	"github.com/relnotes/go-auth-client/storage/pgxstore"
	"github.com/relnotes/go-auth-client/tokenstore"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running demo server")
			time.Sleep(1 * time.Second)
			continue
		}
		break
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	manager, authLogger, err := buildSessionManager(c)
	if err != nil {
		return fmt.Errorf("buildSessionManager: %w", err)
	}

	server := &http.Server{Addr: c.GetPort(), Handler: routes(manager, authLogger)}
	go listenAndServe(server)
	waitForStopSignal()
	manager.Logout()
	return shutdown(server)
}

func buildSessionManager(c config.Config) (*session.Manager, *logging.Logger, error) {
	// Human-readable console output in DEV, plain JSON elsewhere.
	out := io.Writer(os.Stderr)
	if c.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	authLogger := logging.New(zerolog.New(out).With().Timestamp().Logger())

	durable, err := buildDurableStore(c)
	if err != nil {
		return nil, nil, fmt.Errorf("open durable store: %w", err)
	}
	tiers := storage.Tiers{Durable: durable, Session: storage.NewMemory()}

	be, err := buildBackend(c)
	if err != nil {
		return nil, nil, err
	}

	tracker := attempts.NewTracker(durable, authLogger,
		attempts.WithLimits(c.GetMaxLoginAttempts(), c.GetLoginAttemptWindow()))

	manager, err := session.NewManager(session.Deps{
		Backend:  be,
		Tokens:   tokenstore.New(tiers, authLogger),
		Attempts: tracker,
		Logger:   authLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("session.NewManager: %w", err)
	}
	return manager, authLogger, nil
}

// buildDurableStore keeps session state in Postgres when a database is
// configured, otherwise in a JSON file under the data folder.
func buildDurableStore(c config.Config) (storage.Store, error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		return filestore.New(filepath.Join(c.GetDataFolder(), "auth_state.json"))
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	adapter := pgxstore.New(context.Background(), pool)
	if err := adapter.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("pgxstore.EnsureSchema: %w", err)
	}
	log.Info().Msg("Durable session state backed by Postgres")
	return adapter, nil
}

// buildBackend selects the OIDC backend when an issuer is configured,
// falling back to the in-memory reference stub.
func buildBackend(c config.Config) (session.Backend, error) {
	issuer := c.GetBackendIssuer()
	if issuer == "" {
		log.Info().Msg("No BACKEND_ISSUER configured, using reference stub backend")
		return backend.NewStub(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return backend.NewOAuth2(ctx, issuer, c.GetBackendClientID(), c.GetBackendClientSecret())
}

func routes(manager *session.Manager, authLogger *logging.Logger) http.Handler {
	guard := httpauth.NewGuard(manager, "/login", "/")
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST email/password form values", http.StatusMethodNotAllowed)
			return
		}
		user, err := manager.Login(r.Context(), session.Credentials{
			Email:      r.FormValue("email"),
			Password:   r.FormValue("password"),
			RememberMe: r.FormValue("remember") == "true",
		})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"code":    string(session.CodeOf(err)),
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	})

	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		manager.Logout()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("/session", guard.RequireAuth()(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user":          manager.CurrentUser(),
		})
	}))

	mux.HandleFunc("/logs", guard.RequireAuth()(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, authLogger.Recent(50))
	}))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
