package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/ratelimit"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/uploads"
	"github.com/erazemk/lostfound/internal/web"
)

func main() {
	fs := flag.NewFlagSet("lostfound", flag.ContinueOnError)

	var dbURL string
	fs.StringVar(&dbURL, "db", "", "")
	fs.StringVar(&dbURL, "d", "", "")

	var port int
	fs.IntVar(&port, "port", 0, "")
	fs.IntVar(&port, "p", 0, "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var envFile string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: lostfound [flags]

Flags:
  -d, -db <url>           database URL or SQLite path (default: $DATABASE_URL or lostfound.sqlite3)
  -p, -port <port>        listen port (default: $PORT or 5000)
  -l, -log <path>         log file path (default: $LOG_FILE, stdout/stderr only)
  -e, -env <path>         dotenv file to load (default: .env, ignored if missing)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if port != 0 {
		cfg.Port = port
	}
	if logPath != "" {
		cfg.LogFile = logPath
	}

	closeLog, err := setupLogger(cfg.LogFile, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", dbPath)

	// Without SECRET_KEY the signing secret is generated once and kept in the
	// database so sessions survive restarts.
	secret := cfg.SecretKey
	if secret == "" {
		secret, err = store.GetSessionSecret(context.Background(), database)
		if err != nil {
			return fmt.Errorf("loading session secret: %w", err)
		}
	}

	images, err := uploads.New(cfg.UploadFolder)
	if err != nil {
		return err
	}

	limiter, err := ratelimit.New(cfg.RedisURL, cfg.LoginRateLimit, time.Minute)
	if err != nil {
		return err
	}
	defer limiter.Close()
	if limiter == nil {
		slog.Warn("login rate limiting disabled", "reason", "REDIS_URL not set")
	}

	sessions := auth.NewSessions(secret, database)
	accountsSvc := &accounts.Service{DB: database, Hasher: auth.BcryptHasher{Cost: bcrypt.DefaultCost}, Images: images}
	catalogSvc := &catalog.Service{DB: database, Images: images}
	messagesSvc := &messaging.Service{DB: database}

	apiRouter := api.NewRouter(api.Deps{
		DB:       database,
		Accounts: accountsSvc,
		Catalog:  catalogSvc,
		Messages: messagesSvc,
		Sessions: sessions,
		Limiter:  limiter,
	})
	webRouter, err := web.NewRouter(&web.Server{
		Accounts:      accountsSvc,
		Catalog:       catalogSvc,
		Messages:      messagesSvc,
		Sessions:      sessions,
		Images:        images,
		Limiter:       limiter,
		MaxUploadSize: cfg.MaxUploadSize,
		SecureCookies: cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", webRouter)

	addr := ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
