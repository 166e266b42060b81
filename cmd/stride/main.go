package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stridecoach/stride/internal/api"
	"github.com/stridecoach/stride/internal/coach"
	"github.com/stridecoach/stride/internal/genai"
	"github.com/stridecoach/stride/internal/generation"
	"github.com/stridecoach/stride/internal/lockfile"
	"github.com/stridecoach/stride/internal/messaging"
	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/scheduler"
	"github.com/stridecoach/stride/internal/store"
	"github.com/stridecoach/stride/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Stride state data
	DefaultStateDir = "/var/lib/stride"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "stride.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
	// DefaultReminderCron fires the reflection-reminder sweep every evening at 18:00.
	DefaultReminderCron = "0 18 * * *"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	slog.Info("Bootstrapping Stride with configured modules")
	if err := run(flags); err != nil {
		slog.Error("Stride failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Stride exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	OpenAIKey       string
	GeminiKey       string
	APIAddr         string
	ReminderCron    string
	OrderGoals      string
	OrderTasks      string
	OrderReflection string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	openaiKey    *string
	geminiKey    *string
	apiAddr      *string
	reminderCron *string

	config Config
}

// initializeLogger sets up structured logging. Debug level is opt-in via
// STRIDE_DEBUG.
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)
}

func logLevel() slog.Level {
	if util.ParseBoolEnv("STRIDE_DEBUG", false) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("STRIDE_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		APIAddr:         os.Getenv("API_ADDR"),
		ReminderCron:    os.Getenv("REMINDER_SCHEDULE"),
		OrderGoals:      os.Getenv("GENAI_ORDER_GOALS"),
		OrderTasks:      os.Getenv("GENAI_ORDER_TASKS"),
		OrderReflection: os.Getenv("GENAI_ORDER_REFLECTION"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No STRIDE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}
	if config.ReminderCron == "" {
		config.ReminderCron = DefaultReminderCron
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"STRIDE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"API_ADDR", config.APIAddr,
		"REMINDER_SCHEDULE", config.ReminderCron)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for Stride data (overrides $STRIDE_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the store (overrides $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		geminiKey:    flag.String("gemini-api-key", config.GeminiKey, "Gemini API key (overrides $GEMINI_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		reminderCron: flag.String("reminder-cron", config.ReminderCron, "cron schedule for reflection reminders (overrides $REMINDER_SCHEDULE)"),
		config:       config,
	}

	flag.Parse()

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"geminiKeySet", *flags.geminiKey != "",
		"apiAddr", *flags.apiAddr,
		"reminderCron", *flags.reminderCron)

	return flags
}

// isPostgresDSN reports whether the DSN targets PostgreSQL rather than a
// SQLite file path.
func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=")
}

// openStore selects and opens the backing store from the DSN.
func openStore(dsn string) (store.Store, error) {
	if isPostgresDSN(dsn) {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildProviders constructs the provider clients that have credentials.
// A missing credential drops the provider from the chain rather than failing
// startup.
func buildProviders(ctx context.Context, flags Flags) map[string]genai.Provider {
	providers := make(map[string]genai.Provider)

	if *flags.openaiKey != "" {
		client, err := genai.NewOpenAIClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Warn("OpenAI client unavailable", "error", err)
		} else {
			providers[genai.ProviderNameOpenAI] = client
		}
	} else {
		slog.Debug("No OpenAI API key set, skipping OpenAI provider")
	}

	if *flags.geminiKey != "" {
		client, err := genai.NewGeminiClient(ctx, genai.WithAPIKey(*flags.geminiKey))
		if err != nil {
			slog.Warn("Gemini client unavailable", "error", err)
		} else {
			providers[genai.ProviderNameGemini] = client
		}
	} else {
		slog.Debug("No Gemini API key set, skipping Gemini provider")
	}

	return providers
}

// providerOrders reads the per-kind provider ordering overrides from the
// environment. Values are comma-separated provider names.
func providerOrders(config Config) map[models.GenerationKind][]string {
	orders := make(map[models.GenerationKind][]string)
	for kind, raw := range map[models.GenerationKind]string{
		models.KindGoals:      config.OrderGoals,
		models.KindTasks:      config.OrderTasks,
		models.KindReflection: config.OrderReflection,
	} {
		if raw == "" {
			continue
		}
		orders[kind] = strings.Split(raw, ",")
	}
	return orders
}

// buildSender constructs the reminder sender. Without Twilio credentials
// reminders are logged instead of delivered.
func buildSender() messaging.Sender {
	sender, err := messaging.NewTwilioSender()
	if err != nil {
		slog.Warn("Twilio sender unavailable, reminders will be logged only", "error", err)
		return messaging.NewLogSender()
	}
	return sender
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SQLite is single-writer; hold an exclusive lock on the state directory
	// so a second instance fails fast instead of corrupting the database.
	if !isPostgresDSN(*flags.dbDSN) {
		lock, err := lockfile.AcquireLock(filepath.Dir(*flags.dbDSN))
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	providers := buildProviders(ctx, flags)
	policy := generation.BuildPolicy(providers, providerOrders(flags.config))
	router := generation.NewRouter(generation.NewChain(policy))

	svc := coach.NewService(st, router, buildSender())

	// Durable background jobs: recover work orphaned by a previous crash, then
	// start polling.
	runner := store.NewJobRunner(st)
	svc.RegisterJobHandlers(runner)
	if err := runner.RecoverStaleJobs(); err != nil {
		slog.Warn("Failed to recover stale jobs", "error", err)
	}
	go runner.Run(ctx)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(*flags.reminderCron, func() {
		sent, err := svc.SweepReflectionReminders(ctx)
		if err != nil {
			slog.Error("Reflection reminder sweep failed", "error", err)
			return
		}
		slog.Info("Reflection reminder sweep complete", "sent", sent)
	}); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              *flags.apiAddr,
		Handler:           api.NewServer(svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
