package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fleetline/rentassist/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for rentassist state data
	DefaultStateDir = "/var/lib/rentassist"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "rentassist.db"
	// DefaultAPIURL is the base URL client commands talk to
	DefaultAPIURL = "http://127.0.0.1:8080"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "rentassist",
	Short:   "Customer support response assistant for car rental agencies",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func main() {
	initializeLogger()
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// initializeLogger sets up structured logging; debug level is opt-in via env
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("RENTASSIST_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	APIURL      string
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    util.ParseStringEnv("RENTASSIST_STATE_DIR", DefaultStateDir),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		APIURL:      util.ParseStringEnv("RENTASSIST_API_URL", DefaultAPIURL),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"RENTASSIST_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr)

	return config
}
