package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mhidalgo/inboxq/internal/config"
	"github.com/mhidalgo/inboxq/internal/db"
	"github.com/mhidalgo/inboxq/internal/gateway"
	"github.com/mhidalgo/inboxq/internal/services"
	"github.com/mhidalgo/inboxq/internal/tui"
	"github.com/mhidalgo/inboxq/internal/version"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/inboxq/config.json)")
	serverFlag := flag.String("server", "", "Base URL of the email-assistant backend (overrides config)")
	userFlag := flag.String("user", "", "Account user ID (overrides config and stored identity)")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --user alice             # Run as a specific account\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --server http://host:5000 # Point at a different backend\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  INBOXQ_CONFIG      Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  INBOXQ_SERVER_URL  Override backend base URL (also read from .env)\n")
		fmt.Fprintf(os.Stderr, "  INBOXQ_USER        Override account user ID\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	// A .env next to the binary may carry the server URL, the way the web
	// client read its API URL from the environment
	_ = godotenv.Load()

	configPath := *configPathFlag
	if configPath == "" {
		configPath = os.Getenv("INBOXQ_CONFIG")
	}
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	} else if env := os.Getenv("INBOXQ_SERVER_URL"); env != "" {
		cfg.ServerURL = env
	}
	if cfg.ServerURL == "" {
		log.Fatal("Backend server URL is required. Provide it via --server, INBOXQ_SERVER_URL or the config file.")
	}

	ctx := context.Background()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	var store *db.Store
	if dbPath != "" {
		store, err = db.Open(ctx, dbPath)
		if err != nil {
			log.Printf("Warning: could not open local database: %v", err)
			store = nil
		}
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	logger, closeLogger := setupLogger(cfg)
	defer closeLogger()

	prefs := services.NewPrefsService(db.NewPrefsStore(store), logger)

	// Identity: flag, then env, then config, then the stored last identity
	userID := *userFlag
	if userID == "" {
		userID = os.Getenv("INBOXQ_USER")
	}
	if userID == "" {
		userID = cfg.UserID
	}
	if userID == "" {
		userID = prefs.LastUserID(ctx)
	}
	if userID == "" {
		log.Fatal("No account identity found. Provide one via --user, INBOXQ_USER or the config file.")
	}
	if err := prefs.SetLastUserID(ctx, userID); err != nil {
		log.Printf("Warning: could not persist user identity: %v", err)
	}

	client := gateway.NewClient(cfg.ServerURL)
	clock := services.RealClock{}

	accessSvc := services.NewAccessService(client, logger)
	historySvc := services.NewHistoryService(client, db.NewHistoryStore(store), logger)
	analyticsSvc := services.NewAnalyticsService()
	revealEngine := services.NewRevealEngine(clock, cfg.GetTypingInterval())
	sessionSvc := services.NewSessionService(client, accessSvc, historySvc, revealEngine, logger)
	syncSvc := services.NewSyncService(client, clock, logger)

	app := tui.NewApp(cfg, sessionSvc, historySvc, analyticsSvc, accessSvc, syncSvc, prefs)
	if err := app.Run(userID); err != nil {
		log.Fatalf("inboxq exited with error: %v", err)
	}
}

// setupLogger opens the file logger shared by the services and the UI
func setupLogger(cfg *config.Config) (*log.Logger, func()) {
	logPath := cfg.LogFile
	if logPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			logPath = filepath.Join(home, ".config", "inboxq", "inboxq.log")
		}
	}
	if logPath == "" {
		return nil, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, func() {}
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, func() {}
	}
	return log.New(f, "[inboxq] ", log.LstdFlags|log.Lmicroseconds), func() { _ = f.Close() }
}
