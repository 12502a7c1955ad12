package main

import (
	"net/http"
	"os"
	"strings"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/db"
	"github.com/genn/painel-os/internal/env"
	"github.com/genn/painel-os/internal/logger"
	"github.com/genn/painel-os/internal/store"
)

func main() {
	appLogger := logger.New(os.Stderr, logger.LevelInfo)
	if err := env.Load(); err != nil {
		appLogger.Fatal("main", "failed to load .env: %v", err)
	}
	if level, err := logger.ParseLevel(env.GetString("LOG_LEVEL", "INFO")); err != nil {
		appLogger.Warn("main", "%v, keeping INFO", err)
	} else {
		appLogger.SetLogLevel(level)
	}

	cfg := config{
		addr: env.GetString("ADDR", ":8080"),
		db: dbConfig{
			addr:         env.GetString("DB_ADDR", ""),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 25),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 25),
			maxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		sheetsConfig:  env.GetString("SHEETS_CONFIG", "config/sheets.yaml"),
		datasetSource: env.GetString("DATASET_SOURCE", sourceSheet),
		fetchTimeout:  env.GetDuration("FETCH_TIMEOUT", defaultFetchTimeout),
		corsOrigins:   strings.Split(env.GetString("CORS_ALLOWED_ORIGINS", "*"), ","),
	}

	sheets, err := sheetcfg.Load(cfg.sheetsConfig)
	if err != nil {
		appLogger.Fatal("main", "%v", err)
	}
	appLogger.Info("main", "sheets loaded: count=%d path=%s", len(sheets.Sheets), cfg.sheetsConfig)

	app := &application{
		config: cfg,
		sheets: sheets,
		logger: appLogger,
	}

	if cfg.db.addr != "" {
		conn, err := db.New(
			cfg.db.addr,
			cfg.db.maxOpenConns,
			cfg.db.maxIdleConns,
			cfg.db.maxIdleTime)
		if err != nil {
			appLogger.Fatal("main", "%v", err)
		}
		defer conn.Close()
		appLogger.Info("main", "database connection pool established")
		app.store = *store.NewStorage(conn)
	}

	switch cfg.datasetSource {
	case sourceSheet:
		app.loader = sheetLoader{client: &http.Client{Timeout: cfg.fetchTimeout}}
	case sourceDB:
		if app.store.ServiceOrders == nil {
			appLogger.Fatal("main", "DATASET_SOURCE=db needs DB_ADDR")
		}
		app.loader = dbLoader{orders: app.store.ServiceOrders}
	default:
		appLogger.Fatal("main", "unknown DATASET_SOURCE %q (sheet or db)", cfg.datasetSource)
	}

	mux := app.mount()

	if err := app.run(mux); err != nil {
		appLogger.Fatal("main", "server stopped: %v", err)
	}
}
