package main

import (
	"log"
	"net/http"
	"os"

	appservice "github.com/ThomasKLA10/expense-app/internal/application/service"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/api"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/config"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/db"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/handler"
	applogger "github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/middleware"
	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := applogger.NewJSONLogger(os.Stdout, applogger.ParseLevel(cfg.LogLevel))
	applogger.SetDefaultLogger(appLog)

	appLog.Info("Starting expense report server", map[string]interface{}{
		"listen_addr": cfg.ListenAddr,
		"rate_api":    cfg.RateAPIBaseURL,
	})

	// Report archive
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		appLog.Fatal("Failed to create data directory", map[string]interface{}{"error": err.Error()})
	}

	badgerOpts := badger.DefaultOptions(cfg.DataDir)
	badgerOpts.Logger = nil

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		appLog.Fatal("Failed to open database", map[string]interface{}{"error": err.Error()})
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			appLog.Error("Error closing database", map[string]interface{}{"error": err.Error()})
		}
	}()

	reportRepo := db.NewBadgerReportRepository(badgerDB)

	// External collaborators
	rateProvider := api.NewFrankfurterClient(cfg.RateAPIBaseURL, nil, appLog)
	scanner := api.NewOCRClient(cfg.OCRURL, nil, appLog)
	sender := api.NewSubmitClient(cfg.SubmitURL, nil, appLog)

	// Engine
	draftService := appservice.NewDraftService(rateProvider, scanner, sender, reportRepo, appLog)

	// HTTP surface
	draftHandler := handler.NewDraftHandler(draftService, appLog)
	reportHandler := handler.NewReportHandler(reportRepo, appLog)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(appLog))
	draftHandler.RegisterRoutes(router)
	reportHandler.RegisterRoutes(router)

	appLog.Info("Server listening", map[string]interface{}{"addr": cfg.ListenAddr})
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		appLog.Fatal("Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
