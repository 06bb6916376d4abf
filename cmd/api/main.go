package main

import (
	"net/http"
	"os"

	"github.com/safar/commerce-admin/internal/ai"
	"github.com/safar/commerce-admin/internal/api"
	"github.com/safar/commerce-admin/internal/config"
	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/logger"
	"github.com/safar/commerce-admin/internal/ratelimit"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Error("connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connected")

	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	aiClient := ai.New(cfg.AI)

	router := api.NewRouter(db, limiter, cfg.RateLimit.ExemptPrefix, aiClient)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
