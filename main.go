package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codemuse/shopping-comparison/api"
	"github.com/codemuse/shopping-comparison/config"
	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/scrapers"
	"github.com/codemuse/shopping-comparison/scrapers/base"
	"github.com/codemuse/shopping-comparison/store"
)

func main() {
	config.LoadConfig()

	log := logger.New(config.LogLevel, config.PrettyLog)
	defer log.Sync()

	var st store.Store
	if config.MongoURI != "" {
		mongoStore, err := store.NewMongoStore(context.Background(), config.MongoURI)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", logger.Error(err))
		}
		st = mongoStore
		log.Info("using MongoDB store")
	} else {
		st = store.NewMemoryStore()
		log.Info("using in-memory store")
	}

	fetcher := base.NewFetcher(log, config.BrowserFallback)
	registry := scrapers.NewRegistry(fetcher, log)
	handler := api.NewHandler(st, registry, log)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      3 * time.Minute, // browser fetch fallbacks are slow
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", logger.String("port", config.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", logger.Error(err))
	}
	log.Info("server stopped")
}
