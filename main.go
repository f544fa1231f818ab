package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinespot/api"
	"cinespot/config"
	"cinespot/handlers"
	"cinespot/services/feedback"
	"cinespot/services/library"
	"cinespot/services/metadata"
	"cinespot/services/spotlight"
	"cinespot/services/suggest"
	"cinespot/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	if cfg.Log.File != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}))
	}

	libSvc, err := library.NewService(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("[main] library service: %v", err)
	}
	fbSvc, err := feedback.NewService(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("[main] feedback service: %v", err)
	}

	metaSvc := metadata.NewService(cfg.TMDB.APIKey, cfg.TMDB.Language, cfg.Storage.CacheDir, cfg.TMDB.CacheTTL)

	httpc := &http.Client{Timeout: cfg.Suggest.SourceTimeout}
	sources := []suggest.Source{
		suggest.NewOpenAISource(cfg.Suggest.OpenAIAPIKey, cfg.Suggest.OpenAIModel, httpc),
		suggest.NewGeminiSource(cfg.Suggest.GeminiAPIKey, cfg.Suggest.GeminiEnabled, httpc),
		suggest.NewLocalSource(),
	}
	chain := suggest.NewChain(cfg.Suggest.SourceTimeout, sources...)

	spotSvc := spotlight.NewService(metaSvc, libSvc, fbSvc, chain, cfg.Storage.CacheDir)

	spotHandler := handlers.NewSpotlightHandler(spotSvc, fbSvc)
	libHandler := handlers.NewLibraryHandler(libSvc, fbSvc)
	metaHandler := handlers.NewMetadataHandler(metaSvc)
	expandHandler := handlers.NewExpandHandler()

	r := utils.NewRouter()

	r.HandleFunc("/api/spotlight", spotHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/spotlight/recommendations/{id}", spotHandler.RemoveRecommendation).Methods(http.MethodDelete)
	r.HandleFunc("/api/spotlight/feedback", spotHandler.SubmitFeedback).Methods(http.MethodPost)

	// The expansion endpoint is cheap per call but unauthenticated; keep a
	// per-IP cap on it.
	expandLimiter := api.NewIPRateLimiter(rate.Every(time.Second), 10)
	r.HandleFunc("/api/local/expand", expandHandler.Ping).Methods(http.MethodGet)
	r.Handle("/api/local/expand", api.RateLimitHandlerFunc(expandLimiter, expandHandler.Expand)).Methods(http.MethodPost)

	r.HandleFunc("/api/library", libHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/api/library", libHandler.Add).Methods(http.MethodPost)
	r.HandleFunc("/api/library/feedback", libHandler.FeedbackMap).Methods(http.MethodGet)
	r.HandleFunc("/api/library/{id}", libHandler.Remove).Methods(http.MethodDelete)
	r.HandleFunc("/api/library/{id}/feedback", libHandler.UpdateFeedback).Methods(http.MethodPut)

	r.HandleFunc("/api/metadata/search", metaHandler.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/trending", metaHandler.Trending).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/top-rated", metaHandler.TopRated).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/upcoming", metaHandler.Upcoming).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/{mediaType}/{id}/similar", metaHandler.Similar).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/{mediaType}/{id}", metaHandler.Details).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
